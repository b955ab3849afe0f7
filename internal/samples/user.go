// Package samples holds small pieces of business logic with asynchronous,
// time-dependent or external behavior, and the harness tests that cover
// them.
package samples

import (
	"strings"

	"github.com/gourl/asyncharness/internal/deferred"
	"github.com/gourl/asyncharness/internal/registry"
	"github.com/gourl/asyncharness/internal/vclock"
)

// FetchUserDependency is the registry name of the user API's fetch call.
const FetchUserDependency = "fetchUser"

// UserLatency is how long ClockUserAPI takes to answer, in ticks.
const UserLatency = 500

// User is a record returned by the user API.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UserAPI fetches users from an external service.
type UserAPI interface {
	Fetch(id int) *deferred.Deferred[User]
}

// ClockUserAPI simulates the network with a delay on a virtual clock.
type ClockUserAPI struct {
	Clock *vclock.Clock
}

func (a ClockUserAPI) Fetch(id int) *deferred.Deferred[User] {
	d := deferred.New[User]()
	if _, err := a.Clock.Schedule(UserLatency, func() {
		_ = d.Resolve(User{ID: id, Name: "John Doe"})
	}); err != nil {
		return deferred.Failed[User](err)
	}
	return d
}

// RegistryUserAPI answers from whatever fake is registered under
// FetchUserDependency.
type RegistryUserAPI struct {
	Deps *registry.Registry
}

func (a RegistryUserAPI) Fetch(id int) *deferred.Deferred[User] {
	return registry.Typed[User](a.Deps, FetchUserDependency)(id)
}

// FetchUser fetches a user and upper-cases its name. Rejections from the
// API pass through unchanged.
func FetchUser(api UserAPI, id int) *deferred.Deferred[User] {
	return deferred.Map(api.Fetch(id), func(u User) User {
		u.Name = strings.ToUpper(u.Name)
		return u
	})
}
