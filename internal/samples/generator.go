package samples

import (
	"math/rand/v2"
	"time"
)

// GeneratedUser is the record built by CreateUser. CreatedAt and ID differ
// on every call.
type GeneratedUser struct {
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
	ID        int       `json:"id"`
}

// CreateUser builds a user stamped with the current time and a random ID
// below 1000.
func CreateUser(name string, age int, location string) GeneratedUser {
	return GeneratedUser{
		Name:      name,
		Age:       age,
		Location:  location,
		CreatedAt: time.Now(),
		ID:        rand.IntN(1000),
	}
}
