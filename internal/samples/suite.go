package samples

import (
	"errors"
	"fmt"

	"github.com/gourl/asyncharness/internal/deferred"
	"github.com/gourl/asyncharness/internal/harness"
	"github.com/gourl/asyncharness/internal/registry"
	"github.com/gourl/asyncharness/internal/snapshot"
)

// ErrNetwork is the failure the user API fake rejects with.
var ErrNetwork = errors.New("Network error")

// Suite returns the built-in tests for the sample business logic.
func Suite() []harness.Test {
	return []harness.Test{
		{Name: "timerGame calls the callback after 1 second", Run: timerGameAdvance},
		{Name: "timerGame calls the callback with runAllTimers", Run: timerGameRunAll},
		{Name: "the data is peanut butter", Run: fetchDataResolves},
		{Name: "the fetch fails with an error", Run: fetchDataRejects},
		{Name: "fetchUser transforms the user name to uppercase", Run: fetchUserUpperCases},
		{Name: "fetchUser handles errors", Run: fetchUserPassesRejection},
		{Name: "fetchUser waits for the network", Run: fetchUserWaits},
		{Name: "forEach mock function", Run: forEachSpy},
		{Name: "getCreditScore gives a base score for a standard customer", Run: creditScoreStandard},
		{Name: "getCreditScore penalizes customers with bad standing", Run: creditScoreBadStanding},
		{Name: "getCreditScore rewards high income and age", Run: creditScoreBonuses},
		{Name: "createUser returns a consistent user object structure", Run: createUserSnapshot},
	}
}

func timerGameAdvance(env *harness.Env) error {
	spy := registry.NewSpy(nil)
	if _, err := TimerGame(env.Clock, env.Logger, spy.Callback()); err != nil {
		return err
	}

	env.Recorder.Assert(!spy.Called(), "callback ran before any time passed")
	if err := env.Clock.AdvanceBy(TimerGameDelay - 1); err != nil {
		return err
	}
	env.Recorder.Assert(!spy.Called(), "callback ran early at tick %d", env.Clock.Now())
	if err := env.Clock.AdvanceBy(1); err != nil {
		return err
	}
	env.Recorder.Equal(1, spy.CallCount())
	return nil
}

func timerGameRunAll(env *harness.Env) error {
	spy := registry.NewSpy(nil)
	if _, err := TimerGame(env.Clock, env.Logger, spy.Callback()); err != nil {
		return err
	}

	env.Recorder.Assert(!spy.Called(), "callback ran before any time passed")
	if err := env.Clock.RunAll(); err != nil {
		return err
	}
	env.Recorder.Equal(1, spy.CallCount())
	env.Recorder.Equal(int64(TimerGameDelay), env.Clock.Now())
	return nil
}

func fetchDataResolves(env *harness.Env) error {
	d := FetchData(env.Clock, false)
	if err := env.Clock.AdvanceBy(FetchDelay); err != nil {
		return err
	}
	data, err := d.Await()
	if err != nil {
		return err
	}
	env.Recorder.Equal("peanut butter", data)
	return nil
}

func fetchDataRejects(env *harness.Env) error {
	env.Recorder.ExpectAssertions(1)
	deferred.Catch(FetchData(env.Clock, true), func(err error) (string, error) {
		env.Recorder.ErrorIs(err, ErrFetch)
		return "", nil
	})
	return env.Clock.RunAll()
}

func fetchUserUpperCases(env *harness.Env) error {
	env.Deps.Register(FetchUserDependency, registry.Returns(User{ID: 1, Name: "jane doe"}))

	user, err := FetchUser(RegistryUserAPI{Deps: env.Deps}, 1).Await()
	if err != nil {
		return err
	}
	env.Recorder.Equal(User{ID: 1, Name: "JANE DOE"}, user)

	args, err := env.Deps.CallArgs(FetchUserDependency, 0)
	if err != nil {
		return err
	}
	env.Recorder.Equal([]any{1}, args)

	count, err := env.Deps.CallCount(FetchUserDependency)
	if err != nil {
		return err
	}
	env.Recorder.Equal(1, count)
	return nil
}

func fetchUserPassesRejection(env *harness.Env) error {
	env.Deps.Register(FetchUserDependency, registry.Fails(ErrNetwork))

	d := FetchUser(RegistryUserAPI{Deps: env.Deps}, 1)
	env.Recorder.Equal(deferred.Rejected, d.State())
	_, err := d.Await()
	env.Recorder.Assert(err == ErrNetwork, "expected the API error unchanged, got %v", err)
	return nil
}

func fetchUserWaits(env *harness.Env) error {
	d := harness.Observe(env.Recorder, FetchUser(ClockUserAPI{Clock: env.Clock}, 7))
	if err := env.Clock.AdvanceBy(UserLatency - 1); err != nil {
		return err
	}
	env.Recorder.Equal(deferred.Pending, d.State())

	if err := env.Clock.AdvanceToNext(); err != nil {
		return err
	}
	env.Recorder.Equal([]any{User{ID: 7, Name: "JOHN DOE"}}, env.Recorder.Values())
	return nil
}

func forEachSpy(env *harness.Env) error {
	spy := registry.NewSpy(func(args ...any) any { return 42 + args[0].(int) })
	ForEach([]int{0, 1}, func(x int) any { return spy.Call(x) })

	calls := spy.Calls()
	env.Recorder.Equal(2, len(calls))
	env.Recorder.Equal(0, calls[0][0])
	env.Recorder.Equal(1, calls[1][0])
	env.Recorder.Equal(42, spy.Results()[0])
	return nil
}

func creditScoreStandard(env *harness.Env) error {
	score := CreditScore(Customer{Income: 40000, HasGoodStanding: true, Age: 45})
	env.Recorder.Equal(600, score)
	return nil
}

func creditScoreBadStanding(env *harness.Env) error {
	score := CreditScore(Customer{Income: 40000, HasGoodStanding: false, Age: 45})
	env.Recorder.Equal(300, score)
	return nil
}

func creditScoreBonuses(env *harness.Env) error {
	tests := []struct {
		customer Customer
		want     int
	}{
		{Customer{Income: 50000, HasGoodStanding: true, Age: 60}, 600},
		{Customer{Income: 50001, HasGoodStanding: true, Age: 45}, 700},
		{Customer{Income: 40000, HasGoodStanding: true, Age: 61}, 650},
		{Customer{Income: 90000, HasGoodStanding: false, Age: 70}, 450},
	}
	for _, tt := range tests {
		got := CreditScore(tt.customer)
		env.Recorder.Assert(got == tt.want, "%+v: want %d, got %d", tt.customer, tt.want, got)
	}
	return nil
}

func createUserSnapshot(env *harness.Env) error {
	user := CreateUser("Bob", 25, "London")
	err := env.MatchSnapshot(user, snapshot.Template{
		"createdAt": snapshot.AnyTime,
		"id":        snapshot.AnyInt,
	})
	if err != nil {
		return fmt.Errorf("createUser: %w", err)
	}
	return nil
}
