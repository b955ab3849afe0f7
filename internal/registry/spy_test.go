package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpy_RecordsCallsAndResults(t *testing.T) {
	spy := NewSpy(func(args ...any) any { return 42 + args[0].(int) })

	f := spy.Fn()
	for _, x := range []int{0, 1} {
		f(x)
	}

	assert.Equal(t, 2, spy.CallCount())
	assert.Equal(t, 0, spy.Calls()[0][0])
	assert.Equal(t, 1, spy.Calls()[1][0])
	assert.Equal(t, 42, spy.Results()[0])
	assert.Equal(t, 43, spy.Results()[1])
	assert.True(t, spy.CalledWith(1))
	assert.False(t, spy.CalledWith(2))
}

func TestSpy_Callback(t *testing.T) {
	spy := NewSpy(nil)
	assert.False(t, spy.Called())

	cb := spy.Callback()
	cb()

	assert.True(t, spy.Called())
	assert.Equal(t, 1, spy.CallCount())
	assert.True(t, spy.CalledWith())
	assert.Equal(t, []any{nil}, spy.Results())
}

func TestSpy_CallsAreCopies(t *testing.T) {
	spy := NewSpy(nil)
	spy.Call("a")

	calls := spy.Calls()
	calls[0][0] = "mutated"

	assert.Equal(t, "a", spy.Calls()[0][0])
}

type ledgerEntry struct {
	id    int
	owner string
}

func TestSpy_CalledWithUnexportedFields(t *testing.T) {
	spy := NewSpy(nil)
	spy.Call(ledgerEntry{id: 1, owner: "jane"})

	assert.True(t, spy.CalledWith(ledgerEntry{id: 1, owner: "jane"}))
	assert.False(t, spy.CalledWith(ledgerEntry{id: 2, owner: "jane"}))
}
