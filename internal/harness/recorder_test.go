package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gourl/asyncharness/internal/deferred"
)

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder()

	ok := deferred.New[string]()
	bad := deferred.New[string]()
	Observe(r, ok)
	Observe(r, bad)
	assert.Empty(t, r.Values())
	assert.Empty(t, r.Errors())

	boom := errors.New("boom")
	require.NoError(t, bad.Reject(boom))
	require.NoError(t, ok.Resolve("peanut butter"))

	assert.Equal(t, []any{"peanut butter"}, r.Values())
	assert.Equal(t, []error{boom}, r.Errors())
	assert.True(t, bad.Handled())
}

func TestRecorder_ObserveSettled(t *testing.T) {
	r := NewRecorder()
	Observe(r, deferred.Resolved(1))
	assert.Equal(t, []any{1}, r.Values())
}

func TestRecorder_Assertions(t *testing.T) {
	r := NewRecorder()

	assert.True(t, r.Assert(true, "unused"))
	assert.True(t, r.Equal(map[string]int{"a": 1}, map[string]int{"a": 1}))
	assert.True(t, r.ErrorIs(deferred.ErrPending, deferred.ErrPending))
	assert.Equal(t, 3, r.Assertions())
	assert.NoError(t, r.Verify())

	assert.False(t, r.Assert(false, "score was %d", 650))
	assert.False(t, r.Equal("JANE DOE", "jane doe"))
	assert.False(t, r.ErrorIs(errors.New("other"), deferred.ErrPending))

	failures := r.Failures()
	require.Len(t, failures, 3)
	assert.EqualError(t, failures[0], "assertion failed: score was 650")
	assert.Contains(t, failures[1].Error(), "-want +got")

	err := r.Verify()
	assert.ErrorIs(t, err, ErrAssertion)
	assert.Contains(t, err.Error(), "score was 650")
}

func TestRecorder_ExpectAssertions(t *testing.T) {
	tests := []struct {
		name     string
		expected int
		run      int
		wantErr  bool
	}{
		{"exact", 1, 1, false},
		{"too few", 2, 1, true},
		{"too many", 0, 1, true},
		{"zero expected and none run", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecorder()
			r.ExpectAssertions(tt.expected)
			for i := 0; i < tt.run; i++ {
				r.Assert(true, "ok")
			}
			err := r.Verify()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAssertion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type account struct {
	id      int
	balance int
}

func TestRecorder_EqualUnexportedFields(t *testing.T) {
	r := NewRecorder()

	assert.True(t, r.Equal(account{id: 1, balance: 600}, account{id: 1, balance: 600}))
	assert.False(t, r.Equal(account{id: 1, balance: 600}, account{id: 1, balance: 300}))

	failures := r.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ErrAssertion)
	assert.Contains(t, failures[0].Error(), "balance")
}

func TestRunner_UnexportedMismatchIsFail(t *testing.T) {
	res := runOne(t, Test{Name: "unexported", Run: func(env *Env) error {
		env.Recorder.Equal(account{id: 1}, account{id: 2})
		return nil
	}})
	assert.Equal(t, Fail, res.Status)
	assert.ErrorIs(t, res.Err, ErrAssertion)
}
