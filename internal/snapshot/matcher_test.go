package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUser(id int, created time.Time) user {
	return user{ID: id, Name: "Jane", Age: 30, Location: "Lagos", CreatedAt: created}
}

var userTemplate = Template{"id": AnyInt, "createdAt": AnyTime}

func mismatch(t *testing.T, err error) *MismatchError {
	t.Helper()
	require.ErrorIs(t, err, ErrSnapshotMismatch)
	var me *MismatchError
	require.True(t, errors.As(err, &me))
	return me
}

func TestMatcher_FirstRunWritesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewMatcher(store, false, nil)

	err := m.Match(ctx, "createUser 1", newUser(7, time.Now()), userTemplate)
	require.NoError(t, err)

	stored, ok, err := store.Load(ctx, "createUser 1")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := Encode(stored)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": {"$any": "integer"},
		"name": "Jane",
		"age": 30,
		"location": "Lagos",
		"createdAt": {"$any": "timestamp"}
	}`, string(data))
}

func TestMatcher_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(nil, false, nil)
	u := newUser(7, time.Now())

	require.NoError(t, m.Match(ctx, "id", u, userTemplate))
	require.NoError(t, m.Match(ctx, "id", u, userTemplate))
}

func TestMatcher_PlaceholderFieldsIgnoreValue(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(nil, false, nil)

	require.NoError(t, m.Match(ctx, "id", newUser(7, time.Now()), userTemplate))
	assert.NoError(t, m.Match(ctx, "id", newUser(912, time.Now().Add(time.Hour)), userTemplate))
}

func TestMatcher_LiteralChangeIsMismatch(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(nil, false, nil)

	require.NoError(t, m.Match(ctx, "id", newUser(7, time.Now()), userTemplate))

	changed := newUser(7, time.Now())
	changed.Location = "Accra"
	me := mismatch(t, m.Match(ctx, "id", changed, userTemplate))
	assert.Equal(t, "id", me.Identity)
	assert.Equal(t, "$.location", me.Path)
	assert.Contains(t, me.Reason, "Lagos")
	assert.Contains(t, me.Reason, "Accra")
	assert.NotEmpty(t, me.Diff)
}

func TestMatcher_Mismatches(t *testing.T) {
	base := map[string]any{
		"id":    1,
		"tags":  []string{"a", "b"},
		"inner": map[string]any{"ok": true},
	}

	tests := []struct {
		name   string
		actual any
		path   string
		reason string
	}{
		{
			name:   "missing field",
			actual: map[string]any{"id": 1, "tags": []string{"a", "b"}},
			path:   "$.inner",
			reason: "missing field",
		},
		{
			name:   "extra field",
			actual: map[string]any{"id": 1, "tags": []string{"a", "b"}, "inner": map[string]any{"ok": true}, "more": 1},
			path:   "$.more",
			reason: "unexpected field",
		},
		{
			name:   "list length",
			actual: map[string]any{"id": 1, "tags": []string{"a"}, "inner": map[string]any{"ok": true}},
			path:   "$.tags",
			reason: "expected 2 elements, got 1",
		},
		{
			name:   "list element",
			actual: map[string]any{"id": 1, "tags": []string{"a", "c"}, "inner": map[string]any{"ok": true}},
			path:   "$.tags[1]",
			reason: "expected b, got c",
		},
		{
			name:   "type change",
			actual: map[string]any{"id": "1", "tags": []string{"a", "b"}, "inner": map[string]any{"ok": true}},
			path:   "$.id",
			reason: "expected number, got string",
		},
		{
			name:   "object replaced by scalar",
			actual: map[string]any{"id": 1, "tags": []string{"a", "b"}, "inner": "ok"},
			path:   "$.inner",
			reason: "expected object, got string",
		},
		{
			name:   "nested literal",
			actual: map[string]any{"id": 1, "tags": []string{"a", "b"}, "inner": map[string]any{"ok": false}},
			path:   "$.inner.ok",
			reason: "expected true, got false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := NewMatcher(nil, false, nil)
			require.NoError(t, m.Match(ctx, "x", base, nil))

			me := mismatch(t, m.Match(ctx, "x", tt.actual, nil))
			assert.Equal(t, tt.path, me.Path)
			assert.Equal(t, tt.reason, me.Reason)
		})
	}
}

func TestMatcher_NumbersCompareByValue(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(nil, false, nil)

	require.NoError(t, m.Match(ctx, "n", map[string]any{"score": 700}, nil))
	assert.NoError(t, m.Match(ctx, "n", map[string]int64{"score": 700}, nil))
	assert.NoError(t, m.Match(ctx, "n", struct {
		Score uint16 `json:"score"`
	}{700}, nil))
}

func TestMatcher_PlaceholderTypeChecked(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(nil, false, nil)
	require.NoError(t, m.Match(ctx, "u", newUser(1, time.Now()), userTemplate))

	bad := map[string]any{
		"id": "seven", "name": "Jane", "age": 30, "location": "Lagos", "createdAt": time.Now(),
	}
	me := mismatch(t, m.Match(ctx, "u", bad, nil))
	assert.Equal(t, "$.id", me.Path)
	assert.Equal(t, "expected any(integer), got string", me.Reason)
}

func TestMatcher_StoredTimestampAcceptsString(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(nil, false, nil)
	require.NoError(t, m.Match(ctx, "u", newUser(1, time.Now()), userTemplate))

	fromJSON := map[string]any{
		"id": 2, "name": "Jane", "age": 30, "location": "Lagos",
		"createdAt": "2024-01-02T03:04:05Z",
	}
	assert.NoError(t, m.Match(ctx, "u", fromJSON, nil))
}

func TestMatcher_TemplateRejectsOnFirstRun(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewMatcher(store, false, nil)

	tests := []struct {
		name   string
		actual any
		tmpl   Template
		path   string
	}{
		{"placeholder type", map[string]any{"id": "x"}, Template{"id": AnyInt}, "$.id"},
		{"missing templated field", map[string]any{}, Template{"id": AnyInt}, "$.id"},
		{"literal differs", map[string]any{"id": 1}, Template{"id": 2}, "$.id"},
		{"nested template", map[string]any{"meta": map[string]any{"at": 5}}, Template{"meta": Template{"at": AnyTime}}, "$.meta.at"},
		{"list template", map[string]any{"ids": []int{1}}, Template{"ids": []any{AnyInt, AnyInt}}, "$.ids[1]"},
		{"unknown placeholder", map[string]any{"id": 1}, Template{"id": Placeholder("color")}, "$.id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me := mismatch(t, m.Match(ctx, tt.name, tt.actual, tt.tmpl))
			assert.Equal(t, tt.path, me.Path)

			_, ok, err := store.Load(ctx, tt.name)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMatcher_NestedTemplates(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(nil, false, nil)

	type event struct {
		ID   uuid.UUID      `json:"id"`
		Tags []string       `json:"tags"`
		Meta map[string]any `json:"meta"`
	}
	tmpl := Template{
		"id":   AnyUUID,
		"meta": map[string]any{"at": AnyTime},
		"tags": []any{"fixed", AnyString},
	}

	first := event{ID: uuid.New(), Tags: []string{"fixed", "r1"}, Meta: map[string]any{"at": time.Now(), "n": 1}}
	require.NoError(t, m.Match(ctx, "event", first, tmpl))

	second := event{ID: uuid.New(), Tags: []string{"fixed", "r2"}, Meta: map[string]any{"at": time.Now(), "n": 1}}
	assert.NoError(t, m.Match(ctx, "event", second, tmpl))
}

func TestMatcher_UpdateMode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, NewMatcher(store, false, nil).Match(ctx, "s", map[string]any{"v": 1}, nil))

	updating := NewMatcher(store, true, nil)
	require.NoError(t, updating.Match(ctx, "s", map[string]any{"v": 2}, nil))

	strict := NewMatcher(store, false, nil)
	assert.NoError(t, strict.Match(ctx, "s", map[string]any{"v": 2}, nil))
	mismatch(t, strict.Match(ctx, "s", map[string]any{"v": 1}, nil))
}

func TestMatcher_EmptyIdentity(t *testing.T) {
	m := NewMatcher(nil, false, nil)
	assert.ErrorIs(t, m.Match(context.Background(), "", 1, nil), ErrEmptyIdentity)
}

func TestMatcher_UnsupportedValue(t *testing.T) {
	m := NewMatcher(nil, false, nil)
	err := m.Match(context.Background(), "ch", map[string]any{"c": make(chan int)}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestMatcher_ScalarSnapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(nil, false, nil)

	require.NoError(t, m.Match(ctx, "score", 700, nil))
	assert.NoError(t, m.Match(ctx, "score", 700, nil))
	me := mismatch(t, m.Match(ctx, "score", 650, nil))
	assert.Equal(t, "$", me.Path)

	require.NoError(t, m.Match(ctx, "null", nil, nil))
	assert.NoError(t, m.Match(ctx, "null", nil, nil))
}

func BenchmarkMatcher_Match(b *testing.B) {
	ctx := context.Background()
	m := NewMatcher(nil, false, nil)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := m.Match(ctx, "bench 1", newUser(1, created), userTemplate); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.Match(ctx, "bench 1", newUser(i%1000, created), userTemplate); err != nil {
			b.Fatal(err)
		}
	}
}
