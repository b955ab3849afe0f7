package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RevivesPlaceholders(t *testing.T) {
	tree, err := Decode([]byte(`{
		"id": {"$any": "integer"},
		"tags": [{"$any": "string"}, "x"],
		"both": {"$any": "string", "other": 1},
		"score": 1.50
	}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"id":    AnyInt,
		"tags":  []any{AnyString, "x"},
		"both":  map[string]any{"$any": "string", "other": json.Number("1")},
		"score": json.Number("1.50"),
	}, tree)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{"id":`))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	_, err = Decode([]byte(`{"id": {"$any": "color"}}`))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	_, err = Decode([]byte(`[{"$any": 3}]`))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestEncode_RoundTripsPlaceholders(t *testing.T) {
	in := map[string]any{"at": AnyTime, "n": json.Number("3")}

	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
