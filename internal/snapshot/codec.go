package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serialises a snapshot tree. Placeholders become {"$any": kind}.
func Encode(tree any) ([]byte, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return data, nil
}

// Decode parses an encoded snapshot tree, keeping numbers as json.Number
// and turning placeholder objects back into Placeholder values.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return revive(tree)
}

func revive(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if kind, ok := t[placeholderKey]; ok && len(t) == 1 {
			s, _ := kind.(string)
			p := Placeholder(s)
			if !p.Valid() {
				return nil, fmt.Errorf("%w: unknown placeholder %v", ErrCorruptSnapshot, kind)
			}
			return p, nil
		}
		for k, sub := range t {
			r, err := revive(sub)
			if err != nil {
				return nil, err
			}
			t[k] = r
		}
		return t, nil
	case []any:
		for i, sub := range t {
			r, err := revive(sub)
			if err != nil {
				return nil, err
			}
			t[i] = r
		}
		return t, nil
	default:
		return v, nil
	}
}

// normalize returns tree in the form it reads back from a store.
func normalize(tree any) (any, error) {
	data, err := Encode(tree)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
