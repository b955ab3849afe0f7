package snapshot

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
)

// compare walks the stored snapshot and the actual tree side by side and
// returns the first difference. Placeholders in the stored snapshot only
// need a value of the right type.
func compare(actual, stored any, path string) *difference {
	if p, ok := stored.(Placeholder); ok {
		if !p.Matches(actual) {
			return diffAt(path, "expected %s, got %s", p, describe(actual))
		}
		return nil
	}

	if !isBranch(actual) && isBranch(stored) {
		c, err := canonical(actual)
		if err != nil {
			return diffAt(path, "%v", err)
		}
		actual = c
	}

	switch s := stored.(type) {
	case map[string]any:
		obj, ok := actual.(map[string]any)
		if !ok {
			return diffAt(path, "expected object, got %s", describe(actual))
		}
		for _, k := range sortedKeys(s) {
			v, present := obj[k]
			if !present {
				return diffAt(path+"."+k, "missing field")
			}
			if d := compare(v, s[k], path+"."+k); d != nil {
				return d
			}
		}
		for _, k := range sortedKeys(obj) {
			if _, known := s[k]; !known {
				return diffAt(path+"."+k, "unexpected field")
			}
		}
		return nil
	case []any:
		list, ok := actual.([]any)
		if !ok {
			return diffAt(path, "expected array, got %s", describe(actual))
		}
		if len(list) != len(s) {
			return diffAt(path, "expected %d elements, got %d", len(s), len(list))
		}
		for i := range s {
			if d := compare(list[i], s[i], fmt.Sprintf("%s[%d]", path, i)); d != nil {
				return d
			}
		}
		return nil
	default:
		c, err := canonical(actual)
		if err != nil {
			return diffAt(path, "%v", err)
		}
		if describe(c) != describe(stored) {
			return diffAt(path, "expected %s, got %s", describe(stored), describe(c))
		}
		if !cmp.Equal(c, stored) {
			return diffAt(path, "expected %v, got %v", stored, c)
		}
		return nil
	}
}

func isBranch(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
