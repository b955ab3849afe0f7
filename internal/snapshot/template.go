package snapshot

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// Template selects the fields of a value that are matched by type only.
// Each entry is a Placeholder, a nested Template (or map[string]any), a
// []any indexed by position, or a literal the value must equal. Fields the
// template does not name are snapshotted as they are.
type Template map[string]any

// reduce returns a copy of tree with every placeholder position replaced by
// its Placeholder. It fails at the first template entry the value does not
// satisfy.
func reduce(tree any, tmpl any, path string) (any, *difference) {
	switch t := tmpl.(type) {
	case nil:
		return tree, nil
	case Placeholder:
		if !t.Valid() {
			return nil, diffAt(path, "unknown placeholder %q", string(t))
		}
		if !t.Matches(tree) {
			return nil, diffAt(path, "expected %s, got %s", t, describe(tree))
		}
		return t, nil
	case Template:
		return reduceObject(tree, t, path)
	case map[string]any:
		return reduceObject(tree, t, path)
	case []any:
		list, ok := tree.([]any)
		if !ok {
			return nil, diffAt(path, "expected array, got %s", describe(tree))
		}
		out := append([]any(nil), list...)
		for i, sub := range t {
			p := fmt.Sprintf("%s[%d]", path, i)
			if i >= len(list) {
				return nil, diffAt(p, "missing element")
			}
			v, d := reduce(list[i], sub, p)
			if d != nil {
				return nil, d
			}
			out[i] = v
		}
		return out, nil
	default:
		if !literalEqual(tree, t) {
			return nil, diffAt(path, "expected %v, got %v", t, tree)
		}
		return tree, nil
	}
}

func reduceObject(tree any, tmpl map[string]any, path string) (any, *difference) {
	obj, ok := tree.(map[string]any)
	if !ok {
		return nil, diffAt(path, "expected object, got %s", describe(tree))
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for _, k := range sortedKeys(tmpl) {
		p := path + "." + k
		v, present := obj[k]
		if !present {
			return nil, diffAt(p, "missing field")
		}
		r, d := reduce(v, tmpl[k], p)
		if d != nil {
			return nil, d
		}
		out[k] = r
	}
	return out, nil
}

// literalEqual compares two leaves by their JSON form, so 1, int64(1) and
// json.Number("1") are equal.
func literalEqual(a, b any) bool {
	ca, err := canonical(a)
	if err != nil {
		return false
	}
	cb, err := canonical(b)
	if err != nil {
		return false
	}
	return cmp.Equal(ca, cb)
}
