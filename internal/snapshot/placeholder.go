package snapshot

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Placeholder marks a template field whose value is not compared, only its
// type. It is stored in the snapshot in place of the value.
type Placeholder string

const (
	AnyInt    Placeholder = "integer"
	AnyFloat  Placeholder = "float"
	AnyNumber Placeholder = "number"
	AnyString Placeholder = "string"
	AnyBool   Placeholder = "boolean"
	AnyTime   Placeholder = "timestamp"
	AnyUUID   Placeholder = "uuid"
	Anything  Placeholder = "anything"
)

// placeholderKey is the single key of the JSON object a placeholder is
// encoded as.
const placeholderKey = "$any"

var placeholders = map[Placeholder]bool{
	AnyInt: true, AnyFloat: true, AnyNumber: true, AnyString: true,
	AnyBool: true, AnyTime: true, AnyUUID: true, Anything: true,
}

// Valid reports whether p is a known placeholder kind.
func (p Placeholder) Valid() bool {
	return placeholders[p]
}

// String returns the string representation of the placeholder.
func (p Placeholder) String() string {
	return "any(" + string(p) + ")"
}

// MarshalJSON encodes the placeholder as {"$any": kind}.
func (p Placeholder) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{placeholderKey: string(p)})
}

// Matches reports whether v has the runtime type p stands for. Pointers are
// followed, and nil never matches.
func (p Placeholder) Matches(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return false
	}
	v = rv.Interface()

	if n, ok := v.(json.Number); ok {
		return p.matchesNumber(n)
	}

	switch p {
	case Anything:
		return true
	case AnyInt:
		return isInt(rv.Kind())
	case AnyFloat:
		return isFloat(rv.Kind())
	case AnyNumber:
		return isInt(rv.Kind()) || isFloat(rv.Kind())
	case AnyBool:
		return rv.Kind() == reflect.Bool
	case AnyString:
		_, isID := v.(uuid.UUID)
		return rv.Kind() == reflect.String && !isID
	case AnyTime:
		switch t := v.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339Nano, t)
			return err == nil
		}
		return false
	case AnyUUID:
		switch id := v.(type) {
		case uuid.UUID:
			return true
		case string:
			_, err := uuid.Parse(id)
			return err == nil
		}
		return false
	default:
		return false
	}
}

func (p Placeholder) matchesNumber(n json.Number) bool {
	switch p {
	case Anything, AnyNumber:
		return true
	case AnyInt:
		_, err := n.Int64()
		return err == nil
	case AnyFloat:
		_, err := n.Float64()
		return err == nil
	default:
		return false
	}
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
