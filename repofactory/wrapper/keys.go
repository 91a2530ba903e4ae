package wrapper

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// keySeparator delimits cache key segments.
const keySeparator = "::"

// KeySerializer builds a stable cache key for one method call.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// defaultKeySerializer builds keys from reflected argument values. Pointers
// dereference, basic kinds print verbatim and composite kinds fall back to
// JSON, so keys stay stable across runs and processes.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer returns the serializer caching uses when none is
// supplied.
func NewDefaultKeySerializer() KeySerializer {
	return defaultKeySerializer{}
}

func (s defaultKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, a := range args {
		parts = append(parts, s.serialize(a))
	}
	return strings.Join(parts, keySeparator)
}

func (s defaultKeySerializer) serialize(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serialize(rv.Elem().Interface())

	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", v)

	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			return rv.Type().String()
		}
		return string(data)

	default:
		// Funcs, channels and the like carry no stable identity.
		return rv.Type().String()
	}
}
