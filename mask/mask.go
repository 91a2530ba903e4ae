// Package mask redacts sensitive values before they reach logs.
//
// Redaction is tag driven: struct fields carrying `mask:"true"` are
// replaced by a sentinel naming their kind, such as ***masked-string***.
// Field names follow the json tag, then the yaml tag, then the Go field
// name, and nested structs flatten into dotted keys.
package mask

import (
	"fmt"
	"reflect"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const tagName = "mask"

// StructToOrdMap flattens a struct into an insertion-ordered map of dotted
// field paths with tagged values redacted. It returns nil when v is not a
// struct or a pointer to one, so callers can branch on suitability.
func StructToOrdMap(v any) *orderedmap.OrderedMap[string, any] {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	om := orderedmap.New[string, any]()
	flatten(om, val, "")
	return om
}

// Args redacts a positional argument list for logging. Struct and
// pointer-to-struct arguments are replaced by their flattened masked form,
// everything else passes through unchanged.
func Args(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
		if om := StructToOrdMap(a); om != nil {
			out[i] = om
		}
	}
	return out
}

func flatten(om *orderedmap.OrderedMap[string, any], val reflect.Value, prefix string) {
	typ := val.Type()
	for i := range val.NumField() {
		field := val.Field(i)
		ft := typ.Field(i)
		if !ft.IsExported() {
			continue
		}

		name, skip := fieldName(ft)
		if skip {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		switch {
		case strings.EqualFold(ft.Tag.Get(tagName), "true"):
			om.Set(name, redact(field))
		case expandable(field):
			flatten(om, deref(field), name)
		default:
			om.Set(name, field.Interface())
		}
	}
}

func expandable(val reflect.Value) bool {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return false
		}
		val = val.Elem()
	}
	return val.Kind() == reflect.Struct
}

func deref(val reflect.Value) reflect.Value {
	if val.Kind() == reflect.Pointer {
		return val.Elem()
	}
	return val
}

// redact replaces a value with a sentinel naming its kind. Zero values stay
// visible since they carry no secret.
func redact(val reflect.Value) any {
	switch val.Kind() { //nolint:exhaustive // remaining kinds need no nil handling
	case reflect.Pointer, reflect.Interface:
		if val.IsNil() {
			return nil
		}
		return redact(val.Elem())
	case reflect.Slice, reflect.Map:
		if val.IsNil() {
			return nil
		}
	}

	if val.IsZero() {
		return val.Interface()
	}

	switch val.Kind() { //nolint:exhaustive // default covers remaining kinds
	case reflect.String:
		return "***masked-string***"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "***masked-int***"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "***masked-uint***"
	case reflect.Float32, reflect.Float64:
		return "***masked-float***"
	case reflect.Bool:
		return "***masked-bool***"
	case reflect.Struct:
		return "***masked-struct***"
	case reflect.Slice, reflect.Array:
		return "***masked-slice***"
	case reflect.Map:
		return "***masked-map***"
	default:
		return fmt.Sprintf("***masked-%s***", val.Kind())
	}
}

// fieldName resolves a field's log name from the json tag, then the yaml
// tag, then the Go field name. A "-" tag excludes the field.
func fieldName(field reflect.StructField) (string, bool) {
	for _, key := range []string{"json", "yaml"} {
		tag, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", true
		}
		if name != "" {
			return name, false
		}
	}
	return field.Name, false
}
