// Package projection copies entity values onto narrower view types.
// Target fields are filled from same-named source fields, converting
// scalars where the types differ. Fields without a source counterpart
// stay zero.
package projection

import (
	"reflect"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/spf13/cast"
)

// As projects source onto a new value of type P.
func As[P any](source any) (P, error) {
	var zero P

	out, err := Project(reflect.ValueOf(source), reflect.TypeOf(zero))
	if err != nil {
		return zero, err
	}
	return out.Interface().(P), nil
}

// Project builds a value of target type from the source value, matching
// struct fields by name. Both sides may be pointers.
func Project(source reflect.Value, target reflect.Type) (reflect.Value, error) {
	wantPtr := target.Kind() == reflect.Pointer
	structType := target
	if wantPtr {
		structType = target.Elem()
	}

	for source.Kind() == reflect.Pointer {
		if source.IsNil() {
			if wantPtr {
				return reflect.Zero(target), nil
			}
			return reflect.Value{}, errx.New(
				"cannot project nil source",
				errx.WithCode(CodeNotProjectable),
				errx.WithType(errx.T_Internal),
				errx.WithDetails(errx.D{"target": target.String()}),
			)
		}
		source = source.Elem()
	}

	if source.Kind() != reflect.Struct || structType.Kind() != reflect.Struct {
		return reflect.Value{}, errx.New(
			"projection requires struct source and target",
			errx.WithCode(CodeNotProjectable),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{
				"source": source.Type().String(),
				"target": target.String(),
			}),
		)
	}

	out := reflect.New(structType).Elem()
	for i := range structType.NumField() {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}

		src, ok := sourceField(source, field.Name)
		if !ok {
			continue
		}

		converted, err := ConvertValue(src, field.Type)
		if err != nil {
			return reflect.Value{}, errx.Wrap(err, errx.WithDetails(errx.D{
				"field":  field.Name,
				"target": target.String(),
			}))
		}
		out.Field(i).Set(converted)
	}

	if wantPtr {
		ptr := reflect.New(structType)
		ptr.Elem().Set(out)
		return ptr, nil
	}
	return out, nil
}

// ConvertValue converts source to the target type: direct assignment when
// possible, scalar coercion for strings/numbers/bools/time, element-wise
// conversion for slices and nested struct projection otherwise.
func ConvertValue(source reflect.Value, target reflect.Type) (reflect.Value, error) {
	if !source.IsValid() {
		return reflect.Zero(target), nil
	}

	if source.Type() == target {
		return source, nil
	}
	if source.Type().AssignableTo(target) {
		return source.Convert(target), nil
	}

	if source.Kind() == reflect.Pointer {
		if source.IsNil() {
			return reflect.Zero(target), nil
		}
		return ConvertValue(source.Elem(), target)
	}
	if target.Kind() == reflect.Pointer {
		inner, err := ConvertValue(source, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	}

	if source.Kind() == reflect.Slice && target.Kind() == reflect.Slice {
		out := reflect.MakeSlice(target, source.Len(), source.Len())
		for i := range source.Len() {
			conv, err := ConvertValue(source.Index(i), target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(conv)
		}
		return out, nil
	}

	if scalar, ok, err := convertScalar(source, target); ok || err != nil {
		return scalar, err
	}

	if source.Kind() == reflect.Struct && target.Kind() == reflect.Struct {
		return Project(source, target)
	}

	if source.Type().ConvertibleTo(target) {
		return source.Convert(target), nil
	}

	return reflect.Value{}, errx.New(
		"value is not convertible",
		errx.WithCode(CodeValueNotConvertible),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{
			"from": source.Type().String(),
			"to":   target.String(),
		}),
	)
}

func convertScalar(source reflect.Value, target reflect.Type) (reflect.Value, bool, error) {
	raw := source.Interface()

	switch target.Kind() {
	case reflect.String:
		if !scalarKind(source.Kind()) && source.Type() != timeType {
			return reflect.Value{}, false, nil
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return reflect.Value{}, false, wrapCastErr(err, source, target)
		}
		return reflect.ValueOf(s).Convert(target), true, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return reflect.Value{}, false, wrapCastErr(err, source, target)
		}
		return reflect.ValueOf(n).Convert(target), true, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(raw)
		if err != nil {
			return reflect.Value{}, false, wrapCastErr(err, source, target)
		}
		return reflect.ValueOf(n).Convert(target), true, nil

	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return reflect.Value{}, false, wrapCastErr(err, source, target)
		}
		return reflect.ValueOf(f).Convert(target), true, nil

	case reflect.Bool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return reflect.Value{}, false, wrapCastErr(err, source, target)
		}
		return reflect.ValueOf(b).Convert(target), true, nil
	}

	if target == timeType {
		t, err := cast.ToTimeE(raw)
		if err != nil {
			return reflect.Value{}, false, wrapCastErr(err, source, target)
		}
		return reflect.ValueOf(t), true, nil
	}

	return reflect.Value{}, false, nil
}

func scalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func wrapCastErr(err error, source reflect.Value, target reflect.Type) error {
	return errx.Wrap(err,
		errx.WithCode(CodeValueNotConvertible),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{
			"from": source.Type().String(),
			"to":   target.String(),
		}),
	)
}

func sourceField(source reflect.Value, name string) (reflect.Value, bool) {
	t := source.Type()
	if f, ok := t.FieldByName(name); ok && f.IsExported() {
		return source.FieldByIndex(f.Index), true
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return source.Field(i), true
		}
	}
	return reflect.Value{}, false
}

var timeType = reflect.TypeOf(time.Time{})
