// Package sorter provides utilities for parsing and working with sorting options.
// It supports parsing sorting strings (e.g., "name:asc,created_at:desc") into structured
// sorting options, converting them into SQL-compatible order clauses, and building
// comparators that order in-memory values by struct field.
package sorter

import (
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/code19m/errx"
)

type (
	SortOpts []Opt

	SortDirection string
)

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"

	// expectedPartsCount is the expected number of parts in a sort option (field:direction).
	expectedPartsCount = 2
)

// MakeFromStr parses a sorting string (e.g., "name:asc,created_at:desc") into a slice of Opt.
// It filters out invalid or disallowed fields and directions, ensuring only valid options are returned.
// The allowedFields parameter specifies the list of fields that are permitted for sorting.
func MakeFromStr(sortString string, allowedFields ...string) SortOpts {
	if sortString == "" {
		return nil
	}

	var options []Opt
	pairs := strings.SplitSeq(sortString, ",")
	for pair := range pairs {
		parts := strings.Split(pair, ":")
		if len(parts) != expectedPartsCount {
			continue
		}

		key := strings.TrimSpace(parts[0])
		if !slices.Contains(allowedFields, key) {
			continue
		}

		direction := strings.ToLower(strings.TrimSpace(parts[1]))
		if direction != string(Asc) && direction != string(Desc) {
			continue
		}

		options = append(options, Opt{
			F: key,
			D: SortDirection(direction),
		})
	}

	return options
}

// Make creates a slice of Opt from a variadic list of Opt.
// It is a convenience function for creating a slice of sorting options
// without manually initializing a slice.
func Make(sortOptions ...Opt) SortOpts {
	return sortOptions
}

// Opt represents a single sorting option, consisting of a field and a direction.
type Opt struct {
	F string        // F is the field to sort by.
	D SortDirection // D is the sorting direction (asc or desc).
}

// ToSQL converts an Opt into an SQL-compatible clause (e.g., "name ASC").
func (o Opt) ToSQL() string {
	return o.F + " " + string(o.D)
}

// Comparator builds a comparison function ordering values of struct type t
// by the sort options, applied in order. Field names are resolved against
// the exact struct field name first, then the json tag, then a
// case-insensitive match.
func (s SortOpts) Comparator(t reflect.Type) (func(a, b reflect.Value) int, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errx.New(
			"sorting requires a struct type",
			errx.WithCode(CodeUnsortableType),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"type": t.String()}),
		)
	}

	type fieldOrder struct {
		index []int
		desc  bool
	}

	orders := make([]fieldOrder, 0, len(s))
	for _, opt := range s {
		field, ok := resolveField(t, opt.F)
		if !ok {
			return nil, errx.New(
				"unknown sort field",
				errx.WithCode(CodeInvalidSortField),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{"field": opt.F, "type": t.String()}),
			)
		}
		if !orderableKind(field.Type) {
			return nil, errx.New(
				"sort field is not orderable",
				errx.WithCode(CodeUnsortableType),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{"field": opt.F, "field_type": field.Type.String()}),
			)
		}
		orders = append(orders, fieldOrder{index: field.Index, desc: opt.D == Desc})
	}

	return func(a, b reflect.Value) int {
		if a.Kind() == reflect.Pointer {
			a = a.Elem()
		}
		if b.Kind() == reflect.Pointer {
			b = b.Elem()
		}
		for _, o := range orders {
			c := compareValues(a.FieldByIndex(o.index), b.FieldByIndex(o.index))
			if c == 0 {
				continue
			}
			if o.desc {
				return -c
			}
			return c
		}
		return 0
	}, nil
}

// Apply stable-sorts items in place by the sort options. Passing no options
// leaves the slice untouched.
func Apply[T any](items []T, s SortOpts) error {
	if len(s) == 0 || len(items) < 2 {
		return nil
	}

	cmp, err := s.Comparator(reflect.TypeOf(items).Elem())
	if err != nil {
		return err
	}

	slices.SortStableFunc(items, func(a, b T) int {
		return cmp(reflect.ValueOf(a), reflect.ValueOf(b))
	})
	return nil
}

func resolveField(t reflect.Type, name string) (reflect.StructField, bool) {
	if f, ok := t.FieldByName(name); ok && f.IsExported() {
		return f, true
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == name {
			return f, true
		}
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func orderableKind(t reflect.Type) bool {
	if t == reflect.TypeOf(time.Time{}) {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func compareValues(a, b reflect.Value) int {
	if a.Type() == reflect.TypeOf(time.Time{}) {
		at, bt := a.Interface().(time.Time), b.Interface().(time.Time)
		return at.Compare(bt)
	}

	switch a.Kind() {
	case reflect.String:
		return strings.Compare(a.String(), b.String())
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0
		case b.Bool():
			return -1
		default:
			return 1
		}
	case reflect.Float32, reflect.Float64:
		switch {
		case a.Float() < b.Float():
			return -1
		case a.Float() > b.Float():
			return 1
		default:
			return 0
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch {
		case a.Int() < b.Int():
			return -1
		case a.Int() > b.Int():
			return 1
		default:
			return 0
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch {
		case a.Uint() < b.Uint():
			return -1
		case a.Uint() > b.Uint():
			return 1
		default:
			return 0
		}
	}
	return 0
}
