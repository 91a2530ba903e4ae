// Package entity provides identifier introspection for domain types:
// which field is the id, whether an instance is new, and how to assign
// generated identifiers.
package entity

import (
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/google/uuid"
)

// Information describes how to read and write the identifier of entity T.
// Implementations must be safe for concurrent use.
type Information[T any, ID comparable] interface {
	// Name returns the entity name used in query keys and diagnostics.
	Name() string

	// DomainType returns the entity struct type.
	DomainType() reflect.Type

	// IDType returns the identifier type.
	IDType() reflect.Type

	// ID reads the identifier of e. The second result is false when the
	// identifier is unset (zero) or e is nil.
	ID(e *T) (ID, bool)

	// SetID writes the identifier of e.
	SetID(e *T, id ID) error

	// IsNew reports whether e has not been persisted yet.
	IsNew(e *T) bool

	// GenerateID produces a fresh identifier. The second result is false
	// when the identifier type does not support generation.
	GenerateID() (ID, bool)
}

// Reflective resolves the id field of T once at construction: the field
// tagged `repo:"id"` wins, otherwise the field named ID is used.
type Reflective[T any, ID comparable] struct {
	name    string
	idIndex []int
}

// NewReflective builds identifier introspection for T with identifier
// type ID. It fails when T has no resolvable id field or the field's
// type does not match ID.
func NewReflective[T any, ID comparable]() (*Reflective[T, ID], error) {
	domainType := reflect.TypeOf((*T)(nil)).Elem()
	if domainType.Kind() != reflect.Struct {
		return nil, errx.New(
			"entity type must be a struct",
			errx.WithCode(CodeEntityIDUnresolved),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"type": domainType.String()}),
		)
	}

	field, ok := findIDField(domainType)
	if !ok {
		return nil, errx.New(
			"entity has no id field",
			errx.WithCode(CodeEntityIDUnresolved),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"type": domainType.String()}),
		)
	}

	idType := reflect.TypeOf((*ID)(nil)).Elem()
	if field.Type != idType {
		return nil, errx.New(
			"entity id field type does not match declared id type",
			errx.WithCode(CodeEntityIDUnresolved),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{
				"type":       domainType.String(),
				"field":      field.Name,
				"field_type": field.Type.String(),
				"id_type":    idType.String(),
			}),
		)
	}

	return &Reflective[T, ID]{
		name:    domainType.Name(),
		idIndex: field.Index,
	}, nil
}

func (r *Reflective[T, ID]) Name() string {
	return r.name
}

func (r *Reflective[T, ID]) DomainType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (r *Reflective[T, ID]) IDType() reflect.Type {
	return reflect.TypeOf((*ID)(nil)).Elem()
}

func (r *Reflective[T, ID]) ID(e *T) (ID, bool) {
	var zero ID
	if e == nil {
		return zero, false
	}

	id := reflect.ValueOf(e).Elem().FieldByIndex(r.idIndex).Interface().(ID)
	return id, id != zero
}

func (r *Reflective[T, ID]) SetID(e *T, id ID) error {
	if e == nil {
		return errx.New(
			"cannot set id on nil entity",
			errx.WithCode(CodeEntityIDUnresolved),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"type": r.name}),
		)
	}

	reflect.ValueOf(e).Elem().FieldByIndex(r.idIndex).Set(reflect.ValueOf(id))
	return nil
}

func (r *Reflective[T, ID]) IsNew(e *T) bool {
	_, set := r.ID(e)
	return !set
}

func (r *Reflective[T, ID]) GenerateID() (ID, bool) {
	var zero ID
	switch any(zero).(type) {
	case string:
		return any(uuid.NewString()).(ID), true
	case uuid.UUID:
		return any(uuid.New()).(ID), true
	}
	return zero, false
}

func findIDField(t reflect.Type) (reflect.StructField, bool) {
	var fallback reflect.StructField
	var haveFallback bool

	for _, field := range reflect.VisibleFields(t) {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		if slices.Contains(strings.Split(field.Tag.Get("repo"), ","), "id") {
			return field, true
		}
		if field.Name == "ID" && !haveFallback {
			fallback = field
			haveFallback = true
		}
	}
	return fallback, haveFallback
}
