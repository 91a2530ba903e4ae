// Package audit stamps creation and modification metadata on entities as
// they are saved. Fields opt in through the `repo` tag (`created`,
// `modified`, `createdby`, `modifiedby`) or by conventional names
// (CreatedAt, UpdatedAt, CreatedBy, UpdatedBy). Timestamps require a
// time.Time field, author stamps a string field; pointer variants of both
// are supported.
package audit

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/meta"
)

const (
	optCreated    = "created"
	optModified   = "modified"
	optCreatedBy  = "createdby"
	optModifiedBy = "modifiedby"
)

// AuditorFunc yields the current auditor, usually from context metadata.
type AuditorFunc func(ctx context.Context) (string, bool)

// Option configures a Handler.
type Option func(*settings)

type settings struct {
	now            func() time.Time
	auditor        AuditorFunc
	modifyOnCreate bool
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithAuditor overrides how the current auditor is resolved.
func WithAuditor(fn AuditorFunc) Option {
	return func(s *settings) { s.auditor = fn }
}

// WithModifyOnCreate controls whether creation also stamps the modified
// fields. Enabled by default.
func WithModifyOnCreate(enabled bool) Option {
	return func(s *settings) { s.modifyOnCreate = enabled }
}

// ContextAuditor resolves the auditor from the meta actor-id key.
func ContextAuditor(ctx context.Context) (string, bool) {
	actor, err := meta.ShouldGetMeta(ctx, meta.ActorID)
	if err != nil {
		return "", false
	}
	return actor, true
}

type stamp struct {
	index []int
	ptr   bool
}

// Handler stamps audit fields of T. It is immutable after construction and
// safe for concurrent use.
type Handler[T any] struct {
	settings
	createdAt  []stamp
	modifiedAt []stamp
	createdBy  []stamp
	modifiedBy []stamp
}

// NewHandler inspects T's audit fields. Tagged fields with an unsuitable
// type fail construction; conventional names with an unsuitable type are
// ignored.
func NewHandler[T any](opts ...Option) (*Handler[T], error) {
	h := &Handler[T]{
		settings: settings{
			now:            time.Now,
			auditor:        ContextAuditor,
			modifyOnCreate: true,
		},
	}
	for _, opt := range opts {
		opt(&h.settings)
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, errx.New(
			"audited type must be a struct",
			errx.WithCode(CodeUnauditableField),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"type": t.String()}),
		)
	}
	if err := h.scan(t, nil); err != nil {
		return nil, err
	}
	return h, nil
}

// Enabled reports whether T carries any audit field at all.
func (h *Handler[T]) Enabled() bool {
	return len(h.createdAt)+len(h.modifiedAt)+len(h.createdBy)+len(h.modifiedBy) > 0
}

// MarkCreated stamps creation fields, and modification fields too unless
// disabled. Nil entities are ignored.
func (h *Handler[T]) MarkCreated(ctx context.Context, e *T) {
	if e == nil {
		return
	}
	v := reflect.ValueOf(e).Elem()
	now := h.now()

	setTime(v, h.createdAt, now)
	if h.modifyOnCreate {
		setTime(v, h.modifiedAt, now)
	}

	if actor, ok := h.auditor(ctx); ok {
		setString(v, h.createdBy, actor)
		if h.modifyOnCreate {
			setString(v, h.modifiedBy, actor)
		}
	}
}

// MarkModified stamps modification fields only. Nil entities are ignored.
func (h *Handler[T]) MarkModified(ctx context.Context, e *T) {
	if e == nil {
		return
	}
	v := reflect.ValueOf(e).Elem()

	setTime(v, h.modifiedAt, h.now())
	if actor, ok := h.auditor(ctx); ok {
		setString(v, h.modifiedBy, actor)
	}
}

// scan walks value-struct embeds only, so stamping never needs to cross a
// nil pointer.
func (h *Handler[T]) scan(t reflect.Type, prefix []int) error {
	for i := range t.NumField() {
		f := t.Field(i)
		index := append(slices.Clone(prefix), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if err := h.scan(f.Type, index); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			continue
		}

		opt, tagged := auditOption(f)
		if opt == "" {
			continue
		}

		st := stamp{index: index, ptr: f.Type.Kind() == reflect.Pointer}
		ft := f.Type
		if st.ptr {
			ft = ft.Elem()
		}

		switch opt {
		case optCreated, optModified:
			if ft != timeType {
				if tagged {
					return badFieldErr(t, f, "time.Time")
				}
				continue
			}
			if opt == optCreated {
				h.createdAt = append(h.createdAt, st)
			} else {
				h.modifiedAt = append(h.modifiedAt, st)
			}
		case optCreatedBy, optModifiedBy:
			if ft.Kind() != reflect.String {
				if tagged {
					return badFieldErr(t, f, "string")
				}
				continue
			}
			if opt == optCreatedBy {
				h.createdBy = append(h.createdBy, st)
			} else {
				h.modifiedBy = append(h.modifiedBy, st)
			}
		}
	}
	return nil
}

func auditOption(f reflect.StructField) (string, bool) {
	if tag, ok := f.Tag.Lookup("repo"); ok {
		for _, part := range strings.Split(tag, ",") {
			switch part {
			case optCreated, optModified, optCreatedBy, optModifiedBy:
				return part, true
			}
		}
	}

	switch f.Name {
	case "CreatedAt":
		return optCreated, false
	case "UpdatedAt", "ModifiedAt":
		return optModified, false
	case "CreatedBy":
		return optCreatedBy, false
	case "UpdatedBy", "ModifiedBy":
		return optModifiedBy, false
	}
	return "", false
}

func badFieldErr(t reflect.Type, f reflect.StructField, want string) error {
	return errx.New(
		"audit field has unsuitable type",
		errx.WithCode(CodeUnauditableField),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{
			"type":  t.String(),
			"field": f.Name,
			"want":  want,
			"got":   f.Type.String(),
		}),
	)
}

func setTime(v reflect.Value, stamps []stamp, now time.Time) {
	for _, st := range stamps {
		field := v.FieldByIndex(st.index)
		if st.ptr {
			field.Set(reflect.ValueOf(&now))
			continue
		}
		field.Set(reflect.ValueOf(now))
	}
}

func setString(v reflect.Value, stamps []stamp, actor string) {
	for _, st := range stamps {
		field := v.FieldByIndex(st.index)
		if st.ptr {
			field.Set(reflect.ValueOf(&actor))
			continue
		}
		field.SetString(actor)
	}
}

var timeType = reflect.TypeOf(time.Time{})
