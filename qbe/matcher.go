package qbe

import (
	"reflect"
	"strings"
	"time"
)

// StringMode selects how string fields of the probe are compared.
type StringMode string

const (
	StringExact      StringMode = "exact"
	StringPrefix     StringMode = "prefix"
	StringSuffix     StringMode = "suffix"
	StringContaining StringMode = "containing"
)

// Matcher holds the comparison rules applied to probe fields.
// Zero-valued probe fields are skipped unless zero values are included,
// mirroring the convention that an unset probe field means "any".
type Matcher struct {
	matchAny    bool
	defaultMode StringMode
	ignoreCase  bool
	includeZero bool
	ignored     map[string]struct{}
	fieldModes  map[string]StringMode
}

type MatcherOption func(*Matcher)

// MatchingAny makes the example match when any considered field matches,
// instead of requiring all of them.
func MatchingAny() MatcherOption {
	return func(m *Matcher) {
		m.matchAny = true
	}
}

// WithStringMode sets the default comparison mode for string fields.
func WithStringMode(mode StringMode) MatcherOption {
	return func(m *Matcher) {
		m.defaultMode = mode
	}
}

// WithFieldMode overrides the string mode for one field path (e.g. "Name"
// or "Address.City").
func WithFieldMode(path string, mode StringMode) MatcherOption {
	return func(m *Matcher) {
		m.fieldModes[path] = mode
	}
}

// WithIgnoreCase makes string comparisons case insensitive.
func WithIgnoreCase() MatcherOption {
	return func(m *Matcher) {
		m.ignoreCase = true
	}
}

// WithIgnoredFields excludes the given field paths from matching.
func WithIgnoredFields(paths ...string) MatcherOption {
	return func(m *Matcher) {
		for _, p := range paths {
			m.ignored[p] = struct{}{}
		}
	}
}

// WithIncludeZero makes zero-valued probe fields participate in matching
// instead of being treated as unset.
func WithIncludeZero() MatcherOption {
	return func(m *Matcher) {
		m.includeZero = true
	}
}

// NewMatcher builds a matcher with exact, case sensitive, all-fields-must-match
// defaults.
func NewMatcher(opts ...MatcherOption) Matcher {
	m := Matcher{
		defaultMode: StringExact,
		ignored:     map[string]struct{}{},
		fieldModes:  map[string]StringMode{},
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Matcher) matches(probe, candidate any) bool {
	pv := reflect.ValueOf(probe)
	cv := reflect.ValueOf(candidate)
	for pv.Kind() == reflect.Pointer {
		if pv.IsNil() {
			return true
		}
		pv = pv.Elem()
	}
	for cv.Kind() == reflect.Pointer {
		if cv.IsNil() {
			return false
		}
		cv = cv.Elem()
	}
	if pv.Kind() != reflect.Struct || cv.Type() != pv.Type() {
		return false
	}

	matched, considered := m.matchStruct(pv, cv, "")
	if considered == 0 {
		return true
	}
	if m.matchAny {
		return matched > 0
	}
	return matched == considered
}

func (m Matcher) matchStruct(probe, candidate reflect.Value, prefix string) (matched, considered int) {
	t := probe.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		if _, skip := m.ignored[path]; skip {
			continue
		}

		pf := probe.Field(i)
		cf := candidate.Field(i)

		if pf.Kind() == reflect.Pointer {
			if pf.IsNil() {
				continue
			}
			if cf.IsNil() {
				considered++
				continue
			}
			pf = pf.Elem()
			cf = cf.Elem()
		} else if pf.IsZero() && !m.includeZero {
			continue
		}

		if pf.Kind() == reflect.Struct && pf.Type() != timeType {
			sm, sc := m.matchStruct(pf, cf, path)
			matched += sm
			considered += sc
			continue
		}

		considered++
		if m.matchField(path, pf, cf) {
			matched++
		}
	}
	return matched, considered
}

func (m Matcher) matchField(path string, probe, candidate reflect.Value) bool {
	if probe.Type() == timeType {
		pt := probe.Interface().(time.Time)
		ct := candidate.Interface().(time.Time)
		return pt.Equal(ct)
	}

	if probe.Kind() == reflect.String {
		return m.matchString(path, probe.String(), candidate.String())
	}

	return reflect.DeepEqual(probe.Interface(), candidate.Interface())
}

func (m Matcher) matchString(path, probe, candidate string) bool {
	if m.ignoreCase {
		probe = strings.ToLower(probe)
		candidate = strings.ToLower(candidate)
	}

	mode := m.defaultMode
	if override, ok := m.fieldModes[path]; ok {
		mode = override
	}

	switch mode {
	case StringPrefix:
		return strings.HasPrefix(candidate, probe)
	case StringSuffix:
		return strings.HasSuffix(candidate, probe)
	case StringContaining:
		return strings.Contains(candidate, probe)
	default:
		return candidate == probe
	}
}

var timeType = reflect.TypeOf(time.Time{})
