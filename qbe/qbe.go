// Package qbe implements query by example: a probe entity whose set fields
// describe the values a candidate must carry, refined by a Matcher.
package qbe

// Example pairs a probe with the matcher that interprets it.
// A nil probe matches every candidate.
type Example[T any] struct {
	Probe   *T
	Matcher Matcher
}

// Of builds an example from a probe and matcher options.
func Of[T any](probe *T, opts ...MatcherOption) Example[T] {
	return Example[T]{Probe: probe, Matcher: NewMatcher(opts...)}
}

// Matches reports whether the candidate satisfies the probe under the
// example's matcher.
func (e Example[T]) Matches(candidate T) bool {
	if e.Probe == nil {
		return true
	}
	return e.Matcher.matches(*e.Probe, candidate)
}
