package qbe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rise-and-shine/repokit/qbe"
)

type address struct {
	City    string
	Country string
}

type customer struct {
	Name    string
	Email   string
	Age     int
	Active  bool
	Address address
	Note    *string
}

func strPtr(s string) *string { return &s }

func TestExampleMatches(t *testing.T) {
	candidate := customer{
		Name:   "John Doe",
		Email:  "john@example.com",
		Age:    34,
		Active: true,
		Address: address{
			City:    "Tashkent",
			Country: "UZ",
		},
	}

	tests := []struct {
		name     string
		example  qbe.Example[customer]
		expected bool
	}{
		{
			name:     "nil probe matches everything",
			example:  qbe.Example[customer]{},
			expected: true,
		},
		{
			name:     "empty probe matches everything",
			example:  qbe.Of(&customer{}),
			expected: true,
		},
		{
			name:     "single field exact match",
			example:  qbe.Of(&customer{Name: "John Doe"}),
			expected: true,
		},
		{
			name:     "single field mismatch",
			example:  qbe.Of(&customer{Name: "Jane Doe"}),
			expected: false,
		},
		{
			name:     "all set fields must match",
			example:  qbe.Of(&customer{Name: "John Doe", Age: 50}),
			expected: false,
		},
		{
			name:     "zero fields are skipped",
			example:  qbe.Of(&customer{Name: "John Doe", Age: 0}),
			expected: true,
		},
		{
			name: "match any needs one hit",
			example: qbe.Of(
				&customer{Name: "Jane Doe", Age: 34},
				qbe.MatchingAny(),
			),
			expected: true,
		},
		{
			name: "match any with no hits",
			example: qbe.Of(
				&customer{Name: "Jane Doe", Age: 50},
				qbe.MatchingAny(),
			),
			expected: false,
		},
		{
			name:     "nested struct field",
			example:  qbe.Of(&customer{Address: address{City: "Tashkent"}}),
			expected: true,
		},
		{
			name:     "nested struct mismatch",
			example:  qbe.Of(&customer{Address: address{City: "Samarkand"}}),
			expected: false,
		},
		{
			name: "prefix mode",
			example: qbe.Of(
				&customer{Name: "John"},
				qbe.WithStringMode(qbe.StringPrefix),
			),
			expected: true,
		},
		{
			name: "suffix mode",
			example: qbe.Of(
				&customer{Email: "@example.com"},
				qbe.WithStringMode(qbe.StringSuffix),
			),
			expected: true,
		},
		{
			name: "containing mode",
			example: qbe.Of(
				&customer{Email: "john@"},
				qbe.WithStringMode(qbe.StringContaining),
			),
			expected: true,
		},
		{
			name: "ignore case",
			example: qbe.Of(
				&customer{Name: "john doe"},
				qbe.WithIgnoreCase(),
			),
			expected: true,
		},
		{
			name: "per field mode override",
			example: qbe.Of(
				&customer{Name: "John", Email: "john@example.com"},
				qbe.WithFieldMode("Name", qbe.StringPrefix),
			),
			expected: true,
		},
		{
			name: "ignored field never compared",
			example: qbe.Of(
				&customer{Name: "Jane Doe", Age: 34},
				qbe.WithIgnoredFields("Name"),
			),
			expected: true,
		},
		{
			name: "ignored nested path",
			example: qbe.Of(
				&customer{Address: address{City: "Samarkand", Country: "UZ"}},
				qbe.WithIgnoredFields("Address.City"),
			),
			expected: true,
		},
		{
			name: "include zero forces comparison",
			example: qbe.Of(
				&customer{Name: "John Doe"},
				qbe.WithIncludeZero(),
			),
			expected: false,
		},
		{
			name:     "nil pointer field skipped",
			example:  qbe.Of(&customer{Note: nil, Name: "John Doe"}),
			expected: true,
		},
		{
			name:     "set pointer field against nil candidate",
			example:  qbe.Of(&customer{Note: strPtr("vip")}),
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.example.Matches(candidate))
		})
	}
}

func TestExampleMatchesPointerFields(t *testing.T) {
	note := "vip"
	withNote := customer{Name: "John Doe", Note: &note}

	ex := qbe.Of(&customer{Note: strPtr("vip")})
	assert.True(t, ex.Matches(withNote))

	ex = qbe.Of(&customer{Note: strPtr("regular")})
	assert.False(t, ex.Matches(withNote))
}
