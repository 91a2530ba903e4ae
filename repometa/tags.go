package repometa

import (
	"strconv"
	"strings"

	"github.com/code19m/errx"
)

// Tag holds the parsed `repo` struct-tag options of a repository method.
//
//	FindByName func(...) `repo:"named=User.byName,nullable,allownil=0,cached"`
//
// Options:
//   - named=<key>: named-query key override for query lookup
//   - nullable: an empty result yields the zero value instead of an error
//   - allownil=<i;j;...>: 0-based argument indexes (context excluded) that
//     may be nil
//   - cached: opt the method into the caching decorator
type Tag struct {
	Named    string
	Nullable bool
	AllowNil []int
	Cached   bool
}

// AllowsNil reports whether the argument at index (0-based, context
// excluded) may be nil.
func (t Tag) AllowsNil(index int) bool {
	for _, i := range t.AllowNil {
		if i == index {
			return true
		}
	}
	return false
}

// ParseTag parses the raw `repo` tag value.
func ParseTag(raw string) (Tag, error) {
	var tag Tag
	if raw == "" {
		return tag, nil
	}

	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "nullable":
			tag.Nullable = true
		case part == "cached":
			tag.Cached = true
		case strings.HasPrefix(part, "named="):
			tag.Named = strings.TrimPrefix(part, "named=")
		case strings.HasPrefix(part, "allownil="):
			for _, idx := range strings.Split(strings.TrimPrefix(part, "allownil="), ";") {
				n, err := strconv.Atoi(strings.TrimSpace(idx))
				if err != nil {
					return Tag{}, errx.Wrap(err,
						errx.WithCode(CodeInvalidRepositoryDefinition),
						errx.WithType(errx.T_Validation),
						errx.WithDetails(errx.D{"tag": raw, "option": part}),
					)
				}
				tag.AllowNil = append(tag.AllowNil, n)
			}
		default:
			return Tag{}, errx.New(
				"unknown repo tag option",
				errx.WithCode(CodeInvalidRepositoryDefinition),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{"tag": raw, "option": part}),
			)
		}
	}

	return tag, nil
}
