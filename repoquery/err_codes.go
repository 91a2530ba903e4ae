package repoquery

const (
	// CodeNamedQueryMissing marks a named-query key absent from the set.
	CodeNamedQueryMissing = "NAMED_QUERY_MISSING"

	// CodeNamedQuerySource marks an unreadable or malformed query source.
	CodeNamedQuerySource = "NAMED_QUERY_SOURCE"

	// CodeQueryLookupFailed marks a method no strategy could resolve.
	CodeQueryLookupFailed = "QUERY_LOOKUP_FAILED"
)
