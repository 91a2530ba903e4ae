package repofactory

// Error codes returned by this package.
const (
	CodeConstructorMismatch   = "CONSTRUCTOR_MISMATCH"
	CodeQueryLookupMissing    = "QUERY_LOOKUP_MISSING"
	CodeQueryResolutionFailed = "QUERY_RESOLUTION_FAILED"
	CodeNullParameter         = "NULL_PARAMETER"
)
