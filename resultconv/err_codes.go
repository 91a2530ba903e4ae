package resultconv

// Error codes returned by this package.
const (
	CodeEmptyResult          = "EMPTY_RESULT"
	CodeMultipleResults      = "MULTIPLE_RESULTS"
	CodeResultNotConvertible = "RESULT_NOT_CONVERTIBLE"
)
