package wrap

const (
	// CodeUnsupportedWrapper indicates an operation was requested on a type
	// the registry does not recognize as a container.
	CodeUnsupportedWrapper = "UNSUPPORTED_WRAPPER"

	// CodeWrapperMismatch indicates a container could not be built from the
	// supplied canonical value.
	CodeWrapperMismatch = "WRAPPER_MISMATCH"
)
