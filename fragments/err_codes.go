package fragments

const (
	// CodeFragmentNotImplemented marks a structural fragment that reached
	// validation without a backing instance.
	CodeFragmentNotImplemented = "FRAGMENT_NOT_IMPLEMENTED"

	// CodeDispatchNoFragment marks an invoke on a method no fragment
	// implements. Unreachable when validation passed.
	CodeDispatchNoFragment = "DISPATCH_NO_FRAGMENT"
)
