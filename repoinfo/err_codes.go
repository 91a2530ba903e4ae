package repoinfo

const (
	// CodeUnsupportedFragment marks a capability embed whose methods no
	// fragment in the composition can serve.
	CodeUnsupportedFragment = "UNSUPPORTED_FRAGMENT"
)
