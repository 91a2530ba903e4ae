package crud

const (
	// CodeBaseProvision marks a default base that could not be built from
	// the given settings.
	CodeBaseProvision = "BASE_PROVISION_FAILED"
)
