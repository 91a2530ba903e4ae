package meta

const (
	CodeMetaKeyNotFound  = "META_KEY_NOT_FOUND"
	CodeMetaTypeMismatch = "META_TYPE_MISMATCH"
)
