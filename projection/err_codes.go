package projection

const (
	CodeNotProjectable      = "NOT_PROJECTABLE"
	CodeValueNotConvertible = "VALUE_NOT_CONVERTIBLE"
)
