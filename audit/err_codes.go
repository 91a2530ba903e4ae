package audit

const (
	// CodeUnauditableField marks a tagged audit field whose type cannot
	// hold the stamp.
	CodeUnauditableField = "UNAUDITABLE_FIELD"
)
