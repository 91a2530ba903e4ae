package inmem

const (
	// CodeObjectNotFound marks a lookup that matched no stored entity.
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// CodeMultipleRowsFound marks a single-result lookup that matched more
	// than one entity.
	CodeMultipleRowsFound = "MULTIPLE_ROWS_FOUND"

	// CodeNilEntity marks a nil entity handed to a write operation.
	CodeNilEntity = "NIL_ENTITY"

	// CodeIDGeneration marks an entity the store cannot assign an id to.
	CodeIDGeneration = "ID_GENERATION_FAILED"

	// CodeStoreFull marks a write rejected by the MaxEntries cap.
	CodeStoreFull = "STORE_FULL"
)
