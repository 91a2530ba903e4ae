package sorter

const (
	CodeInvalidSortField = "INVALID_SORT_FIELD"
	CodeUnsortableType   = "UNSORTABLE_TYPE"
)
