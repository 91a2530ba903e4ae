package entity

const (
	CodeEntityIDUnresolved = "ENTITY_ID_UNRESOLVED"
)
