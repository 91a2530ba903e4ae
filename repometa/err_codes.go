package repometa

const (
	CodeInvalidRepositoryDefinition = "INVALID_REPOSITORY_DEFINITION"
)
