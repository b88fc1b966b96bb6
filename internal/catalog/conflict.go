package catalog

// CreateConflict is the conflict-resolution policy for create-path DDL
// (spec §4.4, §6.1 Conflict.create).
type CreateConflict int

const (
	CreateIgnore CreateConflict = iota
	CreateError
	CreateReplace
)

// DropConflict is the conflict-resolution policy for drop-path DDL
// (spec §6.1 Conflict.drop). Replace is create-path only.
type DropConflict int

const (
	DropIgnore DropConflict = iota
	DropError
)
