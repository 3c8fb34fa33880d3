package models

// Lifecycle models soft deletion as an explicit state instead of a bare
// boolean column. Rows are never hard-deleted; history stays queryable.
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "active"
	LifecycleDeleted Lifecycle = "deleted"
)
