// Package relrag holds the domain model shared by every use case: entities,
// value objects, the error taxonomy, and the ports (interfaces) adapters
// implement. Nothing in this package talks to a database or the network.
package relrag

// ChunkingStrategy selects how a Document's content is split into Chunks.
type ChunkingStrategy string

const (
	ChunkingRecursive ChunkingStrategy = "recursive"
	ChunkingFixed     ChunkingStrategy = "fixed"
	ChunkingSemantic  ChunkingStrategy = "semantic"
)

// IsValid reports whether s is one of the declared chunking strategies.
func (s ChunkingStrategy) IsValid() bool {
	switch s {
	case ChunkingRecursive, ChunkingFixed, ChunkingSemantic:
		return true
	default:
		return false
	}
}

// PermissionAction is one action a Role or Permission override can grant.
type PermissionAction string

const (
	ActionRead    PermissionAction = "read"
	ActionWrite   PermissionAction = "write"
	ActionDelete  PermissionAction = "delete"
	ActionAdmin   PermissionAction = "admin"
	ActionMigrate PermissionAction = "migrate"
)

func (a PermissionAction) IsValid() bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete, ActionAdmin, ActionMigrate:
		return true
	default:
		return false
	}
}

// PropertyType declares how a Property's text value should be interpreted
// when used in a filter predicate.
type PropertyType string

const (
	PropertyString PropertyType = "string"
	PropertyInt    PropertyType = "int"
	PropertyFloat  PropertyType = "float"
	PropertyBool   PropertyType = "bool"
	PropertyDate   PropertyType = "date"
)

func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyString, PropertyInt, PropertyFloat, PropertyBool, PropertyDate:
		return true
	default:
		return false
	}
}

// Seeded role names. The store seeds exactly these three at bootstrap.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)
