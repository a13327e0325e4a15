package models

// Category and brand deletes are rejected, never cascaded: a node with
// children or product assignments stays, and the caller is told what
// blocks it.

// DeleteGuardResult holds the pre-flight check for a delete request
type DeleteGuardResult struct {
	CanDelete       bool            `json:"canDelete"`
	BlockedEntities []BlockedEntity `json:"blockedEntities,omitempty"`
}

// BlockedEntity represents a reference that blocks a delete
type BlockedEntity struct {
	Type       string `json:"type"`       // "children", "assignments", "products"
	ID         string `json:"id"`         // Entity ID
	Name       string `json:"name"`       // Entity name for display
	Reason     string `json:"reason"`     // Human-readable reason (e.g., "3 products assigned")
	OtherCount int    `json:"otherCount"` // Number of referencing entities
}
