package models

import "time"

// ApprovalLevel is one admin-configured link in the approval chain template.
// SortOrder is a tie-breakable sort key: it does not need to be unique or
// contiguous, and ties are broken by id so chain construction stays
// deterministic. Deleting a level never alters chains already snapshotted
// onto existing requests.
type ApprovalLevel struct {
	ID        string    `db:"id" json:"id"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	RoleKey   string    `db:"role_key" json:"role_key"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
