package dto

// CreateApprovalLevelRequest adds one link to the approval chain template.
type CreateApprovalLevelRequest struct {
	SortOrder int    `json:"sort_order"`
	RoleKey   string `json:"role_key" validate:"required"`
	IsActive  *bool  `json:"is_active"`
}

// UpdateApprovalLevelRequest edits an existing approval level.
type UpdateApprovalLevelRequest struct {
	SortOrder int    `json:"sort_order"`
	RoleKey   string `json:"role_key" validate:"required"`
	IsActive  *bool  `json:"is_active"`
}
