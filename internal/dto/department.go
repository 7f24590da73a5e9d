package dto

// UpsertDepartmentRequest creates or edits a department lookup entry.
type UpsertDepartmentRequest struct {
	Code     string `json:"code" validate:"required,max=16"`
	Name     string `json:"name" validate:"required,max=128"`
	IsActive *bool  `json:"is_active"`
}

// DepartmentQuery mirrors supported department listing filters.
type DepartmentQuery struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
