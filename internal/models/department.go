package models

import "time"

// Department is a lookup-table entry referenced by MOC and DMOC records.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter constrains department listing queries.
type DepartmentFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
