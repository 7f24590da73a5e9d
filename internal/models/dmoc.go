package models

import "time"

// NatureOfChange classifies a departmental change as permanent or temporary.
type NatureOfChange string

const (
	NaturePermanent NatureOfChange = "PERMANENT"
	NatureTemporary NatureOfChange = "TEMPORARY"
)

// Valid reports whether the nature is a known value.
func (n NatureOfChange) Valid() bool {
	return n == NaturePermanent || n == NatureTemporary
}

// DmocStatus captures the simpler departmental MOC lifecycle.
type DmocStatus string

const (
	DmocStatusDraft     DmocStatus = "DRAFT"
	DmocStatusSubmitted DmocStatus = "SUBMITTED"
	DmocStatusApproved  DmocStatus = "APPROVED"
	DmocStatusRejected  DmocStatus = "REJECTED"
	DmocStatusClosed    DmocStatus = "CLOSED"
)

// DmocRequest is a departmental MOC record. Structurally independent from
// MocRequest; shares only the control-number scheme and the department
// lookup. DmocNumber stays nil until submission.
type DmocRequest struct {
	ID                       string         `db:"id" json:"id"`
	DmocNumber               *string        `db:"dmoc_number" json:"dmoc_number,omitempty"`
	Title                    string         `db:"title" json:"title"`
	OriginatorName           string         `db:"originator_name" json:"originator_name"`
	DepartmentID             *string        `db:"department_id" json:"department_id,omitempty"`
	DepartmentName           *string        `db:"department_name" json:"department_name,omitempty"`
	NatureOfChange           NatureOfChange `db:"nature_of_change" json:"nature_of_change"`
	TargetImplementationDate *time.Time     `db:"target_implementation_date" json:"target_implementation_date,omitempty"`
	PlannedEndDate           *time.Time     `db:"planned_end_date" json:"planned_end_date,omitempty"`
	Description              string         `db:"description" json:"description"`
	Reason                   string         `db:"reason" json:"reason"`
	Status                   DmocStatus     `db:"status" json:"status"`
	RemarksLog               string         `db:"remarks_log" json:"remarks_log"`
	CreatedAt                time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time      `db:"updated_at" json:"updated_at"`
}

// DmocFilter constrains DMOC listing queries.
type DmocFilter struct {
	Status     DmocStatus
	Originator string
	Page       int
	PageSize   int
}
