package dto

import (
	"time"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

// CreateMocRequest payload for opening a new change request draft.
type CreateMocRequest struct {
	RequestType              models.RequestType `json:"request_type" validate:"required"`
	Title                    string             `json:"title" validate:"required"`
	Description              string             `json:"description" validate:"required"`
	DepartmentID             string             `json:"department_id"`
	IsTemporary              bool               `json:"is_temporary"`
	TargetImplementationDate *time.Time         `json:"target_implementation_date"`
	PlannedRestorationDate   *time.Time         `json:"planned_restoration_date"`
}

// UpdateMocDraftRequest updates fields while the request is still editable.
type UpdateMocDraftRequest struct {
	Title                    string     `json:"title" validate:"required"`
	Description              string     `json:"description" validate:"required"`
	DepartmentID             string     `json:"department_id"`
	IsTemporary              *bool      `json:"is_temporary"`
	TargetImplementationDate *time.Time `json:"target_implementation_date"`
	PlannedRestorationDate   *time.Time `json:"planned_restoration_date"`
}

// CompleteApproverRequest records one approver's decision.
type CompleteApproverRequest struct {
	Approved bool   `json:"approved"`
	Remarks  string `json:"remarks"`
}

// MocQuery mirrors supported listing filters.
type MocQuery struct {
	Status       []models.RequestStatus
	Stage        models.Stage
	RequestType  models.RequestType
	OriginatorID string
	Page         int
	PageSize     int
}

// MocItem wraps a request with display-only derived fields.
type MocItem struct {
	models.MocRequest
	OverdueRestoration bool `json:"overdue_restoration"`
}

// MocDetail adds the approver chain to a request payload.
type MocDetail struct {
	MocItem
	Approvers []models.MocApprover `json:"approvers"`
}

// StageAdvanceResponse reports the result of a successful stage advance.
type StageAdvanceResponse struct {
	ID           string               `json:"id"`
	CurrentStage models.Stage         `json:"current_stage"`
	Status       models.RequestStatus `json:"status"`
}
