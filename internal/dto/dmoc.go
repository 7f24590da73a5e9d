package dto

import (
	"time"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

// DmocDraftRequest is the payload for creating or updating a DMOC draft.
// Field-level rules beyond presence (temporary-change dates and the duration
// cap) are enforced by the DMOC service so each violation gets its own
// message.
type DmocDraftRequest struct {
	Title                    string                `json:"title"`
	OriginatorName           string                `json:"originator_name"`
	DepartmentID             string                `json:"department_id"`
	NatureOfChange           models.NatureOfChange `json:"nature_of_change"`
	TargetImplementationDate *time.Time            `json:"target_implementation_date"`
	PlannedEndDate           *time.Time            `json:"planned_end_date"`
	Description              string                `json:"description"`
	Reason                   string                `json:"reason"`
}

// DmocDecisionRequest carries an optional remark for approve/reject.
type DmocDecisionRequest struct {
	Remarks string `json:"remarks"`
}

// DmocQuery mirrors supported DMOC listing filters.
type DmocQuery struct {
	Status     models.DmocStatus
	Originator string
	Page       int
	PageSize   int
}
