package models

import "time"

// RequestType enumerates the MOC request categories.
type RequestType string

const (
	RequestTypeStandardEmoc RequestType = "STANDARD_EMOC"
	RequestTypeBypassEmoc   RequestType = "BYPASS_EMOC"
	RequestTypeOmoc         RequestType = "OMOC"
	RequestTypeDmoc         RequestType = "DMOC"
)

// ControlPrefix returns the control-number prefix for the request type.
func (t RequestType) ControlPrefix() string {
	switch t {
	case RequestTypeStandardEmoc:
		return "EMOC"
	case RequestTypeBypassEmoc:
		return "BYPASS"
	case RequestTypeOmoc:
		return "OMOC"
	case RequestTypeDmoc:
		return "DMOC"
	default:
		return ""
	}
}

// Valid reports whether the request type is a known value.
func (t RequestType) Valid() bool {
	return t.ControlPrefix() != ""
}

// Stage identifies one step of the fixed MOC review sequence.
type Stage string

const (
	StageInitiation            Stage = "INITIATION"
	StageValidation            Stage = "VALIDATION"
	StageEvaluation            Stage = "EVALUATION"
	StageFinalApproval         Stage = "FINAL_APPROVAL"
	StagePreImplementation     Stage = "PRE_IMPLEMENTATION"
	StageImplementation        Stage = "IMPLEMENTATION"
	StageRestorationOrCloseout Stage = "RESTORATION_OR_CLOSEOUT"
)

// RequestStatus captures the derived lifecycle status of a MOC request.
type RequestStatus string

const (
	StatusDraft          RequestStatus = "DRAFT"
	StatusSubmitted      RequestStatus = "SUBMITTED"
	StatusApproved       RequestStatus = "APPROVED"
	StatusActive         RequestStatus = "ACTIVE"
	StatusInactive       RequestStatus = "INACTIVE"
	StatusForRestoration RequestStatus = "FOR_RESTORATION"
	StatusRestored       RequestStatus = "RESTORED"
	StatusClosed         RequestStatus = "CLOSED"
	StatusCancelled      RequestStatus = "CANCELLED"
)

// Role keys recognised by the stage gates. Approval levels may carry any
// role key; only these two participate in gating.
const (
	RoleKeyDepartmentManager = "DEPARTMENT_MANAGER"
	RoleKeyDivisionManager   = "DIVISION_MANAGER"
)

// stageSuccessor is the fixed stage order. RestorationOrCloseout has no
// successor and therefore no entry.
var stageSuccessor = map[Stage]Stage{
	StageInitiation:        StageValidation,
	StageValidation:        StageEvaluation,
	StageEvaluation:        StageFinalApproval,
	StageFinalApproval:     StagePreImplementation,
	StagePreImplementation: StageImplementation,
	StageImplementation:    StageRestorationOrCloseout,
}

// stageGates maps a stage to the role keys whose approver slots must be
// completed and approved before the stage may be left.
var stageGates = map[Stage][]string{
	StageValidation:    {RoleKeyDepartmentManager},
	StageFinalApproval: {RoleKeyDivisionManager},
}

// stageStatus maps stages that force a derived status on entry.
var stageStatus = map[Stage]RequestStatus{
	StagePreImplementation:     StatusApproved,
	StageImplementation:        StatusActive,
	StageRestorationOrCloseout: StatusClosed,
}

// NextStage returns the successor of the given stage. The second return
// value is false when the stage is terminal.
func NextStage(s Stage) (Stage, bool) {
	next, ok := stageSuccessor[s]
	return next, ok
}

// RequiredRoles returns the role keys gating departure from the given stage.
func RequiredRoles(s Stage) []string {
	return stageGates[s]
}

// StatusOnEntering returns the status forced by entering the given stage,
// if any.
func StatusOnEntering(s Stage) (RequestStatus, bool) {
	status, ok := stageStatus[s]
	return status, ok
}

// MocRequest is a management-of-change record moving through the staged
// review workflow. Mutable while DRAFT or SUBMITTED; append-only once stage
// advancement begins.
type MocRequest struct {
	ID                       string        `db:"id" json:"id"`
	ControlNumber            string        `db:"control_number" json:"control_number"`
	RequestType              RequestType   `db:"request_type" json:"request_type"`
	Title                    string        `db:"title" json:"title"`
	Description              string        `db:"description" json:"description"`
	OriginatorID             string        `db:"originator_id" json:"originator_id"`
	OriginatorName           string        `db:"originator_name" json:"originator_name"`
	DepartmentID             *string       `db:"department_id" json:"department_id,omitempty"`
	CurrentStage             Stage         `db:"current_stage" json:"current_stage"`
	Status                   RequestStatus `db:"status" json:"status"`
	IsTemporary              bool          `db:"is_temporary" json:"is_temporary"`
	TargetImplementationDate *time.Time    `db:"target_implementation_date" json:"target_implementation_date,omitempty"`
	PlannedRestorationDate   *time.Time    `db:"planned_restoration_date" json:"planned_restoration_date,omitempty"`
	MarkedInactiveAt         *time.Time    `db:"marked_inactive_at" json:"marked_inactive_at,omitempty"`
	CreatedAt                time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time     `db:"updated_at" json:"updated_at"`
}

// RestorationOverdue reports whether a temporary change has passed its
// planned restoration date without being restored or closed.
func (r *MocRequest) RestorationOverdue(now time.Time) bool {
	if !r.IsTemporary || r.PlannedRestorationDate == nil {
		return false
	}
	switch r.Status {
	case StatusRestored, StatusClosed, StatusCancelled:
		return false
	}
	return now.After(*r.PlannedRestorationDate)
}

// MocApprover is one approval slot snapshotted from an approval level at
// chain-build time. Once completed the slot is immutable.
type MocApprover struct {
	ID           string     `db:"id" json:"id"`
	MocRequestID string     `db:"moc_request_id" json:"moc_request_id"`
	RoleKey      string     `db:"role_key" json:"role_key"`
	SortOrder    int        `db:"sort_order" json:"sort_order"`
	IsCompleted  bool       `db:"is_completed" json:"is_completed"`
	IsApproved   *bool      `db:"is_approved" json:"is_approved,omitempty"`
	Remarks      *string    `db:"remarks" json:"remarks,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy  *string    `db:"completed_by" json:"completed_by,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Satisfied reports whether the slot counts toward its stage gate.
func (a *MocApprover) Satisfied() bool {
	return a.IsCompleted && a.IsApproved != nil && *a.IsApproved
}

// MocFilter constrains request listing queries.
type MocFilter struct {
	Status       []RequestStatus
	Stage        Stage
	RequestType  RequestType
	OriginatorID string
	Page         int
	PageSize     int
}
