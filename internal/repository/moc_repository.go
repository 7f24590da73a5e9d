package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

// MocRepository persists change requests and their approver chains.
type MocRepository struct {
	db *sqlx.DB
}

// NewMocRepository constructs the repository.
func NewMocRepository(db *sqlx.DB) *MocRepository {
	return &MocRepository{db: db}
}

const mocColumns = `id, control_number, request_type, title, description, originator_id, originator_name,
       department_id, current_stage, status, is_temporary, target_implementation_date,
       planned_restoration_date, marked_inactive_at, created_at, updated_at`

const approverColumns = `id, moc_request_id, role_key, sort_order, is_completed, is_approved,
       remarks, completed_at, completed_by, created_at`

// Create inserts a new request row.
func (r *MocRepository) Create(ctx context.Context, request *models.MocRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CurrentStage == "" {
		request.CurrentStage = models.StageInitiation
	}
	if request.Status == "" {
		request.Status = models.StatusDraft
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now

	const query = `INSERT INTO moc_requests
	(id, control_number, request_type, title, description, originator_id, originator_name,
	 department_id, current_stage, status, is_temporary, target_implementation_date,
	 planned_restoration_date, marked_inactive_at, created_at, updated_at)
	VALUES (:id, :control_number, :request_type, :title, :description, :originator_id, :originator_name,
	 :department_id, :current_stage, :status, :is_temporary, :target_implementation_date,
	 :planned_restoration_date, :marked_inactive_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create moc request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *MocRepository) GetByID(ctx context.Context, id string) (*models.MocRequest, error) {
	const query = `SELECT ` + mocColumns + ` FROM moc_requests WHERE id = $1`
	var request models.MocRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter (newest first) plus the total
// matching count.
func (r *MocRepository) List(ctx context.Context, filter models.MocFilter) ([]models.MocRequest, int, error) {
	args := make([]interface{}, 0, 6)
	conditions := make([]string, 0, 4)

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Stage != "" {
		args = append(args, filter.Stage)
		conditions = append(conditions, fmt.Sprintf("current_stage = $%d", len(args)))
	}
	if filter.RequestType != "" {
		args = append(args, filter.RequestType)
		conditions = append(conditions, fmt.Sprintf("request_type = $%d", len(args)))
	}
	if filter.OriginatorID != "" {
		args = append(args, filter.OriginatorID)
		conditions = append(conditions, fmt.Sprintf("originator_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM moc_requests"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count moc requests: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	query := "SELECT " + mocColumns + " FROM moc_requests" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", size, (page-1)*size)

	var requests []models.MocRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list moc requests: %w", err)
	}
	return requests, total, nil
}

// UpdateDraft persists editable fields. The request must still be DRAFT or
// SUBMITTED and must not have advanced past the initiation stage; zero rows
// affected means the request moved on concurrently.
func (r *MocRepository) UpdateDraft(ctx context.Context, request *models.MocRequest) error {
	request.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE moc_requests
	SET title = :title, description = :description, department_id = :department_id,
	    is_temporary = :is_temporary, target_implementation_date = :target_implementation_date,
	    planned_restoration_date = :planned_restoration_date, updated_at = :updated_at
	WHERE id = :id AND status IN ('%s', '%s') AND current_stage = '%s'`,
		models.StatusDraft, models.StatusSubmitted, models.StageInitiation)
	result, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("update moc draft: %w", err)
	}
	return requireRowsAffected(result)
}

// DeleteDraft removes a request that never left DRAFT. Approver slots are
// cascade-deleted with the request.
func (r *MocRepository) DeleteDraft(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM moc_requests WHERE id = $1 AND status = '%s'`, models.StatusDraft)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete moc draft: %w", err)
	}
	return requireRowsAffected(result)
}

// StatusTransitionParams describes a guarded status change.
type StatusTransitionParams struct {
	ID                 string
	From               []models.RequestStatus
	To                 models.RequestStatus
	MarkedInactiveAt   *time.Time
	ClearInactiveStamp bool
}

// TransitionStatus performs a conditional status update. The WHERE clause
// pins the expected prior status, so a lost race surfaces as zero rows
// affected rather than a silent overwrite.
func (r *MocRepository) TransitionStatus(ctx context.Context, params StatusTransitionParams) error {
	setParts := []string{"status = :status", "updated_at = :updated_at"}
	if params.MarkedInactiveAt != nil {
		setParts = append(setParts, "marked_inactive_at = :marked_inactive_at")
	} else if params.ClearInactiveStamp {
		setParts = append(setParts, "marked_inactive_at = NULL")
	}

	expected := make([]string, len(params.From))
	for i, status := range params.From {
		expected[i] = fmt.Sprintf("'%s'", status)
	}
	query := fmt.Sprintf(`UPDATE moc_requests SET %s WHERE id = :id AND status IN (%s)`,
		strings.Join(setParts, ", "), strings.Join(expected, ","))

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                 params.ID,
		"status":             params.To,
		"updated_at":         time.Now().UTC(),
		"marked_inactive_at": params.MarkedInactiveAt,
	})
	if err != nil {
		return fmt.Errorf("transition moc status: %w", err)
	}
	return requireRowsAffected(result)
}

// AdvanceStage moves a request from one stage to the next in a single
// conditional write, optionally forcing the derived status.
func (r *MocRepository) AdvanceStage(ctx context.Context, id string, from, to models.Stage, status *models.RequestStatus) error {
	setParts := []string{"current_stage = :to_stage", "updated_at = :updated_at"}
	if status != nil {
		setParts = append(setParts, "status = :status")
	}
	query := fmt.Sprintf(`UPDATE moc_requests SET %s WHERE id = :id AND current_stage = :from_stage`,
		strings.Join(setParts, ", "))

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         id,
		"from_stage": from,
		"to_stage":   to,
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("advance moc stage: %w", err)
	}
	return requireRowsAffected(result)
}

// CountApprovers returns the number of approver slots built for a request.
func (r *MocRepository) CountApprovers(ctx context.Context, requestID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM moc_approvers WHERE moc_request_id = $1`, requestID); err != nil {
		return 0, fmt.Errorf("count moc approvers: %w", err)
	}
	return count, nil
}

// InsertApprovers writes the snapshotted approver chain in one transaction.
func (r *MocRepository) InsertApprovers(ctx context.Context, approvers []models.MocApprover) error {
	if len(approvers) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approver chain insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO moc_approvers
	(id, moc_request_id, role_key, sort_order, is_completed, is_approved, remarks, completed_at, completed_by, created_at)
	VALUES (:id, :moc_request_id, :role_key, :sort_order, :is_completed, :is_approved, :remarks, :completed_at, :completed_by, :created_at)`
	for i := range approvers {
		if approvers[i].ID == "" {
			approvers[i].ID = uuid.NewString()
		}
		if approvers[i].CreatedAt.IsZero() {
			approvers[i].CreatedAt = time.Now().UTC()
		}
		if _, err := tx.NamedExecContext(ctx, query, approvers[i]); err != nil {
			return fmt.Errorf("insert moc approver: %w", err)
		}
	}
	return tx.Commit()
}

// ListApprovers returns the chain in its snapshotted order.
func (r *MocRepository) ListApprovers(ctx context.Context, requestID string) ([]models.MocApprover, error) {
	const query = `SELECT ` + approverColumns + ` FROM moc_approvers
	WHERE moc_request_id = $1 ORDER BY sort_order ASC, id ASC`
	var approvers []models.MocApprover
	if err := r.db.SelectContext(ctx, &approvers, query, requestID); err != nil {
		return nil, fmt.Errorf("list moc approvers: %w", err)
	}
	return approvers, nil
}

// ListApproversByRoles returns a request's slots whose role key is in the
// given set.
func (r *MocRepository) ListApproversByRoles(ctx context.Context, requestID string, roleKeys []string) ([]models.MocApprover, error) {
	if len(roleKeys) == 0 {
		return nil, nil
	}
	args := []interface{}{requestID}
	placeholders := make([]string, len(roleKeys))
	for i, key := range roleKeys {
		args = append(args, key)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := `SELECT ` + approverColumns + ` FROM moc_approvers WHERE moc_request_id = $1 AND role_key IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY sort_order ASC, id ASC`

	var approvers []models.MocApprover
	if err := r.db.SelectContext(ctx, &approvers, query, args...); err != nil {
		return nil, fmt.Errorf("list moc approvers by role: %w", err)
	}
	return approvers, nil
}

// GetApprover fetches a slot scoped to its owning request.
func (r *MocRepository) GetApprover(ctx context.Context, requestID, approverID string) (*models.MocApprover, error) {
	const query = `SELECT ` + approverColumns + ` FROM moc_approvers WHERE id = $1 AND moc_request_id = $2`
	var approver models.MocApprover
	if err := r.db.GetContext(ctx, &approver, query, approverID, requestID); err != nil {
		return nil, err
	}
	return &approver, nil
}

// CompleteApproverParams groups the columns stamped on completion.
type CompleteApproverParams struct {
	ApproverID  string
	RequestID   string
	Approved    bool
	Remarks     *string
	CompletedAt time.Time
	CompletedBy string
}

// CompleteApprover records a one-time decision. The is_completed guard makes
// completed slots immutable; losing the race surfaces as zero rows affected.
func (r *MocRepository) CompleteApprover(ctx context.Context, params CompleteApproverParams) error {
	const query = `UPDATE moc_approvers
	SET is_completed = TRUE, is_approved = :is_approved, remarks = :remarks,
	    completed_at = :completed_at, completed_by = :completed_by
	WHERE id = :id AND moc_request_id = :moc_request_id AND is_completed = FALSE`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":             params.ApproverID,
		"moc_request_id": params.RequestID,
		"is_approved":    params.Approved,
		"remarks":        params.Remarks,
		"completed_at":   params.CompletedAt,
		"completed_by":   params.CompletedBy,
	})
	if err != nil {
		return fmt.Errorf("complete moc approver: %w", err)
	}
	return requireRowsAffected(result)
}
