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

// DmocRepository persists departmental MOC records.
type DmocRepository struct {
	db *sqlx.DB
}

// NewDmocRepository constructs the repository.
func NewDmocRepository(db *sqlx.DB) *DmocRepository {
	return &DmocRepository{db: db}
}

const dmocColumns = `id, dmoc_number, title, originator_name, department_id, department_name,
       nature_of_change, target_implementation_date, planned_end_date, description, reason,
       status, remarks_log, created_at, updated_at`

// Create inserts a new DMOC draft.
func (r *DmocRepository) Create(ctx context.Context, dmoc *models.DmocRequest) error {
	if dmoc.ID == "" {
		dmoc.ID = uuid.NewString()
	}
	if dmoc.Status == "" {
		dmoc.Status = models.DmocStatusDraft
	}
	now := time.Now().UTC()
	dmoc.CreatedAt = now
	dmoc.UpdatedAt = now

	const query = `INSERT INTO dmoc_requests
	(id, dmoc_number, title, originator_name, department_id, department_name, nature_of_change,
	 target_implementation_date, planned_end_date, description, reason, status, remarks_log, created_at, updated_at)
	VALUES (:id, :dmoc_number, :title, :originator_name, :department_id, :department_name, :nature_of_change,
	 :target_implementation_date, :planned_end_date, :description, :reason, :status, :remarks_log, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, dmoc); err != nil {
		return fmt.Errorf("create dmoc request: %w", err)
	}
	return nil
}

// GetByID fetches a DMOC by identifier.
func (r *DmocRepository) GetByID(ctx context.Context, id string) (*models.DmocRequest, error) {
	const query = `SELECT ` + dmocColumns + ` FROM dmoc_requests WHERE id = $1`
	var dmoc models.DmocRequest
	if err := r.db.GetContext(ctx, &dmoc, query, id); err != nil {
		return nil, err
	}
	return &dmoc, nil
}

// List returns DMOCs matching the filter (newest first) plus the total count.
func (r *DmocRepository) List(ctx context.Context, filter models.DmocFilter) ([]models.DmocRequest, int, error) {
	args := make([]interface{}, 0, 2)
	conditions := make([]string, 0, 2)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Originator != "" {
		args = append(args, "%"+filter.Originator+"%")
		conditions = append(conditions, fmt.Sprintf("originator_name ILIKE $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM dmoc_requests"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count dmoc requests: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	query := "SELECT " + dmocColumns + " FROM dmoc_requests" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", size, (page-1)*size)

	var dmocs []models.DmocRequest
	if err := r.db.SelectContext(ctx, &dmocs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list dmoc requests: %w", err)
	}
	return dmocs, total, nil
}

// UpdateDraft persists editable fields while the DMOC is still a draft.
func (r *DmocRepository) UpdateDraft(ctx context.Context, dmoc *models.DmocRequest) error {
	dmoc.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE dmoc_requests
	SET title = :title, originator_name = :originator_name, department_id = :department_id,
	    department_name = :department_name, nature_of_change = :nature_of_change,
	    target_implementation_date = :target_implementation_date, planned_end_date = :planned_end_date,
	    description = :description, reason = :reason, updated_at = :updated_at
	WHERE id = :id AND status = '%s'`, models.DmocStatusDraft)
	result, err := r.db.NamedExecContext(ctx, query, dmoc)
	if err != nil {
		return fmt.Errorf("update dmoc draft: %w", err)
	}
	return requireRowsAffected(result)
}

// Submit assigns the DMOC number and flips the draft to SUBMITTED in one
// guarded write.
func (r *DmocRepository) Submit(ctx context.Context, id, dmocNumber string) error {
	query := fmt.Sprintf(`UPDATE dmoc_requests
	SET dmoc_number = :dmoc_number, status = '%s', updated_at = :updated_at
	WHERE id = :id AND status = '%s'`, models.DmocStatusSubmitted, models.DmocStatusDraft)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          id,
		"dmoc_number": dmocNumber,
		"updated_at":  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("submit dmoc request: %w", err)
	}
	return requireRowsAffected(result)
}

// Decide flips a submitted DMOC to its terminal status and writes the
// remarks log computed by the caller. Only one writer can win the
// SUBMITTED guard, so the log replacement is safe here.
func (r *DmocRepository) Decide(ctx context.Context, id string, status models.DmocStatus, remarksLog string) error {
	query := fmt.Sprintf(`UPDATE dmoc_requests
	SET status = :status, remarks_log = :remarks_log, updated_at = :updated_at
	WHERE id = :id AND status = '%s'`, models.DmocStatusSubmitted)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          id,
		"status":      status,
		"remarks_log": remarksLog,
		"updated_at":  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("decide dmoc request: %w", err)
	}
	return requireRowsAffected(result)
}

// AppendRemarks concatenates one entry onto the remarks log of a decided
// DMOC without touching its status. The append happens in SQL so two
// concurrent writers never overwrite each other's entries.
func (r *DmocRepository) AppendRemarks(ctx context.Context, id string, entry string) error {
	query := fmt.Sprintf(`UPDATE dmoc_requests
	SET remarks_log = CASE WHEN remarks_log = '' THEN :entry ELSE remarks_log || E'\n' || :entry END,
	    updated_at = :updated_at
	WHERE id = :id AND status IN ('%s', '%s')`, models.DmocStatusApproved, models.DmocStatusRejected)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         id,
		"entry":      entry,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("append dmoc remarks: %w", err)
	}
	return requireRowsAffected(result)
}

// DeleteDraft removes a DMOC that never left DRAFT.
func (r *DmocRepository) DeleteDraft(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM dmoc_requests WHERE id = $1 AND status = '%s'`, models.DmocStatusDraft)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete dmoc draft: %w", err)
	}
	return requireRowsAffected(result)
}
