package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

// ApprovalLevelRepository persists the approval chain template.
type ApprovalLevelRepository struct {
	db *sqlx.DB
}

// NewApprovalLevelRepository constructs the repository.
func NewApprovalLevelRepository(db *sqlx.DB) *ApprovalLevelRepository {
	return &ApprovalLevelRepository{db: db}
}

const approvalLevelColumns = `id, sort_order, role_key, is_active, created_at, updated_at`

// List returns approval levels in chain order. Ties on sort_order are broken
// by id to keep the ordering deterministic.
func (r *ApprovalLevelRepository) List(ctx context.Context, activeOnly bool) ([]models.ApprovalLevel, error) {
	query := `SELECT ` + approvalLevelColumns + ` FROM approval_levels`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, id ASC`

	var levels []models.ApprovalLevel
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list approval levels: %w", err)
	}
	return levels, nil
}

// FindByID fetches a single approval level.
func (r *ApprovalLevelRepository) FindByID(ctx context.Context, id string) (*models.ApprovalLevel, error) {
	const query = `SELECT ` + approvalLevelColumns + ` FROM approval_levels WHERE id = $1`
	var level models.ApprovalLevel
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}

// Create inserts a new approval level.
func (r *ApprovalLevelRepository) Create(ctx context.Context, level *models.ApprovalLevel) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	level.CreatedAt = now
	level.UpdatedAt = now
	const query = `INSERT INTO approval_levels (id, sort_order, role_key, is_active, created_at, updated_at)
	VALUES (:id, :sort_order, :role_key, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("create approval level: %w", err)
	}
	return nil
}

// Update persists mutable approval level fields.
func (r *ApprovalLevelRepository) Update(ctx context.Context, level *models.ApprovalLevel) error {
	level.UpdatedAt = time.Now().UTC()
	const query = `UPDATE approval_levels
	SET sort_order = :sort_order, role_key = :role_key, is_active = :is_active, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, level)
	if err != nil {
		return fmt.Errorf("update approval level: %w", err)
	}
	return requireRowsAffected(result)
}

// Delete removes an approval level from the template. Chains already built
// for existing requests keep their snapshotted slots.
func (r *ApprovalLevelRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM approval_levels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete approval level: %w", err)
	}
	return requireRowsAffected(result)
}
