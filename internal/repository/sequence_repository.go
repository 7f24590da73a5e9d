package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

// SequenceRepository hands out control-number sequence values from a
// dedicated counter table. The upsert increments the per-(type, year) row
// atomically, so two concurrent submissions of the same type and year can
// never observe the same value.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs the repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next returns the next sequence value for the given request type and year.
func (r *SequenceRepository) Next(ctx context.Context, requestType models.RequestType, year int) (int, error) {
	const query = `INSERT INTO control_number_counters (request_type, year, seq)
	VALUES ($1, $2, 1)
	ON CONFLICT (request_type, year) DO UPDATE SET seq = control_number_counters.seq + 1
	RETURNING seq`

	var seq int
	if err := r.db.GetContext(ctx, &seq, query, requestType, year); err != nil {
		return 0, fmt.Errorf("next control number sequence for %s/%d: %w", requestType, year, err)
	}
	return seq, nil
}

// requireRowsAffected maps a zero-row update to sql.ErrNoRows so services
// can distinguish lost races and stale state from storage failures.
func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
