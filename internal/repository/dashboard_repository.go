package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

// DashboardRepository runs the aggregate queries backing dashboard views.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

type statusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

type stageCount struct {
	Stage string `db:"current_stage"`
	Count int    `db:"count"`
}

// CountRequestsByStatus groups MOC requests by status.
func (r *DashboardRepository) CountRequestsByStatus(ctx context.Context) (map[models.RequestStatus]int, error) {
	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM moc_requests GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count requests by status: %w", err)
	}
	counts := make(map[models.RequestStatus]int, len(rows))
	for _, row := range rows {
		counts[models.RequestStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// CountRequestsByStage groups MOC requests by current stage.
func (r *DashboardRepository) CountRequestsByStage(ctx context.Context) (map[models.Stage]int, error) {
	var rows []stageCount
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT current_stage, COUNT(*) AS count FROM moc_requests GROUP BY current_stage`); err != nil {
		return nil, fmt.Errorf("count requests by stage: %w", err)
	}
	counts := make(map[models.Stage]int, len(rows))
	for _, row := range rows {
		counts[models.Stage(row.Stage)] = row.Count
	}
	return counts, nil
}

// CountDmocsByStatus groups DMOC requests by status.
func (r *DashboardRepository) CountDmocsByStatus(ctx context.Context) (map[models.DmocStatus]int, error) {
	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM dmoc_requests GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count dmocs by status: %w", err)
	}
	counts := make(map[models.DmocStatus]int, len(rows))
	for _, row := range rows {
		counts[models.DmocStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// ListOverdueRestorations returns temporary changes past their planned
// restoration date that have not been restored or closed.
func (r *DashboardRepository) ListOverdueRestorations(ctx context.Context, now time.Time) ([]models.MocRequest, error) {
	query := fmt.Sprintf(`SELECT `+mocColumns+` FROM moc_requests
	WHERE is_temporary = TRUE
	  AND planned_restoration_date IS NOT NULL
	  AND planned_restoration_date < $1
	  AND status NOT IN ('%s', '%s', '%s')
	ORDER BY planned_restoration_date ASC`,
		models.StatusRestored, models.StatusClosed, models.StatusCancelled)

	var requests []models.MocRequest
	if err := r.db.SelectContext(ctx, &requests, query, now); err != nil {
		return nil, fmt.Errorf("list overdue restorations: %w", err)
	}
	return requests, nil
}
