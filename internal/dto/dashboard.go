package dto

import (
	"time"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

// DashboardSummaryResponse aggregates workload counts for display.
type DashboardSummaryResponse struct {
	RequestsByStatus map[models.RequestStatus]int `json:"requests_by_status"`
	RequestsByStage  map[models.Stage]int         `json:"requests_by_stage"`
	DmocsByStatus    map[models.DmocStatus]int    `json:"dmocs_by_status"`
	OverdueCount     int                          `json:"overdue_count"`
	Overdue          []OverdueRestorationItem     `json:"overdue"`
	GeneratedAt      time.Time                    `json:"generated_at"`
}

// OverdueRestorationItem flags a temporary change past its planned
// restoration date.
type OverdueRestorationItem struct {
	ID                     string     `json:"id"`
	ControlNumber          string     `json:"control_number"`
	Title                  string     `json:"title"`
	PlannedRestorationDate *time.Time `json:"planned_restoration_date,omitempty"`
	DaysOverdue            int        `json:"days_overdue"`
}
