package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/asetdigital/plant-moc-api/internal/dto"
	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
)

type dashboardStore interface {
	CountRequestsByStatus(ctx context.Context) (map[models.RequestStatus]int, error)
	CountRequestsByStage(ctx context.Context) (map[models.Stage]int, error)
	CountDmocsByStatus(ctx context.Context) (map[models.DmocStatus]int, error)
	ListOverdueRestorations(ctx context.Context, now time.Time) ([]models.MocRequest, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const dashboardSummaryKey = "dashboard:summary"

// DashboardService aggregates workload counts, with a short-lived cache in
// front of the counting queries. A nil cache disables caching entirely.
type DashboardService struct {
	repo   dashboardStore
	cache  summaryCache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(repo dashboardStore, cache summaryCache, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DashboardService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Summary returns the aggregated dashboard view.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummaryResponse, error) {
	if s.cache != nil {
		var cached dto.DashboardSummaryResponse
		if err := s.cache.Get(ctx, dashboardSummaryKey, &cached); err == nil {
			return &cached, nil
		}
	}

	summary, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardSummaryKey, summary, s.ttl); err != nil {
			s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context) (*dto.DashboardSummaryResponse, error) {
	byStatus, err := s.repo.CountRequestsByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests by status")
	}
	byStage, err := s.repo.CountRequestsByStage(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests by stage")
	}
	dmocsByStatus, err := s.repo.CountDmocsByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count dmocs by status")
	}

	now := s.now().UTC()
	overdueRequests, err := s.repo.ListOverdueRestorations(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overdue restorations")
	}

	overdue := make([]dto.OverdueRestorationItem, 0, len(overdueRequests))
	for _, request := range overdueRequests {
		item := dto.OverdueRestorationItem{
			ID:                     request.ID,
			ControlNumber:          request.ControlNumber,
			Title:                  request.Title,
			PlannedRestorationDate: request.PlannedRestorationDate,
		}
		if request.PlannedRestorationDate != nil {
			item.DaysOverdue = int(now.Sub(*request.PlannedRestorationDate).Hours() / 24)
		}
		overdue = append(overdue, item)
	}

	return &dto.DashboardSummaryResponse{
		RequestsByStatus: byStatus,
		RequestsByStage:  byStage,
		DmocsByStatus:    dmocsByStatus,
		OverdueCount:     len(overdue),
		Overdue:          overdue,
		GeneratedAt:      now,
	}, nil
}
