package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/asetdigital/plant-moc-api/internal/dto"
	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
)

type approvalLevelStore interface {
	List(ctx context.Context, activeOnly bool) ([]models.ApprovalLevel, error)
	FindByID(ctx context.Context, id string) (*models.ApprovalLevel, error)
	Create(ctx context.Context, level *models.ApprovalLevel) error
	Update(ctx context.Context, level *models.ApprovalLevel) error
	Delete(ctx context.Context, id string) error
}

// ApprovalLevelService manages the approval chain template. Edits here only
// affect chains built after the change; existing requests keep their slots.
type ApprovalLevelService struct {
	repo      approvalLevelStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApprovalLevelService constructs the service.
func NewApprovalLevelService(repo approvalLevelStore, logger *zap.Logger) *ApprovalLevelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalLevelService{
		repo:      repo,
		validator: validator.New(),
		logger:    logger,
	}
}

// List returns approval levels in chain order.
func (s *ApprovalLevelService) List(ctx context.Context, activeOnly bool) ([]models.ApprovalLevel, error) {
	levels, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approval levels")
	}
	return levels, nil
}

// Get fetches a single approval level.
func (s *ApprovalLevelService) Get(ctx context.Context, id string) (*models.ApprovalLevel, error) {
	level, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get approval level")
	}
	return level, nil
}

// Create adds a link to the chain template.
func (s *ApprovalLevelService) Create(ctx context.Context, req dto.CreateApprovalLevelRequest, actor models.Actor) (*models.ApprovalLevel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	level := &models.ApprovalLevel{
		SortOrder: req.SortOrder,
		RoleKey:   strings.TrimSpace(req.RoleKey),
		IsActive:  true,
	}
	if req.IsActive != nil {
		level.IsActive = *req.IsActive
	}
	if err := s.repo.Create(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval level")
	}
	s.logger.Info("approval level created",
		zap.String("id", level.ID),
		zap.String("role_key", level.RoleKey),
		zap.String("actor", actor.ID),
	)
	return level, nil
}

// Update edits an existing level.
func (s *ApprovalLevelService) Update(ctx context.Context, id string, req dto.UpdateApprovalLevelRequest, actor models.Actor) (*models.ApprovalLevel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	level, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	level.SortOrder = req.SortOrder
	level.RoleKey = strings.TrimSpace(req.RoleKey)
	if req.IsActive != nil {
		level.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, level); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update approval level")
	}
	s.logger.Info("approval level updated", zap.String("id", id), zap.String("actor", actor.ID))
	return level, nil
}

// Delete removes a level from the template.
func (s *ApprovalLevelService) Delete(ctx context.Context, id string, actor models.Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "approval level not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete approval level")
	}
	s.logger.Info("approval level deleted", zap.String("id", id), zap.String("actor", actor.ID))
	return nil
}
