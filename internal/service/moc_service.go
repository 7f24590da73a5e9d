package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/asetdigital/plant-moc-api/internal/dto"
	"github.com/asetdigital/plant-moc-api/internal/models"
	"github.com/asetdigital/plant-moc-api/internal/repository"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
)

type mocStore interface {
	Create(ctx context.Context, request *models.MocRequest) error
	GetByID(ctx context.Context, id string) (*models.MocRequest, error)
	List(ctx context.Context, filter models.MocFilter) ([]models.MocRequest, int, error)
	UpdateDraft(ctx context.Context, request *models.MocRequest) error
	DeleteDraft(ctx context.Context, id string) error
	TransitionStatus(ctx context.Context, params repository.StatusTransitionParams) error
	AdvanceStage(ctx context.Context, id string, from, to models.Stage, status *models.RequestStatus) error
	CountApprovers(ctx context.Context, requestID string) (int, error)
	InsertApprovers(ctx context.Context, approvers []models.MocApprover) error
	ListApprovers(ctx context.Context, requestID string) ([]models.MocApprover, error)
	ListApproversByRoles(ctx context.Context, requestID string, roleKeys []string) ([]models.MocApprover, error)
	GetApprover(ctx context.Context, requestID, approverID string) (*models.MocApprover, error)
	CompleteApprover(ctx context.Context, params repository.CompleteApproverParams) error
}

type approvalLevelSource interface {
	List(ctx context.Context, activeOnly bool) ([]models.ApprovalLevel, error)
}

// MocService runs the change-request workflow: draft maintenance, approver
// chain construction, the approver ledger and gated stage advancement.
type MocService struct {
	repo      mocStore
	levels    approvalLevelSource
	numbers   *ControlNumberGenerator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewMocService constructs the service.
func NewMocService(repo mocStore, levels approvalLevelSource, numbers *ControlNumberGenerator, validate *validator.Validate, logger *zap.Logger) *MocService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MocService{
		repo:      repo,
		levels:    levels,
		numbers:   numbers,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateDraft opens a new change request in DRAFT and assigns its control
// number.
func (s *MocService) CreateDraft(ctx context.Context, req dto.CreateMocRequest, actor models.Actor) (*models.MocRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change request payload")
	}
	if !req.RequestType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported request type: %s", req.RequestType))
	}

	now := s.now().UTC()
	controlNumber, err := s.numbers.Generate(ctx, req.RequestType, now.Year())
	if err != nil {
		return nil, err
	}

	request := &models.MocRequest{
		ControlNumber:            controlNumber,
		RequestType:              req.RequestType,
		Title:                    strings.TrimSpace(req.Title),
		Description:              strings.TrimSpace(req.Description),
		OriginatorID:             actor.ID,
		OriginatorName:           actor.DisplayName,
		DepartmentID:             optionalString(req.DepartmentID),
		CurrentStage:             models.StageInitiation,
		Status:                   models.StatusDraft,
		IsTemporary:              req.IsTemporary,
		TargetImplementationDate: req.TargetImplementationDate,
		PlannedRestorationDate:   req.PlannedRestorationDate,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create change request")
	}
	s.logger.Info("change request created",
		zap.String("id", request.ID),
		zap.String("control_number", request.ControlNumber),
		zap.String("actor", actor.ID),
	)
	return request, nil
}

// UpdateDraft edits a request that has not started stage advancement.
func (s *MocService) UpdateDraft(ctx context.Context, id string, req dto.UpdateMocDraftRequest, actor models.Actor) (*models.MocRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change request payload")
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// Once the first stage advancement happens the record is append-only.
	editable := request.Status == models.StatusDraft ||
		(request.Status == models.StatusSubmitted && request.CurrentStage == models.StageInitiation)
	if !editable {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "request is no longer editable")
	}

	request.Title = strings.TrimSpace(req.Title)
	request.Description = strings.TrimSpace(req.Description)
	request.DepartmentID = optionalString(req.DepartmentID)
	if req.IsTemporary != nil {
		request.IsTemporary = *req.IsTemporary
	}
	request.TargetImplementationDate = req.TargetImplementationDate
	request.PlannedRestorationDate = req.PlannedRestorationDate

	if err := s.repo.UpdateDraft(ctx, request); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request changed state concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update change request")
	}
	return request, nil
}

// DeleteDraft removes a request that never left DRAFT.
func (s *MocService) DeleteDraft(ctx context.Context, id string, actor models.Actor) error {
	request, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if request.Status != models.StatusDraft {
		return appErrors.Clone(appErrors.ErrInvalidState, "only draft requests can be deleted")
	}
	if err := s.repo.DeleteDraft(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "request changed state concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete change request")
	}
	s.logger.Info("change request draft deleted", zap.String("id", id), zap.String("actor", actor.ID))
	return nil
}

// Submit moves a draft into review: the approver chain is materialized and
// the status flips to SUBMITTED.
func (s *MocService) Submit(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only draft requests can be submitted")
	}

	if err := s.EnsureApproverChain(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.TransitionStatus(ctx, repository.StatusTransitionParams{
		ID:   id,
		From: []models.RequestStatus{models.StatusDraft},
		To:   models.StatusSubmitted,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request was submitted concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit change request")
	}
	request.Status = models.StatusSubmitted
	s.logger.Info("change request submitted",
		zap.String("id", id),
		zap.String("control_number", request.ControlNumber),
		zap.String("actor", actor.ID),
	)
	return request, nil
}

// EnsureApproverChain materializes one approver slot per active approval
// level, in template order, exactly once. Subsequent calls are no-ops, so
// the operation is safe to invoke defensively. An empty active-level set
// yields an empty chain, which the stage gates treat as "no gate".
func (s *MocService) EnsureApproverChain(ctx context.Context, requestID string) error {
	existing, err := s.repo.CountApprovers(ctx, requestID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect approver chain")
	}
	if existing > 0 {
		return nil
	}

	levels, err := s.levels.List(ctx, true)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval levels")
	}
	if len(levels) == 0 {
		return nil
	}
	// The repository already orders by (sort_order, id); sorting here keeps
	// the chain deterministic regardless of the source.
	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].SortOrder != levels[j].SortOrder {
			return levels[i].SortOrder < levels[j].SortOrder
		}
		return levels[i].ID < levels[j].ID
	})

	now := s.now().UTC()
	approvers := make([]models.MocApprover, len(levels))
	for i, level := range levels {
		approvers[i] = models.MocApprover{
			MocRequestID: requestID,
			RoleKey:      level.RoleKey,
			SortOrder:    i,
			IsCompleted:  false,
			CreatedAt:    now,
		}
	}
	if err := s.repo.InsertApprovers(ctx, approvers); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build approver chain")
	}
	return nil
}

// CompleteApprover records a one-time decision for a slot in the chain.
// Completing a slot never advances the stage; advancement is a separate,
// explicit call so an operator can collect all decisions first.
func (s *MocService) CompleteApprover(ctx context.Context, requestID, approverID string, req dto.CompleteApproverRequest, actor models.Actor) (*models.MocApprover, error) {
	if _, err := s.load(ctx, requestID); err != nil {
		return nil, err
	}
	approver, err := s.repo.GetApprover(ctx, requestID, approverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approver slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approver slot")
	}
	if approver.IsCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "approver slot already completed")
	}

	now := s.now().UTC()
	params := repository.CompleteApproverParams{
		ApproverID:  approverID,
		RequestID:   requestID,
		Approved:    req.Approved,
		Remarks:     optionalString(req.Remarks),
		CompletedAt: now,
		CompletedBy: actor.ID,
	}
	if err := s.repo.CompleteApprover(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "approver slot was completed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete approver slot")
	}

	approved := req.Approved
	approver.IsCompleted = true
	approver.IsApproved = &approved
	approver.Remarks = params.Remarks
	approver.CompletedAt = &now
	approver.CompletedBy = &params.CompletedBy
	s.logger.Info("approver decision recorded",
		zap.String("request_id", requestID),
		zap.String("approver_id", approverID),
		zap.Bool("approved", approved),
		zap.String("actor", actor.ID),
	)
	return approver, nil
}

// AdvanceStage moves a request to the next stage once the current stage's
// gate is satisfied. A gate is satisfied when every existing slot for a
// required role is completed and approved; a required role with no slot at
// all does not block (the chain was never configured to require it).
func (s *MocService) AdvanceStage(ctx context.Context, id string, actor models.Actor) (*dto.StageAdvanceResponse, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := models.NextStage(request.CurrentStage)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "request is already at the final stage")
	}

	required := models.RequiredRoles(request.CurrentStage)
	if len(required) > 0 {
		slots, err := s.repo.ListApproversByRoles(ctx, id, required)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage gate approvers")
		}
		if missing := unsatisfiedRoles(slots); len(missing) > 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidState,
				fmt.Sprintf("stage gate unsatisfied: pending approval for %s", strings.Join(missing, ", "))).
				WithDetails(map[string][]string{"missing_roles": missing})
		}
	}

	status := request.Status
	var forced *models.RequestStatus
	if derived, ok := models.StatusOnEntering(next); ok {
		forced = &derived
		status = derived
	}

	if err := s.repo.AdvanceStage(ctx, id, request.CurrentStage, next, forced); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request stage changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance stage")
	}

	s.logger.Info("stage advanced",
		zap.String("id", id),
		zap.String("from", string(request.CurrentStage)),
		zap.String("to", string(next)),
		zap.String("actor", actor.ID),
	)
	return &dto.StageAdvanceResponse{ID: id, CurrentStage: next, Status: status}, nil
}

// MarkInactive parks a submitted or active request.
func (s *MocService) MarkInactive(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error) {
	now := s.now().UTC()
	return s.transition(ctx, id, actor, repository.StatusTransitionParams{
		ID:               id,
		From:             []models.RequestStatus{models.StatusSubmitted, models.StatusActive},
		To:               models.StatusInactive,
		MarkedInactiveAt: &now,
	}, "request must be submitted or active to mark inactive")
}

// Reactivate returns an inactive request to ACTIVE.
func (s *MocService) Reactivate(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error) {
	return s.transition(ctx, id, actor, repository.StatusTransitionParams{
		ID:                 id,
		From:               []models.RequestStatus{models.StatusInactive},
		To:                 models.StatusActive,
		ClearInactiveStamp: true,
	}, "only inactive requests can be reactivated")
}

// Cancel withdraws a request that has not started implementation.
func (s *MocService) Cancel(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error) {
	return s.transition(ctx, id, actor, repository.StatusTransitionParams{
		ID:   id,
		From: []models.RequestStatus{models.StatusDraft, models.StatusSubmitted},
		To:   models.StatusCancelled,
	}, "only draft or submitted requests can be cancelled")
}

// MarkForRestoration flags an active temporary change as due for
// restoration.
func (s *MocService) MarkForRestoration(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.IsTemporary {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only temporary changes can be marked for restoration")
	}
	return s.transition(ctx, id, actor, repository.StatusTransitionParams{
		ID:   id,
		From: []models.RequestStatus{models.StatusActive},
		To:   models.StatusForRestoration,
	}, "only active requests can be marked for restoration")
}

// MarkRestored records that a temporary change has been restored.
func (s *MocService) MarkRestored(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error) {
	return s.transition(ctx, id, actor, repository.StatusTransitionParams{
		ID:   id,
		From: []models.RequestStatus{models.StatusForRestoration},
		To:   models.StatusRestored,
	}, "request is not awaiting restoration")
}

// Get returns a request with its approver chain and display flags.
func (s *MocService) Get(ctx context.Context, id string) (*dto.MocDetail, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	approvers, err := s.repo.ListApprovers(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approver chain")
	}
	return &dto.MocDetail{
		MocItem: dto.MocItem{
			MocRequest:         *request,
			OverdueRestoration: request.RestorationOverdue(s.now().UTC()),
		},
		Approvers: approvers,
	}, nil
}

// List returns paginated requests matching the query.
func (s *MocService) List(ctx context.Context, query dto.MocQuery) ([]dto.MocItem, *models.Pagination, error) {
	filter := models.MocFilter{
		Status:       query.Status,
		Stage:        query.Stage,
		RequestType:  query.RequestType,
		OriginatorID: query.OriginatorID,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list change requests")
	}

	now := s.now().UTC()
	items := make([]dto.MocItem, len(requests))
	for i := range requests {
		items[i] = dto.MocItem{
			MocRequest:         requests[i],
			OverdueRestoration: requests[i].RestorationOverdue(now),
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *MocService) load(ctx context.Context, id string) (*models.MocRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "change request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load change request")
	}
	return request, nil
}

func (s *MocService) transition(ctx context.Context, id string, actor models.Actor, params repository.StatusTransitionParams, stateMessage string) (*models.MocRequest, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, status := range params.From {
		if request.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, stateMessage)
	}

	if err := s.repo.TransitionStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request changed state concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
	}

	request.Status = params.To
	if params.MarkedInactiveAt != nil {
		request.MarkedInactiveAt = params.MarkedInactiveAt
	} else if params.ClearInactiveStamp {
		request.MarkedInactiveAt = nil
	}
	s.logger.Info("request status changed",
		zap.String("id", id),
		zap.String("status", string(params.To)),
		zap.String("actor", actor.ID),
	)
	return request, nil
}

// unsatisfiedRoles returns the distinct role keys of slots that are not yet
// completed and approved.
func unsatisfiedRoles(slots []models.MocApprover) []string {
	seen := make(map[string]struct{})
	var missing []string
	for i := range slots {
		if slots[i].Satisfied() {
			continue
		}
		if _, ok := seen[slots[i].RoleKey]; ok {
			continue
		}
		seen[slots[i].RoleKey] = struct{}{}
		missing = append(missing, slots[i].RoleKey)
	}
	return missing
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
