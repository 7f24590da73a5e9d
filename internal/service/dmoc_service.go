package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/asetdigital/plant-moc-api/internal/dto"
	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
)

type dmocStore interface {
	Create(ctx context.Context, dmoc *models.DmocRequest) error
	GetByID(ctx context.Context, id string) (*models.DmocRequest, error)
	List(ctx context.Context, filter models.DmocFilter) ([]models.DmocRequest, int, error)
	UpdateDraft(ctx context.Context, dmoc *models.DmocRequest) error
	Submit(ctx context.Context, id, dmocNumber string) error
	Decide(ctx context.Context, id string, status models.DmocStatus, remarksLog string) error
	AppendRemarks(ctx context.Context, id string, entry string) error
	DeleteDraft(ctx context.Context, id string) error
}

type departmentSource interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// DefaultTemporaryChangeMaxDays caps the span of a temporary change.
const DefaultTemporaryChangeMaxDays = 90

// DmocService drives the departmental MOC lifecycle: draft → submitted →
// approved/rejected, with field validation on every write.
type DmocService struct {
	repo        dmocStore
	departments departmentSource
	numbers     *ControlNumberGenerator
	logger      *zap.Logger
	maxDays     int
	now         func() time.Time
}

// NewDmocService constructs the service. maxDays <= 0 falls back to the
// default 90-day cap.
func NewDmocService(repo dmocStore, departments departmentSource, numbers *ControlNumberGenerator, logger *zap.Logger, maxDays int) *DmocService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDays <= 0 {
		maxDays = DefaultTemporaryChangeMaxDays
	}
	return &DmocService{
		repo:        repo,
		departments: departments,
		numbers:     numbers,
		logger:      logger,
		maxDays:     maxDays,
		now:         time.Now,
	}
}

// CreateDraft validates and stores a new DMOC draft.
func (s *DmocService) CreateDraft(ctx context.Context, req dto.DmocDraftRequest, actor models.Actor) (*models.DmocRequest, error) {
	if err := s.validateDraft(req); err != nil {
		return nil, err
	}
	departmentID, departmentName, err := s.snapshotDepartment(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	dmoc := &models.DmocRequest{
		Title:                    strings.TrimSpace(req.Title),
		OriginatorName:           strings.TrimSpace(req.OriginatorName),
		DepartmentID:             departmentID,
		DepartmentName:           departmentName,
		NatureOfChange:           req.NatureOfChange,
		TargetImplementationDate: req.TargetImplementationDate,
		PlannedEndDate:           req.PlannedEndDate,
		Description:              strings.TrimSpace(req.Description),
		Reason:                   strings.TrimSpace(req.Reason),
		Status:                   models.DmocStatusDraft,
	}
	if err := s.repo.Create(ctx, dmoc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create dmoc draft")
	}
	s.logger.Info("dmoc draft created", zap.String("id", dmoc.ID), zap.String("actor", actor.ID))
	return dmoc, nil
}

// UpdateDraft edits a draft in place. Drafts are freely re-editable.
func (s *DmocService) UpdateDraft(ctx context.Context, id string, req dto.DmocDraftRequest, actor models.Actor) (*models.DmocRequest, error) {
	if err := s.validateDraft(req); err != nil {
		return nil, err
	}
	dmoc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if dmoc.Status != models.DmocStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only draft dmocs can be edited")
	}
	departmentID, departmentName, err := s.snapshotDepartment(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	dmoc.Title = strings.TrimSpace(req.Title)
	dmoc.OriginatorName = strings.TrimSpace(req.OriginatorName)
	dmoc.DepartmentID = departmentID
	dmoc.DepartmentName = departmentName
	dmoc.NatureOfChange = req.NatureOfChange
	dmoc.TargetImplementationDate = req.TargetImplementationDate
	dmoc.PlannedEndDate = req.PlannedEndDate
	dmoc.Description = strings.TrimSpace(req.Description)
	dmoc.Reason = strings.TrimSpace(req.Reason)

	if err := s.repo.UpdateDraft(ctx, dmoc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "dmoc changed state concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update dmoc draft")
	}
	return dmoc, nil
}

// Submit re-validates the full payload, assigns the DMOC number and flips
// the draft to SUBMITTED.
func (s *DmocService) Submit(ctx context.Context, id string, actor models.Actor) (*models.DmocRequest, error) {
	dmoc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if dmoc.Status != models.DmocStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only draft dmocs can be submitted")
	}
	// Stale or partially saved drafts must not slip through on submit.
	if err := s.validateDraft(dto.DmocDraftRequest{
		Title:                    dmoc.Title,
		OriginatorName:           dmoc.OriginatorName,
		NatureOfChange:           dmoc.NatureOfChange,
		TargetImplementationDate: dmoc.TargetImplementationDate,
		PlannedEndDate:           dmoc.PlannedEndDate,
		Description:              dmoc.Description,
		Reason:                   dmoc.Reason,
	}); err != nil {
		return nil, err
	}

	number, err := s.numbers.Generate(ctx, models.RequestTypeDmoc, s.now().UTC().Year())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Submit(ctx, id, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "dmoc was submitted concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit dmoc")
	}

	dmoc.DmocNumber = &number
	dmoc.Status = models.DmocStatusSubmitted
	s.logger.Info("dmoc submitted",
		zap.String("id", id),
		zap.String("dmoc_number", number),
		zap.String("actor", actor.ID),
	)
	return dmoc, nil
}

// Approve closes the review with an approval.
func (s *DmocService) Approve(ctx context.Context, id string, req dto.DmocDecisionRequest, actor models.Actor) (*models.DmocRequest, error) {
	return s.decide(ctx, id, models.DmocStatusApproved, req.Remarks, actor)
}

// Reject closes the review with a rejection.
func (s *DmocService) Reject(ctx context.Context, id string, req dto.DmocDecisionRequest, actor models.Actor) (*models.DmocRequest, error) {
	return s.decide(ctx, id, models.DmocStatusRejected, req.Remarks, actor)
}

// AppendRemarks adds to the remark log of a decided DMOC. Approved and
// rejected records are otherwise terminal.
func (s *DmocService) AppendRemarks(ctx context.Context, id string, req dto.DmocDecisionRequest, actor models.Actor) (*models.DmocRequest, error) {
	if strings.TrimSpace(req.Remarks) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "remarks must not be empty")
	}
	dmoc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if dmoc.Status != models.DmocStatusApproved && dmoc.Status != models.DmocStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "remarks can only be appended to decided dmocs")
	}

	// The repository appends the entry in SQL, so concurrent notes never
	// clobber each other.
	entry := formatRemark(actor.DisplayName, "NOTE", req.Remarks, s.now().UTC())
	if err := s.repo.AppendRemarks(ctx, id, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "dmoc changed state concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append dmoc remarks")
	}
	return s.load(ctx, id)
}

// Get returns a DMOC by identifier.
func (s *DmocService) Get(ctx context.Context, id string) (*models.DmocRequest, error) {
	return s.load(ctx, id)
}

// List returns paginated DMOCs matching the query.
func (s *DmocService) List(ctx context.Context, query dto.DmocQuery) ([]models.DmocRequest, *models.Pagination, error) {
	filter := models.DmocFilter{
		Status:     query.Status,
		Originator: query.Originator,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	dmocs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dmocs")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return dmocs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// DeleteDraft removes a DMOC that never left DRAFT.
func (s *DmocService) DeleteDraft(ctx context.Context, id string, actor models.Actor) error {
	dmoc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if dmoc.Status != models.DmocStatusDraft {
		return appErrors.Clone(appErrors.ErrInvalidState, "only draft dmocs can be deleted")
	}
	if err := s.repo.DeleteDraft(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "dmoc changed state concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete dmoc draft")
	}
	s.logger.Info("dmoc draft deleted", zap.String("id", id), zap.String("actor", actor.ID))
	return nil
}

func (s *DmocService) load(ctx context.Context, id string) (*models.DmocRequest, error) {
	dmoc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "dmoc not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dmoc")
	}
	return dmoc, nil
}

func (s *DmocService) decide(ctx context.Context, id string, status models.DmocStatus, remarks string, actor models.Actor) (*models.DmocRequest, error) {
	dmoc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if dmoc.Status != models.DmocStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only submitted dmocs can be decided")
	}

	newLog := dmoc.RemarksLog
	if strings.TrimSpace(remarks) != "" {
		newLog = appendRemark(newLog, actor.DisplayName, string(status), remarks, s.now().UTC())
	}
	if err := s.repo.Decide(ctx, id, status, newLog); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "dmoc was decided concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record dmoc decision")
	}

	dmoc.Status = status
	dmoc.RemarksLog = newLog
	s.logger.Info("dmoc decided",
		zap.String("id", id),
		zap.String("status", string(status)),
		zap.String("actor", actor.ID),
	)
	return dmoc, nil
}

// validateDraft enforces the DMOC payload rules with one message per
// violated rule.
func (s *DmocService) validateDraft(req dto.DmocDraftRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if strings.TrimSpace(req.OriginatorName) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "change originator name is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "description of change is required")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "reason for change is required")
	}
	if !req.NatureOfChange.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "nature of change must be PERMANENT or TEMPORARY")
	}
	if req.NatureOfChange == models.NatureTemporary {
		if req.TargetImplementationDate == nil {
			return appErrors.Clone(appErrors.ErrValidation, "target implementation date is required for temporary changes")
		}
		if req.PlannedEndDate == nil {
			return appErrors.Clone(appErrors.ErrValidation, "planned end date is required for temporary changes")
		}
		if req.PlannedEndDate.Before(*req.TargetImplementationDate) {
			return appErrors.Clone(appErrors.ErrValidation, "planned end date must not precede the target implementation date")
		}
		if req.PlannedEndDate.Sub(*req.TargetImplementationDate) > time.Duration(s.maxDays)*24*time.Hour {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("temporary changes may not span more than %d days", s.maxDays))
		}
	}
	return nil
}

func (s *DmocService) snapshotDepartment(ctx context.Context, departmentID string) (*string, *string, error) {
	id := strings.TrimSpace(departmentID)
	if id == "" {
		return nil, nil, nil
	}
	department, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "department not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve department")
	}
	return &department.ID, &department.Name, nil
}

// formatRemark renders one timestamped, attributed remark line.
func formatRemark(author, kind, remarks string, at time.Time) string {
	return fmt.Sprintf("[%s] %s (%s): %s", at.Format(time.RFC3339), author, kind, strings.TrimSpace(remarks))
}

// appendRemark adds one line to the remark log without ever rewriting
// earlier entries.
func appendRemark(log, author, kind, remarks string, at time.Time) string {
	entry := formatRemark(author, kind, remarks, at)
	if log == "" {
		return entry
	}
	return log + "\n" + entry
}
