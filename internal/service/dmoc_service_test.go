package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/asetdigital/plant-moc-api/internal/dto"
	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
)

type dmocRepoStub struct {
	dmocs  map[string]*models.DmocRequest
	nextID int
}

func newDmocRepoStub() *dmocRepoStub {
	return &dmocRepoStub{dmocs: make(map[string]*models.DmocRequest)}
}

func (m *dmocRepoStub) Create(ctx context.Context, dmoc *models.DmocRequest) error {
	m.nextID++
	dmoc.ID = fmt.Sprintf("dmoc-%d", m.nextID)
	clone := *dmoc
	m.dmocs[dmoc.ID] = &clone
	return nil
}

func (m *dmocRepoStub) GetByID(ctx context.Context, id string) (*models.DmocRequest, error) {
	dmoc, ok := m.dmocs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *dmoc
	return &clone, nil
}

func (m *dmocRepoStub) List(ctx context.Context, filter models.DmocFilter) ([]models.DmocRequest, int, error) {
	result := make([]models.DmocRequest, 0, len(m.dmocs))
	for _, dmoc := range m.dmocs {
		result = append(result, *dmoc)
	}
	return result, len(result), nil
}

func (m *dmocRepoStub) UpdateDraft(ctx context.Context, dmoc *models.DmocRequest) error {
	stored, ok := m.dmocs[dmoc.ID]
	if !ok || stored.Status != models.DmocStatusDraft {
		return sql.ErrNoRows
	}
	clone := *dmoc
	clone.Status = stored.Status
	m.dmocs[dmoc.ID] = &clone
	return nil
}

func (m *dmocRepoStub) Submit(ctx context.Context, id, dmocNumber string) error {
	stored, ok := m.dmocs[id]
	if !ok || stored.Status != models.DmocStatusDraft {
		return sql.ErrNoRows
	}
	stored.DmocNumber = &dmocNumber
	stored.Status = models.DmocStatusSubmitted
	return nil
}

func (m *dmocRepoStub) Decide(ctx context.Context, id string, status models.DmocStatus, remarksLog string) error {
	stored, ok := m.dmocs[id]
	if !ok || stored.Status != models.DmocStatusSubmitted {
		return sql.ErrNoRows
	}
	stored.Status = status
	stored.RemarksLog = remarksLog
	return nil
}

func (m *dmocRepoStub) AppendRemarks(ctx context.Context, id string, entry string) error {
	stored, ok := m.dmocs[id]
	if !ok || (stored.Status != models.DmocStatusApproved && stored.Status != models.DmocStatusRejected) {
		return sql.ErrNoRows
	}
	// Mirrors the SQL-side concatenation: entries only ever accumulate.
	if stored.RemarksLog == "" {
		stored.RemarksLog = entry
	} else {
		stored.RemarksLog += "\n" + entry
	}
	return nil
}

func (m *dmocRepoStub) DeleteDraft(ctx context.Context, id string) error {
	stored, ok := m.dmocs[id]
	if !ok || stored.Status != models.DmocStatusDraft {
		return sql.ErrNoRows
	}
	delete(m.dmocs, id)
	return nil
}

type departmentSourceStub struct {
	departments map[string]*models.Department
}

func (d *departmentSourceStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	department, ok := d.departments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *department
	return &clone, nil
}

func newTestDmocService(repo *dmocRepoStub) *DmocService {
	departments := &departmentSourceStub{departments: map[string]*models.Department{
		"dept-ops": {ID: "dept-ops", Code: "OPS", Name: "Operations", IsActive: true},
	}}
	return NewDmocService(repo, departments, NewControlNumberGenerator(newSequenceStub()), nil, 0)
}

func validDmocDraft() dto.DmocDraftRequest {
	return dto.DmocDraftRequest{
		Title:          "Shift handover format change",
		OriginatorName: "Sam Reyes",
		DepartmentID:   "dept-ops",
		NatureOfChange: models.NaturePermanent,
		Description:    "Switch to structured handover checklist",
		Reason:         "Reduce missed items between shifts",
	}
}

func temporaryDraft(start time.Time, days int) dto.DmocDraftRequest {
	end := start.AddDate(0, 0, days)
	req := validDmocDraft()
	req.NatureOfChange = models.NatureTemporary
	req.TargetImplementationDate = &start
	req.PlannedEndDate = &end
	return req
}

func TestDmocCreateDraftValidationMessages(t *testing.T) {
	svc := newTestDmocService(newDmocRepoStub())
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*dto.DmocDraftRequest)
		message string
	}{
		{"missing title", func(r *dto.DmocDraftRequest) { r.Title = " " }, "title is required"},
		{"missing originator", func(r *dto.DmocDraftRequest) { r.OriginatorName = "" }, "change originator name is required"},
		{"missing description", func(r *dto.DmocDraftRequest) { r.Description = "" }, "description of change is required"},
		{"missing reason", func(r *dto.DmocDraftRequest) { r.Reason = "" }, "reason for change is required"},
		{"bad nature", func(r *dto.DmocDraftRequest) { r.NatureOfChange = "SOMETIMES" }, "nature of change must be PERMANENT or TEMPORARY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validDmocDraft()
			tc.mutate(&req)
			_, err := svc.CreateDraft(ctx, req, testActor)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			require.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestDmocTemporaryDateRules(t *testing.T) {
	svc := newTestDmocService(newDmocRepoStub())
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("dates required", func(t *testing.T) {
		req := validDmocDraft()
		req.NatureOfChange = models.NatureTemporary
		_, err := svc.CreateDraft(ctx, req, testActor)
		require.Error(t, err)
		require.Equal(t, "target implementation date is required for temporary changes", appErrors.FromError(err).Message)

		req.TargetImplementationDate = &start
		_, err = svc.CreateDraft(ctx, req, testActor)
		require.Error(t, err)
		require.Equal(t, "planned end date is required for temporary changes", appErrors.FromError(err).Message)
	})

	t.Run("end before start", func(t *testing.T) {
		req := temporaryDraft(start, -1)
		_, err := svc.CreateDraft(ctx, req, testActor)
		require.Error(t, err)
		require.Equal(t, "planned end date must not precede the target implementation date", appErrors.FromError(err).Message)
	})

	t.Run("over the cap", func(t *testing.T) {
		_, err := svc.CreateDraft(ctx, temporaryDraft(start, 105), testActor)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		require.Contains(t, appErr.Message, "90 days")
	})

	t.Run("within the cap", func(t *testing.T) {
		dmoc, err := svc.CreateDraft(ctx, temporaryDraft(start, 60), testActor)
		require.NoError(t, err)
		require.Equal(t, models.DmocStatusDraft, dmoc.Status)
	})

	t.Run("exactly the cap", func(t *testing.T) {
		_, err := svc.CreateDraft(ctx, temporaryDraft(start, 90), testActor)
		require.NoError(t, err)
	})
}

func TestDmocGetMapsMissingToNotFound(t *testing.T) {
	repo := newDmocRepoStub()
	svc := newTestDmocService(repo)
	ctx := context.Background()

	_, err := svc.Get(ctx, "dmoc-missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	require.Equal(t, "dmoc not found", appErr.Message)

	dmoc, err := svc.CreateDraft(ctx, validDmocDraft(), testActor)
	require.NoError(t, err)
	found, err := svc.Get(ctx, dmoc.ID)
	require.NoError(t, err)
	require.Equal(t, dmoc.ID, found.ID)

	_, err = svc.Submit(ctx, "dmoc-missing", testActor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDmocSubmitAssignsNumber(t *testing.T) {
	repo := newDmocRepoStub()
	svc := newTestDmocService(repo)
	ctx := context.Background()

	dmoc, err := svc.CreateDraft(ctx, validDmocDraft(), testActor)
	require.NoError(t, err)
	require.Nil(t, dmoc.DmocNumber)

	submitted, err := svc.Submit(ctx, dmoc.ID, testActor)
	require.NoError(t, err)
	require.Equal(t, models.DmocStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.DmocNumber)
	require.Regexp(t, `^DMOC-\d{4}-0001$`, *submitted.DmocNumber)

	second, err := svc.CreateDraft(ctx, validDmocDraft(), testActor)
	require.NoError(t, err)
	secondSubmitted, err := svc.Submit(ctx, second.ID, testActor)
	require.NoError(t, err)
	require.Regexp(t, `^DMOC-\d{4}-0002$`, *secondSubmitted.DmocNumber)
}

func TestDmocSubmitOnlyFromDraft(t *testing.T) {
	repo := newDmocRepoStub()
	svc := newTestDmocService(repo)
	ctx := context.Background()

	dmoc, err := svc.CreateDraft(ctx, validDmocDraft(), testActor)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, dmoc.ID, testActor)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, dmoc.ID, testActor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestDmocDecisionFlow(t *testing.T) {
	repo := newDmocRepoStub()
	svc := newTestDmocService(repo)
	ctx := context.Background()

	dmoc, err := svc.CreateDraft(ctx, validDmocDraft(), testActor)
	require.NoError(t, err)

	// Draft cannot be decided.
	_, err = svc.Approve(ctx, dmoc.ID, dto.DmocDecisionRequest{}, testActor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	_, err = svc.Submit(ctx, dmoc.ID, testActor)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, dmoc.ID, dto.DmocDecisionRequest{Remarks: "fine by me"}, testActor)
	require.NoError(t, err)
	require.Equal(t, models.DmocStatusApproved, approved.Status)
	require.Contains(t, approved.RemarksLog, "fine by me")
	require.Contains(t, approved.RemarksLog, testActor.DisplayName)

	// Decided records are terminal for decisions.
	_, err = svc.Reject(ctx, dmoc.ID, dto.DmocDecisionRequest{}, testActor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestDmocRemarksAppendOnly(t *testing.T) {
	repo := newDmocRepoStub()
	svc := newTestDmocService(repo)
	ctx := context.Background()

	dmoc, err := svc.CreateDraft(ctx, validDmocDraft(), testActor)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, dmoc.ID, testActor)
	require.NoError(t, err)
	rejected, err := svc.Reject(ctx, dmoc.ID, dto.DmocDecisionRequest{Remarks: "needs department budget sign-off"}, testActor)
	require.NoError(t, err)

	updated, err := svc.AppendRemarks(ctx, dmoc.ID, dto.DmocDecisionRequest{Remarks: "budget approved, please resubmit next quarter"}, testActor)
	require.NoError(t, err)
	require.Contains(t, updated.RemarksLog, "needs department budget sign-off")
	require.Contains(t, updated.RemarksLog, "budget approved, please resubmit next quarter")
	require.True(t, strings.HasPrefix(updated.RemarksLog, rejected.RemarksLog))
	require.Equal(t, 2, strings.Count(updated.RemarksLog, "\n")+1)

	_, err = svc.AppendRemarks(ctx, dmoc.ID, dto.DmocDecisionRequest{Remarks: " "}, testActor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDmocRemarksSurviveInterleavedAppend(t *testing.T) {
	repo := newDmocRepoStub()
	svc := newTestDmocService(repo)
	ctx := context.Background()

	dmoc, err := svc.CreateDraft(ctx, validDmocDraft(), testActor)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, dmoc.ID, testActor)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, dmoc.ID, dto.DmocDecisionRequest{}, testActor)
	require.NoError(t, err)

	// Another writer slips a note in; the follow-up append must not erase it.
	require.NoError(t, repo.AppendRemarks(ctx, dmoc.ID, "[2026-08-30T10:00:00Z] Alex Kim (NOTE): field check done"))

	updated, err := svc.AppendRemarks(ctx, dmoc.ID, dto.DmocDecisionRequest{Remarks: "documentation archived"}, testActor)
	require.NoError(t, err)
	require.Contains(t, updated.RemarksLog, "field check done")
	require.Contains(t, updated.RemarksLog, "documentation archived")
	require.Equal(t, 2, strings.Count(updated.RemarksLog, "\n")+1)
}

func TestDmocDepartmentSnapshot(t *testing.T) {
	repo := newDmocRepoStub()
	svc := newTestDmocService(repo)
	ctx := context.Background()

	dmoc, err := svc.CreateDraft(ctx, validDmocDraft(), testActor)
	require.NoError(t, err)
	require.NotNil(t, dmoc.DepartmentName)
	require.Equal(t, "Operations", *dmoc.DepartmentName)

	req := validDmocDraft()
	req.DepartmentID = "dept-missing"
	_, err = svc.CreateDraft(ctx, req, testActor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Equal(t, "department not found", appErr.Message)
}

func TestDmocDraftDeleteAndEditRules(t *testing.T) {
	repo := newDmocRepoStub()
	svc := newTestDmocService(repo)
	ctx := context.Background()

	dmoc, err := svc.CreateDraft(ctx, validDmocDraft(), testActor)
	require.NoError(t, err)

	edit := validDmocDraft()
	edit.Title = "Shift handover format change v2"
	updated, err := svc.UpdateDraft(ctx, dmoc.ID, edit, testActor)
	require.NoError(t, err)
	require.Equal(t, "Shift handover format change v2", updated.Title)

	_, err = svc.Submit(ctx, dmoc.ID, testActor)
	require.NoError(t, err)

	_, err = svc.UpdateDraft(ctx, dmoc.ID, edit, testActor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	err = svc.DeleteDraft(ctx, dmoc.ID, testActor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}
