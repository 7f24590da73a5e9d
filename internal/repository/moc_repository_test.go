package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func mocRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "control_number", "request_type", "title", "description", "originator_id", "originator_name",
		"department_id", "current_stage", "status", "is_temporary", "target_implementation_date",
		"planned_restoration_date", "marked_inactive_at", "created_at", "updated_at",
	})
}

func TestMocRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMocRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO moc_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.MocRequest{
		ControlNumber:  "EMOC-2026-0001",
		RequestType:    models.RequestTypeStandardEmoc,
		Title:          "Replace relief valve",
		Description:    "Swap PSV-101",
		OriginatorID:   "user-1",
		OriginatorName: "Pat Lee",
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.StageInitiation, request.CurrentStage)
	require.Equal(t, models.StatusDraft, request.Status)

	now := time.Now()
	rows := mocRows().AddRow(request.ID, request.ControlNumber, request.RequestType, request.Title,
		request.Description, request.OriginatorID, request.OriginatorName, nil,
		request.CurrentStage, request.Status, false, nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, control_number, request_type")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ControlNumber, found.ControlNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMocRepositoryTransitionStatusConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMocRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE moc_requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.TransitionStatus(context.Background(), StatusTransitionParams{
		ID:   "req-1",
		From: []models.RequestStatus{models.StatusDraft},
		To:   models.StatusSubmitted,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMocRepositoryAdvanceStageGuardsOnCurrentStage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMocRepository(db)
	mock.ExpectExec(`UPDATE moc_requests SET current_stage = .+ WHERE id = .+ AND current_stage = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.StatusApproved
	require.NoError(t, repo.AdvanceStage(context.Background(), "req-1",
		models.StageFinalApproval, models.StagePreImplementation, &status))

	mock.ExpectExec(`UPDATE moc_requests SET current_stage = .+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.AdvanceStage(context.Background(), "req-1",
		models.StageFinalApproval, models.StagePreImplementation, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMocRepositoryInsertApproversInTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMocRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO moc_approvers")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO moc_approvers")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	approvers := []models.MocApprover{
		{MocRequestID: "req-1", RoleKey: models.RoleKeyDepartmentManager, SortOrder: 0},
		{MocRequestID: "req-1", RoleKey: models.RoleKeyDivisionManager, SortOrder: 1},
	}
	require.NoError(t, repo.InsertApprovers(context.Background(), approvers))
	require.NotEmpty(t, approvers[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMocRepositoryCompleteApproverImmutable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMocRepository(db)
	mock.ExpectExec(`UPDATE moc_approvers\s+SET is_completed = TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CompleteApprover(context.Background(), CompleteApproverParams{
		ApproverID:  "apr-1",
		RequestID:   "req-1",
		Approved:    true,
		CompletedAt: time.Now(),
		CompletedBy: "user-1",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMocRepositoryListBuildsFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMocRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM moc_requests")).
		WithArgs(models.StatusActive, models.StageImplementation).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	rows := mocRows().AddRow("req-1", "EMOC-2026-0001", models.RequestTypeStandardEmoc, "t", "d",
		"user-1", "Pat Lee", nil, models.StageImplementation, models.StatusActive, false, nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, control_number, request_type")).
		WithArgs(models.StatusActive, models.StageImplementation).
		WillReturnRows(rows)

	requests, total, err := repo.List(context.Background(), models.MocFilter{
		Status: []models.RequestStatus{models.StatusActive},
		Stage:  models.StageImplementation,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, requests, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMocRepositoryListApproversByRoles(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMocRepository(db)

	// Empty role set short-circuits without touching the database.
	slots, err := repo.ListApproversByRoles(context.Background(), "req-1", nil)
	require.NoError(t, err)
	require.Nil(t, slots)

	rows := sqlmock.NewRows([]string{
		"id", "moc_request_id", "role_key", "sort_order", "is_completed", "is_approved",
		"remarks", "completed_at", "completed_by", "created_at",
	}).AddRow("apr-1", "req-1", models.RoleKeyDepartmentManager, 0, false, nil, nil, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, moc_request_id, role_key")).
		WithArgs("req-1", models.RoleKeyDepartmentManager).
		WillReturnRows(rows)

	slots, err = repo.ListApproversByRoles(context.Background(), "req-1", []string{models.RoleKeyDepartmentManager})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
