package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

func TestDmocRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDmocRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dmoc_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	dmoc := &models.DmocRequest{
		Title:          "Handover checklist",
		OriginatorName: "Sam Reyes",
		NatureOfChange: models.NaturePermanent,
		Description:    "d",
		Reason:         "r",
	}
	require.NoError(t, repo.Create(context.Background(), dmoc))
	require.NotEmpty(t, dmoc.ID)
	require.Equal(t, models.DmocStatusDraft, dmoc.Status)
	require.Nil(t, dmoc.DmocNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDmocRepositorySubmitGuardsDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDmocRepository(db)
	mock.ExpectExec(`UPDATE dmoc_requests\s+SET dmoc_number = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Submit(context.Background(), "dmoc-1", "DMOC-2026-0001"))

	mock.ExpectExec(`UPDATE dmoc_requests\s+SET dmoc_number = .+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Submit(context.Background(), "dmoc-1", "DMOC-2026-0002")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDmocRepositoryDecideGuardsSubmitted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDmocRepository(db)
	mock.ExpectExec(`UPDATE dmoc_requests\s+SET status = .+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Decide(context.Background(), "dmoc-1", models.DmocStatusApproved, "log")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDmocRepositoryAppendRemarksConcatenatesInSQL(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDmocRepository(db)
	mock.ExpectExec(`UPDATE dmoc_requests\s+SET remarks_log = CASE WHEN remarks_log = '' THEN .+ ELSE remarks_log \|\| E'\\n' \|\| .+ END`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AppendRemarks(context.Background(), "dmoc-1", "[2026-08-31T09:00:00Z] Pat Lee (NOTE): archived"))

	mock.ExpectExec(`UPDATE dmoc_requests\s+SET remarks_log = CASE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.AppendRemarks(context.Background(), "dmoc-2", "late note")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDmocRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDmocRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM dmoc_requests")).
		WithArgs(models.DmocStatusSubmitted, "%Reyes%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "dmoc_number", "title", "originator_name", "department_id", "department_name",
		"nature_of_change", "target_implementation_date", "planned_end_date", "description", "reason",
		"status", "remarks_log", "created_at", "updated_at",
	}).AddRow("dmoc-1", "DMOC-2026-0001", "t", "Sam Reyes", nil, nil,
		models.NaturePermanent, nil, nil, "d", "r", models.DmocStatusSubmitted, "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, dmoc_number, title")).
		WithArgs(models.DmocStatusSubmitted, "%Reyes%").
		WillReturnRows(rows)

	dmocs, total, err := repo.List(context.Background(), models.DmocFilter{
		Status:     models.DmocStatusSubmitted,
		Originator: "Reyes",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, dmocs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
