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

func approvalLevelRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "sort_order", "role_key", "is_active", "created_at", "updated_at"})
}

func TestApprovalLevelRepositoryListOrdersBySortOrderThenID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalLevelRepository(db)
	now := time.Now()
	rows := approvalLevelRows().
		AddRow("lvl-a", 1, "ROLE_A", true, now, now).
		AddRow("lvl-b", 2, "ROLE_B", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, sort_order, role_key, is_active, created_at, updated_at FROM approval_levels WHERE is_active = TRUE ORDER BY sort_order ASC, id ASC",
	)).WillReturnRows(rows)

	levels, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	require.Equal(t, "ROLE_A", levels[0].RoleKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalLevelRepositoryListAllIncludesInactive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalLevelRepository(db)
	now := time.Now()
	rows := approvalLevelRows().
		AddRow("lvl-a", 1, "ROLE_A", false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, sort_order, role_key, is_active, created_at, updated_at FROM approval_levels ORDER BY sort_order ASC, id ASC",
	)).WillReturnRows(rows)

	levels, err := repo.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	require.False(t, levels[0].IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalLevelRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalLevelRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_levels")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	level := &models.ApprovalLevel{ID: "lvl-missing", SortOrder: 5, RoleKey: "ROLE_X", IsActive: true}
	err := repo.Update(context.Background(), level)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
