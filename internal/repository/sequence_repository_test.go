package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/asetdigital/plant-moc-api/internal/models"
)

func TestSequenceRepositoryNext(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSequenceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO control_number_counters")).
		WithArgs(models.RequestTypeStandardEmoc, 2026).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(1))

	seq, err := repo.Next(context.Background(), models.RequestTypeStandardEmoc, 2026)
	require.NoError(t, err)
	require.Equal(t, 1, seq)

	// The upsert increments in place on conflict, so a second call for the
	// same (type, year) row returns the next value.
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (request_type, year) DO UPDATE SET seq = control_number_counters.seq + 1")).
		WithArgs(models.RequestTypeStandardEmoc, 2026).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(2))

	seq, err = repo.Next(context.Background(), models.RequestTypeStandardEmoc, 2026)
	require.NoError(t, err)
	require.Equal(t, 2, seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepositoryNextPropagatesError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSequenceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO control_number_counters")).
		WithArgs(models.RequestTypeOmoc, 2026).
		WillReturnError(context.DeadlineExceeded)

	_, err := repo.Next(context.Background(), models.RequestTypeOmoc, 2026)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}
