package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
)

func TestGenerateFormatsControlNumber(t *testing.T) {
	gen := NewControlNumberGenerator(newSequenceStub())
	ctx := context.Background()

	first, err := gen.Generate(ctx, models.RequestTypeStandardEmoc, 2026)
	require.NoError(t, err)
	require.Equal(t, "EMOC-2026-0001", first)

	second, err := gen.Generate(ctx, models.RequestTypeStandardEmoc, 2026)
	require.NoError(t, err)
	require.Equal(t, "EMOC-2026-0002", second)
}

func TestGenerateSequencesPerTypeAndYear(t *testing.T) {
	gen := NewControlNumberGenerator(newSequenceStub())
	ctx := context.Background()

	emoc, err := gen.Generate(ctx, models.RequestTypeStandardEmoc, 2026)
	require.NoError(t, err)
	require.Equal(t, "EMOC-2026-0001", emoc)

	// A different type or year starts its own sequence.
	bypass, err := gen.Generate(ctx, models.RequestTypeBypassEmoc, 2026)
	require.NoError(t, err)
	require.Equal(t, "BYPASS-2026-0001", bypass)

	nextYear, err := gen.Generate(ctx, models.RequestTypeStandardEmoc, 2027)
	require.NoError(t, err)
	require.Equal(t, "EMOC-2027-0001", nextYear)
}

func TestGenerateRejectsUnknownType(t *testing.T) {
	gen := NewControlNumberGenerator(newSequenceStub())
	_, err := gen.Generate(context.Background(), "MYSTERY", 2026)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGenerateConcurrentAllocationsAreUnique(t *testing.T) {
	gen := NewControlNumberGenerator(newSequenceStub())
	ctx := context.Background()

	const workers = 32
	results := make(chan string, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := gen.Generate(ctx, models.RequestTypeOmoc, 2026)
			if err != nil {
				errs <- err
				return
			}
			results <- number
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	seen := make(map[string]struct{}, workers)
	for number := range results {
		_, dup := seen[number]
		require.False(t, dup, "duplicate control number %s", number)
		seen[number] = struct{}{}
	}
	require.Len(t, seen, workers)
}
