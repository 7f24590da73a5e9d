package service

import (
	"context"
	"fmt"

	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
)

// SequenceSource hands out monotonically increasing values scoped by
// (request type, year).
type SequenceSource interface {
	Next(ctx context.Context, requestType models.RequestType, year int) (int, error)
}

// ControlNumberGenerator formats human-readable control numbers of the form
// {PREFIX}-{YEAR}-{SEQ:4digits}. Uniqueness under concurrent submissions
// rests entirely on the sequence source being atomic per (type, year).
type ControlNumberGenerator struct {
	sequences SequenceSource
}

// NewControlNumberGenerator constructs a generator.
func NewControlNumberGenerator(sequences SequenceSource) *ControlNumberGenerator {
	return &ControlNumberGenerator{sequences: sequences}
}

// Generate returns the next control number for the given type and year.
func (g *ControlNumberGenerator) Generate(ctx context.Context, requestType models.RequestType, year int) (string, error) {
	prefix := requestType.ControlPrefix()
	if prefix == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported request type: %s", requestType))
	}
	seq, err := g.sequences.Next(ctx, requestType, year)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate control number sequence")
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq), nil
}
