// Package history keeps the prediction runs served by the API.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Skufu/genewell/internal/predictor"
	"github.com/Skufu/genewell/internal/report"
)

var ErrNotFound = errors.New("prediction run not found")

// Run is one batch of predictions and where it came from.
type Run struct {
	ID            uuid.UUID                 `json:"id"`
	CreatedAt     time.Time                 `json:"created_at"`
	Source        string                    `json:"source"`
	TotalPatients int                       `json:"total_patients"`
	Summary       report.Summary            `json:"summary"`
	Results       []predictor.PatientResult `json:"results,omitempty"`
}

func NewRun(source string, results []predictor.PatientResult) *Run {
	return &Run{
		ID:            uuid.New(),
		CreatedAt:     time.Now().UTC(),
		Source:        source,
		TotalPatients: len(results),
		Summary:       report.Summarize(results),
		Results:       results,
	}
}

// Store persists runs. List returns the newest runs first without their
// per-patient results.
type Store interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	Ping(ctx context.Context) error
	Close() error
}

const DefaultListLimit = 20

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return DefaultListLimit
	}
	return limit
}
