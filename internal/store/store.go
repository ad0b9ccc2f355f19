// Package store persists research runs. The pipeline writes a row per job
// and updates its status as stages complete; the serve command reads rows
// back for clients.
package store

import (
	"context"

	"github.com/meridianlabs/company-researcher/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Company string          `json:"company,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for research runs.
type Store interface {
	CreateRun(ctx context.Context, run model.Run) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	SaveReport(ctx context.Context, runID string, report string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
