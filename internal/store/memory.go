package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/meridianlabs/company-researcher/internal/model"
)

// MemoryStore keeps runs in process memory. The default for one-shot CLI
// invocations and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]model.Run
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{runs: make(map[string]model.Run)}
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }

func (s *MemoryStore) CreateRun(_ context.Context, run model.Run) (*model.Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = model.RunStatusQueued
	}
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return nil, eris.Errorf("memory: run already exists: %s", run.ID)
	}
	s.runs[run.ID] = run
	return &run, nil
}

func (s *MemoryStore) UpdateRunStatus(_ context.Context, runID string, status model.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return eris.Errorf("memory: run not found: %s", runID)
	}
	run.Status = status
	run.UpdatedAt = time.Now().UTC()
	s.runs[runID] = run
	return nil
}

func (s *MemoryStore) SaveReport(_ context.Context, runID string, report string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return eris.Errorf("memory: run not found: %s", runID)
	}
	run.Report = report
	run.Status = model.RunStatusComplete
	run.UpdatedAt = time.Now().UTC()
	s.runs[runID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, eris.Errorf("memory: run not found: %s", runID)
	}
	return &run, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, filter RunFilter) ([]model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []model.Run
	for _, r := range s.runs {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Company != "" && r.Company != filter.Company {
			continue
		}
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(runs) {
			return nil, nil
		}
		runs = runs[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
