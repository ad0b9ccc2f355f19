package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/company-researcher/internal/model"
)

// storeUnderTest runs the same suite against every Store implementation.
func storeUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(context.Background()))
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestStore_CreateAndGetRun(t *testing.T) {
	for name, st := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := st.CreateRun(ctx, model.Run{
				Company:    "Acme",
				Industry:   "Robotics",
				HQLocation: "Berlin",
			})
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, model.RunStatusQueued, created.Status)
			assert.False(t, created.CreatedAt.IsZero())

			got, err := st.GetRun(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "Acme", got.Company)
			assert.Equal(t, "Robotics", got.Industry)
			assert.Equal(t, "Berlin", got.HQLocation)
		})
	}
}

func TestStore_CreateRunKeepsProvidedID(t *testing.T) {
	for name, st := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			created, err := st.CreateRun(context.Background(), model.Run{ID: "job-42", Company: "Acme"})
			require.NoError(t, err)
			assert.Equal(t, "job-42", created.ID)

			_, err = st.CreateRun(context.Background(), model.Run{ID: "job-42", Company: "Acme"})
			assert.Error(t, err, "duplicate id must be rejected")
		})
	}
}

func TestStore_UpdateRunStatus(t *testing.T) {
	for name, st := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := st.CreateRun(ctx, model.Run{Company: "Acme"})
			require.NoError(t, err)

			require.NoError(t, st.UpdateRunStatus(ctx, created.ID, model.RunStatusBriefing))

			got, err := st.GetRun(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, model.RunStatusBriefing, got.Status)

			assert.Error(t, st.UpdateRunStatus(ctx, "missing", model.RunStatusFailed))
		})
	}
}

func TestStore_SaveReportMarksComplete(t *testing.T) {
	for name, st := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created, err := st.CreateRun(ctx, model.Run{Company: "Acme"})
			require.NoError(t, err)

			require.NoError(t, st.SaveReport(ctx, created.ID, "# Acme研究报告"))

			got, err := st.GetRun(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "# Acme研究报告", got.Report)
			assert.Equal(t, model.RunStatusComplete, got.Status)
		})
	}
}

func TestStore_ListRunsFilters(t *testing.T) {
	for name, st := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a, err := st.CreateRun(ctx, model.Run{Company: "Acme"})
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond) // distinct created_at ordering
			_, err = st.CreateRun(ctx, model.Run{Company: "Globex"})
			require.NoError(t, err)
			require.NoError(t, st.UpdateRunStatus(ctx, a.ID, model.RunStatusComplete))

			all, err := st.ListRuns(ctx, RunFilter{})
			require.NoError(t, err)
			assert.Len(t, all, 2)
			assert.Equal(t, "Globex", all[0].Company, "newest first")

			acme, err := st.ListRuns(ctx, RunFilter{Company: "Acme"})
			require.NoError(t, err)
			require.Len(t, acme, 1)
			assert.Equal(t, a.ID, acme[0].ID)

			complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
			require.NoError(t, err)
			require.Len(t, complete, 1)

			limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
			require.NoError(t, err)
			assert.Len(t, limited, 1)
		})
	}
}

func TestStore_GetRunMissing(t *testing.T) {
	for name, st := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.GetRun(context.Background(), "missing")
			assert.Error(t, err)
		})
	}
}
