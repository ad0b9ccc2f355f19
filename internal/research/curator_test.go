package research

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/company-researcher/internal/model"
)

func TestPassthroughCurator_CopiesScores(t *testing.T) {
	state := NewState(testContext())
	state.SetSearchResults(model.CategoryCompany, docSet(
		model.Document{URL: "https://example.com/a", Content: "body", Score: 0.7},
	))

	require.NoError(t, PassthroughCurator{}.Curate(context.Background(), state))

	curated := state.CuratedDocs(model.CategoryCompany)
	require.Len(t, curated, 1)
	assert.Equal(t, 0.7, curated["https://example.com/a"].CurationScore)
}

func TestPassthroughCurator_BuildsReferencesByScore(t *testing.T) {
	state := NewState(testContext())
	state.SetSearchResults(model.CategoryCompany, docSet(
		model.Document{URL: "https://example.com/low", Title: "Low", SourceQuery: "q1", Score: 0.1},
		model.Document{URL: "https://example.com/high", Title: "High", SourceQuery: "q2", Score: 0.9},
	))

	require.NoError(t, PassthroughCurator{}.Curate(context.Background(), state))

	require.Len(t, state.References, 2)
	assert.Equal(t, "https://example.com/high", state.References[0].URL)
	assert.Equal(t, "High", state.References[0].Title)
	assert.Equal(t, "q2", state.References[0].Query)
}

func TestPassthroughCurator_CapsReferences(t *testing.T) {
	state := NewState(testContext())
	docs := model.DocumentSet{}
	for i := 0; i < 15; i++ {
		url := fmt.Sprintf("https://example.com/%d", i)
		docs[url] = model.Document{URL: url, Content: "body", Score: float64(i)}
	}
	state.SetSearchResults(model.CategoryNews, docs)

	require.NoError(t, PassthroughCurator{MaxReferences: 5}.Curate(context.Background(), state))

	assert.Len(t, state.References, 5)
	assert.Equal(t, "https://example.com/14", state.References[0].URL)
}

func TestPassthroughCurator_DeduplicatesURLsAcrossCategories(t *testing.T) {
	state := NewState(testContext())
	shared := model.Document{URL: "https://example.com/shared", Content: "body", Score: 0.5}
	state.SetSearchResults(model.CategoryCompany, docSet(shared))
	state.SetSearchResults(model.CategoryNews, docSet(shared))

	require.NoError(t, PassthroughCurator{}.Curate(context.Background(), state))

	assert.Len(t, state.References, 1)
}
