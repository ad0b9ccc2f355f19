package research

import (
	"context"
	"sort"

	"github.com/meridianlabs/company-researcher/internal/model"
)

// Curator filters and scores raw search results before synthesis, and
// collects the citation metadata the compiler appends to the report.
type Curator interface {
	Curate(ctx context.Context, state *State) error
}

// PassthroughCurator keeps every document, carrying the search relevance
// score through as the curation score. References are the highest-scored
// documents across all categories, capped at MaxReferences.
type PassthroughCurator struct {
	// MaxReferences caps the reference list. Zero means 10.
	MaxReferences int
}

func (c PassthroughCurator) Curate(_ context.Context, state *State) error {
	maxRefs := c.MaxReferences
	if maxRefs <= 0 {
		maxRefs = 10
	}

	var all []model.Document
	for _, cat := range model.Categories() {
		raw := state.SearchResults(cat)
		curated := make(model.DocumentSet, len(raw))
		for url, doc := range raw {
			doc.CurationScore = doc.Score
			curated[url] = doc
			all = append(all, doc)
		}
		state.SetCurated(cat, curated)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CurationScore != all[j].CurationScore {
			return all[i].CurationScore > all[j].CurationScore
		}
		return all[i].URL < all[j].URL
	})

	seen := make(map[string]bool, maxRefs)
	for _, doc := range all {
		if len(state.References) >= maxRefs {
			break
		}
		if seen[doc.URL] {
			continue
		}
		seen[doc.URL] = true
		state.References = append(state.References, Reference{
			URL:   doc.URL,
			Title: doc.Title,
			Query: doc.SourceQuery,
		})
	}
	return nil
}
