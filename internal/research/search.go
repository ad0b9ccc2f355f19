package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridianlabs/company-researcher/internal/model"
	"github.com/meridianlabs/company-researcher/internal/stream"
)

// Queries shorter than this are treated as generation noise and skipped.
const minQueryWords = 3

// SearchFanout executes category queries against the search provider in
// parallel and merges the hits into a URL-keyed document set.
type SearchFanout struct {
	searcher   Searcher
	bc         stream.Broadcaster
	depth      string
	maxResults int
}

// NewSearchFanout creates a fan-out with the given search tuning. Zero values
// fall back to basic depth with 5 results per query.
func NewSearchFanout(searcher Searcher, bc stream.Broadcaster, depth string, maxResults int) *SearchFanout {
	if bc == nil {
		bc = stream.Nop{}
	}
	if depth == "" {
		depth = "basic"
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &SearchFanout{searcher: searcher, bc: bc, depth: depth, maxResults: maxResults}
}

// topicFor maps a category to the provider's topic filter. Only news and
// financial have dedicated topics.
func topicFor(cat model.Category) string {
	switch cat {
	case model.CategoryNews:
		return "news"
	case model.CategoryFinancial:
		return "finance"
	}
	return ""
}

func (f *SearchFanout) options(cat model.Category) SearchOptions {
	return SearchOptions{
		Depth:      f.depth,
		Topic:      topicFor(cat),
		MaxResults: f.maxResults,
	}
}

// SearchAll runs every query concurrently and merges results in query order,
// later queries overwriting earlier ones on URL collision. The batch is
// all-or-nothing: one failed search discards the whole batch and returns an
// empty set.
// TODO: keep partial results on single-query failure instead of discarding
// the batch; SearchOne already degrades per call.
func (f *SearchFanout) SearchAll(ctx context.Context, rc Context, cat model.Category, queries []string) model.DocumentSet {
	valid := validQueries(queries)
	if len(valid) == 0 {
		zap.L().Error("no valid queries to search", zap.String("category", string(cat)))
		return model.DocumentSet{}
	}

	f.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "queries_generated",
		Message: fmt.Sprintf("Generated %d queries for %s", len(valid), cat),
		Result: map[string]any{
			"step":          "Searching",
			"analyst":       string(cat),
			"queries":       valid,
			"total_queries": len(valid),
		},
	})
	f.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "search_started",
		Message: fmt.Sprintf("Searching for %d queries", len(valid)),
		Result: map[string]any{
			"step":          "Searching",
			"total_queries": len(valid),
		},
	})

	results := make([][]SearchHit, len(valid))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range valid {
		g.Go(func() error {
			hits, err := f.searcher.Search(gctx, q, f.options(cat))
			if err != nil {
				return eris.Wrapf(err, "research: search %q", q)
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Error("parallel search failed",
			zap.String("category", string(cat)),
			zap.Error(err),
		)
		return model.DocumentSet{}
	}

	merged := model.DocumentSet{}
	for i, q := range valid {
		mergeHits(merged, q, results[i])
	}

	f.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "search_complete",
		Message: fmt.Sprintf("Search completed with %d documents found", len(merged)),
		Result: map[string]any{
			"step":              "Searching",
			"total_documents":   len(merged),
			"queries_processed": len(valid),
		},
	})
	return merged
}

// SearchOne runs a single query. Unlike SearchAll, a failure degrades to an
// empty set for this query only.
func (f *SearchFanout) SearchOne(ctx context.Context, rc Context, cat model.Category, query string) model.DocumentSet {
	if query == "" || len(strings.Fields(query)) < minQueryWords {
		return model.DocumentSet{}
	}

	f.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "query_searching",
		Message: "Searching: " + query,
		Result: map[string]any{
			"step":  "Searching",
			"query": query,
		},
	})

	hits, err := f.searcher.Search(ctx, query, f.options(cat))
	if err != nil {
		zap.L().Error("search query failed",
			zap.String("query", query),
			zap.Error(err),
		)
		f.bc.Notify(ctx, stream.Event{
			JobID:   rc.JobID,
			Status:  "query_error",
			Message: "Search failed for: " + query,
			Result: map[string]any{
				"step":  "Searching",
				"query": query,
				"error": err.Error(),
			},
		})
		return model.DocumentSet{}
	}

	docs := model.DocumentSet{}
	mergeHits(docs, query, hits)

	f.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "query_searched",
		Message: fmt.Sprintf("Found %d results for: %s", len(docs), query),
		Result: map[string]any{
			"step":          "Searching",
			"query":         query,
			"results_count": len(docs),
		},
	})
	return docs
}

func validQueries(queries []string) []string {
	valid := make([]string, 0, len(queries))
	for _, q := range queries {
		if q == "" || len(strings.Fields(q)) < minQueryWords {
			continue
		}
		valid = append(valid, q)
	}
	return valid
}

// mergeHits folds provider hits into docs, keyed by URL. Hits missing a URL
// or content are dropped. A title equal to its URL carries no information,
// so it is blanked for later extraction.
func mergeHits(docs model.DocumentSet, query string, hits []SearchHit) {
	for _, hit := range hits {
		if hit.Content == "" || hit.URL == "" {
			continue
		}
		title := CleanTitle(hit.Title)
		if strings.EqualFold(title, hit.URL) {
			title = ""
		}
		docs[hit.URL] = model.Document{
			URL:         hit.URL,
			Title:       title,
			Content:     hit.Content,
			RawContent:  hit.RawContent,
			SourceQuery: query,
			Source:      "web_search",
			Score:       hit.Score,
		}
	}
}
