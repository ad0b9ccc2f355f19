package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridianlabs/company-researcher/internal/model"
	"github.com/meridianlabs/company-researcher/internal/resilience"
	"github.com/meridianlabs/company-researcher/internal/stream"
)

// QueryGeneratorConfig tunes query generation.
type QueryGeneratorConfig struct {
	// Timeout bounds a single generation attempt, stream included.
	Timeout time.Duration
	// MaxAttempts is the total number of attempts before falling back.
	MaxAttempts int
	// Backoff is the base retry delay, doubled per attempt.
	Backoff time.Duration
	// MaxQueries caps the number of queries returned per category.
	MaxQueries int
	// Model overrides the provider's default model.
	Model string
}

func (c QueryGeneratorConfig) withDefaults() QueryGeneratorConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 2 * time.Second
	}
	if c.MaxQueries <= 0 {
		c.MaxQueries = 4
	}
	return c
}

// QueryGenerator produces search queries for one research category by
// streaming an LLM completion and splitting it on newlines.
type QueryGenerator struct {
	llm Completer
	bc  stream.Broadcaster
	cfg QueryGeneratorConfig
}

// NewQueryGenerator creates a query generator.
func NewQueryGenerator(llm Completer, bc stream.Broadcaster, cfg QueryGeneratorConfig) *QueryGenerator {
	if bc == nil {
		bc = stream.Nop{}
	}
	return &QueryGenerator{llm: llm, bc: bc, cfg: cfg.withDefaults()}
}

// Generate returns at most MaxQueries search queries for cat. It always
// returns usable queries: after MaxAttempts failed attempts it falls back to
// a deterministic per-category list and reports the degradation as a warning
// event rather than an error.
func (g *QueryGenerator) Generate(ctx context.Context, rc Context, cat model.Category) []string {
	rc = rc.withDefaults()
	now := time.Now()

	queries, err := resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts:    g.cfg.MaxAttempts,
		InitialBackoff: g.cfg.Backoff,
		Multiplier:     2.0,
		OnRetry:        resilience.RetryLogger("llm", "generate_queries"),
	}, func(ctx context.Context) ([]string, error) {
		return g.attempt(ctx, rc, cat, now)
	})
	if err != nil {
		zap.L().Warn("query generation failed, using fallback queries",
			zap.String("company", rc.Company),
			zap.String("category", string(cat)),
			zap.Error(err),
		)
		g.bc.Notify(ctx, stream.Event{
			JobID:   rc.JobID,
			Status:  "warning",
			Message: fmt.Sprintf("Using fallback queries for %s after %d failed attempts", rc.Company, g.cfg.MaxAttempts),
			Result: map[string]any{
				"step":    "Research",
				"substep": "query_generation_fallback",
				"analyst": string(cat),
				"error":   err.Error(),
			},
		})
		return fallbackQueries(cat, rc.Company, now.Year())
	}

	if len(queries) > g.cfg.MaxQueries {
		queries = queries[:g.cfg.MaxQueries]
	}
	zap.L().Info("generated queries",
		zap.String("category", string(cat)),
		zap.Strings("queries", queries),
	)
	return queries
}

// attempt runs one streamed generation bounded by the per-attempt timeout.
func (g *QueryGenerator) attempt(parent context.Context, rc Context, cat model.Category, now time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(parent, g.cfg.Timeout)
	defer cancel()

	ts, err := g.llm.CompleteStream(ctx, CompletionRequest{
		Model:       g.cfg.Model,
		System:      querySystemPrompt(rc),
		Prompt:      queryPrompt(cat, rc, now, g.cfg.MaxQueries),
		MaxTokens:   4096,
		Temperature: temperature(0),
	})
	if err != nil {
		if resilience.IsTimeout(err) || ctx.Err() == context.DeadlineExceeded {
			return nil, resilience.Timeout(err)
		}
		return nil, eris.Wrap(err, "research: start query stream")
	}
	defer ts.Close()

	var queries []string
	current := ""
	for {
		tok, err := ts.Recv()
		if isEOF(err) {
			break
		}
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, resilience.Timeout(err)
			}
			return nil, eris.Wrap(err, "research: query stream")
		}
		if tok == "" {
			continue
		}
		current += tok

		// Mirror the in-progress line so clients can render it live.
		g.bc.Notify(ctx, stream.Event{
			JobID:   rc.JobID,
			Status:  "query_generating",
			Message: fmt.Sprintf("Generating research query for %s", rc.Company),
			Result: map[string]any{
				"query":        current,
				"query_number": len(queries) + 1,
				"category":     string(cat),
				"is_complete":  false,
			},
		})

		// A newline ends a query; the trailing fragment starts the next one.
		if strings.Contains(current, "\n") {
			parts := strings.Split(current, "\n")
			current = parts[len(parts)-1]
			for _, part := range parts[:len(parts)-1] {
				q := strings.TrimSpace(part)
				if q == "" {
					continue
				}
				queries = append(queries, q)
				g.notifyGenerated(ctx, rc, cat, q, len(queries))
			}
		}
	}

	// The stream may end without a final newline.
	if q := strings.TrimSpace(current); q != "" {
		queries = append(queries, q)
		g.notifyGenerated(ctx, rc, cat, q, len(queries))
	}

	if len(queries) == 0 {
		return nil, eris.Wrapf(resilience.ErrEmptyResult, "research: no queries generated for %s", rc.Company)
	}
	return queries, nil
}

func (g *QueryGenerator) notifyGenerated(ctx context.Context, rc Context, cat model.Category, query string, number int) {
	g.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "query_generated",
		Message: fmt.Sprintf("Generated new research query for %s", rc.Company),
		Result: map[string]any{
			"query":        query,
			"query_number": number,
			"category":     string(cat),
			"is_complete":  true,
		},
	})
}
