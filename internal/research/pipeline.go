package research

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridianlabs/company-researcher/internal/model"
	"github.com/meridianlabs/company-researcher/internal/resilience"
	"github.com/meridianlabs/company-researcher/internal/store"
	"github.com/meridianlabs/company-researcher/internal/stream"
)

// Config tunes the whole pipeline. Zero values fall back to the stage
// defaults.
type Config struct {
	QueryTimeout        time.Duration
	QueryRetries        int
	QueryBackoff        time.Duration
	MaxQueries          int
	QueryModel          string
	SearchDepth         string
	SearchMaxResults    int
	BriefingModel       string
	BriefingConcurrency int64
	MaxDocLength        int
	MaxPromptLength     int
	CompileModel        string
	CleanupModel        string
	MaxReferences       int
}

// Request identifies a company to research. JobID is optional; a fresh one
// is assigned when empty.
type Request struct {
	Company    string `json:"company"`
	Industry   string `json:"industry,omitempty"`
	HQLocation string `json:"hq_location,omitempty"`
	JobID      string `json:"job_id,omitempty"`
}

// Pipeline runs a research job end to end: query generation, search
// fan-out, curation, briefing synthesis, and report compilation.
type Pipeline struct {
	generator *QueryGenerator
	fanout    *SearchFanout
	synth     *SectionSynthesizer
	compiler  *ReportCompiler
	curator   Curator
	st        store.Store
}

// New assembles a pipeline. queryLLM backs query generation and both editor
// passes; briefLLM backs briefing synthesis. curator may be nil, in which
// case every search result is kept.
func New(queryLLM, briefLLM Completer, searcher Searcher, curator Curator, st store.Store, bc stream.Broadcaster, cfg Config) *Pipeline {
	if bc == nil {
		bc = stream.Nop{}
	}
	if curator == nil {
		curator = PassthroughCurator{MaxReferences: cfg.MaxReferences}
	}

	return &Pipeline{
		generator: NewQueryGenerator(queryLLM, bc, QueryGeneratorConfig{
			Timeout:     cfg.QueryTimeout,
			MaxAttempts: cfg.QueryRetries,
			Backoff:     cfg.QueryBackoff,
			MaxQueries:  cfg.MaxQueries,
			Model:       cfg.QueryModel,
		}),
		fanout: NewSearchFanout(searcher, bc, cfg.SearchDepth, cfg.SearchMaxResults),
		synth: NewSectionSynthesizer(briefLLM, bc, SynthesizerConfig{
			MaxDocLength:    cfg.MaxDocLength,
			MaxPromptLength: cfg.MaxPromptLength,
			Concurrency:     cfg.BriefingConcurrency,
			Model:           cfg.BriefingModel,
		}),
		compiler: NewReportCompiler(queryLLM, bc, CompilerConfig{
			CompileModel: cfg.CompileModel,
			CleanupModel: cfg.CleanupModel,
		}),
		curator: curator,
		st:      st,
	}
}

// Run executes one research job and returns the finished run. The only hard
// failures are a missing company and store errors on run creation; every
// stage beyond that degrades rather than aborts.
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.Run, error) {
	if strings.TrimSpace(req.Company) == "" {
		return nil, eris.Wrap(resilience.ErrMalformedInput, "research: company is required")
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.New().String()
	}

	log := zap.L().With(
		zap.String("company", req.Company),
		zap.String("job_id", jobID),
	)
	log.Info("starting research run")

	run, err := p.st.CreateRun(ctx, model.Run{
		ID:         jobID,
		Company:    req.Company,
		Industry:   req.Industry,
		HQLocation: req.HQLocation,
		Status:     model.RunStatusQueued,
	})
	if err != nil {
		return nil, eris.Wrap(err, "research: create run")
	}

	state := NewState(Context{
		Company:    req.Company,
		Industry:   req.Industry,
		HQLocation: req.HQLocation,
		JobID:      jobID,
	})

	setStatus := func(status model.RunStatus) {
		if err := p.st.UpdateRunStatus(ctx, run.ID, status); err != nil {
			log.Warn("status update failed", zap.String("status", string(status)), zap.Error(err))
		}
	}

	// Research phase: each category generates its queries and searches in
	// its own goroutine, writing only its own slot.
	setStatus(model.RunStatusResearching)
	g := new(errgroup.Group)
	for _, cat := range model.Categories() {
		g.Go(func() error {
			queries := p.generator.Generate(ctx, state.Context, cat)
			docs := p.fanout.SearchAll(ctx, state.Context, cat, queries)
			state.SetSearchResults(cat, docs)
			return nil
		})
	}
	_ = g.Wait()

	if err := p.curator.Curate(ctx, state); err != nil {
		log.Warn("curation failed, using raw search results", zap.Error(err))
		for _, cat := range model.Categories() {
			state.SetCurated(cat, state.SearchResults(cat))
		}
	}

	setStatus(model.RunStatusBriefing)
	briefings := p.synth.SynthesizeAll(ctx, state)
	log.Info("briefing phase complete", zap.Int("briefings", len(briefings)))

	setStatus(model.RunStatusCompiling)
	reportText := p.compiler.Compile(ctx, state)

	if err := p.st.SaveReport(ctx, run.ID, reportText); err != nil {
		log.Warn("report save failed", zap.Error(err))
	}
	setStatus(model.RunStatusComplete)

	run.Report = reportText
	run.Status = model.RunStatusComplete
	log.Info("research run complete", zap.Int("report_length", len(reportText)))
	return run, nil
}
