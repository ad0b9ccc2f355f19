package research

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/meridianlabs/company-researcher/internal/model"
	"github.com/meridianlabs/company-researcher/internal/stream"
)

// SynthesizerConfig tunes briefing synthesis.
type SynthesizerConfig struct {
	// MaxDocLength truncates a single document's content, in runes.
	MaxDocLength int
	// MaxPromptLength stops document assembly once the combined text would
	// reach this many runes.
	MaxPromptLength int
	// Concurrency bounds simultaneous provider calls across categories.
	Concurrency int64
	// Model overrides the provider's default model.
	Model string
}

func (c SynthesizerConfig) withDefaults() SynthesizerConfig {
	if c.MaxDocLength <= 0 {
		c.MaxDocLength = 8000
	}
	if c.MaxPromptLength <= 0 {
		c.MaxPromptLength = 120000
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	return c
}

// SectionSynthesizer turns a category's curated documents into a briefing.
type SectionSynthesizer struct {
	llm Completer
	bc  stream.Broadcaster
	cfg SynthesizerConfig
}

// NewSectionSynthesizer creates a synthesizer.
func NewSectionSynthesizer(llm Completer, bc stream.Broadcaster, cfg SynthesizerConfig) *SectionSynthesizer {
	if bc == nil {
		bc = stream.Nop{}
	}
	return &SectionSynthesizer{llm: llm, bc: bc, cfg: cfg.withDefaults()}
}

// Synthesize generates one category briefing from curated documents. Any
// failure degrades to an empty briefing; it never returns an error.
func (s *SectionSynthesizer) Synthesize(ctx context.Context, rc Context, cat model.Category, docs model.DocumentSet) model.Briefing {
	rc = rc.withDefaults()
	zap.L().Info("generating briefing",
		zap.String("company", rc.Company),
		zap.String("category", string(cat)),
		zap.Int("docs", len(docs)),
	)

	s.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "briefing_start",
		Message: fmt.Sprintf("Generating %s briefing", cat),
		Result: map[string]any{
			"step":       "Briefing",
			"category":   string(cat),
			"total_docs": len(docs),
		},
	})

	prompt := briefingFullPrompt(cat, rc, s.assembleDocs(docs))
	text, err := s.llm.Complete(ctx, CompletionRequest{
		Model:       s.cfg.Model,
		Prompt:      prompt,
		MaxTokens:   4096,
		Temperature: temperature(0),
	})
	if err != nil {
		zap.L().Error("briefing generation failed",
			zap.String("category", string(cat)),
			zap.Error(err),
		)
		return model.Briefing{Category: cat}
	}

	content := strings.TrimSpace(text)
	if content == "" {
		zap.L().Error("empty briefing from provider", zap.String("category", string(cat)))
		return model.Briefing{Category: cat}
	}

	s.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "briefing_complete",
		Message: fmt.Sprintf("Completed %s briefing", cat),
		Result: map[string]any{
			"step":     "Briefing",
			"category": string(cat),
		},
	})
	return model.Briefing{Category: cat, Content: content}
}

// assembleDocs orders documents by curation score (highest first, URL as the
// deterministic tie-break), truncates each body, and stops once the combined
// text would reach the prompt ceiling.
func (s *SectionSynthesizer) assembleDocs(docs model.DocumentSet) []string {
	type entry struct {
		url string
		doc model.Document
	}
	items := make([]entry, 0, len(docs))
	for url, doc := range docs {
		items = append(items, entry{url: url, doc: doc})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].doc.CurationScore != items[j].doc.CurationScore {
			return items[i].doc.CurationScore > items[j].doc.CurationScore
		}
		return items[i].url < items[j].url
	})

	var texts []string
	total := 0
	for _, it := range items {
		content := it.doc.Body()
		if utf8.RuneCountInString(content) > s.cfg.MaxDocLength {
			content = string([]rune(content)[:s.cfg.MaxDocLength]) + "... [content truncated]"
		}
		text := fmt.Sprintf("Title: %s\n\nContent: %s", it.doc.Title, content)
		length := utf8.RuneCountInString(text)
		if total+length >= s.cfg.MaxPromptLength {
			break
		}
		texts = append(texts, text)
		total += length
	}
	return texts
}

// SynthesizeAll generates briefings for every category with curated
// documents, holding provider concurrency at the configured bound. Empty
// categories get an empty briefing slot without consuming a concurrency
// slot. The returned map holds only non-empty briefings.
func (s *SectionSynthesizer) SynthesizeAll(ctx context.Context, state *State) map[model.Category]string {
	rc := state.Context.withDefaults()

	s.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "processing",
		Message: "Starting research briefings",
		Result:  map[string]any{"step": "Briefing"},
	})
	zap.L().Info("creating section briefings", zap.String("company", rc.Company))

	sem := semaphore.NewWeighted(s.cfg.Concurrency)
	g := new(errgroup.Group)
	for _, cat := range model.Categories() {
		docs := state.CuratedDocs(cat)
		if len(docs) == 0 {
			zap.L().Info("no curated documents for category", zap.String("category", string(cat)))
			state.SetBriefing(cat, "")
			continue
		}

		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				state.SetBriefing(cat, "")
				return nil
			}
			defer sem.Release(1)

			b := s.Synthesize(ctx, rc, cat, docs)
			state.SetBriefing(cat, b.Content)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[model.Category]string)
	total := 0
	for _, cat := range model.Categories() {
		if content := state.Briefing(cat); content != "" {
			out[cat] = content
			total += len(content)
		}
	}
	zap.L().Info("briefings generated",
		zap.Int("count", len(out)),
		zap.Int("total_length", total),
	)
	return out
}
