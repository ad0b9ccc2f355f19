package research

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/meridianlabs/company-researcher/internal/model"
	"github.com/meridianlabs/company-researcher/internal/report"
	"github.com/meridianlabs/company-researcher/internal/stream"
)

// CompilerConfig tunes report compilation.
type CompilerConfig struct {
	// CompileModel is used for the initial compilation pass.
	CompileModel string
	// CleanupModel is used for the streamed formatting sweep; typically a
	// cheaper model than CompileModel.
	CleanupModel string
	// FlushMinLen is the minimum buffered length before a report chunk is
	// flushed to clients.
	FlushMinLen int
}

func (c CompilerConfig) withDefaults() CompilerConfig {
	if c.FlushMinLen <= 0 {
		c.FlushMinLen = 10
	}
	return c
}

// ReportCompiler merges section briefings into the final report in two
// passes: a compilation pass that builds the structured document, then a
// streamed cleanup pass that deduplicates and formats it while pushing
// chunks to live clients.
type ReportCompiler struct {
	llm Completer
	bc  stream.Broadcaster
	cfg CompilerConfig
}

// NewReportCompiler creates a compiler.
func NewReportCompiler(llm Completer, bc stream.Broadcaster, cfg CompilerConfig) *ReportCompiler {
	if bc == nil {
		bc = stream.Nop{}
	}
	return &ReportCompiler{llm: llm, bc: bc, cfg: cfg.withDefaults()}
}

// Compile builds the final report from the state's briefings and stores it
// in both the top-level Report field and the editor namespace. Each pass
// degrades to its input on failure, so the caller always receives a report.
func (c *ReportCompiler) Compile(ctx context.Context, state *State) string {
	rc := state.Context.withDefaults()

	c.notifyProcessing(ctx, rc, fmt.Sprintf("Starting report compilation for %s", rc.Company), "initialization")
	c.notifyProcessing(ctx, rc, "Collecting section briefings", "collecting_briefings")

	var contents []string
	for _, cat := range model.Categories() {
		content := state.Briefing(cat)
		if content == "" {
			zap.L().Warn("missing briefing", zap.String("category", string(cat)))
			continue
		}
		contents = append(contents, content)
	}

	if len(contents) == 0 {
		zap.L().Error("no briefings available to compile", zap.String("company", rc.Company))
		return c.finish(ctx, state, rc, placeholderReport(rc))
	}

	c.notifyProcessing(ctx, rc, "Compiling initial research report", "compilation")
	compiled := c.compileContent(ctx, state, rc, contents)

	c.notifyProcessing(ctx, rc, "Cleaning up and organizing report", "cleanup")
	c.notifyProcessing(ctx, rc, "Formatting final report", "format")
	final := c.contentSweep(ctx, rc, compiled)

	return c.finish(ctx, state, rc, final)
}

// compileContent is the first pass: one non-streamed completion that merges
// the briefings into the structured document. References are appended after
// the model output so they survive verbatim. On failure the raw briefing
// concatenation is returned instead.
func (c *ReportCompiler) compileContent(ctx context.Context, state *State, rc Context, contents []string) string {
	combined := strings.Join(contents, "\n\n")
	refText := FormatReferences(state.References)
	if refText != "" {
		zap.L().Info("adding references during compilation", zap.Int("count", len(state.References)))
	}

	text, err := c.llm.Complete(ctx, CompletionRequest{
		Model:       c.cfg.CompileModel,
		System:      compileSystemPrompt,
		Prompt:      compilePrompt(rc, combined),
		Temperature: temperature(0),
	})
	if err != nil {
		zap.L().Error("initial compilation failed, using raw briefings", zap.Error(err))
		return strings.TrimSpace(combined)
	}

	out := strings.TrimSpace(text)
	if refText != "" {
		out = out + "\n\n" + refText
	}
	return out
}

// contentSweep is the second pass: a streamed completion that removes
// redundancy and enforces the document skeleton, emitting report chunks as
// they accumulate. On failure the pre-cleanup content is returned.
func (c *ReportCompiler) contentSweep(ctx context.Context, rc Context, content string) string {
	ts, err := c.llm.CompleteStream(ctx, CompletionRequest{
		Model:       c.cfg.CleanupModel,
		System:      sweepSystemPrompt,
		Prompt:      sweepPrompt(rc, content),
		Temperature: temperature(0),
	})
	if err != nil {
		zap.L().Error("cleanup stream failed to start", zap.Error(err))
		return strings.TrimSpace(content)
	}
	defer ts.Close()

	var accumulated strings.Builder
	flusher := newChunkFlusher(c.cfg.FlushMinLen, func(chunk string) {
		c.bc.Notify(ctx, stream.Event{
			JobID:   rc.JobID,
			Status:  "report_chunk",
			Message: "Formatting final report",
			Result: map[string]any{
				"chunk": chunk,
				"step":  "Editor",
			},
		})
	})

	for {
		tok, err := ts.Recv()
		if isEOF(err) {
			break
		}
		if err != nil {
			zap.L().Error("cleanup stream failed", zap.Error(err))
			return strings.TrimSpace(content)
		}
		accumulated.WriteString(tok)
		flusher.Write(tok)
	}
	flusher.Finish()

	return strings.TrimSpace(accumulated.String())
}

// finish records the final report in both state locations and emits the
// terminal editor event carrying the full report.
func (c *ReportCompiler) finish(ctx context.Context, state *State, rc Context, text string) string {
	final := strings.TrimSpace(text)
	if final == "" {
		zap.L().Error("final report is empty", zap.String("company", rc.Company))
	} else {
		zap.L().Info("final report compiled",
			zap.Int("length", len(final)),
			zap.Strings("sections", report.SectionHeadings(final)),
		)
	}

	state.Report = final
	state.Editor.Report = final

	c.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "editor_complete",
		Message: "Research report completed",
		Result: map[string]any{
			"step":     "Editor",
			"report":   final,
			"company":  rc.Company,
			"is_final": true,
			"status":   "completed",
		},
	})
	return final
}

func (c *ReportCompiler) notifyProcessing(ctx context.Context, rc Context, message, substep string) {
	c.bc.Notify(ctx, stream.Event{
		JobID:   rc.JobID,
		Status:  "processing",
		Message: message,
		Result: map[string]any{
			"step":    "Editor",
			"substep": substep,
		},
	})
}

// placeholderReport is emitted when no briefing survived synthesis, so the
// run still completes with a well-formed document.
func placeholderReport(rc Context) string {
	return fmt.Sprintf("# %s研究报告\n\n暂无可用的研究简报，无法生成完整报告。", rc.Company)
}

// sentenceBoundaries are the characters that allow a chunk flush, covering
// both ASCII and CJK sentence punctuation.
const sentenceBoundaries = ".!?\n。！？"

// chunkFlusher batches streamed tokens into client-visible chunks. A chunk
// is flushed once the buffer exceeds minLen runes and contains a sentence
// boundary; Finish flushes whatever remains. The minimum counts runes, not
// bytes, so CJK text batches at the same cadence as ASCII.
type chunkFlusher struct {
	minLen int
	emit   func(string)
	buf    strings.Builder
	runes  int
}

func newChunkFlusher(minLen int, emit func(string)) *chunkFlusher {
	return &chunkFlusher{minLen: minLen, emit: emit}
}

func (f *chunkFlusher) Write(tok string) {
	f.buf.WriteString(tok)
	f.runes += utf8.RuneCountInString(tok)
	if f.runes > f.minLen && strings.ContainsAny(f.buf.String(), sentenceBoundaries) {
		f.flush()
	}
}

func (f *chunkFlusher) Finish() {
	if f.buf.Len() > 0 {
		f.flush()
	}
}

func (f *chunkFlusher) flush() {
	f.emit(f.buf.String())
	f.buf.Reset()
	f.runes = 0
}
