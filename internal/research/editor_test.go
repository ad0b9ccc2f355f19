package research

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/company-researcher/internal/model"
)

const finalReport = "# Acme研究报告\n\n## 公司概览\nAcme是一家机器人公司。\n\n## 行业概览\n行业内容。\n\n## 财务概览\n财务内容。\n\n## 新闻\n* 新闻要点。\n\n## 参考资料\n\n* [Example](https://example.com)"

func stateWithBriefings(t *testing.T) *State {
	t.Helper()
	state := NewState(testContext())
	state.SetBriefing(model.CategoryCompany, "公司简报内容")
	state.SetBriefing(model.CategoryIndustry, "行业简报内容")
	state.SetBriefing(model.CategoryFinancial, "财务简报内容")
	state.SetBriefing(model.CategoryNews, "新闻简报内容")
	return state
}

func TestCompile_PlaceholderWhenNoBriefings(t *testing.T) {
	llm := &fakeCompleter{}
	bc := &captureBroadcaster{}
	compiler := NewReportCompiler(llm, bc, CompilerConfig{})

	state := NewState(testContext())
	report := compiler.Compile(context.Background(), state)

	assert.Contains(t, report, "# Acme研究报告")
	assert.Contains(t, report, "暂无可用的研究简报")
	assert.Empty(t, llm.recorded(), "no provider call expected without briefings")

	done := bc.byStatus("editor_complete")
	require.Len(t, done, 1)
	assert.Equal(t, report, done[0].Result["report"])
	assert.Equal(t, true, done[0].Result["is_final"])
}

func TestCompile_TwoPassesProduceFinalReport(t *testing.T) {
	llm := &fakeCompleter{
		completeFn: func(req CompletionRequest) (string, error) {
			assert.Contains(t, req.Prompt, "公司简报内容")
			assert.Contains(t, req.Prompt, "新闻简报内容")
			return "compiled draft", nil
		},
		streamFn: func(req CompletionRequest) (TokenStream, error) {
			assert.Contains(t, req.Prompt, "compiled draft")
			return &scriptedStream{tokens: strings.Split(finalReport, " ")}, nil
		},
	}
	bc := &captureBroadcaster{}
	compiler := NewReportCompiler(llm, bc, CompilerConfig{})

	state := stateWithBriefings(t)
	report := compiler.Compile(context.Background(), state)

	assert.Equal(t, strings.Join(strings.Split(finalReport, " "), ""), report)
	assert.Equal(t, report, state.Report)
	assert.Equal(t, report, state.Editor.Report)
	assert.NotEmpty(t, bc.byStatus("report_chunk"))
	require.Len(t, bc.byStatus("editor_complete"), 1)
}

func TestCompile_BriefingsFollowCategoryOrder(t *testing.T) {
	var compilePromptText string
	llm := &fakeCompleter{
		completeFn: func(req CompletionRequest) (string, error) {
			compilePromptText = req.Prompt
			return "draft", nil
		},
		streamFn: func(CompletionRequest) (TokenStream, error) {
			return &scriptedStream{tokens: []string{"final"}}, nil
		},
	}
	compiler := NewReportCompiler(llm, &captureBroadcaster{}, CompilerConfig{})

	compiler.Compile(context.Background(), stateWithBriefings(t))

	company := strings.Index(compilePromptText, "公司简报内容")
	industry := strings.Index(compilePromptText, "行业简报内容")
	financial := strings.Index(compilePromptText, "财务简报内容")
	news := strings.Index(compilePromptText, "新闻简报内容")
	assert.True(t, company < industry && industry < financial && financial < news)
}

func TestCompile_AppendsReferencesAfterCompilation(t *testing.T) {
	llm := &fakeCompleter{
		completeFn: func(CompletionRequest) (string, error) { return "compiled body", nil },
		streamFn: func(CompletionRequest) (TokenStream, error) {
			// Sweep failure keeps the pre-cleanup content visible.
			return nil, eris.New("stream down")
		},
	}
	compiler := NewReportCompiler(llm, &captureBroadcaster{}, CompilerConfig{})

	state := stateWithBriefings(t)
	state.References = []Reference{{URL: "https://example.com/a", Title: "Example Source"}}

	report := compiler.Compile(context.Background(), state)

	assert.Contains(t, report, "compiled body")
	assert.Contains(t, report, "## 参考资料")
	assert.Contains(t, report, "[Example Source](https://example.com/a)")
}

func TestCompile_CompileFailureFallsBackToRawBriefings(t *testing.T) {
	llm := &fakeCompleter{
		completeFn: func(CompletionRequest) (string, error) {
			return "", eris.New("provider down")
		},
		streamFn: func(req CompletionRequest) (TokenStream, error) {
			assert.Contains(t, req.Prompt, "公司简报内容")
			return &scriptedStream{tokens: []string{finalReport}}, nil
		},
	}
	compiler := NewReportCompiler(llm, &captureBroadcaster{}, CompilerConfig{})

	report := compiler.Compile(context.Background(), stateWithBriefings(t))

	assert.Equal(t, finalReport, report)
}

func TestCompile_SweepMidstreamFailureKeepsCompiled(t *testing.T) {
	llm := &fakeCompleter{
		completeFn: func(CompletionRequest) (string, error) { return "compiled draft", nil },
		streamFn: func(CompletionRequest) (TokenStream, error) {
			return &scriptedStream{
				tokens:  []string{"partial "},
				failErr: eris.New("connection reset"),
			}, nil
		},
	}
	compiler := NewReportCompiler(llm, &captureBroadcaster{}, CompilerConfig{})

	report := compiler.Compile(context.Background(), stateWithBriefings(t))

	assert.Equal(t, "compiled draft", report)
}

func TestChunkFlusher(t *testing.T) {
	var chunks []string
	f := newChunkFlusher(10, func(chunk string) { chunks = append(chunks, chunk) })

	f.Write("short")
	assert.Empty(t, chunks, "below min length")

	f.Write(" and more text")
	assert.Empty(t, chunks, "no sentence boundary yet")

	f.Write(" done.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short and more text done.", chunks[0])

	f.Write("tail")
	f.Finish()
	require.Len(t, chunks, 2)
	assert.Equal(t, "tail", chunks[1])
}

func TestChunkFlusher_CJKBoundary(t *testing.T) {
	var chunks []string
	f := newChunkFlusher(10, func(chunk string) { chunks = append(chunks, chunk) })

	// 7 runes (21 bytes) with a boundary: still under the 10-rune minimum.
	f.Write("这是一段中文。")
	assert.Empty(t, chunks)

	f.Write("后面还有内容。")
	require.Len(t, chunks, 1)
	assert.Equal(t, "这是一段中文。后面还有内容。", chunks[0])
}

func TestChunkFlusher_FinishWithEmptyBuffer(t *testing.T) {
	calls := 0
	f := newChunkFlusher(10, func(string) { calls++ })

	f.Finish()
	assert.Zero(t, calls)
}
