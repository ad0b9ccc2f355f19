package research

import (
	"context"
)

// CompletionRequest is the provider-neutral request stages build. Model may
// be empty, in which case the provider's default is used.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

// Completer is the LLM capability stages depend on. Implementations wrap a
// concrete provider client and handle usage accounting.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	CompleteStream(ctx context.Context, req CompletionRequest) (TokenStream, error)
}

// TokenStream yields completion text incrementally. Recv returns io.EOF once
// the stream is exhausted.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// SearchOptions tunes one search call.
type SearchOptions struct {
	Depth      string
	Topic      string
	MaxResults int
	RawContent bool
}

// SearchHit is one ranked result from a search provider.
type SearchHit struct {
	URL        string
	Title      string
	Content    string
	RawContent string
	Score      float64
}

// Searcher is the web search capability stages depend on.
type Searcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error)
}

func temperature(v float64) *float64 {
	return &v
}
