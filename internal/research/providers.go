package research

import (
	"context"
	"errors"
	"io"

	"github.com/meridianlabs/company-researcher/pkg/anthropic"
	"github.com/meridianlabs/company-researcher/pkg/openai"
	"github.com/meridianlabs/company-researcher/pkg/tavily"
)

// OpenAICompleter adapts an OpenAI-compatible client to the Completer
// capability. Phase labels the usage log lines.
type OpenAICompleter struct {
	Client openai.Client
	Phase  string
}

func (c OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.Client.Complete(ctx, openai.CompletionRequest{
		Model:       req.Model,
		System:      req.System,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogUsage(req.Model, c.Phase)
	return resp.Content, nil
}

func (c OpenAICompleter) CompleteStream(ctx context.Context, req CompletionRequest) (TokenStream, error) {
	return c.Client.CompleteStream(ctx, openai.CompletionRequest{
		Model:       req.Model,
		System:      req.System,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
}

// AnthropicCompleter adapts the Anthropic messages client to the Completer
// capability.
type AnthropicCompleter struct {
	Client anthropic.Client
	Phase  string
}

func (c AnthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       req.Model,
		MaxTokens:   int64(req.MaxTokens),
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogUsage(resp.Model, c.Phase)
	return resp.Text, nil
}

func (c AnthropicCompleter) CompleteStream(ctx context.Context, req CompletionRequest) (TokenStream, error) {
	stream, err := c.Client.StreamMessage(ctx, anthropic.MessageRequest{
		Model:       req.Model,
		MaxTokens:   int64(req.MaxTokens),
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return &anthropicStream{stream: stream}, nil
}

// anthropicStream bridges the pull-style MessageStream to TokenStream.
type anthropicStream struct {
	stream anthropic.MessageStream
}

func (s *anthropicStream) Recv() (string, error) {
	if s.stream.Next() {
		return s.stream.Text(), nil
	}
	if err := s.stream.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

// TavilySearcher adapts the Tavily client to the Searcher capability.
type TavilySearcher struct {
	Client tavily.Client
}

func (s TavilySearcher) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	var callOpts []tavily.SearchOption
	if opts.Depth != "" {
		callOpts = append(callOpts, tavily.WithDepth(opts.Depth))
	}
	if opts.Topic != "" {
		callOpts = append(callOpts, tavily.WithTopic(opts.Topic))
	}
	if opts.MaxResults > 0 {
		callOpts = append(callOpts, tavily.WithMaxResults(opts.MaxResults))
	}
	if opts.RawContent {
		callOpts = append(callOpts, tavily.WithRawContent())
	}

	resp, err := s.Client.Search(ctx, query, callOpts...)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, SearchHit{
			URL:        r.URL,
			Title:      r.Title,
			Content:    r.Content,
			RawContent: r.RawContent,
			Score:      r.Score,
		})
	}
	return hits, nil
}

// isEOF matches io.EOF even when a provider surfaces it wrapped.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
