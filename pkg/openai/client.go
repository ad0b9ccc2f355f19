// Package openai wraps an OpenAI-compatible chat completion API, exposing
// single-shot completions and token streaming.
package openai

import (
	"context"
	"errors"
	"io"

	"github.com/rotisserie/eris"
	sdk "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client defines the completion operations used by the pipeline.
type Client interface {
	// Complete performs a single-shot chat completion and returns the text.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// CompleteStream starts a streaming chat completion.
	CompleteStream(ctx context.Context, req CompletionRequest) (Stream, error)
}

// CompletionRequest is a provider-neutral completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

// CompletionResponse carries the completion text and token usage.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// LogUsage logs token consumption with structured fields.
func (u Usage) LogUsage(model, phase string) {
	zap.L().Info("completion usage",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int("prompt_tokens", u.PromptTokens),
		zap.Int("completion_tokens", u.CompletionTokens),
	)
}

// Stream yields completion text incrementally. Recv returns io.EOF when the
// stream is exhausted.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Option configures the client.
type Option func(*sdkClient)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *sdkClient) { c.baseURL = url }
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) { c.model = model }
}

type sdkClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *sdk.Client
}

// NewClient creates a client backed by the go-openai SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		apiKey: apiKey,
		model:  sdk.GPT4Dot1,
	}
	for _, o := range opts {
		o(c)
	}

	if c.baseURL != "" {
		cfg := sdk.DefaultConfig(apiKey)
		cfg.BaseURL = c.baseURL
		c.client = sdk.NewClientWithConfig(cfg)
	} else {
		c.client = sdk.NewClient(apiKey)
	}
	return c
}

func (c *sdkClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.toSDKRequest(req, false))
	if err != nil {
		return nil, eris.Wrap(err, "openai: chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("openai: no choices in response")
	}

	return &CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (c *sdkClient) CompleteStream(ctx context.Context, req CompletionRequest) (Stream, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.toSDKRequest(req, true))
	if err != nil {
		return nil, eris.Wrap(err, "openai: start completion stream")
	}
	return &sdkStream{stream: stream}, nil
}

func (c *sdkClient) toSDKRequest(req CompletionRequest, streaming bool) sdk.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	var messages []sdk.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, sdk.ChatCompletionMessage{
			Role:    sdk.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, sdk.ChatCompletionMessage{
		Role:    sdk.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	out := sdk.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
		Stream:    streaming,
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	return out
}

// sdkStream adapts the SDK stream to the Stream interface.
type sdkStream struct {
	stream *sdk.ChatCompletionStream
}

func (s *sdkStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", eris.Wrap(err, "openai: stream recv")
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if resp.Choices[0].FinishReason == sdk.FinishReasonStop {
			return "", io.EOF
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
	}
}

func (s *sdkStream) Close() error {
	return s.stream.Close()
}
