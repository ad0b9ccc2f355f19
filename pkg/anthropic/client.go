// Package anthropic wraps the Anthropic Messages API for single-shot and
// streaming completions.
package anthropic

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client defines the Anthropic API operations used by the pipeline.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
	StreamMessage(ctx context.Context, req MessageRequest) (MessageStream, error)
}

// MessageStream yields text deltas from a streaming response. Next advances
// to the following text delta; Err reports a terminal stream failure.
type MessageStream interface {
	Next() bool
	Text() string
	Err() error
	Close() error
}

// MessageRequest is our own request type for message calls.
type MessageRequest struct {
	Model       string
	MaxTokens   int64
	System      string
	Prompt      string
	Temperature *float64
}

// MessageResponse is our own response type from CreateMessage.
type MessageResponse struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      TokenUsage
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// LogUsage logs token consumption with structured zap fields.
func (u TokenUsage) LogUsage(model, phase string) {
	zap.L().Info("completion usage",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
	)
}

// Option configures the client.
type Option func(*sdkClient)

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *sdkClient) { c.requestOpts = append(c.requestOpts, option.WithBaseURL(url)) }
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client      sdk.Client
	requestOpts []option.RequestOption
}

// NewClient creates a new Anthropic client backed by the SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		requestOpts: []option.RequestOption{option.WithAPIKey(apiKey)},
	}
	for _, o := range opts {
		o(c)
	}
	c.client = sdk.NewClient(c.requestOpts...)
	return c
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	msg, err := c.client.Messages.New(ctx, toSDKParams(req))
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	return fromSDKMessage(msg), nil
}

func (c *sdkClient) StreamMessage(ctx context.Context, req MessageRequest) (MessageStream, error) {
	stream := c.client.Messages.NewStreaming(ctx, toSDKParams(req))
	if err := stream.Err(); err != nil {
		return nil, eris.Wrap(err, "anthropic: start message stream")
	}
	return &sdkStream{stream: stream}, nil
}

// sdkStream adapts the SDK's SSE stream, surfacing only text deltas.
type sdkStream struct {
	stream *ssestream.Stream[sdk.MessageStreamEventUnion]
	text   string
}

func (s *sdkStream) Next() bool {
	for s.stream.Next() {
		event := s.stream.Current()
		switch ev := event.AsAny().(type) {
		case sdk.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case sdk.TextDelta:
				s.text = delta.Text
				return true
			}
		}
	}
	return false
}

func (s *sdkStream) Text() string {
	return s.text
}

func (s *sdkStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return eris.Wrap(err, "anthropic: stream")
	}
	return nil
}

func (s *sdkStream) Close() error {
	return s.stream.Close()
}

// --- SDK type conversion helpers ---

func toSDKParams(req MessageRequest) sdk.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	return params
}

func fromSDKMessage(msg *sdk.Message) *MessageResponse {
	var text string
	for _, b := range msg.Content {
		if b.Type == "text" {
			text += b.Text
		}
	}

	return &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       text,
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
}
