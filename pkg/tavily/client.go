// Package tavily provides a client for the Tavily web search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/meridianlabs/company-researcher/internal/resilience"
)

const defaultBaseURL = "https://api.tavily.com"

// Client performs web searches against the Tavily API.
type Client interface {
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth,omitempty"`
	Topic             string `json:"topic,omitempty"`
	MaxResults        int    `json:"max_results,omitempty"`
	IncludeRawContent bool   `json:"include_raw_content,omitempty"`
}

// SearchResponse is the response from POST /search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content,omitempty"`
	Score      float64 `json:"score"`
}

// SearchOption configures a single search request.
type SearchOption func(*SearchRequest)

// WithDepth sets the search depth ("basic" or "advanced").
func WithDepth(depth string) SearchOption {
	return func(r *SearchRequest) { r.SearchDepth = depth }
}

// WithTopic restricts the provider's topic filter ("news" or "finance").
func WithTopic(topic string) SearchOption {
	return func(r *SearchRequest) { r.Topic = topic }
}

// WithMaxResults caps the number of hits returned.
func WithMaxResults(n int) SearchOption {
	return func(r *SearchRequest) { r.MaxResults = n }
}

// WithRawContent requests the full page content alongside the snippet.
func WithRawContent() SearchOption {
	return func(r *SearchRequest) { r.IncludeRawContent = true }
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit bounds outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Tavily API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Second,
			JitterFraction: 0.25,
			ShouldRetry:    resilience.IsTransient,
			OnRetry:        resilience.RetryLogger("tavily", "search"),
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	req := SearchRequest{Query: query}
	for _, o := range opts {
		o(&req)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "tavily: rate limit wait")
		}
	}

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*SearchResponse, error) {
		return c.search(ctx, req)
	})
}

func (c *httpClient) search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "tavily: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Wrapf(resilience.ErrProvider, "tavily: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "tavily: unmarshal response")
	}

	return &result, nil
}
