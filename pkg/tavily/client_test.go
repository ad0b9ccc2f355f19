package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/company-researcher/internal/resilience"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Acme company overview", req.Query)
		assert.Equal(t, "basic", req.SearchDepth)
		assert.Equal(t, "news", req.Topic)
		assert.Equal(t, 5, req.MaxResults)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{
			Query: req.Query,
			Results: []SearchResult{
				{URL: "https://example.com", Title: "Example", Content: "body", Score: 0.87},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	resp, err := client.Search(context.Background(), "Acme company overview",
		WithDepth("basic"), WithTopic("news"), WithMaxResults(5))

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://example.com", resp.Results[0].URL)
	assert.Equal(t, 0.87, resp.Results[0].Score)
}

func TestSearch_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(SearchResponse{Results: []SearchResult{{URL: "https://example.com", Content: "body"}}})
	}))
	defer srv.Close()

	client := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRetry(resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
			ShouldRetry:    resilience.IsTransient,
		}),
	)

	resp, err := client.Search(context.Background(), "Acme company overview")

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, resp.Results, 1)
}

func TestSearch_DoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key",
		WithBaseURL(srv.URL),
		WithRetry(resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			ShouldRetry:    resilience.IsTransient,
		}),
	)

	_, err := client.Search(context.Background(), "Acme company overview")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
	assert.ErrorIs(t, err, resilience.ErrProvider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_RateLimiterThrottles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(50))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Search(context.Background(), "Acme company overview")
		require.NoError(t, err)
	}

	// 50 rps with burst 1 means the second and third calls wait ~20ms each.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
