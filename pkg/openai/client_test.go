package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) string {
	return fmt.Sprintf(`{
		"id": "cmpl-1",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 7}
	}`, content)
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		msgs := req["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "user", msgs[1].(map[string]any)["role"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionBody("hello"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	resp, err := client.Complete(context.Background(), CompletionRequest{
		System: "be brief",
		Prompt: "say hello",
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 7, resp.Usage.CompletionTokens)
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "cmpl-1", "choices": []}`)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompleteStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		for _, delta := range []string{"Acme query one", "\n", "Acme query two"} {
			chunk := map[string]any{
				"id": "cmpl-1",
				"choices": []map[string]any{
					{"index": 0, "delta": map[string]string{"content": delta}},
				},
			}
			payload, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		fmt.Fprintf(w, "data: %s\n\n", `{"id":"cmpl-1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`)
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	stream, err := client.CompleteStream(context.Background(), CompletionRequest{Prompt: "queries"})
	require.NoError(t, err)
	defer stream.Close()

	var tokens []string
	for {
		tok, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		tokens = append(tokens, tok)
	}

	assert.Equal(t, []string{"Acme query one", "\n", "Acme query two"}, tokens)
}
