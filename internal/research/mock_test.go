package research

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/meridianlabs/company-researcher/internal/stream"
)

// scriptedStream replays a fixed token sequence, then returns failErr if set
// or io.EOF.
type scriptedStream struct {
	tokens  []string
	failErr error

	i      int
	closed bool
}

func (s *scriptedStream) Recv() (string, error) {
	if s.i < len(s.tokens) {
		tok := s.tokens[s.i]
		s.i++
		return tok, nil
	}
	if s.failErr != nil {
		return "", s.failErr
	}
	return "", io.EOF
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

// fakeCompleter scripts provider behavior and records every request. It
// tracks peak in-flight Complete calls for concurrency assertions.
type fakeCompleter struct {
	completeFn func(req CompletionRequest) (string, error)
	streamFn   func(req CompletionRequest) (TokenStream, error)
	delay      time.Duration

	mu        sync.Mutex
	requests  []CompletionRequest
	active    int
	maxActive int
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if f.completeFn == nil {
		return "ok", nil
	}
	return f.completeFn(req)
}

func (f *fakeCompleter) CompleteStream(_ context.Context, req CompletionRequest) (TokenStream, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.streamFn == nil {
		return &scriptedStream{}, nil
	}
	return f.streamFn(req)
}

func (f *fakeCompleter) recorded() []CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CompletionRequest(nil), f.requests...)
}

func (f *fakeCompleter) peakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

// fakeSearcher answers searches via fn and records queries and options.
type fakeSearcher struct {
	fn func(query string, opts SearchOptions) ([]SearchHit, error)

	mu      sync.Mutex
	queries []string
	opts    []SearchOptions
}

func (f *fakeSearcher) Search(_ context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	if f.fn == nil {
		return nil, nil
	}
	return f.fn(query, opts)
}

func (f *fakeSearcher) seenQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeSearcher) seenOpts() []SearchOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SearchOptions(nil), f.opts...)
}

// captureBroadcaster records every event for assertions.
type captureBroadcaster struct {
	mu     sync.Mutex
	events []stream.Event
}

func (b *captureBroadcaster) Notify(_ context.Context, ev stream.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *captureBroadcaster) byStatus(status string) []stream.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []stream.Event
	for _, ev := range b.events {
		if ev.Status == status {
			out = append(out, ev)
		}
	}
	return out
}

func (b *captureBroadcaster) all() []stream.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]stream.Event(nil), b.events...)
}
