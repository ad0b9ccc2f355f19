package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/meridianlabs/company-researcher/internal/research"
	"github.com/meridianlabs/company-researcher/internal/store"
	"github.com/meridianlabs/company-researcher/internal/stream"
	"github.com/meridianlabs/company-researcher/pkg/anthropic"
	"github.com/meridianlabs/company-researcher/pkg/openai"
	"github.com/meridianlabs/company-researcher/pkg/tavily"
)

// env holds the wired pipeline and its owned resources.
type env struct {
	Pipeline *research.Pipeline
	Store    store.Store
	Hub      *stream.Hub

	redis *redis.Client
}

func (e *env) Close() {
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			zap.L().Warn("redis close failed", zap.Error(err))
		}
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

// initResearch wires providers, store, and broadcasters from config.
func initResearch(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	var openaiOpts []openai.Option
	if cfg.OpenAI.BaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.OpenAI.Model != "" {
		openaiOpts = append(openaiOpts, openai.WithModel(cfg.OpenAI.Model))
	}
	openaiClient := openai.NewClient(cfg.OpenAI.Key, openaiOpts...)
	anthropicClient := anthropic.NewClient(cfg.Anthropic.Key)

	var tavilyOpts []tavily.Option
	if cfg.Tavily.BaseURL != "" {
		tavilyOpts = append(tavilyOpts, tavily.WithBaseURL(cfg.Tavily.BaseURL))
	}
	if cfg.Tavily.RateLimit > 0 {
		tavilyOpts = append(tavilyOpts, tavily.WithRateLimit(cfg.Tavily.RateLimit))
	}
	tavilyClient := tavily.NewClient(cfg.Tavily.Key, tavilyOpts...)

	e := &env{Store: st, Hub: stream.NewHub()}

	// Events always reach the in-process hub and the log; redis is layered
	// on when configured so external consumers can subscribe too.
	broadcasters := []stream.Broadcaster{e.Hub, stream.Logger{}}
	if cfg.Redis.Addr != "" {
		e.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := e.redis.Ping(ctx).Err(); err != nil {
			zap.L().Warn("redis unreachable, events stay in-process", zap.Error(err))
			_ = e.redis.Close()
			e.redis = nil
		} else {
			broadcasters = append(broadcasters, stream.NewRedisBroadcaster(e.redis))
		}
	}

	e.Pipeline = research.New(
		research.OpenAICompleter{Client: openaiClient, Phase: "editor"},
		research.AnthropicCompleter{Client: anthropicClient, Phase: "briefing"},
		research.TavilySearcher{Client: tavilyClient},
		nil,
		st,
		stream.Tee(broadcasters...),
		research.Config{
			QueryTimeout:        time.Duration(cfg.Research.QueryTimeoutSecs) * time.Second,
			QueryRetries:        cfg.Research.QueryRetries,
			QueryBackoff:        time.Duration(cfg.Research.QueryBackoffSecs) * time.Second,
			MaxQueries:          cfg.Research.MaxQueries,
			SearchDepth:         cfg.Tavily.Depth,
			SearchMaxResults:    cfg.Tavily.MaxResults,
			BriefingModel:       cfg.Anthropic.Model,
			BriefingConcurrency: int64(cfg.Research.BriefingConcurrency),
			MaxDocLength:        cfg.Research.MaxDocLength,
			MaxPromptLength:     cfg.Research.MaxPromptLength,
			CompileModel:        cfg.OpenAI.Model,
			CleanupModel:        cfg.OpenAI.CleanupModel,
		},
	)
	return e, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return store.NewMemory(), nil
	case "sqlite":
		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, eris.Wrap(err, "migrate sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
