package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Tavily    TavilyConfig    `yaml:"tavily" mapstructure:"tavily"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "memory" or "sqlite"
	Path   string `yaml:"path" mapstructure:"path"`
}

// OpenAIConfig holds OpenAI-compatible API settings. This provider backs
// query generation and both editor passes.
type OpenAIConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	Model        string `yaml:"model" mapstructure:"model"`
	CleanupModel string `yaml:"cleanup_model" mapstructure:"cleanup_model"`
}

// AnthropicConfig holds Anthropic API settings. This provider backs
// per-category briefing synthesis.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	Depth      string  `yaml:"depth" mapstructure:"depth"`
	MaxResults int     `yaml:"max_results" mapstructure:"max_results"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests/sec, 0 = unlimited
}

// RedisConfig configures the optional redis status broadcaster.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// ResearchConfig configures the pipeline core.
type ResearchConfig struct {
	QueryTimeoutSecs    int `yaml:"query_timeout_secs" mapstructure:"query_timeout_secs"`
	QueryRetries        int `yaml:"query_retries" mapstructure:"query_retries"`
	QueryBackoffSecs    int `yaml:"query_backoff_secs" mapstructure:"query_backoff_secs"`
	MaxQueries          int `yaml:"max_queries" mapstructure:"max_queries"`
	BriefingConcurrency int `yaml:"briefing_concurrency" mapstructure:"briefing_concurrency"`
	MaxDocLength        int `yaml:"max_doc_length" mapstructure:"max_doc_length"`
	MaxPromptLength     int `yaml:"max_prompt_length" mapstructure:"max_prompt_length"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESEARCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "researcher.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4.1")
	v.SetDefault("openai.cleanup_model", "gpt-4.1-mini")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("tavily.depth", "basic")
	v.SetDefault("tavily.max_results", 5)
	v.SetDefault("tavily.rate_limit", 4.0)
	v.SetDefault("research.query_timeout_secs", 30)
	v.SetDefault("research.query_retries", 3)
	v.SetDefault("research.query_backoff_secs", 2)
	v.SetDefault("research.max_queries", 4)
	v.SetDefault("research.briefing_concurrency", 2)
	v.SetDefault("research.max_doc_length", 8000)
	v.SetDefault("research.max_prompt_length", 120000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
