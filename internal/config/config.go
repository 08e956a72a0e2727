package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	JWTSecret          string
	AIProvider         string
	OpenAIAPIKey       string
	OpenAIModel        string
	GeminiAPIKey       string
	GeminiModel        string
	EmbeddingModel     string
	FeedbackMaxRetries int
	AnalysisMaxRetries int
	RetryDelay         time.Duration
	AnalysisCacheTTL   time.Duration
	EvaluateRateLimit  int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DEVMATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "DevMate API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("feedback.max_retries", 2)
	v.SetDefault("analysis.max_retries", 2)
	v.SetDefault("retry.delay", "300ms")
	v.SetDefault("analysis.cache_ttl", "10m")
	v.SetDefault("evaluate.rate_limit", 10)

	retryDelay, err := time.ParseDuration(v.GetString("retry.delay"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid retry delay: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("analysis.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid analysis cache ttl: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		AIProvider:         strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIModel:        v.GetString("openai.model"),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		GeminiModel:        v.GetString("gemini.model"),
		EmbeddingModel:     v.GetString("embedding.model"),
		FeedbackMaxRetries: v.GetInt("feedback.max_retries"),
		AnalysisMaxRetries: v.GetInt("analysis.max_retries"),
		RetryDelay:         retryDelay,
		AnalysisCacheTTL:   cacheTTL,
		EvaluateRateLimit:  v.GetInt("evaluate.rate_limit"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.AIProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("openai api key must be provided")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return Config{}, fmt.Errorf("gemini api key must be provided")
		}
	default:
		return Config{}, fmt.Errorf("unsupported ai provider: %s", cfg.AIProvider)
	}

	if cfg.FeedbackMaxRetries < 0 || cfg.AnalysisMaxRetries < 0 {
		return Config{}, fmt.Errorf("retry budgets must not be negative")
	}

	return cfg, nil
}
