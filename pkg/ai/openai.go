package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "devmate",
		Subsystem: "ai",
		Name:      "call_duration_seconds",
		Help:      "Duration of AI provider calls",
	}, []string{"provider", "operation", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devmate",
		Subsystem: "ai",
		Name:      "call_failures_total",
		Help:      "Number of failed AI provider calls",
	}, []string{"provider", "operation", "model"})
)

// OpenAIConfig defines configuration options for the OpenAI provider.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Logger         zerolog.Logger
}

// OpenAIProvider implements Generator and Embedder against the OpenAI API.
type OpenAIProvider struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIProvider builds a provider using the supplied configuration.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(openai.SmallEmbedding3)
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIProvider{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/devmate-kr/devmate-api/pkg/ai/openai"),
		logger: logger,
	}, nil
}

// Generate sends the prompt as a chat completion and returns the raw text.
func (p *OpenAIProvider) Generate(parent context.Context, prompt string, opts GenerateOptions) (string, error) {
	ctx, span := p.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", p.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.JSONOutput {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues("openai", "generate", p.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("openai", "generate", p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues("openai", "generate", p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed requests a single embedding vector for the text.
func (p *OpenAIProvider) Embed(parent context.Context, text string) ([]float64, error) {
	ctx, span := p.tracer.Start(parent, "openai.embed", trace.WithAttributes(
		attribute.String("model", p.cfg.EmbeddingModel),
	))
	defer span.End()

	start := time.Now()
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.cfg.EmbeddingModel),
	})
	aiDuration.WithLabelValues("openai", "embed", p.cfg.EmbeddingModel).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("openai", "embed", p.cfg.EmbeddingModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("openai embed: %w", err)
	}

	if len(resp.Data) == 0 {
		err := fmt.Errorf("no embedding returned from openai")
		aiFailures.WithLabelValues("openai", "embed", p.cfg.EmbeddingModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	vector := make([]float64, len(resp.Data[0].Embedding))
	for i, value := range resp.Data[0].Embedding {
		vector[i] = float64(value)
	}

	return vector, nil
}
