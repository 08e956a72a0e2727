package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// GeminiConfig defines configuration options for the Gemini provider.
type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Logger         zerolog.Logger
}

// GeminiProvider implements Generator and Embedder against the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiProvider builds a provider backed by the Google GenAI SDK.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-004"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &GeminiProvider{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/devmate-kr/devmate-api/pkg/ai/gemini"),
		logger: logger,
	}, nil
}

// Generate sends the prompt to Gemini and concatenates the textual parts of
// the first response.
func (p *GeminiProvider) Generate(parent context.Context, prompt string, opts GenerateOptions) (string, error) {
	ctx, span := p.tracer.Start(parent, "gemini.generate", trace.WithAttributes(
		attribute.String("model", p.cfg.Model),
	))
	defer span.End()

	config := &genai.GenerateContentConfig{}
	temperature := opts.Temperature
	config.Temperature = &temperature
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.cfg.Model, genai.Text(prompt), config)
	aiDuration.WithLabelValues("gemini", "generate", p.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("gemini", "generate", p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(strings.TrimSpace(part.Text))
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		err := fmt.Errorf("gemini returned empty response")
		aiFailures.WithLabelValues("gemini", "generate", p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return output, nil
}

// Embed requests a single embedding vector for the text.
func (p *GeminiProvider) Embed(parent context.Context, text string) ([]float64, error) {
	ctx, span := p.tracer.Start(parent, "gemini.embed", trace.WithAttributes(
		attribute.String("model", p.cfg.EmbeddingModel),
	))
	defer span.End()

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
	}}

	start := time.Now()
	resp, err := p.client.Models.EmbedContent(ctx, p.cfg.EmbeddingModel, contents, nil)
	aiDuration.WithLabelValues("gemini", "embed", p.cfg.EmbeddingModel).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("gemini", "embed", p.cfg.EmbeddingModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("gemini embed: %w", err)
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		err := fmt.Errorf("no embedding returned from gemini")
		aiFailures.WithLabelValues("gemini", "embed", p.cfg.EmbeddingModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	values := resp.Embeddings[0].Values
	vector := make([]float64, len(values))
	for i, value := range values {
		vector[i] = float64(value)
	}

	return vector, nil
}
