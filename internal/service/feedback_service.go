package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/devmate-kr/devmate-api/internal/dto"
	"github.com/devmate-kr/devmate-api/pkg/ai"
)

const feedbackSchemaJSON = `{
	"type": "object",
	"required": ["good", "improvement", "recommendation"],
	"properties": {
		"good": {"type": "string", "minLength": 1},
		"improvement": {"type": "string", "minLength": 1},
		"recommendation": {"type": "string", "minLength": 1}
	}
}`

var feedbackSchema = jsonschema.MustCompileString("feedback.json", feedbackSchemaJSON)

var feedbackRequiredFields = []string{"good", "improvement", "recommendation"}

// fallbackFeedback is returned once the retry budget is exhausted. The
// evaluation keeps its numeric score; only the prose degrades.
var fallbackFeedback = dto.NarrativeFeedback{
	Good:           "질문의 주제에 맞춰 답변을 작성해 주셨습니다.",
	Improvement:    "핵심 개념을 구체적인 예시와 함께 설명하면 더 좋은 답변이 됩니다.",
	Recommendation: "관련 개념을 복습하고 실제 경험과 연결해 답변을 다듬어 보세요.",
}

// FeedbackGenerator produces the narrative feedback triple for an evaluation.
type FeedbackGenerator interface {
	Generate(ctx context.Context, question, answer string, score int, issues []string) dto.NarrativeFeedback
}

// FeedbackConfig tunes the narrative feedback generation loop.
type FeedbackConfig struct {
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float32
	MaxTokens   int
}

type feedbackGenerator struct {
	generator ai.Generator
	cfg       FeedbackConfig
	logger    zerolog.Logger
}

// NewFeedbackGenerator constructs the generator with bounded retries.
func NewFeedbackGenerator(generator ai.Generator, cfg FeedbackConfig, logger zerolog.Logger) FeedbackGenerator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 300 * time.Millisecond
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	return &feedbackGenerator{
		generator: generator,
		cfg:       cfg,
		logger:    logger.With().Str("component", "feedback_generator").Logger(),
	}
}

// Generate asks the model for structured feedback and falls back to a fixed
// neutral triple when every attempt fails. It never returns garbled output.
func (g *feedbackGenerator) Generate(ctx context.Context, question, answer string, score int, issues []string) dto.NarrativeFeedback {
	prompt := buildFeedbackPrompt(question, answer, score, issues)

	attempts := g.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				g.logger.Warn().Err(ctx.Err()).Msg("feedback generation cancelled, using fallback")
				return fallbackFeedback
			case <-time.After(g.cfg.RetryDelay):
			}
		}

		raw, err := g.generator.Generate(ctx, prompt, ai.GenerateOptions{
			Temperature: g.cfg.Temperature,
			MaxTokens:   g.cfg.MaxTokens,
			JSONOutput:  true,
		})
		if err != nil {
			g.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("feedback generation call failed")
			continue
		}

		feedback, err := parseFeedback(raw)
		if err != nil {
			g.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("feedback response unusable")
			continue
		}

		return feedback
	}

	g.logger.Error().Int("attempts", attempts).Msg("feedback generation exhausted retries, using fallback")

	return fallbackFeedback
}

func parseFeedback(raw string) (dto.NarrativeFeedback, error) {
	body, ok := extractJSONBlock(raw, feedbackRequiredFields)
	if !ok {
		return dto.NarrativeFeedback{}, fmt.Errorf("no json object in feedback response")
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return dto.NarrativeFeedback{}, fmt.Errorf("parse feedback json: %w", err)
	}

	if err := feedbackSchema.Validate(decoded); err != nil {
		return dto.NarrativeFeedback{}, fmt.Errorf("feedback json failed validation: %w", err)
	}

	var feedback dto.NarrativeFeedback
	if err := json.Unmarshal([]byte(body), &feedback); err != nil {
		return dto.NarrativeFeedback{}, fmt.Errorf("decode feedback json: %w", err)
	}

	if strings.TrimSpace(feedback.Good) == "" ||
		strings.TrimSpace(feedback.Improvement) == "" ||
		strings.TrimSpace(feedback.Recommendation) == "" {
		return dto.NarrativeFeedback{}, fmt.Errorf("feedback fields empty after trim")
	}

	return feedback, nil
}

func buildFeedbackPrompt(question, answer string, score int, issues []string) string {
	builder := strings.Builder{}
	builder.WriteString("당신은 개발자 면접 코치입니다. 아래 면접 질문과 답변을 보고 피드백을 작성하세요.\n\n")
	builder.WriteString("## 질문\n")
	builder.WriteString(question)
	builder.WriteString("\n\n## 답변\n")
	builder.WriteString(answer)
	builder.WriteString(fmt.Sprintf("\n\n## 평가 점수\n%d / 100\n", score))
	if len(issues) > 0 {
		builder.WriteString("\n## 감지된 문제\n")
		for _, issue := range issues {
			builder.WriteString("- ")
			builder.WriteString(issue)
			builder.WriteString("\n")
		}
	}
	builder.WriteString("\n다음 세 필드를 가진 JSON 객체만 출력하세요: ")
	builder.WriteString(`{"good": "잘한 점", "improvement": "개선할 점", "recommendation": "학습 추천"}`)
	builder.WriteString("\n모든 필드는 비어 있지 않은 한국어 문장이어야 합니다.")

	return builder.String()
}
