package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"

	"github.com/devmate-kr/devmate-api/internal/dto"
	"github.com/devmate-kr/devmate-api/internal/models"
	"github.com/devmate-kr/devmate-api/internal/repository"
	"github.com/devmate-kr/devmate-api/pkg/ai"
)

// ErrUserNotFound indicates the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrNoAnsweredHistory indicates the user has no evaluated answers to analyze.
var ErrNoAnsweredHistory = errors.New("no answered history for user")

// ErrAnalysisUnavailable indicates the model failed to produce a usable
// analysis within the retry budget. There is no safe numeric fallback for
// competency scores, so the failure surfaces.
var ErrAnalysisUnavailable = errors.New("competency analysis unavailable")

const (
	analysisHistoryLimit = 20
	lowConfidenceBelow   = 3
	competencyScoreMax   = 10
	analysisCacheKeyFmt  = "analysis:user:%d"
)

const analysisSchemaJSON = `{
	"type": "object",
	"required": ["scores", "strengths", "improvements", "recommendations"],
	"properties": {
		"scores": {
			"type": "object",
			"required": ["technical_understanding", "problem_solving", "logical_thinking", "communication", "growth_potential", "diligence"],
			"properties": {
				"technical_understanding": {"type": "number"},
				"problem_solving": {"type": "number"},
				"logical_thinking": {"type": "number"},
				"communication": {"type": "number"},
				"growth_potential": {"type": "number"},
				"diligence": {"type": "number"}
			}
		},
		"strengths": {"type": "string", "minLength": 1},
		"improvements": {"type": "string", "minLength": 1},
		"recommendations": {"type": "string", "minLength": 1}
	}
}`

var analysisSchema = jsonschema.MustCompileString("analysis.json", analysisSchemaJSON)

var analysisRequiredFields = []string{"scores", "strengths", "improvements", "recommendations"}

// AnalysisService produces a competency report over a user's answer history.
type AnalysisService interface {
	AnalyzeCompetency(ctx context.Context, userID uint) (dto.PersonalAnalysis, error)
}

// AnalysisConfig tunes the competency analysis loop.
type AnalysisConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
}

type analysisService struct {
	generator ai.Generator
	users     repository.UserRepository
	histories repository.HistoryRepository
	cache     *redis.Client
	cfg       AnalysisConfig
	logger    zerolog.Logger
}

// NewAnalysisService constructs the competency analyzer.
func NewAnalysisService(generator ai.Generator, users repository.UserRepository, histories repository.HistoryRepository, cache *redis.Client, cfg AnalysisConfig, logger zerolog.Logger) AnalysisService {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 300 * time.Millisecond
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}

	return &analysisService{
		generator: generator,
		users:     users,
		histories: histories,
		cache:     cache,
		cfg:       cfg,
		logger:    logger.With().Str("component", "analysis_service").Logger(),
	}
}

func (s *analysisService) AnalyzeCompetency(ctx context.Context, userID uint) (dto.PersonalAnalysis, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PersonalAnalysis{}, ErrUserNotFound
		}
		return dto.PersonalAnalysis{}, err
	}

	cacheKey := fmt.Sprintf(analysisCacheKeyFmt, userID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var analysis dto.PersonalAnalysis
			if unmarshalErr := json.Unmarshal([]byte(cached), &analysis); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", userID).Msg("analysis cache hit")
				return analysis, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read analysis cache")
		}
	}

	records, err := s.histories.ListAnsweredByUser(ctx, userID, analysisHistoryLimit)
	if err != nil {
		return dto.PersonalAnalysis{}, err
	}

	if len(records) == 0 {
		return dto.PersonalAnalysis{}, ErrNoAnsweredHistory
	}

	average := averageScore(records)
	prompt := buildAnalysisPrompt(records, average)

	analysis, err := s.generateAnalysis(ctx, prompt)
	if err != nil {
		return dto.PersonalAnalysis{}, err
	}

	analysis.AverageScore = average
	analysis.AnsweredCount = len(records)
	analysis.LowConfidence = len(records) < lowConfidenceBelow

	if s.cache != nil {
		if payload, err := json.Marshal(analysis); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cfg.CacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analysis cache")
			}
		}
	}

	return analysis, nil
}

// generateAnalysis loops generation, extraction, schema validation and
// clamping under a bounded retry budget.
func (s *analysisService) generateAnalysis(ctx context.Context, prompt string) (dto.PersonalAnalysis, error) {
	attempts := s.cfg.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return dto.PersonalAnalysis{}, ctx.Err()
			case <-time.After(s.cfg.RetryDelay):
			}
		}

		raw, err := s.generator.Generate(ctx, prompt, ai.GenerateOptions{
			Temperature: 0.3,
			MaxTokens:   1024,
			JSONOutput:  true,
		})
		if err != nil {
			lastErr = err
			s.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("analysis generation call failed")
			continue
		}

		analysis, err := parseAnalysis(raw)
		if err != nil {
			lastErr = err
			s.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("analysis response unusable")
			continue
		}

		return analysis, nil
	}

	s.logger.Error().Err(lastErr).Int("attempts", attempts).Msg("analysis generation exhausted retries")

	return dto.PersonalAnalysis{}, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, lastErr)
}

func parseAnalysis(raw string) (dto.PersonalAnalysis, error) {
	body, ok := extractJSONBlock(raw, analysisRequiredFields)
	if !ok {
		return dto.PersonalAnalysis{}, fmt.Errorf("no json object in analysis response")
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return dto.PersonalAnalysis{}, fmt.Errorf("parse analysis json: %w", err)
	}

	if err := analysisSchema.Validate(decoded); err != nil {
		return dto.PersonalAnalysis{}, fmt.Errorf("analysis json failed validation: %w", err)
	}

	// Scores are decoded as floats first: models return fractions and
	// out-of-range values often enough that each axis is rounded and clamped
	// independently.
	var payload struct {
		Scores struct {
			TechnicalUnderstanding float64 `json:"technical_understanding"`
			ProblemSolving         float64 `json:"problem_solving"`
			LogicalThinking        float64 `json:"logical_thinking"`
			Communication          float64 `json:"communication"`
			GrowthPotential        float64 `json:"growth_potential"`
			Diligence              float64 `json:"diligence"`
		} `json:"scores"`
		Strengths       string `json:"strengths"`
		Improvements    string `json:"improvements"`
		Recommendations string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return dto.PersonalAnalysis{}, fmt.Errorf("decode analysis json: %w", err)
	}

	if strings.TrimSpace(payload.Strengths) == "" ||
		strings.TrimSpace(payload.Improvements) == "" ||
		strings.TrimSpace(payload.Recommendations) == "" {
		return dto.PersonalAnalysis{}, fmt.Errorf("analysis text fields empty after trim")
	}

	return dto.PersonalAnalysis{
		Scores: dto.CompetencyScores{
			TechnicalUnderstanding: ClampCompetencyScore(payload.Scores.TechnicalUnderstanding),
			ProblemSolving:         ClampCompetencyScore(payload.Scores.ProblemSolving),
			LogicalThinking:        ClampCompetencyScore(payload.Scores.LogicalThinking),
			Communication:          ClampCompetencyScore(payload.Scores.Communication),
			GrowthPotential:        ClampCompetencyScore(payload.Scores.GrowthPotential),
			Diligence:              ClampCompetencyScore(payload.Scores.Diligence),
		},
		Strengths:       strings.TrimSpace(payload.Strengths),
		Improvements:    strings.TrimSpace(payload.Improvements),
		Recommendations: strings.TrimSpace(payload.Recommendations),
	}, nil
}

// ClampCompetencyScore rounds a model-reported axis value into [0,10].
// Clamping is idempotent.
func ClampCompetencyScore(value float64) int {
	score := int(math.Round(value))
	if score < 0 {
		return 0
	}
	if score > competencyScoreMax {
		return competencyScoreMax
	}

	return score
}

func averageScore(records []models.InterviewHistory) float64 {
	total := 0
	counted := 0
	for _, record := range records {
		if record.Score != nil {
			total += *record.Score
			counted++
		}
	}

	if counted == 0 {
		return 0
	}

	return float64(total) / float64(counted)
}

func buildAnalysisPrompt(records []models.InterviewHistory, average float64) string {
	builder := strings.Builder{}
	builder.WriteString("당신은 개발자 면접 역량 분석가입니다. 아래 면접 기록을 보고 엄격한 기준으로 역량을 평가하세요.\n\n")
	builder.WriteString("## 채점 기준 (각 축 0-10, 정수)\n")
	builder.WriteString("- 0-3 (미흡): 개념 오류가 잦고 답변이 표면적임\n")
	builder.WriteString("- 4-6 (보통): 기본 개념은 알지만 깊이와 근거가 부족함\n")
	builder.WriteString("- 7-8 (우수): 개념을 정확히 설명하고 예시로 뒷받침함\n")
	builder.WriteString("- 9-10 (탁월): 트레이드오프까지 설명하는 실무 수준. 9점 이상은 명확한 근거 없이 부여하지 마세요\n\n")
	builder.WriteString("## 평가 축\n")
	builder.WriteString("technical_understanding, problem_solving, logical_thinking, communication, growth_potential, diligence\n\n")
	builder.WriteString(fmt.Sprintf("## 통계\n답변 수: %d, 평균 점수: %.1f / 100\n\n", len(records), average))
	builder.WriteString("## 면접 기록 (최신순)\n")

	for i, record := range records {
		score := 0
		if record.Score != nil {
			score = *record.Score
		}
		builder.WriteString(fmt.Sprintf("%d. 질문: %s\n   답변: %s\n   점수: %d\n", i+1, record.Question, record.Answer, score))
	}

	builder.WriteString("\n다음 구조의 JSON 객체만 출력하세요:\n")
	builder.WriteString(`{"scores": {"technical_understanding": 0, "problem_solving": 0, "logical_thinking": 0, "communication": 0, "growth_potential": 0, "diligence": 0}, "strengths": "...", "improvements": "...", "recommendations": "..."}`)

	return builder.String()
}
