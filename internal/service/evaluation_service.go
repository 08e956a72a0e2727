package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devmate-kr/devmate-api/internal/dto"
	"github.com/devmate-kr/devmate-api/internal/evaluation"
	"github.com/devmate-kr/devmate-api/internal/observability"
	"github.com/devmate-kr/devmate-api/internal/repository"
	"github.com/devmate-kr/devmate-api/pkg/ai"
)

// ErrHistoryNotFound indicates the referenced interview record does not exist.
var ErrHistoryNotFound = errors.New("interview history not found")

// ErrHistoryAlreadyAnswered indicates the record already carries an evaluation.
var ErrHistoryAlreadyAnswered = errors.New("interview history already answered")

// Topic-gate and scoring thresholds, hand-tuned for short interview answers.
const (
	minAnswerRunes      = 10
	topicRejectBelow    = 0.15
	topicPartialBelow   = 0.25
	completenessPenalty = 20
	pointsDivisor       = 10
)

// Diagnostic labels surfaced to the caller in insertion order.
const (
	issueTooShort     = "답변이 너무 짧습니다"
	issueMeaningless  = "의미 있는 내용이 없는 답변입니다"
	issueCopied       = "질문을 복사한 답변입니다"
	issueOffTopic     = "질문과 관련 없는 답변입니다"
	issueWeakRelation = "질문과의 관련성이 낮습니다"
	issueIncomplete   = "질문의 요구사항을 모두 다루지 않았습니다"
	issueLowCoverage  = "질문의 핵심 키워드를 다루지 않았습니다"
	issueNoSpecifics  = "구체적인 예시나 근거가 부족합니다"
	issueLowQuality   = "답변 구성이 단조롭습니다"
)

// EvaluationService scores interview answers and optionally persists the result.
type EvaluationService interface {
	Score(ctx context.Context, payload dto.EvaluateRequest) (dto.EvaluationResponse, error)
	ScoreAndPersist(ctx context.Context, historyID uint, payload dto.AnswerRequest) (dto.PersistedEvaluationResponse, error)
}

type evaluationService struct {
	provider   ai.Provider
	feedback   FeedbackGenerator
	histories  repository.HistoryRepository
	events     EventPublisher
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	thresholds evaluation.CopyThresholds
	logger     zerolog.Logger
}

// NewEvaluationService constructs the scoring orchestrator.
func NewEvaluationService(provider ai.Provider, feedback FeedbackGenerator, histories repository.HistoryRepository, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		provider:   provider,
		feedback:   feedback,
		histories:  histories,
		events:     events,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		thresholds: evaluation.DefaultCopyThresholds(),
		logger:     logger.With().Str("component", "evaluation_service").Logger(),
	}
}

func (s *evaluationService) Score(ctx context.Context, payload dto.EvaluateRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	question := strings.TrimSpace(s.sanitizer.Sanitize(payload.Question))
	answer := strings.TrimSpace(s.sanitizer.Sanitize(payload.Answer))

	return s.evaluate(ctx, question, answer), nil
}

func (s *evaluationService) ScoreAndPersist(ctx context.Context, historyID uint, payload dto.AnswerRequest) (dto.PersistedEvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PersistedEvaluationResponse{}, err
	}

	history, err := s.histories.GetByID(ctx, historyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PersistedEvaluationResponse{}, ErrHistoryNotFound
		}
		return dto.PersistedEvaluationResponse{}, err
	}

	if history.IsAnswered() {
		return dto.PersistedEvaluationResponse{}, ErrHistoryAlreadyAnswered
	}

	answer := strings.TrimSpace(s.sanitizer.Sanitize(payload.Answer))
	result := s.evaluate(ctx, history.Question, answer)

	feedbackJSON, err := json.Marshal(result.Feedback)
	if err != nil {
		return dto.PersistedEvaluationResponse{}, fmt.Errorf("marshal feedback: %w", err)
	}
	issuesJSON, err := json.Marshal(result.Issues)
	if err != nil {
		return dto.PersistedEvaluationResponse{}, fmt.Errorf("marshal issues: %w", err)
	}

	points := result.Score / pointsDivisor

	updated, err := s.histories.ApplyEvaluation(ctx, historyID, repository.EvaluationUpdate{
		Answer:      answer,
		Score:       result.Score,
		Feedback:    datatypes.JSON(feedbackJSON),
		Issues:      datatypes.JSON(issuesJSON),
		PointsDelta: points,
	})
	if err != nil {
		return dto.PersistedEvaluationResponse{}, err
	}

	s.logger.Info().
		Uint("history_id", historyID).
		Uint("user_id", updated.UserID).
		Int("score", result.Score).
		Int("points", points).
		Msg("evaluation persisted")

	if s.events != nil {
		s.events.EvaluationCompleted(ctx, EvaluationCompletedEvent{
			UserID:    updated.UserID,
			HistoryID: updated.ID,
			Score:     result.Score,
			Points:    points,
		})
	}

	return dto.PersistedEvaluationResponse{
		HistoryID:    updated.ID,
		Score:        result.Score,
		Feedback:     result.Feedback,
		Issues:       result.Issues,
		PointsEarned: points,
	}, nil
}

// evaluate runs the gate sequence and scoring stages for one answer. Scoring
// never fails outright: provider problems degrade to zero similarity or
// fallback prose instead of surfacing an error for a valid input.
func (s *evaluationService) evaluate(ctx context.Context, question, answer string) dto.EvaluationResponse {
	issues := []string{}

	if len([]rune(answer)) < minAnswerRunes {
		issues = append(issues, issueTooShort)
		return s.rejected(0, issues)
	}

	if evaluation.IsMeaningless(answer) {
		issues = append(issues, issueMeaningless)
		return s.rejected(0, issues)
	}

	if verdict := evaluation.DetectCopy(question, answer, s.thresholds); verdict.IsCopied {
		issues = append(issues, issueCopied+": "+verdict.Reason)
		return s.rejected(0, issues)
	}

	vectors := s.fetchEmbeddings(ctx, question, answer)

	topicSimilarity := evaluation.CosineSimilarity(vectors.question, vectors.answer)
	if topicSimilarity < topicPartialBelow {
		score := 0
		if topicSimilarity >= topicRejectBelow {
			score = int(math.Round(topicSimilarity * 20))
			issues = append(issues, issueWeakRelation)
		} else {
			issues = append(issues, issueOffTopic)
		}
		return s.rejected(score, issues)
	}

	relevance := evaluation.RelevanceScore(question, answer, topicSimilarity)
	semantic := evaluation.SemanticScore(evaluation.CosineSimilarity(vectors.answer, vectors.reference))
	quality := evaluation.QualityScore(answer)
	penalty := evaluation.RepetitionPenalty(answer)

	score := evaluation.CombineScores(relevance, semantic, quality, penalty, answer)

	if complexityPenalty := evaluation.ComplexityPenalty(question, answer); complexityPenalty > 0 {
		score -= int(complexityPenalty)
		if evaluation.KeywordCoverage(question, answer) < 0.3 {
			issues = append(issues, issueLowCoverage)
		} else {
			issues = append(issues, issueNoSpecifics)
		}
	}

	if !s.checkCompleteness(ctx, question, answer) {
		score -= completenessPenalty
		issues = append(issues, issueIncomplete)
	}

	if score < 0 {
		score = 0
	}

	if quality < 20 {
		issues = append(issues, issueLowQuality)
	}

	feedback := s.feedback.Generate(ctx, question, answer, score, issues)

	observability.Evaluations().WithLabelValues("scored").Inc()
	observability.EvaluationScores().WithLabelValues("scored").Observe(float64(score))

	return dto.EvaluationResponse{Score: score, Feedback: feedback, Issues: issues}
}

// rejected builds the terminal response for a gated answer without spending a
// generation call.
func (s *evaluationService) rejected(score int, issues []string) dto.EvaluationResponse {
	observability.Evaluations().WithLabelValues("rejected").Inc()
	observability.EvaluationScores().WithLabelValues("rejected").Observe(float64(score))

	return dto.EvaluationResponse{
		Score:    score,
		Feedback: fallbackFeedback,
		Issues:   issues,
	}
}

type embeddingSet struct {
	question  []float64
	answer    []float64
	reference []float64
}

// fetchEmbeddings requests the three embeddings concurrently. The reference
// chain first asks the generator to extract the question's keywords and embeds
// those, falling back to the raw question when extraction fails. Any embedding
// failure degrades to an empty vector and therefore zero similarity.
func (s *evaluationService) fetchEmbeddings(ctx context.Context, question, answer string) embeddingSet {
	var set embeddingSet
	var wg sync.WaitGroup

	wg.Add(3)

	go func() {
		defer wg.Done()
		set.question = s.embedOrEmpty(ctx, question, "question")
	}()

	go func() {
		defer wg.Done()
		set.answer = s.embedOrEmpty(ctx, answer, "answer")
	}()

	go func() {
		defer wg.Done()
		reference := s.extractReferenceText(ctx, question)
		set.reference = s.embedOrEmpty(ctx, reference, "reference")
	}()

	wg.Wait()

	return set
}

func (s *evaluationService) embedOrEmpty(ctx context.Context, text, kind string) []float64 {
	vector, err := s.provider.Embed(ctx, text)
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Msg("embedding failed, treating as unrelated")
		return nil
	}

	return vector
}

// extractReferenceText asks the model for the ideal-answer keywords of the
// question. On any failure the raw question stands in as the reference.
func (s *evaluationService) extractReferenceText(ctx context.Context, question string) string {
	prompt := "다음 면접 질문에 대한 모범 답변의 핵심 키워드를 쉼표로 구분해 나열하세요. 키워드만 출력하세요.\n\n질문: " + question

	raw, err := s.provider.Generate(ctx, prompt, ai.GenerateOptions{Temperature: 0.2, MaxTokens: 128})
	if err != nil || strings.TrimSpace(raw) == "" {
		if err != nil {
			s.logger.Warn().Err(err).Msg("keyword extraction failed, embedding raw question")
		}
		return question
	}

	return strings.TrimSpace(raw)
}

// checkCompleteness is a binary oracle on whether the answer addresses the
// question's explicit requirements. Provider failures count as a pass so an
// outage cannot depress scores.
func (s *evaluationService) checkCompleteness(ctx context.Context, question, answer string) bool {
	prompt := fmt.Sprintf(
		"질문: %s\n답변: %s\n\n답변이 질문에서 명시적으로 요구한 내용을 다루고 있습니까? yes 또는 no로만 대답하세요.",
		question, answer)

	raw, err := s.provider.Generate(ctx, prompt, ai.GenerateOptions{Temperature: 0, MaxTokens: 8})
	if err != nil {
		s.logger.Warn().Err(err).Msg("completeness check failed, defaulting to pass")
		return true
	}

	normalized := strings.ToLower(strings.TrimSpace(raw))

	return !strings.HasPrefix(normalized, "no") && !strings.HasPrefix(normalized, "아니")
}
