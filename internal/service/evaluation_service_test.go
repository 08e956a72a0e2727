package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devmate-kr/devmate-api/internal/dto"
	"github.com/devmate-kr/devmate-api/internal/models"
	"github.com/devmate-kr/devmate-api/internal/repository"
	"github.com/devmate-kr/devmate-api/pkg/ai"
)

type stubProvider struct {
	mu         sync.Mutex
	vectors    map[string][]float64
	defaultVec []float64
	generate   func(prompt string) (string, error)
	embedCalls int
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generate != nil {
		return s.generate(prompt)
	}

	return "yes", nil
}

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embedCalls++
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}

	return s.defaultVec, nil
}

type stubHistoryRepo struct {
	records []models.InterviewHistory
	applied []repository.EvaluationUpdate
}

func (s *stubHistoryRepo) GetByID(ctx context.Context, id uint) (models.InterviewHistory, error) {
	for _, record := range s.records {
		if record.ID == id {
			return record, nil
		}
	}

	return models.InterviewHistory{}, gorm.ErrRecordNotFound
}

func (s *stubHistoryRepo) ListAnsweredByUser(ctx context.Context, userID uint, limit int) ([]models.InterviewHistory, error) {
	var out []models.InterviewHistory
	for _, record := range s.records {
		if record.UserID == userID && record.Status == models.HistoryStatusAnswered {
			out = append(out, record)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

func (s *stubHistoryRepo) Create(ctx context.Context, history *models.InterviewHistory) error {
	s.records = append(s.records, *history)
	return nil
}

func (s *stubHistoryRepo) ApplyEvaluation(ctx context.Context, id uint, update repository.EvaluationUpdate) (models.InterviewHistory, error) {
	for i, record := range s.records {
		if record.ID != id {
			continue
		}
		score := update.Score
		record.Answer = update.Answer
		record.Score = &score
		record.Status = models.HistoryStatusAnswered
		record.Feedback = update.Feedback
		record.Issues = update.Issues
		s.records[i] = record
		s.applied = append(s.applied, update)

		return record, nil
	}

	return models.InterviewHistory{}, gorm.ErrRecordNotFound
}

type stubPublisher struct {
	events []EvaluationCompletedEvent
}

func (s *stubPublisher) EvaluationCompleted(ctx context.Context, event EvaluationCompletedEvent) {
	s.events = append(s.events, event)
}

type stubFeedback struct {
	feedback dto.NarrativeFeedback
}

func (s *stubFeedback) Generate(ctx context.Context, question, answer string, score int, issues []string) dto.NarrativeFeedback {
	return s.feedback
}

const (
	testQuestion = "객체지향 프로그래밍의 특징은 무엇인가요?"
	testAnswer   = "객체지향 프로그래밍의 특징은 캡슐화, 상속, 다형성, 추상화입니다. 예를 들어 상속은 코드 재사용을 돕습니다. 다형성은 같은 인터페이스로 다른 동작을 구현합니다."
)

func newEvaluationServiceForTest(provider *stubProvider, histories *stubHistoryRepo, events *stubPublisher) (EvaluationService, dto.NarrativeFeedback) {
	feedback := dto.NarrativeFeedback{
		Good:           "개념을 정확히 짚었습니다",
		Improvement:    "근거를 더 제시하세요",
		Recommendation: "실제 코드 예시를 연습하세요",
	}

	var publisher EventPublisher
	if events != nil {
		publisher = events
	}

	service := NewEvaluationService(provider, &stubFeedback{feedback: feedback}, histories, publisher, validator.New(), zerolog.Nop())

	return service, feedback
}

func TestScoreRejectsTooShortAnswer(t *testing.T) {
	provider := &stubProvider{defaultVec: []float64{1, 0}}
	service, _ := newEvaluationServiceForTest(provider, &stubHistoryRepo{}, nil)

	result, err := service.Score(context.Background(), dto.EvaluateRequest{
		Question: testQuestion,
		Answer:   "모르겠습니다",
	})

	require.NoError(t, err)
	require.Zero(t, result.Score)
	require.Contains(t, result.Issues, issueTooShort)
	require.Zero(t, provider.embedCalls)
}

func TestScoreRejectsMeaninglessAnswer(t *testing.T) {
	provider := &stubProvider{defaultVec: []float64{1, 0}}
	service, _ := newEvaluationServiceForTest(provider, &stubHistoryRepo{}, nil)

	result, err := service.Score(context.Background(), dto.EvaluateRequest{
		Question: testQuestion,
		Answer:   "ㅋㅋㅋㅋㅋㅋㅋㅋㅋㅋㅋㅋ",
	})

	require.NoError(t, err)
	require.Zero(t, result.Score)
	require.Contains(t, result.Issues, issueMeaningless)
	require.Zero(t, provider.embedCalls)
}

func TestScoreRejectsCopiedAnswer(t *testing.T) {
	provider := &stubProvider{defaultVec: []float64{1, 0}}
	service, _ := newEvaluationServiceForTest(provider, &stubHistoryRepo{}, nil)

	result, err := service.Score(context.Background(), dto.EvaluateRequest{
		Question: testQuestion,
		Answer:   testQuestion,
	})

	require.NoError(t, err)
	require.Zero(t, result.Score)
	require.Len(t, result.Issues, 1)
	require.True(t, strings.HasPrefix(result.Issues[0], issueCopied))
	require.Zero(t, provider.embedCalls)
}

func TestScoreRejectsOffTopicAnswer(t *testing.T) {
	answer := "오늘 점심으로 김치찌개를 먹었고 날씨가 좋아서 산책을 다녀왔습니다."
	provider := &stubProvider{
		defaultVec: []float64{1, 0},
		vectors: map[string][]float64{
			testQuestion: {1, 0},
			answer:       {0, 1},
		},
	}
	service, _ := newEvaluationServiceForTest(provider, &stubHistoryRepo{}, nil)

	result, err := service.Score(context.Background(), dto.EvaluateRequest{
		Question: testQuestion,
		Answer:   answer,
	})

	require.NoError(t, err)
	require.Zero(t, result.Score)
	require.Contains(t, result.Issues, issueOffTopic)
}

func TestScoreGrantsPartialCreditForWeakRelation(t *testing.T) {
	answer := "운영체제는 컴퓨터 자원을 관리하는 소프트웨어이고 여러 프로그램을 실행합니다."
	provider := &stubProvider{
		defaultVec: []float64{1, 0},
		vectors: map[string][]float64{
			testQuestion: {1, 0},
			answer:       {0.2, 0.9797958971132712},
		},
	}
	service, _ := newEvaluationServiceForTest(provider, &stubHistoryRepo{}, nil)

	result, err := service.Score(context.Background(), dto.EvaluateRequest{
		Question: testQuestion,
		Answer:   answer,
	})

	require.NoError(t, err)
	require.Equal(t, 4, result.Score)
	require.Contains(t, result.Issues, issueWeakRelation)
}

func TestScoreEvaluatesOnTopicAnswer(t *testing.T) {
	provider := &stubProvider{defaultVec: []float64{0.5, 0.5, 0.5}}
	service, feedback := newEvaluationServiceForTest(provider, &stubHistoryRepo{}, nil)

	result, err := service.Score(context.Background(), dto.EvaluateRequest{
		Question: testQuestion,
		Answer:   testAnswer,
	})

	require.NoError(t, err)
	require.Greater(t, result.Score, 0)
	require.LessOrEqual(t, result.Score, 100)
	require.NotContains(t, result.Issues, issueTooShort)
	require.NotContains(t, result.Issues, issueOffTopic)
	require.Equal(t, feedback, result.Feedback)
	require.Equal(t, 3, provider.embedCalls)
}

func TestScoreAppliesCompletenessPenalty(t *testing.T) {
	provider := &stubProvider{
		defaultVec: []float64{0.5, 0.5, 0.5},
		generate: func(prompt string) (string, error) {
			if strings.Contains(prompt, "yes 또는 no") {
				return "no", nil
			}
			return "캡슐화, 상속, 다형성, 추상화", nil
		},
	}
	service, _ := newEvaluationServiceForTest(provider, &stubHistoryRepo{}, nil)

	withPenalty, err := service.Score(context.Background(), dto.EvaluateRequest{
		Question: testQuestion,
		Answer:   testAnswer,
	})
	require.NoError(t, err)
	require.Contains(t, withPenalty.Issues, issueIncomplete)

	provider.generate = nil
	withoutPenalty, err := service.Score(context.Background(), dto.EvaluateRequest{
		Question: testQuestion,
		Answer:   testAnswer,
	})
	require.NoError(t, err)
	require.NotContains(t, withoutPenalty.Issues, issueIncomplete)
	require.Equal(t, completenessPenalty, withoutPenalty.Score-withPenalty.Score)
}

func TestScoreRejectsInvalidPayload(t *testing.T) {
	provider := &stubProvider{defaultVec: []float64{1, 0}}
	service, _ := newEvaluationServiceForTest(provider, &stubHistoryRepo{}, nil)

	_, err := service.Score(context.Background(), dto.EvaluateRequest{Question: testQuestion})

	require.Error(t, err)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestScoreAndPersistStoresEvaluation(t *testing.T) {
	provider := &stubProvider{defaultVec: []float64{0.5, 0.5, 0.5}}
	histories := &stubHistoryRepo{records: []models.InterviewHistory{{
		ID:       7,
		UserID:   3,
		Question: testQuestion,
		Status:   models.HistoryStatusPending,
	}}}
	events := &stubPublisher{}
	service, _ := newEvaluationServiceForTest(provider, histories, events)

	result, err := service.ScoreAndPersist(context.Background(), 7, dto.AnswerRequest{Answer: testAnswer})

	require.NoError(t, err)
	require.Equal(t, uint(7), result.HistoryID)
	require.Greater(t, result.Score, 0)
	require.Equal(t, result.Score/10, result.PointsEarned)

	require.Len(t, histories.applied, 1)
	require.Equal(t, result.Score, histories.applied[0].Score)
	require.Equal(t, result.PointsEarned, histories.applied[0].PointsDelta)
	require.NotEmpty(t, histories.applied[0].Feedback)
	require.NotEmpty(t, histories.applied[0].Issues)

	stored, err := histories.GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, stored.IsAnswered())

	require.Len(t, events.events, 1)
	require.Equal(t, uint(3), events.events[0].UserID)
	require.Equal(t, uint(7), events.events[0].HistoryID)
	require.Equal(t, result.Score, events.events[0].Score)
	require.Equal(t, result.PointsEarned, events.events[0].Points)
}

func TestScoreAndPersistUnknownHistory(t *testing.T) {
	provider := &stubProvider{defaultVec: []float64{1, 0}}
	service, _ := newEvaluationServiceForTest(provider, &stubHistoryRepo{}, nil)

	_, err := service.ScoreAndPersist(context.Background(), 99, dto.AnswerRequest{Answer: testAnswer})

	require.ErrorIs(t, err, ErrHistoryNotFound)
}

func TestScoreAndPersistAlreadyAnswered(t *testing.T) {
	provider := &stubProvider{defaultVec: []float64{1, 0}}
	histories := &stubHistoryRepo{records: []models.InterviewHistory{answeredRecord(5, 70)}}
	service, _ := newEvaluationServiceForTest(provider, histories, nil)

	_, err := service.ScoreAndPersist(context.Background(), 5, dto.AnswerRequest{Answer: testAnswer})

	require.ErrorIs(t, err, ErrHistoryAlreadyAnswered)
}
