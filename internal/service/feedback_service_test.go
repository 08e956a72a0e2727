package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/devmate-kr/devmate-api/pkg/ai"
)

type stubGenerator struct {
	responses []string
	err       error
	calls     int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	index := s.calls - 1
	if index >= len(s.responses) {
		index = len(s.responses) - 1
	}
	return s.responses[index], nil
}

func newTestFeedbackGenerator(generator ai.Generator) FeedbackGenerator {
	return NewFeedbackGenerator(generator, FeedbackConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, zerolog.Nop())
}

func TestFeedbackGeneratorParsesCleanResponse(t *testing.T) {
	generator := &stubGenerator{responses: []string{
		`{"good": "핵심 개념을 언급했습니다", "improvement": "예시가 부족합니다", "recommendation": "공식 문서를 읽어보세요"}`,
	}}

	feedback := newTestFeedbackGenerator(generator).Generate(context.Background(), "질문", "답변", 70, nil)

	require.Equal(t, "핵심 개념을 언급했습니다", feedback.Good)
	require.Equal(t, 1, generator.calls)
}

func TestFeedbackGeneratorExtractsFencedJSON(t *testing.T) {
	generator := &stubGenerator{responses: []string{
		"결과:\n```json\n{\"good\": \"g\", \"improvement\": \"i\", \"recommendation\": \"r\"}\n```",
	}}

	feedback := newTestFeedbackGenerator(generator).Generate(context.Background(), "질문", "답변", 50, nil)

	require.Equal(t, "g", feedback.Good)
}

func TestFeedbackGeneratorRetriesOnMalformedThenSucceeds(t *testing.T) {
	generator := &stubGenerator{responses: []string{
		"전혀 JSON이 아닙니다",
		`{"good": "g", "improvement": "i", "recommendation": "r"}`,
	}}

	feedback := newTestFeedbackGenerator(generator).Generate(context.Background(), "질문", "답변", 50, nil)

	require.Equal(t, "g", feedback.Good)
	require.Equal(t, 2, generator.calls)
}

func TestFeedbackGeneratorRetriesOnEmptyField(t *testing.T) {
	generator := &stubGenerator{responses: []string{
		`{"good": "", "improvement": "i", "recommendation": "r"}`,
		`{"good": "g", "improvement": "i", "recommendation": "r"}`,
	}}

	feedback := newTestFeedbackGenerator(generator).Generate(context.Background(), "질문", "답변", 50, nil)

	require.Equal(t, "g", feedback.Good)
	require.Equal(t, 2, generator.calls)
}

func TestFeedbackGeneratorFallsBackAfterExhaustion(t *testing.T) {
	generator := &stubGenerator{responses: []string{"여전히 JSON이 아닙니다"}}

	feedback := newTestFeedbackGenerator(generator).Generate(context.Background(), "질문", "답변", 50, nil)

	require.Equal(t, 3, generator.calls)
	require.Equal(t, fallbackFeedback, feedback)
	require.NotEmpty(t, feedback.Good)
	require.NotEmpty(t, feedback.Improvement)
	require.NotEmpty(t, feedback.Recommendation)
}

func TestFeedbackGeneratorFallsBackOnProviderError(t *testing.T) {
	generator := &stubGenerator{err: errors.New("provider unavailable")}

	feedback := newTestFeedbackGenerator(generator).Generate(context.Background(), "질문", "답변", 50, nil)

	require.Equal(t, fallbackFeedback, feedback)
	require.Equal(t, 3, generator.calls)
}
