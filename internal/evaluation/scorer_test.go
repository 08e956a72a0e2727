package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSemanticScorePiecewiseBands(t *testing.T) {
	require.InDelta(t, 0.0, SemanticScore(0), 1e-9)
	require.InDelta(t, 0.2*33.33, SemanticScore(0.2), 1e-9)
	require.InDelta(t, 10.0, SemanticScore(0.3), 1e-9)
	require.InDelta(t, 25.0, SemanticScore(0.45), 1e-9)
	require.InDelta(t, 35.0, SemanticScore(0.6), 1e-9)
	require.InDelta(t, 40.0, SemanticScore(1.0), 1e-9)
}

func TestSemanticScoreNeverExceedsCeiling(t *testing.T) {
	for _, similarity := range []float64{0, 0.1, 0.29, 0.3, 0.44, 0.45, 0.59, 0.6, 0.8, 1} {
		score := SemanticScore(similarity)
		require.GreaterOrEqual(t, score, 0.0)
		require.LessOrEqual(t, score, float64(MaxSemanticScore))
	}
}

func TestRelevanceScoreBounds(t *testing.T) {
	question := "데이터베이스 인덱스를 설명하세요"
	answer := "인덱스를 사용하면 데이터베이스 조회가 빨라집니다"

	score := RelevanceScore(question, answer, 0.9)

	require.Greater(t, score, 0.0)
	require.LessOrEqual(t, score, float64(MaxRelevanceScore))
}

func TestRelevanceScoreZeroSimilarityNoKeywordMatch(t *testing.T) {
	score := RelevanceScore("스택 큐 차이점", "전혀 관계없는 내용", 0.1)

	require.Equal(t, 0.0, score)
}

func TestQualityScoreBounds(t *testing.T) {
	short := QualityScore("짧은 답")
	long := QualityScore("예를 들어 HTTP는 80번 포트를 사용합니다. 반면 HTTPS는 443번 포트와 TLS 암호화를 사용합니다. " +
		"인증서 검증 과정이 추가되어 보안성이 높아집니다.")

	require.Greater(t, long, short)
	require.LessOrEqual(t, long, float64(MaxQualityScore))
}

func TestRepetitionPenaltyWordStuffing(t *testing.T) {
	stuffed := strings.Repeat("데이터베이스 ", 8) + "입니다 좋은 내용"

	require.Equal(t, 5.0, RepetitionPenalty(stuffed))
}

func TestRepetitionPenaltyTooFewWords(t *testing.T) {
	require.Equal(t, 15.0, RepetitionPenalty("모르겠습니다"))
}

func TestLengthCapNonIncreasingWithShorterLength(t *testing.T) {
	lengths := []int{10, 49, 50, 79, 80, 119, 120, 149, 150, 199, 200, 300}

	previous := -1
	for _, length := range lengths {
		limit := LengthCap(strings.Repeat("가", length))
		if previous >= 0 {
			require.GreaterOrEqual(t, limit, previous, "cap must not decrease as length grows (length %d)", length)
		}
		previous = limit
	}
}

func TestLengthCapBands(t *testing.T) {
	require.Equal(t, 45, LengthCap(strings.Repeat("가", 49)))
	require.Equal(t, 50, LengthCap(strings.Repeat("가", 79)))
	require.Equal(t, 60, LengthCap(strings.Repeat("가", 119)))
	require.Equal(t, 70, LengthCap(strings.Repeat("가", 149)))
	require.Equal(t, 80, LengthCap(strings.Repeat("가", 199)))
	require.Equal(t, 100, LengthCap(strings.Repeat("가", 200)))
}

func TestCombineScoresClampsAndCaps(t *testing.T) {
	shortAnswer := strings.Repeat("가", 30)

	require.Equal(t, 45, CombineScores(25, 40, 35, 0, shortAnswer))
	require.Equal(t, 0, CombineScores(0, 0, 5, 50, shortAnswer))

	longAnswer := strings.Repeat("가", 250)
	require.Equal(t, 100, CombineScores(25, 40, 35, 0, longAnswer))
}

func TestComplexityPenaltyShortAnswerToComplexQuestion(t *testing.T) {
	question := "객체지향 프로그래밍의 특징은 무엇인가요?"
	answer := "잘 모르지만 클래스와 관련이 있습니다"

	penalty := ComplexityPenalty(question, answer)

	require.Greater(t, penalty, 0.0)
}

func TestComplexityPenaltyZeroForThoroughAnswer(t *testing.T) {
	question := "자기소개를 해주세요"
	answer := strings.Repeat("저는 다양한 프로젝트 경험을 쌓아온 3년차 백엔드 개발자입니다. ", 6)

	require.Equal(t, 0.0, ComplexityPenalty(question, answer))
}
