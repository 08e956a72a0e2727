package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeMixedKoreanEnglish(t *testing.T) {
	tokens := Tokenize("REST API는 무상태성을 가집니다")

	require.Contains(t, tokens, "rest")
	require.Contains(t, tokens, "api")
	require.Contains(t, tokens, "무상태성을")
}

func TestExtractKeywordsFiltersStopWordsAndShortTokens(t *testing.T) {
	keywords := ExtractKeywords("이 것은 the stack 과 queue 의 차이점")

	require.Contains(t, keywords, "stack")
	require.Contains(t, keywords, "queue")
	require.Contains(t, keywords, "차이점")
	require.NotContains(t, keywords, "the")
	require.NotContains(t, keywords, "이")
}

func TestExtractKeywordsDeduplicates(t *testing.T) {
	keywords := ExtractKeywords("캐시 캐시 캐시 전략")

	count := 0
	for _, keyword := range keywords {
		if keyword == "캐시" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestKeywordCoveragePartialMatch(t *testing.T) {
	coverage := KeywordCoverage("프로세스, 스레드, 뮤텍스를 설명하세요", "프로세스는 독립된 메모리를 가집니다")

	require.Greater(t, coverage, 0.0)
	require.Less(t, coverage, 1.0)
}

func TestKeywordCoverageVacuousWhenNoKeywords(t *testing.T) {
	// Question made of stop words and single characters only.
	require.Equal(t, 1.0, KeywordCoverage("이 그 저", "아무 답변"))
}

func TestCountSentences(t *testing.T) {
	require.Equal(t, 2, CountSentences("첫 문장입니다. 두 번째 문장입니다."))
	require.Equal(t, 1, CountSentences("마침표 없는 답변"))
	require.Equal(t, 3, CountSentences("하나! 둘? 셋."))
}
