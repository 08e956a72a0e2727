package evaluation

import (
	"math"
	"regexp"
	"strings"
)

// Sub-score ceilings. Relevance, semantic and quality sum to at most 100
// before penalties.
const (
	MaxRelevanceScore = 25
	MaxSemanticScore  = 40
	MaxQualityScore   = 35
)

var (
	complexQuestionPattern  = regexp.MustCompile(`무엇|어떤|왜|나열|차이|비교`)
	specificsDemandPattern  = regexp.MustCompile(`무엇|어떤|나열|설명|종류|방법|what|which|list|explain|describe`)
	examplePhrasePattern    = regexp.MustCompile(`예를 들어|예를들어|예시|가령|for example|e\.g\.`)
	digitPattern            = regexp.MustCompile(`[0-9]`)
	bulletPattern           = regexp.MustCompile(`(?m)^\s*([-*•]|\d+\.)`)
	multipleMarkersPattern  = regexp.MustCompile(`\?.*\?`)
)

// RelevanceScore awards up to 15 points for question keywords found in the
// answer and up to 10 for question-answer embedding similarity, mapped
// linearly from [0.2,0.5].
func RelevanceScore(question, answer string, questionAnswerSimilarity float64) float64 {
	keywords := ExtractKeywords(question)
	keywordScore := 15.0
	if len(keywords) > 0 {
		lowered := strings.ToLower(answer)
		matched := 0
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				matched++
			}
		}
		keywordScore = 15 * float64(matched) / float64(len(keywords))
	}

	similarityScore := (questionAnswerSimilarity - 0.2) / 0.3 * 10
	similarityScore = clampFloat(similarityScore, 0, 10)

	return clampFloat(keywordScore+similarityScore, 0, MaxRelevanceScore)
}

// SemanticScore maps answer-to-reference embedding similarity onto [0,40]
// with a piecewise-linear curve that rewards the mid band most steeply.
func SemanticScore(similarity float64) float64 {
	var score float64
	switch {
	case similarity < 0.3:
		score = similarity * 33.33
	case similarity < 0.45:
		score = 10 + (similarity-0.3)*100
	case similarity < 0.6:
		score = 25 + (similarity-0.45)*66.67
	default:
		score = 35 + math.Min(5, (similarity-0.6)*12.5)
	}

	return clampFloat(score, 0, MaxSemanticScore)
}

// QualityScore rates the answer's surface quality from length, sentence
// structure and specificity, independent of whether it is correct.
func QualityScore(answer string) float64 {
	trimmed := strings.TrimSpace(answer)
	length := len([]rune(trimmed))

	var lengthScore float64
	switch {
	case length < 20:
		lengthScore = 5
	case length < 50:
		lengthScore = 10
	case length < 80:
		lengthScore = 13
	default:
		lengthScore = 15
	}

	sentences := CountSentences(trimmed)
	var sentenceScore float64
	switch {
	case sentences <= 1:
		sentenceScore = 5
	case sentences < 3:
		sentenceScore = 8
	case sentences <= 5:
		sentenceScore = 10
	default:
		sentenceScore = 9
	}

	specificity := 5.0
	lowered := strings.ToLower(trimmed)
	if examplePhrasePattern.MatchString(lowered) {
		specificity += 2
	}
	if digitPattern.MatchString(trimmed) {
		specificity += 2
	}
	if hasLongWord(trimmed, 5) {
		specificity += 3
	}
	if specificity > 10 {
		specificity = 10
	}

	return clampFloat(lengthScore+sentenceScore+specificity, 0, MaxQualityScore)
}

// RepetitionPenalty charges for stuffing: 5 points when any single word over
// two runes repeats more than seven times, 15 when the answer has fewer than
// five words at all.
func RepetitionPenalty(answer string) float64 {
	tokens := Tokenize(answer)

	penalty := 0.0
	counts := map[string]int{}
	for _, token := range tokens {
		if len([]rune(token)) <= 2 {
			continue
		}
		counts[token]++
		if counts[token] == 8 {
			penalty += 5
			break
		}
	}

	if len(tokens) < 5 {
		penalty += 15
	}

	return penalty
}

// LengthCap bounds the final score by the trimmed answer length. Short answers
// cannot reach the top bands however well they match. Caps are non-increasing
// as length shrinks.
func LengthCap(answer string) int {
	length := len([]rune(strings.TrimSpace(answer)))
	switch {
	case length < 50:
		return 45
	case length < 80:
		return 50
	case length < 120:
		return 60
	case length < 150:
		return 70
	case length < 200:
		return 80
	default:
		return 100
	}
}

// ComplexityPenalty charges answers that dodge a demanding question. Each
// clause triggers independently and the charges add up.
func ComplexityPenalty(question, answer string) float64 {
	answerLength := len([]rune(strings.TrimSpace(answer)))
	coverage := KeywordCoverage(question, answer)
	questionKeywords := ExtractKeywords(question)

	penalty := 0.0

	complex := complexQuestionPattern.MatchString(question) || multipleMarkersPattern.MatchString(question)
	if complex && answerLength < 150 {
		penalty += 10
		if coverage < 0.3 {
			penalty += 15
		}
	}

	if specificsDemandPattern.MatchString(strings.ToLower(question)) && !hasSpecifics(answer) {
		penalty += 10
	}

	if coverage < 0.2 && len(questionKeywords) >= 3 {
		penalty += 5
	}

	return penalty
}

// CombineScores folds the sub-scores and penalties into the final [0,100]
// value and applies the length cap last.
func CombineScores(relevance, semantic, quality, penalty float64, answer string) int {
	raw := relevance + semantic + quality - penalty
	final := int(math.Round(clampFloat(raw, 0, 100)))

	if limit := LengthCap(answer); final > limit {
		final = limit
	}

	return final
}

func hasSpecifics(answer string) bool {
	return digitPattern.MatchString(answer) ||
		hasLongWord(answer, 6) ||
		bulletPattern.MatchString(answer)
}

func hasLongWord(text string, minRunes int) bool {
	for _, token := range Tokenize(text) {
		if len([]rune(token)) >= minRunes {
			return true
		}
	}

	return false
}

func clampFloat(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}

	return value
}
