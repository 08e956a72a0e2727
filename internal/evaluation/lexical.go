package evaluation

import (
	"regexp"
	"strings"
)

var (
	tokenPattern     = regexp.MustCompile(`[a-z0-9_]+|[가-힣]+`)
	wordOnlyPattern  = regexp.MustCompile(`^[a-z가-힣]+$`)
	nonContentRunes  = regexp.MustCompile(`[^a-z0-9가-힣]`)
	sentenceSplitter = regexp.MustCompile(`[.!?]`)
)

// stopWords are particles and filler common in short Korean interview answers,
// plus the English function words that show up in mixed-register answers.
var stopWords = map[string]struct{}{
	"이": {}, "그": {}, "저": {}, "것": {}, "수": {}, "등": {}, "들": {},
	"및": {}, "에서": {}, "에게": {}, "으로": {}, "부터": {}, "까지": {},
	"그리고": {}, "하지만": {}, "그러나": {}, "또한": {}, "또는": {}, "즉": {},
	"이다": {}, "있다": {}, "하다": {}, "되다": {}, "입니다": {}, "합니다": {},
	"있습니다": {}, "때문에": {}, "위해": {}, "대해": {}, "통해": {},
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "to": {}, "of": {}, "in": {}, "on": {}, "at": {}, "and": {},
	"or": {}, "for": {}, "it": {}, "this": {}, "that": {}, "with": {}, "as": {},
}

// Tokenize lower-cases the text and splits it into word and Hangul-syllable runs.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// ExtractKeywords returns the tokens of text that are at least two runes long and
// not stop words, preserving first-seen order without duplicates.
func ExtractKeywords(text string) []string {
	seen := map[string]struct{}{}
	var keywords []string

	for _, token := range Tokenize(text) {
		if len([]rune(token)) < 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}

	return keywords
}

// KeywordCoverage reports the fraction of the question's keywords that occur in
// the answer. A question with no extractable keywords is treated as fully
// covered so trivial questions cannot trigger coverage penalties.
func KeywordCoverage(question, answer string) float64 {
	keywords := ExtractKeywords(question)
	if len(keywords) == 0 {
		return 1
	}

	lowered := strings.ToLower(answer)
	matched := 0
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			matched++
		}
	}

	return float64(matched) / float64(len(keywords))
}

// CountSentences splits on sentence-ending punctuation and counts the non-empty
// segments, treating an unpunctuated answer as a single sentence.
func CountSentences(text string) int {
	count := 0
	for _, segment := range sentenceSplitter.Split(text, -1) {
		if strings.TrimSpace(segment) != "" {
			count++
		}
	}

	if count == 0 && strings.TrimSpace(text) != "" {
		return 1
	}

	return count
}

// normalize lower-cases the text and strips everything that is not a word
// character or Hangul syllable. Both copy detection and the degenerate checks
// compare normalized forms.
func normalize(text string) string {
	return nonContentRunes.ReplaceAllString(strings.ToLower(text), "")
}
