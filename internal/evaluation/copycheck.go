package evaluation

import "strings"

// CopyVerdict is the outcome of checking an answer against its own question.
type CopyVerdict struct {
	IsCopied  bool    `json:"is_copied"`
	Reason    string  `json:"reason,omitempty"`
	CopyRatio float64 `json:"copy_ratio,omitempty"`
}

// CopyThresholds tunes the individual copy-detection rules.
type CopyThresholds struct {
	InclusionLengthFactor float64
	LCSRatio              float64
	LCSMinLength          int
	NGramSize             int
	NGramRatio            float64
	EditSimilarity        float64
	WordOverlapRatio      float64
	WordOverlapLengthMax  float64
}

// DefaultCopyThresholds are hand-tuned for short interview-style answers.
func DefaultCopyThresholds() CopyThresholds {
	return CopyThresholds{
		InclusionLengthFactor: 1.3,
		LCSRatio:              0.4,
		LCSMinLength:          15,
		NGramSize:             4,
		NGramRatio:            0.5,
		EditSimilarity:        0.85,
		WordOverlapRatio:      0.7,
		WordOverlapLengthMax:  1.8,
	}
}

// DetectCopy runs the copy checks cheapest-and-most-specific first and returns
// on the first rule that fires. All comparisons use normalized text.
func DetectCopy(question, answer string, thresholds CopyThresholds) CopyVerdict {
	q := []rune(normalize(question))
	a := []rune(normalize(answer))

	if len(q) == 0 || len(a) == 0 {
		return CopyVerdict{}
	}

	if string(q) == string(a) {
		return CopyVerdict{IsCopied: true, Reason: "answer is identical to the question", CopyRatio: 1}
	}

	if strings.Contains(string(a), string(q)) &&
		float64(len(a)) < thresholds.InclusionLengthFactor*float64(len(q)) {
		return CopyVerdict{IsCopied: true, Reason: "answer repeats the question nearly verbatim", CopyRatio: float64(len(q)) / float64(len(a))}
	}

	if lcs := longestCommonSubstring(q, a); lcs >= thresholds.LCSMinLength &&
		float64(lcs)/float64(len(q)) > thresholds.LCSRatio {
		return CopyVerdict{IsCopied: true, Reason: "large contiguous block copied from the question", CopyRatio: float64(lcs) / float64(len(q))}
	}

	if ratio := ngramOverlap(q, a, thresholds.NGramSize); ratio > thresholds.NGramRatio {
		return CopyVerdict{IsCopied: true, Reason: "answer shares most character sequences with the question", CopyRatio: ratio}
	}

	if sim := editSimilarity(q, a); sim > thresholds.EditSimilarity {
		return CopyVerdict{IsCopied: true, Reason: "answer is a light edit of the question", CopyRatio: sim}
	}

	if ratio := wordOverlap(question, answer); ratio > thresholds.WordOverlapRatio &&
		float64(len(a)) < thresholds.WordOverlapLengthMax*float64(len(q)) {
		return CopyVerdict{IsCopied: true, Reason: "answer reuses the question's vocabulary without adding content", CopyRatio: ratio}
	}

	return CopyVerdict{}
}

// longestCommonSubstring computes the longest contiguous match with a rolling
// two-row table, keeping memory at O(min side) instead of O(m*n).
func longestCommonSubstring(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	longest := 0

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > longest {
					longest = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return longest
}

// ngramOverlap returns the fraction of the question's character n-grams that
// also occur in the answer.
func ngramOverlap(question, answer []rune, n int) float64 {
	if len(question) < n || len(answer) < n {
		return 0
	}

	answerGrams := map[string]struct{}{}
	for i := 0; i+n <= len(answer); i++ {
		answerGrams[string(answer[i:i+n])] = struct{}{}
	}

	total := 0
	matched := 0
	seen := map[string]struct{}{}
	for i := 0; i+n <= len(question); i++ {
		gram := string(question[i : i+n])
		if _, dup := seen[gram]; dup {
			continue
		}
		seen[gram] = struct{}{}
		total++
		if _, ok := answerGrams[gram]; ok {
			matched++
		}
	}

	if total == 0 {
		return 0
	}

	return float64(matched) / float64(total)
}

// editSimilarity maps Levenshtein distance into [0,1]. Pairs whose lengths
// differ by more than half the longer string cannot clear the copy threshold,
// so the quadratic table is skipped for them.
func editSimilarity(a, b []rune) float64 {
	m, n := len(a), len(b)
	longer := m
	if n > longer {
		longer = n
	}
	if longer == 0 {
		return 0
	}

	diff := m - n
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) > 0.5*float64(longer) {
		// Distance is at least the length difference, which already puts the
		// similarity far below any copy threshold.
		return 0
	}

	distance := levenshtein(a, b)

	return 1 - float64(distance)/float64(longer)
}

func levenshtein(a, b []rune) int {
	m, n := len(a), len(b)
	table := make([][]int, m+1)
	for i := range table {
		table[i] = make([]int, n+1)
		table[i][0] = i
	}
	for j := 0; j <= n; j++ {
		table[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			deletion := table[i-1][j] + 1
			insertion := table[i][j-1] + 1
			substitution := table[i-1][j-1] + cost

			best := deletion
			if insertion < best {
				best = insertion
			}
			if substitution < best {
				best = substitution
			}
			table[i][j] = best
		}
	}

	return table[m][n]
}

// wordOverlap returns the fraction of the answer's content words that also
// appear in the question.
func wordOverlap(question, answer string) float64 {
	words := ExtractKeywords(answer)
	if len(words) == 0 {
		return 0
	}

	lowered := strings.ToLower(question)
	matched := 0
	for _, word := range words {
		if strings.Contains(lowered, word) {
			matched++
		}
	}

	return float64(matched) / float64(len(words))
}
