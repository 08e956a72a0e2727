package evaluation

import (
	"regexp"
	"strings"
	"unicode"
)

var keyboardMashPattern = regexp.MustCompile(
	`[asdfghjkl]{4,}|[qwertyuiop]{4,}|[zxcvbnm]{4,}|[ㅁㄴㅇㄹㅎㅗㅓㅏㅣㅂㅈㄷㄱ]{4,}`)

// IsMeaningless reports whether an answer carries no evaluable content:
// keyboard mashing, a single run-on character, a short pattern stamped out
// repeatedly, or almost no real words for its length.
func IsMeaningless(text string) bool {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) == 0 {
		return true
	}

	if dominantRuneRatio(runes) > 0.8 {
		return true
	}

	if hasRepeatedPrefix(runes) {
		return true
	}

	if len(runes) > 20 && countMeaningfulTokens(trimmed) < 2 {
		return true
	}

	lowered := strings.ToLower(trimmed)
	if keyboardMashPattern.MatchString(lowered) {
		return true
	}
	if hasDigitRun(runes, 3) {
		return true
	}

	return false
}

func dominantRuneRatio(runes []rune) float64 {
	counts := map[rune]int{}
	max := 0
	for _, r := range runes {
		counts[r]++
		if counts[r] > max {
			max = counts[r]
		}
	}

	return float64(max) / float64(len(runes))
}

// hasRepeatedPrefix checks whether a 2-4 rune prefix repeats back to back at
// least five times and accounts for most of the text.
func hasRepeatedPrefix(runes []rune) bool {
	for size := 2; size <= 4 && size*2 <= len(runes); size++ {
		pattern := string(runes[:size])
		repeats := 0
		for offset := 0; offset+size <= len(runes); offset += size {
			if string(runes[offset:offset+size]) != pattern {
				break
			}
			repeats++
		}

		if repeats >= 5 && float64(repeats*size) > 0.7*float64(len(runes)) {
			return true
		}
	}

	return false
}

func countMeaningfulTokens(text string) int {
	count := 0
	for _, token := range Tokenize(text) {
		if len([]rune(token)) >= 2 && wordOnlyPattern.MatchString(token) {
			count++
		}
	}

	return count
}

// hasDigitRun detects the same digit typed minRun or more times in a row.
// RE2 has no backreferences, so this is a manual scan.
func hasDigitRun(runes []rune, minRun int) bool {
	run := 0
	var last rune
	for _, r := range runes {
		if unicode.IsDigit(r) && r == last {
			run++
		} else if unicode.IsDigit(r) {
			run = 1
		} else {
			run = 0
		}
		last = r
		if run >= minRun {
			return true
		}
	}

	return false
}
