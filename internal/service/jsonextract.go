package service

import (
	"regexp"
	"strings"
)

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSONBlock pulls a JSON object out of raw model output. Models wrap
// their JSON in prose or code fences often enough that three strategies are
// tried in order: the trimmed body itself, a fenced code block, and finally
// the outermost brace span that mentions every required field.
func extractJSONBlock(raw string, requiredFields []string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, true
	}

	if match := fencedBlockPattern.FindStringSubmatch(trimmed); match != nil {
		return strings.TrimSpace(match[1]), true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return "", false
	}

	candidate := trimmed[start : end+1]
	for _, field := range requiredFields {
		if !strings.Contains(candidate, field) {
			return "", false
		}
	}

	return candidate, true
}
