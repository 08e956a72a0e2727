package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONBlockDirectObject(t *testing.T) {
	body, ok := extractJSONBlock(`  {"good": "g", "improvement": "i", "recommendation": "r"}  `, feedbackRequiredFields)

	require.True(t, ok)
	require.Equal(t, `{"good": "g", "improvement": "i", "recommendation": "r"}`, body)
}

func TestExtractJSONBlockFencedCode(t *testing.T) {
	raw := "물론입니다. 피드백은 다음과 같습니다:\n```json\n{\"good\": \"g\", \"improvement\": \"i\", \"recommendation\": \"r\"}\n```\n도움이 되었기를 바랍니다."

	body, ok := extractJSONBlock(raw, feedbackRequiredFields)

	require.True(t, ok)
	require.Contains(t, body, `"good"`)
}

func TestExtractJSONBlockEmbeddedSpan(t *testing.T) {
	raw := `피드백: {"good": "g", "improvement": "i", "recommendation": "r"} 이상입니다.`

	body, ok := extractJSONBlock(raw, feedbackRequiredFields)

	require.True(t, ok)
	require.Contains(t, body, `"recommendation"`)
}

func TestExtractJSONBlockMissingRequiredField(t *testing.T) {
	raw := `서문 {"good": "g"} 후문`

	_, ok := extractJSONBlock(raw, feedbackRequiredFields)

	require.False(t, ok)
}

func TestExtractJSONBlockNoObject(t *testing.T) {
	_, ok := extractJSONBlock("그냥 텍스트만 있습니다", feedbackRequiredFields)

	require.False(t, ok)
}
