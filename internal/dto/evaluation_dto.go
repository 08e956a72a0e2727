package dto

import (
	"encoding/json"
	"time"

	"github.com/devmate-kr/devmate-api/internal/models"
)

// EvaluateRequest is the payload for a one-off evaluation of a question/answer pair.
type EvaluateRequest struct {
	Question string `json:"question" validate:"required,min=2"`
	Answer   string `json:"answer" validate:"required"`
}

// AnswerRequest submits an answer against a stored interview history record.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// NarrativeFeedback is the three-part prose feedback attached to an evaluation.
type NarrativeFeedback struct {
	Good           string `json:"good"`
	Improvement    string `json:"improvement"`
	Recommendation string `json:"recommendation"`
}

// EvaluationResponse is the outcome of scoring one answer.
type EvaluationResponse struct {
	Score    int               `json:"score"`
	Feedback NarrativeFeedback `json:"feedback"`
	Issues   []string          `json:"issues"`
}

// PersistedEvaluationResponse is returned when an evaluation is stored against
// a history record and the user is credited points.
type PersistedEvaluationResponse struct {
	HistoryID    uint              `json:"history_id"`
	Score        int               `json:"score"`
	Feedback     NarrativeFeedback `json:"feedback"`
	Issues       []string          `json:"issues"`
	PointsEarned int               `json:"points_earned"`
}

// HistoryResponse serializes an interview history record for API clients.
type HistoryResponse struct {
	ID        uint               `json:"id"`
	Question  string             `json:"question"`
	Answer    string             `json:"answer"`
	Score     *int               `json:"score"`
	Status    string             `json:"status"`
	Feedback  *NarrativeFeedback `json:"feedback,omitempty"`
	Issues    []string           `json:"issues,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewHistoryResponse converts an InterviewHistory model into a DTO.
func NewHistoryResponse(model models.InterviewHistory) HistoryResponse {
	response := HistoryResponse{
		ID:        model.ID,
		Question:  model.Question,
		Answer:    model.Answer,
		Score:     model.Score,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
	}

	if len(model.Feedback) > 0 {
		var feedback NarrativeFeedback
		if err := json.Unmarshal(model.Feedback, &feedback); err == nil {
			response.Feedback = &feedback
		}
	}

	if len(model.Issues) > 0 {
		var issues []string
		if err := json.Unmarshal(model.Issues, &issues); err == nil {
			response.Issues = issues
		}
	}

	return response
}

// NewHistoryResponseSlice converts a slice of history models.
func NewHistoryResponseSlice(records []models.InterviewHistory) []HistoryResponse {
	responses := make([]HistoryResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewHistoryResponse(record))
	}

	return responses
}
