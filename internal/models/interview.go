package models

import (
	"time"

	"gorm.io/datatypes"
)

// InterviewHistory records one interview question handed to a user and, once
// answered, the evaluation outcome.
type InterviewHistory struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Question  string         `gorm:"type:text;not null" json:"question"`
	Answer    string         `gorm:"type:text" json:"answer"`
	Score     *int           `json:"score"`
	Status    string         `gorm:"size:32;not null" json:"status"`
	Feedback  datatypes.JSON `json:"feedback"`
	Issues    datatypes.JSON `json:"issues"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	User      User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// HistoryStatusPending indicates the question has been issued but not answered.
	HistoryStatusPending = "pending"
	// HistoryStatusAnswered indicates the answer has been evaluated and stored.
	HistoryStatusAnswered = "answered"
)

// IsAnswered reports whether the record already carries an evaluated answer.
func (h InterviewHistory) IsAnswered() bool {
	return h.Status == HistoryStatusAnswered
}
