package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/devmate-kr/devmate-api/internal/models"
)

// EvaluationUpdate carries the evaluated answer fields applied to a history record.
type EvaluationUpdate struct {
	Answer      string
	Score       int
	Feedback    datatypes.JSON
	Issues      datatypes.JSON
	PointsDelta int
}

// HistoryRepository defines data operations for interview history records.
type HistoryRepository interface {
	GetByID(ctx context.Context, id uint) (models.InterviewHistory, error)
	ListAnsweredByUser(ctx context.Context, userID uint, limit int) ([]models.InterviewHistory, error)
	Create(ctx context.Context, history *models.InterviewHistory) error
	ApplyEvaluation(ctx context.Context, id uint, update EvaluationUpdate) (models.InterviewHistory, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository instantiates the repository.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) GetByID(ctx context.Context, id uint) (models.InterviewHistory, error) {
	var history models.InterviewHistory
	if err := r.db.WithContext(ctx).First(&history, id).Error; err != nil {
		return models.InterviewHistory{}, err
	}

	return history, nil
}

func (r *historyRepository) ListAnsweredByUser(ctx context.Context, userID uint, limit int) ([]models.InterviewHistory, error) {
	query := r.db.WithContext(ctx).Model(&models.InterviewHistory{}).
		Where("user_id = ?", userID).
		Where("status = ?", models.HistoryStatusAnswered).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.InterviewHistory
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *historyRepository) Create(ctx context.Context, history *models.InterviewHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// ApplyEvaluation marks the record answered and credits the user's points in one
// transaction, so a crash cannot leave the pair half applied.
func (r *historyRepository) ApplyEvaluation(ctx context.Context, id uint, update EvaluationUpdate) (models.InterviewHistory, error) {
	var history models.InterviewHistory

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&history, id).Error; err != nil {
			return err
		}

		score := update.Score
		history.Answer = update.Answer
		history.Score = &score
		history.Status = models.HistoryStatusAnswered
		history.Feedback = update.Feedback
		history.Issues = update.Issues

		if err := tx.Save(&history).Error; err != nil {
			return err
		}

		if update.PointsDelta != 0 {
			if err := tx.Model(&models.User{}).
				Where("id = ?", history.UserID).
				UpdateColumn("points", gorm.Expr("points + ?", update.PointsDelta)).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.InterviewHistory{}, err
	}

	return history, nil
}
