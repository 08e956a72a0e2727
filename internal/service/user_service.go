package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/devmate-kr/devmate-api/internal/dto"
	"github.com/devmate-kr/devmate-api/internal/models"
	"github.com/devmate-kr/devmate-api/internal/repository"
)

const defaultHistoryPageSize = 20

// UserService exposes user profile and history reads.
type UserService interface {
	GetProfile(ctx context.Context, userID uint) (models.User, error)
	GetHistory(ctx context.Context, userID uint, limit int) ([]dto.HistoryResponse, error)
}

type userService struct {
	users     repository.UserRepository
	histories repository.HistoryRepository
	logger    zerolog.Logger
}

// NewUserService constructs the user read service.
func NewUserService(users repository.UserRepository, histories repository.HistoryRepository, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		histories: histories,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	return user, nil
}

func (s *userService) GetHistory(ctx context.Context, userID uint, limit int) ([]dto.HistoryResponse, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryPageSize
	}

	records, err := s.histories.ListAnsweredByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	return dto.NewHistoryResponseSlice(records), nil
}
