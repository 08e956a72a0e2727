package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devmate-kr/devmate-api/internal/models"
)

func TestUserRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := models.User{Nickname: "tester", Email: "roundtrip@example.com"}
	require.NoError(t, repo.Create(context.Background(), &user))
	require.NotZero(t, user.ID)

	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "tester", stored.Nickname)
	require.Zero(t, stored.Points)
}

func TestUserRepositoryGetByIDUnknown(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), 12345)

	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepositoryIncrementPoints(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := models.User{Nickname: "tester", Email: "points@example.com"}
	require.NoError(t, repo.Create(context.Background(), &user))

	require.NoError(t, repo.IncrementPoints(context.Background(), user.ID, 5))
	require.NoError(t, repo.IncrementPoints(context.Background(), user.ID, 3))

	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 8, stored.Points)
}
