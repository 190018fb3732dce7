package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
	model "workforce-tracker.com/workforce-tracker/internal/models"
)

var ErrUserNotFound = apperrors.NotFound("user not found")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
