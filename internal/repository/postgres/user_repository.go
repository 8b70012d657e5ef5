package postgres

import (
	"context"
	"errors"

	"poemEval/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User

	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}

	return user, nil
}

// Save upserts the full user record keyed by user_id.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(user).Error; err != nil {
		return err
	}

	return nil
}
