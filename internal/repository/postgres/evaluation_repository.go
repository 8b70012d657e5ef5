package postgres

import (
	"context"

	"poemEval/domain"

	"gorm.io/gorm"
)

type EvaluationRepository struct {
	DB *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{
		DB: db,
	}
}

// Create appends one finalized evaluation. Records are never updated.
func (r *EvaluationRepository) Create(ctx context.Context, record *domain.EvaluationRecord) error {
	if err := r.DB.WithContext(ctx).Create(record).Error; err != nil {
		return err
	}

	return nil
}

func (r *EvaluationRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.DB.WithContext(ctx).Model(&domain.EvaluationRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// RatingCounts returns how many evaluations each image has received.
func (r *EvaluationRepository) RatingCounts(ctx context.Context) (map[string]int, error) {
	type row struct {
		ImagePath string
		Count     int
	}

	var rows []row
	err := r.DB.WithContext(ctx).Model(&domain.EvaluationRecord{}).
		Select("image_path, COUNT(*) as count").
		Group("image_path").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, rw := range rows {
		counts[rw.ImagePath] = rw.Count
	}

	return counts, nil
}
