package domain

import (
	"time"

	"gorm.io/datatypes"
)

// EvaluationRecord is one finalized two-phase evaluation. Append-only:
// records are written once on submission and never updated or deleted.
type EvaluationRecord struct {
	ID               string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt        time.Time         `json:"created_at"`
	UserID           string            `gorm:"column:user_id;index" json:"user_id"`
	UserAge          int               `gorm:"column:user_age" json:"user_age"`
	UserGender       string            `gorm:"column:user_gender" json:"user_gender"`
	UserEducation    string            `gorm:"column:user_education" json:"user_education"`
	PoemTitle        string            `gorm:"column:poem_title" json:"poem_title"`
	ImagePath        string            `gorm:"column:image_path;index" json:"image_path"`
	SourceType       SourceType        `gorm:"column:image_type" json:"image_type"`
	TargetLetter     string            `gorm:"column:target_letter" json:"target_letter"`
	Phase1Choice     string            `gorm:"column:phase1_choice" json:"phase1_choice"`
	Phase1Correct    bool              `gorm:"column:phase1_correct" json:"phase1_correct"`
	Phase1ResponseMs int64             `gorm:"column:phase1_response_ms" json:"phase1_response_ms"`
	Phase2Answers    datatypes.JSONMap `gorm:"column:phase2_answers" json:"phase2_answers"`
	Phase2ResponseMs int64             `gorm:"column:phase2_response_ms" json:"phase2_response_ms"`
	TotalResponseMs  int64             `gorm:"column:total_response_ms" json:"total_response_ms"`
}

func (EvaluationRecord) TableName() string {
	return "evaluations"
}
