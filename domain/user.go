package domain

import (
	"time"
)

const (
	// DefaultEvalLimit is the number of evaluations a fresh user may complete.
	DefaultEvalLimit = 10
	// LimitExtension is added exactly once, after the default is fully consumed.
	LimitExtension = 5
)

// User stores a participant's identity, consumption and duplicate-avoidance
// state. SeenTitles/SeenPaths grow monotonically; entries are never removed.
type User struct {
	UserID         string   `gorm:"column:user_id;primaryKey;type:varchar(128)" json:"user_id"`
	Age            int      `gorm:"column:user_age" json:"age"`
	Gender         string   `gorm:"column:user_gender" json:"gender"`
	Education      string   `gorm:"column:user_education" json:"education"`
	Limit          int      `gorm:"column:eval_limit" json:"limit"`
	CompletedCount int      `gorm:"column:completed_count" json:"completed_count"`
	SeenTitles     []string `gorm:"column:seen_titles;serializer:json" json:"-"`
	SeenPaths      []string `gorm:"column:seen_paths;serializer:json" json:"-"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (User) TableName() string {
	return "users"
}
