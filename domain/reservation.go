package domain

import "time"

// Reservation is a temporary hold on an Item for one user. At most one
// active Reservation exists per user. It is destroyed either on submission
// (converted into permanent seen facts) or on expiry (the Item returns to
// the tail of the rotation it was drawn from, unseen by anyone).
type Reservation struct {
	Item         Item      `json:"item"`
	RotationRank int       `json:"rotation_rank"`
	UserID       string    `json:"user_id"`
	AssignedAt   time.Time `json:"assigned_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}
