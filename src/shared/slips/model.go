package slips

import "time"

// Slip is a committed omikuji strip. Rows are append-only: voting moves
// vote_count around but slips are never deleted, so IDs referenced by
// old chat messages stay valid.
type Slip struct {
	ID         uint32  `gorm:"primaryKey"`
	Photo      *string `gorm:"size:512"`
	Message    string  `gorm:"type:text;not null"`
	VoteCount  int32   `gorm:"not null;default:0"`
	AuthorID   string  `gorm:"size:64;index;not null"`
	AuthorName string  `gorm:"size:128;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
