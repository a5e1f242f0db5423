package models

import "time"

// BaseModel is gorm.Model without soft deletion, for rows that must be
// removed for real (deleting a membership has to free its unique index slot).
type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
