package model

import "time"

// Category groups events by area (study, work, health, etc.).
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Events      []Event   `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
}
