package model

import "time"

// Priority is the importance level of an event.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the known levels. The match is case sensitive.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Event represents a single scheduled item in the planner.
//
// Date is kept as an ISO calendar string (YYYY-MM-DD) and Time as HH:MM so that
// lexical ordering in SQL matches chronological ordering.
type Event struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Date       string    `gorm:"size:10;not null;index" json:"date"`
	Time       *string   `gorm:"size:8" json:"time"`
	CategoryID *uint     `gorm:"index" json:"category_id"`
	Category   *string   `gorm:"->;-:migration" json:"category"` // joined categories.name
	Priority   Priority  `gorm:"size:6;not null;default:Medium" json:"priority"`
	Notes      *string   `gorm:"type:text" json:"notes"`
	Done       bool      `gorm:"not null;default:false" json:"done"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
