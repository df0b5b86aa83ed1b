package models

import (
	"time"

	"gorm.io/gorm"
)

// Option is one selectable answer of a question. Text is stored trimmed and
// never blank; within a persisted question exactly one option has IsCorrect
// set. Both are enforced by the authoring validator before anything is
// written, so rows can be trusted as-is when scoring.
type Option struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	QuestionID uint           `json:"question_id" gorm:"not null"`
	Text       string         `json:"text" gorm:"not null"`
	IsCorrect  bool           `json:"is_correct" gorm:"not null;default:false"`
	Order      int            `json:"order" gorm:"not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Question Question `json:"question,omitempty"`
}
