package models

import (
	"time"

	"gorm.io/gorm"
)

// Attempt records one player's scored run through a quiz. PublicID is the
// external handle for result links so attempts cannot be enumerated by row id.
type Attempt struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	PublicID     string         `json:"public_id" gorm:"size:36;uniqueIndex;not null"`
	QuizID       uint           `json:"quiz_id" gorm:"not null;index"`
	PlayerName   string         `json:"player_name" gorm:"size:60;not null"`
	EarnedPoints int            `json:"earned_points" gorm:"not null"`
	TotalPoints  int            `json:"total_points" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Quiz    Quiz            `json:"quiz,omitempty"`
	Answers []AttemptAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

// AttemptAnswer is one matched answer within an attempt. Answers that did not
// resolve to an option of the question are reported to the caller but never
// persisted.
type AttemptAnswer struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	AttemptID  uint           `json:"attempt_id" gorm:"not null;index"`
	QuestionID uint           `json:"question_id" gorm:"not null"`
	OptionID   uint           `json:"option_id" gorm:"not null"`
	IsCorrect  bool           `json:"is_correct" gorm:"not null"`
	Points     int            `json:"points" gorm:"not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Attempt  Attempt  `json:"attempt,omitempty"`
	Question Question `json:"question,omitempty"`
	Option   Option   `json:"option,omitempty"`
}
