// Package authoring normalizes and validates question drafts before they are
// persisted. It is pure: it never queries storage (the caller supplies the
// quiz-exists fact) and it accumulates every applicable failure instead of
// stopping at the first, so a form can show all problems at once.
package authoring

import (
	"errors"
	"strings"

	"quizhub/models"
)

// Question points are clamped into this range, never rejected.
const (
	MinPoints = 0
	MaxPoints = 5
)

var (
	// ErrInsufficientOptions is returned when fewer than two options survive
	// normalization.
	ErrInsufficientOptions = errors.New("a question needs at least two non-empty options")
	// ErrNoCorrectAnswerSelected is returned when the surviving options do not
	// carry exactly one correct flag.
	ErrNoCorrectAnswerSelected = errors.New("exactly one option must be marked as correct")
)

// OptionDraft is one raw option row from an authoring submission. The correct
// flag travels with its draft, so dropping blank rows can never shift which
// option was meant, unlike correct-by-index forms.
type OptionDraft struct {
	Text    string `json:"text"`
	Correct bool   `json:"is_correct"`
}

// QuestionDraft is the authoring input for a question and its options.
type QuestionDraft struct {
	QuizID  uint
	Text    string
	Points  int
	Options []OptionDraft
}

// Validate turns a draft into a question ready to persist, or the full set of
// validation failures. The steps, in order:
//
//  1. Drop option drafts whose text is empty or all whitespace; trim the rest.
//  2. Fewer than two survivors fails with ErrInsufficientOptions.
//  3. Anything but exactly one surviving draft flagged correct fails with
//     ErrNoCorrectAnswerSelected. A flagged draft that was dropped as blank
//     counts as no selection.
//  4. Points are clamped into [MinPoints, MaxPoints].
//  5. quizExists=false fails with models.ErrQuizNotFound, independently of the
//     option checks.
//
// Validate has no side effects; on failure nothing is partially built.
func Validate(draft QuestionDraft, quizExists bool) (models.Question, []error) {
	var errs []error

	options := normalizeOptions(draft.Options)
	if len(options) < 2 {
		errs = append(errs, ErrInsufficientOptions)
	}
	if correctCount(options) != 1 {
		errs = append(errs, ErrNoCorrectAnswerSelected)
	}
	if !quizExists {
		errs = append(errs, models.ErrQuizNotFound)
	}
	if len(errs) > 0 {
		return models.Question{}, errs
	}

	return models.Question{
		QuizID:  draft.QuizID,
		Text:    draft.Text,
		Points:  ClampPoints(draft.Points),
		Options: options,
	}, nil
}

// ClampPoints forces a point value into the allowed range.
func ClampPoints(points int) int {
	if points < MinPoints {
		return MinPoints
	}
	if points > MaxPoints {
		return MaxPoints
	}
	return points
}

func normalizeOptions(drafts []OptionDraft) []models.Option {
	options := make([]models.Option, 0, len(drafts))
	for _, d := range drafts {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		options = append(options, models.Option{
			Text:      text,
			IsCorrect: d.Correct,
			Order:     len(options) + 1,
		})
	}
	return options
}

func correctCount(options []models.Option) int {
	count := 0
	for _, opt := range options {
		if opt.IsCorrect {
			count++
		}
	}
	return count
}
