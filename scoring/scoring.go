// Package scoring computes a player's score for a quiz from their submitted
// answers. It is a pure function over an already-loaded aggregate: no queries,
// no side effects, identical inputs always produce identical outputs.
package scoring

import (
	"errors"
	"fmt"

	"quizhub/models"
)

// ErrInvalidAnswerReference marks a submitted option id that does not belong
// to the question it was submitted for (forged or stale form data).
var ErrInvalidAnswerReference = errors.New("selected option does not belong to the question")

// Submission maps a question id to the single option id the player selected.
// A question absent from the map is unanswered, which is not an error.
type Submission map[uint]uint

// Result is the scored outcome for one submission.
type Result struct {
	QuizTitle    string           `json:"quiz_title"`
	TotalPoints  int              `json:"total_points"`
	EarnedPoints int              `json:"earned_points"`
	Questions    []QuestionResult `json:"questions"`
}

// QuestionResult is the per-question breakdown for the result review page.
// An answer that referenced a foreign option is reported separately and shows
// up here as unanswered.
type QuestionResult struct {
	QuestionID uint `json:"question_id"`
	OptionID   uint `json:"option_id,omitempty"`
	Answered   bool `json:"answered"`
	Correct    bool `json:"correct"`
	Earned     int  `json:"earned"`
}

// InvalidAnswer is the diagnostic for a single malformed answer. It unwraps to
// ErrInvalidAnswerReference so callers can match with errors.Is.
type InvalidAnswer struct {
	QuestionID uint
	OptionID   uint
}

func (e InvalidAnswer) Error() string {
	return fmt.Sprintf("question %d: %v (option %d)", e.QuestionID, ErrInvalidAnswerReference, e.OptionID)
}

func (e InvalidAnswer) Unwrap() error { return ErrInvalidAnswerReference }

// Score walks the quiz's questions in stored order and tallies earned against
// total points. Every question contributes its points to the total
// unconditionally; only a correctly answered question contributes to earned.
// A submitted option that does not belong to its question never fails the
// whole submission: the question scores zero and a diagnostic is returned.
func Score(quiz *models.Quiz, answers Submission) (Result, []InvalidAnswer) {
	result := Result{
		QuizTitle: quiz.Title,
		Questions: make([]QuestionResult, 0, len(quiz.Questions)),
	}
	var invalid []InvalidAnswer

	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		result.TotalPoints += question.Points

		row := QuestionResult{QuestionID: question.ID}

		optionID, answered := answers[question.ID]
		if answered {
			option, ok := question.OptionByID(optionID)
			if !ok {
				invalid = append(invalid, InvalidAnswer{QuestionID: question.ID, OptionID: optionID})
			} else {
				row.Answered = true
				row.OptionID = optionID
				if option.IsCorrect {
					row.Correct = true
					row.Earned = question.Points
					result.EarnedPoints += question.Points
				}
			}
		}

		result.Questions = append(result.Questions, row)
	}

	return result, invalid
}
