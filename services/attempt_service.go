package services

import (
	"context"
	"errors"
	"log"
	"time"

	"quizhub/models"
	"quizhub/scoring"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttemptService struct {
	db    *gorm.DB
	cache *QuizCache
	board *LeaderboardStore
}

func NewAttemptService(db *gorm.DB, cache *QuizCache, board *LeaderboardStore) *AttemptService {
	return &AttemptService{db: db, cache: cache, board: board}
}

type SubmitAttemptRequest struct {
	PlayerName string             `json:"player_name" binding:"required,max=60"`
	Answers    scoring.Submission `json:"answers"`
}

// AttemptResult is what a player gets back right after submitting.
type AttemptResult struct {
	AttemptID      string                   `json:"attempt_id"`
	QuizID         uint                     `json:"quiz_id"`
	QuizTitle      string                   `json:"quiz_title"`
	PlayerName     string                   `json:"player_name"`
	EarnedPoints   int                      `json:"earned_points"`
	TotalPoints    int                      `json:"total_points"`
	Questions      []scoring.QuestionResult `json:"questions"`
	InvalidAnswers []InvalidAnswerReport    `json:"invalid_answers,omitempty"`
	SubmittedAt    time.Time                `json:"submitted_at"`
}

// InvalidAnswerReport tells the caller which answers were dropped because
// they referenced an option that does not belong to the question.
type InvalidAnswerReport struct {
	QuestionID uint   `json:"question_id"`
	OptionID   uint   `json:"option_id"`
	Reason     string `json:"reason"`
}

// AttemptView is the stored result of a past attempt, for result links.
type AttemptView struct {
	AttemptID    string              `json:"attempt_id"`
	QuizID       uint                `json:"quiz_id"`
	QuizTitle    string              `json:"quiz_title"`
	PlayerName   string              `json:"player_name"`
	EarnedPoints int                 `json:"earned_points"`
	TotalPoints  int                 `json:"total_points"`
	SubmittedAt  time.Time           `json:"submitted_at"`
	Answers      []AttemptAnswerView `json:"answers"`
}

type AttemptAnswerView struct {
	QuestionID uint `json:"question_id"`
	OptionID   uint `json:"option_id"`
	IsCorrect  bool `json:"is_correct"`
	Points     int  `json:"points"`
}

// PlayerView returns the sanitized quiz a player sees before answering.
func (s *AttemptService) PlayerView(ctx context.Context, quizID uint) (*PlayerQuiz, error) {
	if s.cache != nil {
		return s.cache.Get(ctx, quizID)
	}
	return NewDBSnapshotLoader(s.db).LoadSnapshot(ctx, quizID)
}

// Submit scores the answers against the current quiz content, stores the
// attempt and fans the result out to the leaderboard and any websocket
// subscribers. Answers that do not resolve to an option of their question
// are reported back and logged, never persisted.
func (s *AttemptService) Submit(quizID uint, req *SubmitAttemptRequest, hub *Hub) (*AttemptResult, error) {
	quiz, err := s.loadQuizForScoring(quizID)
	if err != nil {
		return nil, err
	}

	result, invalid := scoring.Score(quiz, req.Answers)
	for _, diag := range invalid {
		log.Printf("Dropping invalid answer on quiz %d: %v", quizID, diag)
	}

	attempt := models.Attempt{
		PublicID:     uuid.NewString(),
		QuizID:       quiz.ID,
		PlayerName:   req.PlayerName,
		EarnedPoints: result.EarnedPoints,
		TotalPoints:  result.TotalPoints,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&attempt).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, row := range result.Questions {
		if !row.Answered {
			continue
		}
		answer := models.AttemptAnswer{
			AttemptID:  attempt.ID,
			QuestionID: row.QuestionID,
			OptionID:   row.OptionID,
			IsCorrect:  row.Correct,
			Points:     row.Earned,
		}
		if err := tx.Create(&answer).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if s.board != nil {
		if err := s.board.Record(quiz.ID, attempt.PublicID, attempt.PlayerName, attempt.EarnedPoints); err != nil {
			log.Printf("Failed to record attempt %s on leaderboard: %v", attempt.PublicID, err)
		}
	}

	if hub != nil {
		hub.BroadcastToQuiz(quiz.ID, "attempt_scored", map[string]interface{}{
			"attempt_id":    attempt.PublicID,
			"player_name":   attempt.PlayerName,
			"earned_points": attempt.EarnedPoints,
			"total_points":  attempt.TotalPoints,
		})
	}

	response := &AttemptResult{
		AttemptID:    attempt.PublicID,
		QuizID:       quiz.ID,
		QuizTitle:    result.QuizTitle,
		PlayerName:   attempt.PlayerName,
		EarnedPoints: result.EarnedPoints,
		TotalPoints:  result.TotalPoints,
		Questions:    result.Questions,
		SubmittedAt:  attempt.CreatedAt,
	}
	for _, diag := range invalid {
		response.InvalidAnswers = append(response.InvalidAnswers, InvalidAnswerReport{
			QuestionID: diag.QuestionID,
			OptionID:   diag.OptionID,
			Reason:     diag.Error(),
		})
	}
	return response, nil
}

// GetAttempt looks up a stored attempt by its public id.
func (s *AttemptService) GetAttempt(publicID string) (*AttemptView, error) {
	var attempt models.Attempt
	err := s.db.Where("public_id = ?", publicID).
		Preload("Quiz").
		Preload("Answers").
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrAttemptNotFound
		}
		return nil, err
	}

	view := &AttemptView{
		AttemptID:    attempt.PublicID,
		QuizID:       attempt.QuizID,
		QuizTitle:    attempt.Quiz.Title,
		PlayerName:   attempt.PlayerName,
		EarnedPoints: attempt.EarnedPoints,
		TotalPoints:  attempt.TotalPoints,
		SubmittedAt:  attempt.CreatedAt,
		Answers:      make([]AttemptAnswerView, 0, len(attempt.Answers)),
	}
	for _, answer := range attempt.Answers {
		view.Answers = append(view.Answers, AttemptAnswerView{
			QuestionID: answer.QuestionID,
			OptionID:   answer.OptionID,
			IsCorrect:  answer.IsCorrect,
			Points:     answer.Points,
		})
	}
	return view, nil
}

// Leaderboard serves the top attempts for a quiz, Redis first and the
// database as fallback when Redis is empty or unavailable.
func (s *AttemptService) Leaderboard(quizID uint) ([]LeaderboardEntry, error) {
	var count int64
	if err := s.db.Model(&models.Quiz{}).Where("id = ?", quizID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, models.ErrQuizNotFound
	}

	limit := 20
	if s.board != nil {
		limit = s.board.size
		entries, err := s.board.Top(quizID)
		if err != nil {
			log.Printf("Leaderboard read from Redis failed for quiz %d, falling back to DB: %v", quizID, err)
		} else if len(entries) > 0 {
			return entries, nil
		}
	}

	var attempts []models.Attempt
	err := s.db.Where("quiz_id = ?", quizID).
		Order("earned_points DESC, created_at ASC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(attempts))
	for _, attempt := range attempts {
		entries = append(entries, LeaderboardEntry{
			PlayerName: attempt.PlayerName,
			Score:      attempt.EarnedPoints,
			AttemptID:  attempt.PublicID,
		})
	}
	return entries, nil
}

func (s *AttemptService) loadQuizForScoring(quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		First(&quiz, quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrQuizNotFound
		}
		return nil, err
	}
	return &quiz, nil
}
