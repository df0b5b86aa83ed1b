package services

import (
	"errors"
	"log"

	"quizhub/authoring"
	"quizhub/models"

	"gorm.io/gorm"
)

type QuizService struct {
	db    *gorm.DB
	cache *QuizCache
	board *LeaderboardStore
}

func NewQuizService(db *gorm.DB, cache *QuizCache, board *LeaderboardStore) *QuizService {
	return &QuizService{db: db, cache: cache, board: board}
}

type CreateQuizRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type UpdateQuizRequest struct {
	Title       string `json:"title" binding:"omitempty,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

type CreateQuestionRequest struct {
	Text    string                  `json:"text" binding:"required,max=200"`
	Points  int                     `json:"points"`
	Options []authoring.OptionDraft `json:"options" binding:"required"`
}

type UpdateQuestionRequest struct {
	Text   string `json:"text" binding:"required,max=200"`
	Points int    `json:"points"`
}

type ReplaceOptionsRequest struct {
	Options []authoring.OptionDraft `json:"options" binding:"required"`
}

// CreateQuiz creates an empty quiz. Questions are added one at a time
// afterwards so that each goes through validation.
func (s *QuizService) CreateQuiz(userID uint, req *CreateQuizRequest) (*models.Quiz, error) {
	quiz := models.Quiz{
		Title:       req.Title,
		Description: req.Description,
		UserID:      userID,
	}
	if err := s.db.Create(&quiz).Error; err != nil {
		return nil, err
	}
	return s.GetQuizByID(quiz.ID, userID)
}

func (s *QuizService) GetUserQuizzes(userID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Where("user_id = ?", userID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (s *QuizService) GetQuizByID(quizID uint, userID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.Where("id = ? AND user_id = ?", quizID, userID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrQuizNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// QuizExists reports whether a quiz is visible to players, regardless of
// who owns it. A storage failure comes back as an error so callers do
// not mistake it for a missing quiz.
func (s *QuizService) QuizExists(quizID uint) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Quiz{}).Where("id = ?", quizID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *QuizService) UpdateQuiz(quizID uint, userID uint, req *UpdateQuizRequest) (*models.Quiz, error) {
	quiz, err := s.GetQuizByID(quizID, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.Description != "" {
		quiz.Description = req.Description
	}

	if err := s.db.Save(quiz).Error; err != nil {
		return nil, err
	}

	s.invalidate(quizID)
	return s.GetQuizByID(quiz.ID, userID)
}

// DeleteQuiz removes the quiz together with its questions, options and
// attempts, and drops the quiz's leaderboard. The row cascade is explicit
// so no orphans survive.
func (s *QuizService) DeleteQuiz(quizID uint, userID uint) error {
	if _, err := s.GetQuizByID(quizID, userID); err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	questionIDs := tx.Model(&models.Question{}).Select("id").Where("quiz_id = ?", quizID)
	if err := tx.Where("question_id IN (?)", questionIDs).Delete(&models.Option{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	attemptIDs := tx.Model(&models.Attempt{}).Select("id").Where("quiz_id = ?", quizID)
	if err := tx.Where("attempt_id IN (?)", attemptIDs).Delete(&models.AttemptAnswer{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Attempt{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Delete(&models.Quiz{}, quizID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.invalidate(quizID)
	if s.board != nil {
		if err := s.board.Clear(quizID); err != nil {
			log.Printf("Failed to clear leaderboard for quiz %d: %v", quizID, err)
		}
	}
	return nil
}

// AddQuestion validates the draft and appends the question to the quiz.
// Validation failures come back as a list so the caller can show every
// problem at once; the error return is for storage failures only.
func (s *QuizService) AddQuestion(quizID uint, userID uint, req *CreateQuestionRequest) (*models.Question, []error, error) {
	quizExists := true
	if _, err := s.GetQuizByID(quizID, userID); err != nil {
		if !errors.Is(err, models.ErrQuizNotFound) {
			return nil, nil, err
		}
		quizExists = false
	}

	draft := authoring.QuestionDraft{
		QuizID:  quizID,
		Text:    req.Text,
		Points:  req.Points,
		Options: req.Options,
	}
	question, validationErrs := authoring.Validate(draft, quizExists)
	if len(validationErrs) > 0 {
		return nil, validationErrs, nil
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Deleting a question leaves a gap rather than renumbering the rest,
	// so the next slot comes from the highest order, not the row count.
	var maxOrder int64
	if err := tx.Model(&models.Question{}).Where("quiz_id = ?", quizID).
		Select(`COALESCE(MAX("order"), 0)`).Scan(&maxOrder).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	question.Order = int(maxOrder) + 1

	options := question.Options
	question.Options = nil
	if err := tx.Create(&question).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	for i := range options {
		options[i].QuestionID = question.ID
		if err := tx.Create(&options[i]).Error; err != nil {
			tx.Rollback()
			return nil, nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	s.invalidate(quizID)
	question.Options = options
	return &question, nil, nil
}

// UpdateQuestionDetails changes the prompt text and points of a question.
// The option set is untouched, so it is not re-validated here; only
// ReplaceQuestionOptions re-runs the option checks.
func (s *QuizService) UpdateQuestionDetails(quizID uint, questionID uint, userID uint, req *UpdateQuestionRequest) (*models.Question, error) {
	question, err := s.getOwnedQuestion(quizID, questionID, userID)
	if err != nil {
		return nil, err
	}

	question.Text = req.Text
	question.Points = authoring.ClampPoints(req.Points)
	if err := s.db.Save(question).Error; err != nil {
		return nil, err
	}

	s.invalidate(quizID)
	return question, nil
}

// ReplaceQuestionOptions swaps the whole option set of a question. The
// drafts go through the same validation as a new question, so the
// replacement either lands complete or not at all.
func (s *QuizService) ReplaceQuestionOptions(quizID uint, questionID uint, userID uint, req *ReplaceOptionsRequest) (*models.Question, []error, error) {
	question, err := s.getOwnedQuestion(quizID, questionID, userID)
	if err != nil {
		return nil, nil, err
	}

	draft := authoring.QuestionDraft{
		QuizID:  quizID,
		Text:    question.Text,
		Points:  question.Points,
		Options: req.Options,
	}
	validated, validationErrs := authoring.Validate(draft, true)
	if len(validationErrs) > 0 {
		return nil, validationErrs, nil
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("question_id = ?", question.ID).Delete(&models.Option{}).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	options := validated.Options
	for i := range options {
		options[i].QuestionID = question.ID
		if err := tx.Create(&options[i]).Error; err != nil {
			tx.Rollback()
			return nil, nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	s.invalidate(quizID)
	question.Options = options
	return question, nil, nil
}

func (s *QuizService) DeleteQuestion(quizID uint, questionID uint, userID uint) error {
	question, err := s.getOwnedQuestion(quizID, questionID, userID)
	if err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("question_id = ?", question.ID).Delete(&models.Option{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.Question{}, question.ID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.invalidate(quizID)
	return nil
}

// getOwnedQuestion loads a question and checks that the quiz it belongs
// to is owned by the caller. A quiz owned by someone else looks the same
// as a missing one.
func (s *QuizService) getOwnedQuestion(quizID uint, questionID uint, userID uint) (*models.Question, error) {
	if _, err := s.GetQuizByID(quizID, userID); err != nil {
		return nil, err
	}

	var question models.Question
	err := s.db.Where("id = ? AND quiz_id = ?", questionID, quizID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrQuestionNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (s *QuizService) invalidate(quizID uint) {
	if s.cache != nil {
		s.cache.Invalidate(quizID)
	}
}
