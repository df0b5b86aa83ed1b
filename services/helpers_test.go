package services

import (
	"testing"
	"time"

	"quizhub/authoring"
	"quizhub/models"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	// a second pooled connection would get its own empty :memory: database
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
		&models.Option{},
		&models.Attempt{},
		&models.AttemptAnswer{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func openTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := models.User{Name: "Test Author", Email: email, PasswordHash: "not-a-real-hash"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

// createCapitalsQuiz builds a two-question quiz through the authoring
// service: 2 points for France, 5 points for Poland, 7 points total.
func createCapitalsQuiz(t *testing.T, quizService *QuizService, userID uint) *models.Quiz {
	t.Helper()

	quiz, err := quizService.CreateQuiz(userID, &CreateQuizRequest{
		Title:       "European Capitals",
		Description: "Warm-up quiz",
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	questions := []CreateQuestionRequest{
		{
			Text:   "What is the capital of France?",
			Points: 2,
			Options: []authoring.OptionDraft{
				{Text: "Paris", Correct: true},
				{Text: "Lyon"},
			},
		},
		{
			Text:   "What is the capital of Poland?",
			Points: 5,
			Options: []authoring.OptionDraft{
				{Text: "Gdansk"},
				{Text: "Warsaw", Correct: true},
				{Text: "Krakow"},
			},
		},
	}
	for i := range questions {
		_, validationErrs, err := quizService.AddQuestion(quiz.ID, userID, &questions[i])
		if err != nil {
			t.Fatalf("add question %d: %v", i, err)
		}
		if len(validationErrs) > 0 {
			t.Fatalf("add question %d: unexpected validation errors %v", i, validationErrs)
		}
	}

	full, err := quizService.GetQuizByID(quiz.ID, userID)
	if err != nil {
		t.Fatalf("reload quiz: %v", err)
	}
	return full
}

// correctOption returns the winning option of a question or fails the test.
func correctOption(t *testing.T, question *models.Question) *models.Option {
	t.Helper()

	for i := range question.Options {
		if question.Options[i].IsCorrect {
			return &question.Options[i]
		}
	}
	t.Fatalf("question %d has no correct option", question.ID)
	return nil
}

// wrongOption returns any non-correct option of a question.
func wrongOption(t *testing.T, question *models.Question) *models.Option {
	t.Helper()

	for i := range question.Options {
		if !question.Options[i].IsCorrect {
			return &question.Options[i]
		}
	}
	t.Fatalf("question %d has no wrong option", question.ID)
	return nil
}

func newTestCache(db *gorm.DB) *QuizCache {
	return NewQuizCache(NewDBSnapshotLoader(db), time.Minute)
}
