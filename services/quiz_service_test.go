package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quizhub/authoring"
	"quizhub/models"
)

func TestCreateQuizStartsEmpty(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)

	quiz, err := service.CreateQuiz(user.ID, &CreateQuizRequest{
		Title:       "Empty for now",
		Description: "Questions arrive later",
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.ID == 0 {
		t.Fatalf("expected persisted quiz id")
	}
	if len(quiz.Questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(quiz.Questions))
	}
	if quiz.TotalPoints() != 0 {
		t.Fatalf("expected 0 total points, got %d", quiz.TotalPoints())
	}
}

func TestAddQuestionAssignsOrderAndNormalizesOptions(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)

	if len(quiz.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(quiz.Questions))
	}
	for i, question := range quiz.Questions {
		if question.Order != i+1 {
			t.Fatalf("question %d has order %d", i, question.Order)
		}
	}

	question, validationErrs, err := service.AddQuestion(quiz.ID, user.ID, &CreateQuestionRequest{
		Text:   "What is the capital of Italy?",
		Points: 1,
		Options: []authoring.OptionDraft{
			{Text: "  Rome  ", Correct: true},
			{Text: "   "},
			{Text: "Milan"},
		},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if len(validationErrs) > 0 {
		t.Fatalf("unexpected validation errors: %v", validationErrs)
	}
	if question.Order != 3 {
		t.Fatalf("expected order 3, got %d", question.Order)
	}
	if len(question.Options) != 2 {
		t.Fatalf("expected blank option dropped, got %d options", len(question.Options))
	}
	if question.Options[0].Text != "Rome" {
		t.Fatalf("expected trimmed text, got %q", question.Options[0].Text)
	}
	if !question.Options[0].IsCorrect || question.Options[1].IsCorrect {
		t.Fatalf("correct flag did not survive normalization")
	}
}

func TestAddQuestionStillAppendsAfterDeletions(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)

	third, validationErrs, err := service.AddQuestion(quiz.ID, user.ID, &CreateQuestionRequest{
		Text:   "What is the capital of Italy?",
		Points: 1,
		Options: []authoring.OptionDraft{
			{Text: "Rome", Correct: true},
			{Text: "Milan"},
		},
	})
	if err != nil || len(validationErrs) > 0 {
		t.Fatalf("add question: err=%v validation=%v", err, validationErrs)
	}

	for i := range quiz.Questions {
		if err := service.DeleteQuestion(quiz.ID, quiz.Questions[i].ID, user.ID); err != nil {
			t.Fatalf("delete question %d: %v", quiz.Questions[i].ID, err)
		}
	}

	fourth, validationErrs, err := service.AddQuestion(quiz.ID, user.ID, &CreateQuestionRequest{
		Text:   "What is the capital of Spain?",
		Points: 1,
		Options: []authoring.OptionDraft{
			{Text: "Madrid", Correct: true},
			{Text: "Seville"},
		},
	})
	if err != nil || len(validationErrs) > 0 {
		t.Fatalf("add question: err=%v validation=%v", err, validationErrs)
	}
	if fourth.Order != third.Order+1 {
		t.Fatalf("expected order %d after the surviving question, got %d", third.Order+1, fourth.Order)
	}

	reloaded, err := service.GetQuizByID(quiz.ID, user.ID)
	if err != nil {
		t.Fatalf("reload quiz: %v", err)
	}
	if len(reloaded.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(reloaded.Questions))
	}
	if last := reloaded.Questions[1]; last.ID != fourth.ID {
		t.Fatalf("newest question should sort last, got %q first from the back", last.Text)
	}
}

func TestAddQuestionAccumulatesValidationErrors(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)

	quiz, err := service.CreateQuiz(user.ID, &CreateQuizRequest{Title: "Draft quiz"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	_, validationErrs, err := service.AddQuestion(quiz.ID, user.ID, &CreateQuestionRequest{
		Text:   "Half-finished question",
		Points: 1,
		Options: []authoring.OptionDraft{
			{Text: "Only one"},
			{Text: "   "},
		},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if !hasValidationErr(validationErrs, authoring.ErrInsufficientOptions) {
		t.Fatalf("expected insufficient options, got %v", validationErrs)
	}
	if !hasValidationErr(validationErrs, authoring.ErrNoCorrectAnswerSelected) {
		t.Fatalf("expected missing correct answer, got %v", validationErrs)
	}

	var count int64
	db.Model(&models.Question{}).Where("quiz_id = ?", quiz.ID).Count(&count)
	if count != 0 {
		t.Fatalf("rejected question was persisted")
	}
}

func TestAddQuestionToMissingQuizReportsEveryProblem(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)

	_, validationErrs, err := service.AddQuestion(9999, user.ID, &CreateQuestionRequest{
		Text:    "Orphan question",
		Points:  1,
		Options: []authoring.OptionDraft{{Text: "Lonely"}},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if !hasValidationErr(validationErrs, models.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", validationErrs)
	}
	if !hasValidationErr(validationErrs, authoring.ErrInsufficientOptions) {
		t.Fatalf("expected option errors alongside quiz not found, got %v", validationErrs)
	}
}

func TestAddQuestionClampsPoints(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)

	question, validationErrs, err := service.AddQuestion(quiz.ID, user.ID, &CreateQuestionRequest{
		Text:   "Worth far too much",
		Points: 42,
		Options: []authoring.OptionDraft{
			{Text: "Yes", Correct: true},
			{Text: "No"},
		},
	})
	if err != nil || len(validationErrs) > 0 {
		t.Fatalf("add question: err=%v validation=%v", err, validationErrs)
	}
	if question.Points != authoring.MaxPoints {
		t.Fatalf("expected points clamped to %d, got %d", authoring.MaxPoints, question.Points)
	}
}

func TestUpdateQuestionDetailsLeavesOptionsAlone(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)
	question := quiz.Questions[0]

	updated, err := service.UpdateQuestionDetails(quiz.ID, question.ID, user.ID, &UpdateQuestionRequest{
		Text:   "Which city is the capital of France?",
		Points: -2,
	})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}
	if updated.Text != "Which city is the capital of France?" {
		t.Fatalf("text not updated: %q", updated.Text)
	}
	if updated.Points != authoring.MinPoints {
		t.Fatalf("expected points clamped to %d, got %d", authoring.MinPoints, updated.Points)
	}
	if len(updated.Options) != len(question.Options) {
		t.Fatalf("option set changed: %d -> %d", len(question.Options), len(updated.Options))
	}
	if correctOption(t, updated).Text != "Paris" {
		t.Fatalf("correct option changed to %q", correctOption(t, updated).Text)
	}
}

func TestReplaceQuestionOptionsSwapsWholeSet(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)
	question := quiz.Questions[0]
	oldOptionIDs := make(map[uint]bool)
	for _, option := range question.Options {
		oldOptionIDs[option.ID] = true
	}

	updated, validationErrs, err := service.ReplaceQuestionOptions(quiz.ID, question.ID, user.ID, &ReplaceOptionsRequest{
		Options: []authoring.OptionDraft{
			{Text: "Paris", Correct: true},
			{Text: "Nice"},
			{Text: "Toulouse"},
		},
	})
	if err != nil {
		t.Fatalf("replace options: %v", err)
	}
	if len(validationErrs) > 0 {
		t.Fatalf("unexpected validation errors: %v", validationErrs)
	}
	if len(updated.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(updated.Options))
	}
	for _, option := range updated.Options {
		if oldOptionIDs[option.ID] {
			t.Fatalf("old option %d survived the replacement", option.ID)
		}
	}

	var count int64
	db.Model(&models.Option{}).Where("question_id = ?", question.ID).Count(&count)
	if count != 3 {
		t.Fatalf("expected 3 live options in storage, got %d", count)
	}
}

func TestReplaceQuestionOptionsKeepsOldSetOnFailure(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)
	question := quiz.Questions[0]

	_, validationErrs, err := service.ReplaceQuestionOptions(quiz.ID, question.ID, user.ID, &ReplaceOptionsRequest{
		Options: []authoring.OptionDraft{
			{Text: "Paris"},
			{Text: "Lyon"},
		},
	})
	if err != nil {
		t.Fatalf("replace options: %v", err)
	}
	if !hasValidationErr(validationErrs, authoring.ErrNoCorrectAnswerSelected) {
		t.Fatalf("expected missing correct answer, got %v", validationErrs)
	}

	var count int64
	db.Model(&models.Option{}).Where("question_id = ?", question.ID).Count(&count)
	if count != int64(len(question.Options)) {
		t.Fatalf("old options were touched by a failed replacement")
	}
}

func TestDeleteQuestionRemovesItsOptions(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)
	question := quiz.Questions[0]

	if err := service.DeleteQuestion(quiz.ID, question.ID, user.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}

	var options int64
	db.Model(&models.Option{}).Where("question_id = ?", question.ID).Count(&options)
	if options != 0 {
		t.Fatalf("expected options deleted with the question, found %d", options)
	}

	remaining, err := service.GetQuizByID(quiz.ID, user.ID)
	if err != nil {
		t.Fatalf("reload quiz: %v", err)
	}
	if len(remaining.Questions) != 1 {
		t.Fatalf("expected 1 question left, got %d", len(remaining.Questions))
	}
}

func TestDeleteQuizCascades(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)
	other := createCapitalsQuiz(t, service, user.ID)

	attemptService := NewAttemptService(db, nil, nil)
	question := &quiz.Questions[0]
	result, err := attemptService.Submit(quiz.ID, &SubmitAttemptRequest{
		PlayerName: "Grace",
		Answers:    map[uint]uint{question.ID: correctOption(t, question).ID},
	}, nil)
	if err != nil {
		t.Fatalf("submit attempt: %v", err)
	}
	var storedAttempt models.Attempt
	if err := db.Where("public_id = ?", result.AttemptID).First(&storedAttempt).Error; err != nil {
		t.Fatalf("load stored attempt: %v", err)
	}

	if err := service.DeleteQuiz(quiz.ID, user.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}

	if _, err := service.GetQuizByID(quiz.ID, user.ID); !errors.Is(err, models.ErrQuizNotFound) {
		t.Fatalf("expected quiz gone, got %v", err)
	}

	var questions, attempts, answers, orphanOptions int64
	db.Model(&models.Question{}).Where("quiz_id = ?", quiz.ID).Count(&questions)
	db.Model(&models.Attempt{}).Where("quiz_id = ?", quiz.ID).Count(&attempts)
	db.Model(&models.AttemptAnswer{}).Where("attempt_id = ?", storedAttempt.ID).Count(&answers)
	db.Model(&models.Option{}).
		Joins("JOIN questions ON questions.id = options.question_id").
		Where("questions.quiz_id = ?", quiz.ID).
		Count(&orphanOptions)
	if questions != 0 || attempts != 0 || answers != 0 || orphanOptions != 0 {
		t.Fatalf("cascade left rows behind: %d questions, %d attempts, %d answers, %d options",
			questions, attempts, answers, orphanOptions)
	}

	if _, err := service.GetQuizByID(other.ID, user.ID); err != nil {
		t.Fatalf("unrelated quiz was affected: %v", err)
	}
}

func TestDeleteQuizClearsLeaderboard(t *testing.T) {
	db := openTestDB(t)
	mr, client := openTestRedis(t)
	user := createTestUser(t, db, "author@example.com")
	board := NewLeaderboardStore(client, time.Hour, 10)
	service := NewQuizService(db, nil, board)
	quiz := createCapitalsQuiz(t, service, user.ID)

	attemptService := NewAttemptService(db, nil, board)
	question := &quiz.Questions[0]
	if _, err := attemptService.Submit(quiz.ID, &SubmitAttemptRequest{
		PlayerName: "Ada",
		Answers:    map[uint]uint{question.ID: correctOption(t, question).ID},
	}, nil); err != nil {
		t.Fatalf("submit attempt: %v", err)
	}
	entries, err := board.Top(quiz.ID)
	if err != nil {
		t.Fatalf("read leaderboard: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry before deletion, got %d", len(entries))
	}

	if err := service.DeleteQuiz(quiz.ID, user.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}

	entries, err = board.Top(quiz.ID)
	if err != nil {
		t.Fatalf("read leaderboard: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("leaderboard outlived its quiz: %+v", entries)
	}
	if mr.Exists(fmt.Sprintf("quiz:%d:leaderboard", quiz.ID)) || mr.Exists(fmt.Sprintf("quiz:%d:players", quiz.ID)) {
		t.Fatalf("redis keys outlived the quiz")
	}
}

func TestQuizzesAreScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	intruder := createTestUser(t, db, "intruder@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, owner.ID)

	if _, err := service.GetQuizByID(quiz.ID, intruder.ID); !errors.Is(err, models.ErrQuizNotFound) {
		t.Fatalf("expected foreign quiz to look missing, got %v", err)
	}

	_, validationErrs, err := service.AddQuestion(quiz.ID, intruder.ID, &CreateQuestionRequest{
		Text:   "Injected question",
		Points: 1,
		Options: []authoring.OptionDraft{
			{Text: "A", Correct: true},
			{Text: "B"},
		},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if !hasValidationErr(validationErrs, models.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found for intruder, got %v", validationErrs)
	}
}

func TestQuizExistsSurfacesStorageErrors(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	service := NewQuizService(db, nil, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)

	exists, err := service.QuizExists(quiz.ID)
	if err != nil {
		t.Fatalf("quiz exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected quiz %d to exist", quiz.ID)
	}

	exists, err = service.QuizExists(9999)
	if err != nil {
		t.Fatalf("quiz exists: %v", err)
	}
	if exists {
		t.Fatalf("expected quiz 9999 to be missing")
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.Close()

	if _, err := service.QuizExists(quiz.ID); err == nil {
		t.Fatalf("expected an error once the database is gone")
	}
}

func TestAuthoringChangesRefreshPlayerSnapshot(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	cache := newTestCache(db)
	service := NewQuizService(db, cache, nil)
	quiz := createCapitalsQuiz(t, service, user.ID)

	before, err := cache.Get(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if before.Title != "European Capitals" {
		t.Fatalf("unexpected snapshot title %q", before.Title)
	}

	if _, err := service.UpdateQuiz(quiz.ID, user.ID, &UpdateQuizRequest{Title: "Capitals, revised"}); err != nil {
		t.Fatalf("update quiz: %v", err)
	}

	after, err := cache.Get(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("reload snapshot: %v", err)
	}
	if after.Title != "Capitals, revised" {
		t.Fatalf("snapshot still serves stale title %q", after.Title)
	}
}

func hasValidationErr(errs []error, target error) bool {
	for _, err := range errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
