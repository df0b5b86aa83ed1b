package cli

import (
	"errors"
	"fmt"
	"log"

	"quizhub/authoring"
	"quizhub/config"
	"quizhub/models"
	"quizhub/services"

	"github.com/spf13/cobra"
)

// NewSeedCmd loads a demo author and quiz for local development.
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a demo user and quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func runSeed() error {
	cfg := config.Load()
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := autoMigrate(db); err != nil {
		return err
	}

	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL)
	quizService := services.NewQuizService(db, nil, nil)

	user, err := authService.Register(&services.RegisterRequest{
		Name:     "Demo Author",
		Email:    "demo@quizhub.local",
		Password: "demo-password",
	})
	if err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			log.Printf("Demo user already exists, skipping seed")
			return nil
		}
		return err
	}

	quiz, err := quizService.CreateQuiz(user.ID, &services.CreateQuizRequest{
		Title:       "European Capitals",
		Description: "A quick warm-up covering capital cities.",
	})
	if err != nil {
		return err
	}

	questions := []services.CreateQuestionRequest{
		{
			Text:   "What is the capital of France?",
			Points: 3,
			Options: []authoring.OptionDraft{
				{Text: "Paris", Correct: true},
				{Text: "Lyon"},
				{Text: "Marseille"},
			},
		},
		{
			Text:   "What is the capital of Portugal?",
			Points: 2,
			Options: []authoring.OptionDraft{
				{Text: "Porto"},
				{Text: "Lisbon", Correct: true},
			},
		},
		{
			Text:   "What is the capital of Poland?",
			Points: 5,
			Options: []authoring.OptionDraft{
				{Text: "Warsaw", Correct: true},
				{Text: "Krakow"},
				{Text: "Gdansk"},
			},
		},
	}
	for i := range questions {
		_, validationErrs, err := quizService.AddQuestion(quiz.ID, user.ID, &questions[i])
		if err != nil {
			return err
		}
		if len(validationErrs) > 0 {
			return fmt.Errorf("seed question rejected: %v", validationErrs)
		}
	}

	log.Printf("Seeded quiz %d with %d questions for %s", quiz.ID, len(questions), user.Email)
	return nil
}
