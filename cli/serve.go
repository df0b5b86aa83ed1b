package cli

import (
	"log"

	"quizhub/config"
	"quizhub/handlers"
	"quizhub/middleware"
	"quizhub/routes"
	"quizhub/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the subcommand that runs the HTTP server.
func NewServeCmd(port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*port)
		},
	}
}

func runServer(portFlag string) error {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}

	// Auto-migrate database models
	if err := autoMigrate(db); err != nil {
		return err
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL)
	quizCache := services.NewQuizCache(services.NewDBSnapshotLoader(db), cfg.QuizCacheTTL)
	board := services.NewLeaderboardStore(redisClient, cfg.LeaderboardTTL, cfg.LeaderboardSize)
	quizService := services.NewQuizService(db, quizCache, board)
	attemptService := services.NewAttemptService(db, quizCache, board)

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	quizHandler := handlers.NewQuizHandler(quizService)
	attemptHandler := handlers.NewAttemptHandler(attemptService, hub)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, quizHandler, attemptHandler, hub, quizService, cfg.JWTSecret)

	listenPort := portFlag
	if listenPort == "" {
		listenPort = cfg.Port
	}

	// Start server
	log.Printf("Server starting on port %s", listenPort)
	return router.Run(":" + listenPort)
}
