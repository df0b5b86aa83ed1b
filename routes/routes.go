package routes

import (
	"log"
	"net/http"
	"strconv"

	"quizhub/handlers"
	"quizhub/middleware"
	"quizhub/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	attemptHandler *handlers.AttemptHandler,
	hub *services.Hub,
	quizService *services.QuizService,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			// User profile
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Quiz authoring routes
			quizzes := protected.Group("/quizzes")
			{
				quizzes.GET("", quizHandler.GetUserQuizzes)
				quizzes.POST("", quizHandler.CreateQuiz)
				quizzes.GET("/:id", quizHandler.GetQuizByID)
				quizzes.PUT("/:id", quizHandler.UpdateQuiz)
				quizzes.DELETE("/:id", quizHandler.DeleteQuiz)

				quizzes.POST("/:id/questions", quizHandler.AddQuestion)
				quizzes.PUT("/:id/questions/:questionID", quizHandler.UpdateQuestion)
				quizzes.PUT("/:id/questions/:questionID/options", quizHandler.ReplaceQuestionOptions)
				quizzes.DELETE("/:id/questions/:questionID", quizHandler.DeleteQuestion)
			}
		}

		// Public play routes
		play := api.Group("/play")
		{
			play.GET("/:id", attemptHandler.GetPlayerQuiz)
			play.POST("/:id/submissions", attemptHandler.Submit)
			play.GET("/:id/leaderboard", attemptHandler.GetLeaderboard)
		}

		// Public result links
		api.GET("/attempts/:publicID", attemptHandler.GetAttempt)
	}

	// WebSocket endpoint for live result updates on a quiz
	router.GET("/ws/quizzes/:id/results", func(c *gin.Context) {
		quizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
			return
		}

		exists, err := quizService.QuizExists(uint(quizID))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check quiz"})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for quiz %d: %v", quizID, err)
			return
		}

		log.Printf("WebSocket results subscription established for quiz %d (subscribers: %d)", quizID, hub.SubscriberCount(uint(quizID))+1)

		hub.RegisterClient(conn, uint(quizID))
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
