package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"quizhub/models"
	"quizhub/scoring"
	"quizhub/services"

	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	attemptService *services.AttemptService
	hub            *services.Hub
}

func NewAttemptHandler(attemptService *services.AttemptService, hub *services.Hub) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		hub:            hub,
	}
}

// GetPlayerQuiz serves the sanitized quiz for the play page. No auth and
// no correct answers in the payload.
func (h *AttemptHandler) GetPlayerQuiz(c *gin.Context) {
	quizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
		return
	}

	quiz, err := h.attemptService.PlayerView(c.Request.Context(), uint(quizID))
	if err != nil {
		if errors.Is(err, models.ErrQuizNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// Submit accepts a filled-in quiz either as JSON or as a classic form
// post. Unanswered questions are simply absent from the submission.
func (h *AttemptHandler) Submit(c *gin.Context) {
	quizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
		return
	}

	var req services.SubmitAttemptRequest
	if c.ContentType() == "application/x-www-form-urlencoded" {
		req.PlayerName = strings.TrimSpace(c.PostForm("player_name"))
		if req.PlayerName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Player name is required"})
			return
		}
		if len(req.PlayerName) > 60 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Player name is too long"})
			return
		}
		req.Answers = parseSubmissionForm(c)
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.attemptService.Submit(uint(quizID), &req, h.hub)
	if err != nil {
		if errors.Is(err, models.ErrQuizNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attempt, err := h.attemptService.GetAttempt(c.Param("publicID"))
	if err != nil {
		if errors.Is(err, models.ErrAttemptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Attempt not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, attempt)
}

func (h *AttemptHandler) GetLeaderboard(c *gin.Context) {
	quizID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz ID"})
		return
	}

	entries, err := h.attemptService.Leaderboard(uint(quizID))
	if err != nil {
		if errors.Is(err, models.ErrQuizNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// parseSubmissionForm reads answers from form fields named
// question_<id>, each holding the chosen option id. Fields that do not
// follow the convention are skipped so stray form inputs cannot break a
// submission.
func parseSubmissionForm(c *gin.Context) scoring.Submission {
	c.Request.ParseForm()

	answers := make(scoring.Submission)
	for field, values := range c.Request.PostForm {
		name, found := strings.CutPrefix(field, "question_")
		if !found {
			continue
		}
		questionID, err := strconv.ParseUint(name, 10, 32)
		if err != nil {
			log.Printf("Skipping form field %q: bad question id", field)
			continue
		}
		if len(values) == 0 || values[0] == "" {
			continue
		}
		optionID, err := strconv.ParseUint(values[0], 10, 32)
		if err != nil {
			log.Printf("Skipping form field %q: bad option id %q", field, values[0])
			continue
		}
		answers[uint(questionID)] = uint(optionID)
	}
	return answers
}
