package handlers

import (
	"net/http"

	"felini_trivia/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// Start ensures a game exists for the session, seeded from the durable
// balance.
func (h *Handler) Start(c *gin.Context) {
	userID, ok := getUserID(c)
	sessionID, ok2 := getSessionID(c)
	if !ok || !ok2 {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
		return
	}

	state, err := h.Game.StartGame(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondError(c, h.AssetCode, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":    state.Balance,
		"difficulty": state.Difficulty(),
	})
}

// FetchQuestion mints a question session. The answer and explanation stay
// server-side until the answer is scored.
func (h *Handler) FetchQuestion(c *gin.Context) {
	_, ok := getUserID(c)
	sessionID, ok2 := getSessionID(c)
	if !ok || !ok2 {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
		return
	}

	qs, err := h.Game.FetchQuestion(c.Request.Context(), sessionID, c.Query("difficulty"))
	if err != nil {
		respondError(c, h.AssetCode, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      qs.Token,
		"question":   qs.Question,
		"options":    qs.Options,
		"difficulty": qs.Difficulty,
	})
}

type answerRequest struct {
	Token  string `json:"token" binding:"required"`
	Answer string `json:"answer"`
}

// Answer scores a submission against the live question session.
func (h *Handler) Answer(c *gin.Context) {
	userID, ok := getUserID(c)
	sessionID, ok2 := getSessionID(c)
	if !ok || !ok2 {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	res, err := h.Game.SubmitAnswer(c.Request.Context(), sessionID, userID, req.Token, req.Answer)
	if err != nil {
		respondError(c, h.AssetCode, err)
		return
	}
	if !res.Replayed {
		verdict := "incorrect"
		if res.IsCorrect {
			verdict = "correct"
		}
		middleware.AnswersScored.WithLabelValues(verdict).Inc()
		if res.IsCorrect {
			h.balanceChanged()
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"is_correct":  res.IsCorrect,
		"reward":      res.Reward,
		"explanation": res.Explanation,
		"balance":     res.Balance,
	})
}
