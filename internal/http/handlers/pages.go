package handlers

import (
	"net/http"

	"felini_trivia/internal/http/middleware"
	"felini_trivia/internal/service"

	"github.com/gin-gonic/gin"
)

// Landing returns the landing view data: the visitor's session balance (zero
// when anonymous) and the current reward-pool total.
func (h *Handler) Landing(c *gin.Context) {
	var balance int64
	loggedIn := false

	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil && cookie != "" {
		if _, sid, err := service.ParseJWT(cookie); err == nil {
			if state, err := h.Game.CurrentGame(c.Request.Context(), sid); err == nil && state != nil {
				balance = state.Balance
				loggedIn = true
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":    balance,
		"logged_in":  loggedIn,
		"pool_total": h.Pool.TotalPoolBalance(c.Request.Context()),
		"asset_code": h.AssetCode,
	})
}

// About describes the game and its payout rules.
func (h *Handler) About(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Felini Trivia",
		"description": "Answer trivia questions, earn " + h.AssetCode + " tokens and withdraw them to your Stellar wallet.",
		"asset_code":  h.AssetCode,
		"difficulty":  []string{"easy", "medium", "hard", "very_hard"},
	})
}
