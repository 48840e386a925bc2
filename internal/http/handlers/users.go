package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultLeaderboardLimit = 100

// Leaderboard lists players ordered by token balance.
func (h *Handler) Leaderboard(c *gin.Context) {
	limit := defaultLeaderboardLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= defaultLeaderboardLimit {
			limit = n
		}
	}

	users, err := h.Users.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.AssetCode, err)
		return
	}

	entries := make([]gin.H, 0, len(users))
	for i, u := range users {
		entries = append(entries, gin.H{
			"rank":     i + 1,
			"username": u.Username,
			"tokens":   u.Tokens,
			"photo":    u.Photo,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": entries})
}
