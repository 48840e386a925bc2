package handlers

import (
	"context"
	"errors"
	"net/http"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/logger"
	"felini_trivia/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// PoolReader exposes the cached reward-pool balance for the landing view.
// stellar.PoolOracle satisfies it.
type PoolReader interface {
	TotalPoolBalance(ctx context.Context) float64
}

// UserStore is the durable user surface the handlers touch.
// repository.UserRepository satisfies it.
type UserStore interface {
	service.TokenLedger
	Leaderboard(ctx context.Context, limit int) ([]domain.User, error)
}

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	Game       *service.GameService
	Settlement *service.SettlementService
	Auth       *service.AuthService
	Users      UserStore
	Pool       PoolReader
	OAuth      *oauth2.Config
	AssetCode  string

	// OnBalanceChange is invoked after a scored reward or completed
	// withdrawal so live views can refresh.
	OnBalanceChange func()
}

func (h *Handler) balanceChanged() {
	if h.OnBalanceChange != nil {
		h.OnBalanceChange()
	}
}

func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func getSessionID(c *gin.Context) (string, bool) {
	sidVal, ok := c.Get("session_id")
	if !ok {
		return "", false
	}
	sid, ok := sidVal.(string)
	return sid, ok && sid != ""
}

// respondError maps domain sentinels to a user-facing status and message. Raw
// error text never reaches the client.
func respondError(c *gin.Context, assetCode string, err error) {
	switch {
	case errors.Is(err, domain.ErrNoActiveGame):
		c.JSON(http.StatusBadRequest, gin.H{"message": "No active game found."})
	case errors.Is(err, domain.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid question token."})
	case errors.Is(err, domain.ErrTooSoon):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please wait before submitting your answer."})
	case errors.Is(err, domain.ErrAnswerInFlight):
		c.JSON(http.StatusConflict, gin.H{"message": "Answer submission already in progress."})
	case errors.Is(err, domain.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"message": "Could not produce a question. Please try again."})
	case errors.Is(err, domain.ErrNoTokens):
		c.JSON(http.StatusBadRequest, gin.H{"message": "You have no tokens to withdraw."})
	case errors.Is(err, domain.ErrInvalidWalletAddress):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid wallet address."})
	case errors.Is(err, domain.ErrNoTrustline):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Recipient wallet does not have a trustline for " + assetCode + " tokens."})
	case errors.Is(err, domain.ErrWithdrawalFailed):
		c.JSON(http.StatusBadGateway, gin.H{"message": "Withdrawal failed. Please try again later."})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Service temporarily unavailable. Please try again later."})
	default:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong. Please try again."})
	}
}
