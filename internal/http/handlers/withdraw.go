package handlers

import (
	"errors"
	"net/http"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// WithdrawForm returns the data behind the withdrawal view: the current
// custodial balance and the asset being paid out.
func (h *Handler) WithdrawForm(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
		return
	}

	balance, err := h.Users.TokenBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.AssetCode, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":    balance,
		"asset_code": h.AssetCode,
	})
}

type withdrawalRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

// ProcessWithdrawal drains the full balance to the given wallet.
func (h *Handler) ProcessWithdrawal(c *gin.Context) {
	userID, ok := getUserID(c)
	sessionID, ok2 := getSessionID(c)
	if !ok || !ok2 {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required."})
		return
	}

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Wallet address is required."})
		return
	}

	receipt, err := h.Settlement.Withdraw(c.Request.Context(), sessionID, userID, req.WalletAddress)
	if err != nil {
		middleware.Withdrawals.WithLabelValues(withdrawalOutcome(err)).Inc()
		respondError(c, h.AssetCode, err)
		return
	}
	middleware.Withdrawals.WithLabelValues("completed").Inc()
	h.balanceChanged()
	c.JSON(http.StatusOK, gin.H{
		"wallet_address": receipt.WalletAddress,
		"amount":         receipt.Amount,
		"tx_hash":        receipt.TxHash,
	})
}

func withdrawalOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoTokens),
		errors.Is(err, domain.ErrInvalidWalletAddress),
		errors.Is(err, domain.ErrNoTrustline):
		return "rejected"
	default:
		return "failed"
	}
}
