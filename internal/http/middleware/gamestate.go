package middleware

import (
	"felini_trivia/internal/logger"
	"felini_trivia/internal/service"
	"felini_trivia/internal/session"

	"github.com/gin-gonic/gin"
)

// ReconcileGameState refreshes the session balance from the durable record on
// every authenticated request. The durable record always wins, so balance
// changes made outside the game (admin adjustments, reconciled withdrawals)
// become visible promptly. Must run after JWT.
func ReconcileGameState(sessions session.Store, ledger service.TokenLedger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, uok := c.Get("user_id")
		sessionID, sok := c.Get("session_id")
		if !uok || !sok {
			c.Next()
			return
		}
		uid, ok := userID.(int64)
		sid, ok2 := sessionID.(string)
		if !ok || !ok2 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		state, err := sessions.Game(ctx, sid)
		if err != nil || state == nil {
			c.Next()
			return
		}
		durable, err := ledger.TokenBalance(ctx, uid)
		if err != nil {
			logger.Warn("balance reconcile skipped", "user_id", uid, "error", err)
			c.Next()
			return
		}
		if state.Reconcile(durable) {
			if err := sessions.SaveGame(ctx, sid, state); err != nil {
				logger.Warn("reconciled state not saved", "user_id", uid, "error", err)
			}
		}
		c.Next()
	}
}
