package http

import (
	"felini_trivia/internal/config"
	"felini_trivia/internal/http/handlers"
	"felini_trivia/internal/http/middleware"
	"felini_trivia/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries everything the route table wires together.
type Deps struct {
	DB      *pgxpool.Pool
	Handler *handlers.Handler
	Hub     *ws.LeaderboardHub
	Config  *config.Config
	Version string
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	h := deps.Handler
	cfg := deps.Config
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Version)

	if deps.Hub != nil {
		h.OnBalanceChange = deps.Hub.Notify
	}

	// Health checks and metrics (no auth, no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public pages
	r.GET("/", h.Landing)
	r.GET("/about", h.About)
	r.GET("/users", h.Leaderboard)
	r.GET("/logout", h.Logout)

	// Identity
	r.GET("/auth/google", h.GoogleLogin)
	r.GET("/auth/google/callback", h.GoogleCallback)

	// Game loop: authenticated, session balance reconciled on every request
	authed := r.Group("/")
	authed.Use(middleware.JWT(), middleware.ReconcileGameState(h.Game.Sessions(), h.Users))
	{
		authed.GET("/start", h.Start)
		authed.GET("/fetch-question", h.FetchQuestion)
		authed.POST("/answer",
			middleware.RedisRateLimit(cfg.AnswerRateLimit, cfg.AnswerRateWindow),
			h.Answer,
		)
		authed.GET("/withdraw", h.WithdrawForm)
		authed.POST("/process-withdrawal", h.ProcessWithdrawal)
	}

	// Live leaderboard feed
	if deps.Hub != nil {
		r.GET("/ws/leaderboard", deps.Hub.Handle())
	}
}
