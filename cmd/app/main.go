package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"felini_trivia/internal/config"
	"felini_trivia/internal/db"
	"felini_trivia/internal/game"
	httpServer "felini_trivia/internal/http"
	"felini_trivia/internal/http/handlers"
	"felini_trivia/internal/http/middleware"
	"felini_trivia/internal/logger"
	"felini_trivia/internal/question"
	"felini_trivia/internal/repository"
	"felini_trivia/internal/service"
	"felini_trivia/internal/session"
	"felini_trivia/internal/stellar"
	"felini_trivia/internal/ws"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	userRepo := repository.NewUserRepository(dbPool)
	withdrawalRepo := repository.NewWithdrawalRepository(dbPool)
	eventRepo := repository.NewTokenEventRepository(dbPool)

	// Sessions live in Redis when configured; the in-memory store keeps a
	// single-node deployment working without it.
	var sessions session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Fatal("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		}
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
		middleware.SetRateLimiterClient(client)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory sessions and no rate limiting")
		sessions = session.NewMemoryStore()
	}

	var source question.Source
	if cfg.QuestionSource == "generated" {
		source = question.NewGenerativeSource(cfg.GenerationBaseURL, cfg.GenerationAPIKey, cfg.GenerationModel)
	} else {
		fileSource, err := question.NewFileSource(cfg.QuestionsFile)
		if err != nil {
			logger.Fatal("question file unreadable", "path", cfg.QuestionsFile, "error", err)
		}
		source = fileSource
	}
	questions := question.NewStore(source)

	chain, err := stellar.NewClient(cfg.HorizonURL, cfg.NetworkPassphrase, cfg.DistributionSecret, cfg.AssetCode, cfg.IssuerPublicKey)
	if err != nil {
		logger.Fatal("stellar client", "error", err)
	}
	oracle := stellar.NewPoolOracle(chain.HorizonLoader(), chain.DistributionAddress(), cfg.AssetCode, cfg.IssuerPublicKey, cfg.PoolCacheTTL)

	rewards := game.NewRewardEngine(game.RewardPolicy(cfg.RewardPolicy), oracle)
	gameSvc := service.NewGameService(sessions, questions, rewards, userRepo, eventRepo, cfg.MinAnswerDelay)
	settlementSvc := service.NewSettlementService(chain, userRepo, withdrawalRepo, sessions, eventRepo, cfg.AssetCode)
	authSvc := service.NewAuthService(userRepo)

	hub := ws.NewLeaderboardHub(userRepo)
	go hub.Run()
	defer hub.Stop()

	// Resolve withdrawals that were submitted to the ledger but never
	// settled durably, at startup and then periodically.
	reconcileCtx, stopReconcile := context.WithCancel(context.Background())
	defer stopReconcile()
	go runReconcileLoop(reconcileCtx, settlementSvc, cfg.ReconcileEvery)

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	h := &handlers.Handler{
		Game:       gameSvc,
		Settlement: settlementSvc,
		Auth:       authSvc,
		Users:      userRepo,
		Pool:       oracle,
		OAuth:      oauthCfg,
		AssetCode:  cfg.AssetCode,
	}

	r := gin.Default()
	httpServer.RegisterRoutes(r, httpServer.Deps{
		DB:      dbPool,
		Handler: h,
		Hub:     hub,
		Config:  cfg,
		Version: version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func runReconcileLoop(ctx context.Context, settlement *service.SettlementService, every time.Duration) {
	if err := settlement.ReconcileSubmitted(ctx); err != nil {
		logger.Warn("withdrawal reconcile failed", "error", err)
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := settlement.ReconcileSubmitted(ctx); err != nil {
				logger.Warn("withdrawal reconcile failed", "error", err)
			}
		}
	}
}
