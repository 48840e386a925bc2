package config

import (
	"os"
	"strconv"
	"time"

	"felini_trivia/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	LogLevel    string
	LogJSON     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Stellar settlement
	HorizonURL         string
	NetworkPassphrase  string
	DistributionSecret string
	IssuerPublicKey    string
	AssetCode          string

	// Question sourcing
	QuestionsFile     string
	QuestionSource    string // "file" or "generated"
	GenerationBaseURL string
	GenerationAPIKey  string
	GenerationModel   string

	// Game tuning
	RewardPolicy     string // "fixed" or "dynamic"
	MinAnswerDelay   time.Duration
	AnswerRateLimit  int
	AnswerRateWindow time.Duration
	SessionTTL       time.Duration
	PoolCacheTTL     time.Duration
	ReconcileEvery   time.Duration
}

// Load reads configuration from the environment, with .env support.
// Missing required values are fatal at startup.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	distributionSecret := os.Getenv("DISTRIBUTION_SECRET_KEY")
	if distributionSecret == "" {
		logger.Fatal("DISTRIBUTION_SECRET_KEY is not set")
	}

	issuer := os.Getenv("ISSUER_PUBLIC_KEY")
	if issuer == "" {
		logger.Fatal("ISSUER_PUBLIC_KEY is not set")
	}

	cfg := &Config{
		AppPort:     envOr("APP_PORT", "8080"),
		DatabaseURL: dbURL,
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogJSON:     os.Getenv("LOG_JSON") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		JWTSecret:          jwtSecret,
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  envOr("GOOGLE_REDIRECT_URI", "http://localhost:8080/auth/google/callback"),

		HorizonURL:         envOr("HORIZON_URL", "https://horizon.stellar.org"),
		NetworkPassphrase:  envOr("NETWORK_PASSPHRASE", "Public Global Stellar Network ; September 2015"),
		DistributionSecret: distributionSecret,
		IssuerPublicKey:    issuer,
		AssetCode:          envOr("ASSET_CODE", "FELNY"),

		QuestionsFile:     envOr("QUESTIONS_FILE", "generated_questions.json"),
		QuestionSource:    envOr("QUESTION_SOURCE", "file"),
		GenerationBaseURL: os.Getenv("GENERATION_BASE_URL"),
		GenerationAPIKey:  os.Getenv("GENERATION_API_KEY"),
		GenerationModel:   envOr("GENERATION_MODEL", "gpt-4o-mini"),

		RewardPolicy:     envOr("REWARD_POLICY", "fixed"),
		MinAnswerDelay:   envSeconds("MIN_ANSWER_DELAY_SECONDS", 5),
		AnswerRateLimit:  envInt("ANSWER_RATE_LIMIT", 5),
		AnswerRateWindow: envSeconds("ANSWER_RATE_WINDOW_SECONDS", 60),
		SessionTTL:       envSeconds("SESSION_TTL_SECONDS", 24*60*60),
		PoolCacheTTL:     envSeconds("POOL_CACHE_TTL_SECONDS", 5*60),
		ReconcileEvery:   envSeconds("RECONCILE_INTERVAL_SECONDS", 60*60),
	}

	if cfg.QuestionSource == "generated" && cfg.GenerationAPIKey == "" {
		logger.Fatal("QUESTION_SOURCE=generated requires GENERATION_API_KEY")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}
