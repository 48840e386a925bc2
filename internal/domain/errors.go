package domain

import "errors"

var (
	// ErrNoActiveGame is returned when an answer arrives without a fetched question.
	ErrNoActiveGame = errors.New("no active game found")
	// ErrInvalidToken is returned when the submitted token does not match the issued one.
	ErrInvalidToken = errors.New("invalid question token")
	// ErrTooSoon is returned when an answer arrives before the minimum delay elapses.
	ErrTooSoon = errors.New("answer submitted too soon")
	// ErrAnswerInFlight is returned when a concurrent submission already claimed the question.
	ErrAnswerInFlight = errors.New("answer already being processed")
	// ErrNoQuestionsAvailable indicates the question pool is empty.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrGenerationFailed indicates the external question generator could not produce content.
	ErrGenerationFailed = errors.New("question generation failed")
	// ErrNoTokens is returned for withdrawal attempts with a zero balance.
	ErrNoTokens = errors.New("no tokens to withdraw")
	// ErrInvalidWalletAddress is returned for syntactically invalid destination addresses.
	ErrInvalidWalletAddress = errors.New("invalid wallet address")
	// ErrNoTrustline is returned when the destination holds no trustline for the asset.
	ErrNoTrustline = errors.New("recipient wallet has no trustline for the asset")
	// ErrWithdrawalFailed is the terminal error after all submission attempts fail.
	ErrWithdrawalFailed = errors.New("withdrawal failed")
	// ErrPersistence wraps durable-store failures during reward crediting.
	ErrPersistence = errors.New("persistence error")
	// ErrUserNotFound is returned when a durable user row is missing.
	ErrUserNotFound = errors.New("user not found")
	// ErrUpstreamUnavailable wraps transport failures talking to external services.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
