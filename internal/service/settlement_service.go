package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/logger"
	"felini_trivia/internal/session"
)

const (
	// withdrawals drain the full balance in one payment with a long window
	withdrawalTxTimeout = 120

	submitAttempts = 3
)

// Ledger is the on-chain surface the settlement engine drives. stellar.Client
// satisfies it.
type Ledger interface {
	ValidAddress(addr string) bool
	HasTrustline(ctx context.Context, addr string) (bool, error)
	SendPayment(ctx context.Context, dest, amount string, timeout int64) (string, error)
}

// WithdrawalIntents is the durable intent log for the two-step settlement.
// repository.WithdrawalRepository satisfies it.
type WithdrawalIntents interface {
	Create(ctx context.Context, w *domain.Withdrawal) error
	MarkSubmitted(ctx context.Context, id int64, txHash string) error
	MarkCompleted(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	ListSubmitted(ctx context.Context) ([]domain.Withdrawal, error)
}

// WithdrawalReceipt is returned to the user on an accepted withdrawal.
type WithdrawalReceipt struct {
	WalletAddress string `json:"wallet_address"`
	Amount        string `json:"amount"`
	TxHash        string `json:"tx_hash"`
}

// SettlementService drains custodial balances into on-chain payments. Each
// withdrawal is all-or-nothing: the full current balance or no transfer.
type SettlementService struct {
	ledger    Ledger
	users     TokenLedger
	intents   WithdrawalIntents
	sessions  session.Store
	events    EventRecorder
	assetCode string
}

func NewSettlementService(ledger Ledger, users TokenLedger, intents WithdrawalIntents, sessions session.Store, events EventRecorder, assetCode string) *SettlementService {
	return &SettlementService{
		ledger:    ledger,
		users:     users,
		intents:   intents,
		sessions:  sessions,
		events:    events,
		assetCode: assetCode,
	}
}

// Withdraw checks the preconditions in order, records a withdrawal intent,
// submits the payment with bounded retry, then zeroes the durable and session
// balances. The two zero-writes are best-effort: a submitted intent that
// fails to settle durably is picked up by ReconcileSubmitted.
func (s *SettlementService) Withdraw(ctx context.Context, sessionID string, userID int64, walletAddress string) (*WithdrawalReceipt, error) {
	balance, err := s.users.TokenBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if balance <= 0 {
		return nil, domain.ErrNoTokens
	}
	if !s.ledger.ValidAddress(walletAddress) {
		return nil, domain.ErrInvalidWalletAddress
	}
	trusted, err := s.ledger.HasTrustline(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	if !trusted {
		return nil, domain.ErrNoTrustline
	}

	amount := formatTokenAmount(balance)
	intent := &domain.Withdrawal{
		UserID:        userID,
		WalletAddress: walletAddress,
		Tokens:        balance,
		Amount:        amount,
		AssetCode:     s.assetCode,
		Status:        domain.WithdrawalStatusPending,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	txHash, err := s.submitWithRetry(ctx, walletAddress, amount)
	if err != nil {
		if markErr := s.intents.MarkFailed(ctx, intent.ID, err.Error()); markErr != nil {
			logger.Error("withdrawal intent not marked failed", "intent_id", intent.ID, "error", markErr)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrWithdrawalFailed, err)
	}
	if err := s.intents.MarkSubmitted(ctx, intent.ID, txHash); err != nil {
		logger.Error("withdrawal intent not marked submitted", "intent_id", intent.ID, "tx_hash", txHash, "error", err)
	}

	// Funds have left custody. Everything past this point must not undo the
	// withdrawal from the user's perspective; failures are logged and left
	// for the reconcile pass.
	receipt := &WithdrawalReceipt{WalletAddress: walletAddress, Amount: amount, TxHash: txHash}

	if err := s.settle(ctx, sessionID, userID, intent.ID); err != nil {
		logger.Error("withdrawal settled on ledger but not durably", "intent_id", intent.ID, "user_id", userID, "error", err)
		return receipt, nil
	}

	s.recordEvent(ctx, userID, domain.EventWithdrawal, -balance, map[string]interface{}{
		"wallet_address": walletAddress,
		"amount":         amount,
		"tx_hash":        txHash,
	})
	return receipt, nil
}

// settle zeroes the durable balance, mirrors that into the session and
// completes the intent.
func (s *SettlementService) settle(ctx context.Context, sessionID string, userID, intentID int64) error {
	if err := s.users.ZeroTokens(ctx, userID); err != nil {
		return fmt.Errorf("zero durable balance: %w", err)
	}
	if sessionID != "" {
		if state, err := s.sessions.Game(ctx, sessionID); err == nil && state != nil {
			state.Balance = 0
			if err := s.sessions.SaveGame(ctx, sessionID, state); err != nil {
				logger.Warn("session balance not zeroed after withdrawal", "error", err)
			}
		}
	}
	if err := s.intents.MarkCompleted(ctx, intentID); err != nil {
		return fmt.Errorf("complete intent: %w", err)
	}
	return nil
}

func (s *SettlementService) submitWithRetry(ctx context.Context, dest, amount string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= submitAttempts; attempt++ {
		txHash, err := s.ledger.SendPayment(ctx, dest, amount, withdrawalTxTimeout)
		if err == nil {
			return txHash, nil
		}
		lastErr = err
		logger.Warn("payment submission failed", "attempt", attempt, "destination", dest, "error", err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	return "", lastErr
}

// ReconcileSubmitted resolves intents whose payment was accepted by the
// ledger but whose durable zero-out never landed. The ledger wins: the
// balance is zeroed and the intent completed.
func (s *SettlementService) ReconcileSubmitted(ctx context.Context) error {
	intents, err := s.intents.ListSubmitted(ctx)
	if err != nil {
		return fmt.Errorf("list submitted intents: %w", err)
	}
	for _, intent := range intents {
		if err := s.users.ZeroTokens(ctx, intent.UserID); err != nil {
			logger.Error("reconcile: zero balance failed", "intent_id", intent.ID, "user_id", intent.UserID, "error", err)
			continue
		}
		if err := s.intents.MarkCompleted(ctx, intent.ID); err != nil {
			logger.Error("reconcile: complete intent failed", "intent_id", intent.ID, "error", err)
			continue
		}
		logger.Info("reconciled submitted withdrawal", "intent_id", intent.ID, "user_id", intent.UserID, "tx_hash", intent.TxHash)
	}
	return nil
}

func (s *SettlementService) recordEvent(ctx context.Context, userID int64, eventType string, amount int64, meta map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, userID, eventType, amount, meta); err != nil {
		logger.Warn("token event not recorded", "type", eventType, "error", err)
	}
}

// formatTokenAmount renders a custodial balance with the asset's fixed
// 7-decimal precision.
func formatTokenAmount(tokens int64) string {
	return strconv.FormatFloat(float64(tokens), 'f', 7, 64)
}
