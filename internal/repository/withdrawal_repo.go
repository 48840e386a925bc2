package repository

import (
	"context"
	"time"

	"felini_trivia/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create records a withdrawal intent before the ledger submission happens.
func (r *WithdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO withdrawals (user_id, wallet_address, tokens, amount, asset_code, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, w.UserID, w.WalletAddress, w.Tokens, w.Amount, w.AssetCode, w.Status).Scan(&w.ID, &w.CreatedAt)
}

// MarkSubmitted records ledger acceptance with the transaction hash.
func (r *WithdrawalRepository) MarkSubmitted(ctx context.Context, id int64, txHash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE withdrawals SET status = 'submitted', tx_hash = $2, submitted_at = $3 WHERE id = $1
	`, id, txHash, time.Now())
	return err
}

// MarkCompleted records that the durable balance was zeroed after submission.
func (r *WithdrawalRepository) MarkCompleted(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE withdrawals SET status = 'completed', completed_at = $2 WHERE id = $1
	`, id, time.Now())
	return err
}

// MarkFailed records a terminal submission failure.
func (r *WithdrawalRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE withdrawals SET status = 'failed', failure_reason = $2 WHERE id = $1
	`, id, reason)
	return err
}

// ListSubmitted returns intents where the ledger accepted the payment but the
// durable zero-out never completed. The reconcile pass resolves these in
// favor of the ledger.
func (r *WithdrawalRepository) ListSubmitted(ctx context.Context) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, wallet_address, tokens, amount, asset_code, status,
		       COALESCE(tx_hash, ''), COALESCE(failure_reason, ''),
		       created_at, submitted_at, completed_at
		FROM withdrawals
		WHERE status = 'submitted'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithdrawals(rows)
}

// GetByUserID returns a user's withdrawal history, newest first.
func (r *WithdrawalRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, wallet_address, tokens, amount, asset_code, status,
		       COALESCE(tx_hash, ''), COALESCE(failure_reason, ''),
		       created_at, submitted_at, completed_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithdrawals(rows)
}

func scanWithdrawals(rows pgx.Rows) ([]domain.Withdrawal, error) {
	var out []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.WalletAddress, &w.Tokens, &w.Amount, &w.AssetCode,
			&w.Status, &w.TxHash, &w.FailureReason,
			&w.CreatedAt, &w.SubmittedAt, &w.CompletedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
