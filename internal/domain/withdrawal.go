package domain

import "time"

// WithdrawalStatus tracks a withdrawal intent through its lifecycle.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusSubmitted WithdrawalStatus = "submitted"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
)

// Withdrawal is a durable intent record for draining a custodial balance to an
// on-chain wallet. It is written before the ledger submission so a crash
// between "ledger accepted" and "durable balance zeroed" can be reconciled in
// favor of the ledger.
type Withdrawal struct {
	ID            int64            `db:"id" json:"id"`
	UserID        int64            `db:"user_id" json:"user_id"`
	WalletAddress string           `db:"wallet_address" json:"wallet_address"`
	Tokens        int64            `db:"tokens" json:"tokens"`
	Amount        string           `db:"amount" json:"amount"`
	AssetCode     string           `db:"asset_code" json:"asset_code"`
	Status        WithdrawalStatus `db:"status" json:"status"`
	TxHash        string           `db:"tx_hash" json:"tx_hash,omitempty"`
	FailureReason string           `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	SubmittedAt   *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	CompletedAt   *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
}
