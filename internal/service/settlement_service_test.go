package service

import (
	"context"
	"errors"
	"testing"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/game"
	"felini_trivia/internal/session"
)

type fakeChain struct {
	validAddr    bool
	trustline    bool
	trustlineErr error
	sendErrs     []error
	sendCalls    int
	trustCalls   int
	lastDest     string
	lastAmount   string
}

func (f *fakeChain) ValidAddress(string) bool { return f.validAddr }

func (f *fakeChain) HasTrustline(_ context.Context, _ string) (bool, error) {
	f.trustCalls++
	return f.trustline, f.trustlineErr
}

func (f *fakeChain) SendPayment(_ context.Context, dest, amount string, _ int64) (string, error) {
	f.sendCalls++
	f.lastDest = dest
	f.lastAmount = amount
	if f.sendCalls <= len(f.sendErrs) {
		if err := f.sendErrs[f.sendCalls-1]; err != nil {
			return "", err
		}
	}
	return "txhash123", nil
}

type fakeIntents struct {
	created   []*domain.Withdrawal
	submitted []domain.Withdrawal
	statuses  map[int64]domain.WithdrawalStatus
	nextID    int64
}

func newFakeIntents() *fakeIntents {
	return &fakeIntents{statuses: map[int64]domain.WithdrawalStatus{}}
}

func (f *fakeIntents) Create(_ context.Context, w *domain.Withdrawal) error {
	f.nextID++
	w.ID = f.nextID
	f.created = append(f.created, w)
	f.statuses[w.ID] = domain.WithdrawalStatusPending
	return nil
}

func (f *fakeIntents) MarkSubmitted(_ context.Context, id int64, _ string) error {
	f.statuses[id] = domain.WithdrawalStatusSubmitted
	return nil
}

func (f *fakeIntents) MarkCompleted(_ context.Context, id int64) error {
	f.statuses[id] = domain.WithdrawalStatusCompleted
	return nil
}

func (f *fakeIntents) MarkFailed(_ context.Context, id int64, _ string) error {
	f.statuses[id] = domain.WithdrawalStatusFailed
	return nil
}

func (f *fakeIntents) ListSubmitted(_ context.Context) ([]domain.Withdrawal, error) {
	return f.submitted, nil
}

const testWallet = "GCEZWKCA5VLDNRLN3RPRJMRZOX3Z6G5CHCGSNFHEYVXM3XOJMDS674JZ"

func newTestSettlement(balance int64, chain *fakeChain) (*SettlementService, *fakeLedger, *fakeIntents, *session.MemoryStore) {
	ledger := newFakeLedger()
	ledger.balances[7] = balance
	intents := newFakeIntents()
	store := session.NewMemoryStore()
	svc := NewSettlementService(chain, ledger, intents, store, nil, "FELNY")
	return svc, ledger, intents, store
}

func TestWithdrawZeroBalanceNoLedgerCall(t *testing.T) {
	chain := &fakeChain{validAddr: true, trustline: true}
	svc, _, intents, _ := newTestSettlement(0, chain)

	if _, err := svc.Withdraw(context.Background(), "sid", 7, testWallet); !errors.Is(err, domain.ErrNoTokens) {
		t.Fatalf("err = %v, want ErrNoTokens", err)
	}
	if chain.trustCalls != 0 || chain.sendCalls != 0 {
		t.Fatal("zero-balance withdrawal must not touch the ledger")
	}
	if len(intents.created) != 0 {
		t.Fatal("zero-balance withdrawal must not record an intent")
	}
}

func TestWithdrawInvalidAddress(t *testing.T) {
	chain := &fakeChain{validAddr: false}
	svc, ledger, _, _ := newTestSettlement(1000, chain)

	if _, err := svc.Withdraw(context.Background(), "sid", 7, "not-a-key"); !errors.Is(err, domain.ErrInvalidWalletAddress) {
		t.Fatalf("err = %v, want ErrInvalidWalletAddress", err)
	}
	if ledger.balances[7] != 1000 {
		t.Fatal("balance must be unchanged")
	}
}

func TestWithdrawNoTrustline(t *testing.T) {
	chain := &fakeChain{validAddr: true, trustline: false}
	svc, ledger, _, _ := newTestSettlement(1000, chain)

	if _, err := svc.Withdraw(context.Background(), "sid", 7, testWallet); !errors.Is(err, domain.ErrNoTrustline) {
		t.Fatalf("err = %v, want ErrNoTrustline", err)
	}
	if chain.sendCalls != 0 {
		t.Fatal("no payment may be attempted without a trustline")
	}
	if ledger.balances[7] != 1000 {
		t.Fatal("balance must be unchanged")
	}
}

func TestWithdrawSucceedsOnThirdAttempt(t *testing.T) {
	chain := &fakeChain{
		validAddr: true,
		trustline: true,
		sendErrs:  []error{errors.New("tx_bad_seq"), errors.New("timeout"), nil},
	}
	svc, ledger, intents, store := newTestSettlement(2500, chain)
	state := game.NewState(2500)
	if err := store.SaveGame(context.Background(), "sid", state); err != nil {
		t.Fatal(err)
	}

	receipt, err := svc.Withdraw(context.Background(), "sid", 7, testWallet)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if chain.sendCalls != 3 {
		t.Fatalf("sendCalls = %d, want 3", chain.sendCalls)
	}
	if receipt.Amount != "2500.0000000" {
		t.Fatalf("Amount = %q, want 2500.0000000", receipt.Amount)
	}
	if receipt.TxHash != "txhash123" {
		t.Fatalf("TxHash = %q", receipt.TxHash)
	}
	if ledger.balances[7] != 0 {
		t.Fatalf("durable balance = %d, want 0", ledger.balances[7])
	}
	got, _ := store.Game(context.Background(), "sid")
	if got.Balance != 0 {
		t.Fatalf("session balance = %d, want 0", got.Balance)
	}
	if intents.statuses[1] != domain.WithdrawalStatusCompleted {
		t.Fatalf("intent status = %s, want completed", intents.statuses[1])
	}
}

func TestWithdrawFailsAfterThreeAttempts(t *testing.T) {
	boom := errors.New("horizon 504")
	chain := &fakeChain{
		validAddr: true,
		trustline: true,
		sendErrs:  []error{boom, boom, boom},
	}
	svc, ledger, intents, _ := newTestSettlement(2500, chain)

	if _, err := svc.Withdraw(context.Background(), "sid", 7, testWallet); !errors.Is(err, domain.ErrWithdrawalFailed) {
		t.Fatalf("err = %v, want ErrWithdrawalFailed", err)
	}
	if chain.sendCalls != 3 {
		t.Fatalf("sendCalls = %d, want exactly 3", chain.sendCalls)
	}
	if ledger.balances[7] != 2500 {
		t.Fatalf("durable balance = %d, want unchanged 2500", ledger.balances[7])
	}
	if intents.statuses[1] != domain.WithdrawalStatusFailed {
		t.Fatalf("intent status = %s, want failed", intents.statuses[1])
	}
}

func TestWithdrawDrainsFullBalance(t *testing.T) {
	chain := &fakeChain{validAddr: true, trustline: true}
	svc, _, _, _ := newTestSettlement(123, chain)

	receipt, err := svc.Withdraw(context.Background(), "sid", 7, testWallet)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if chain.lastAmount != "123.0000000" {
		t.Fatalf("payment amount = %q, want full balance 123.0000000", chain.lastAmount)
	}
	if chain.lastDest != testWallet {
		t.Fatalf("payment destination = %q", chain.lastDest)
	}
	if receipt.WalletAddress != testWallet {
		t.Fatalf("receipt wallet = %q", receipt.WalletAddress)
	}
}

func TestWithdrawUpstreamErrorFromTrustlineCheck(t *testing.T) {
	chain := &fakeChain{validAddr: true, trustlineErr: domain.ErrUpstreamUnavailable}
	svc, _, intents, _ := newTestSettlement(1000, chain)

	if _, err := svc.Withdraw(context.Background(), "sid", 7, testWallet); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	if len(intents.created) != 0 {
		t.Fatal("no intent may be recorded when the trustline check fails")
	}
}

func TestReconcileSubmittedZeroesAndCompletes(t *testing.T) {
	chain := &fakeChain{validAddr: true, trustline: true}
	svc, ledger, intents, _ := newTestSettlement(900, chain)
	intents.submitted = []domain.Withdrawal{
		{ID: 41, UserID: 7, TxHash: "old-hash", Status: domain.WithdrawalStatusSubmitted},
	}

	if err := svc.ReconcileSubmitted(context.Background()); err != nil {
		t.Fatalf("ReconcileSubmitted: %v", err)
	}
	if ledger.balances[7] != 0 {
		t.Fatalf("durable balance = %d, want 0 after reconcile", ledger.balances[7])
	}
	if intents.statuses[41] != domain.WithdrawalStatusCompleted {
		t.Fatalf("intent status = %s, want completed", intents.statuses[41])
	}
}
