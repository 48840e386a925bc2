// Package stellar wraps the Horizon API for the distribution account: address
// checks, trustline lookups, the pool balance oracle and signed payment
// submission.
package stellar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/logger"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
)

// Horizon is the subset of the horizonclient API the settlement path uses.
// horizonclient.Client satisfies it; tests provide fakes.
type Horizon interface {
	AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
	SubmitTransaction(tx *txnbuild.Transaction) (hProtocol.Transaction, error)
}

// Client signs and submits single-operation payments from the distribution
// account.
type Client struct {
	horizon           Horizon
	signer            *keypair.Full
	asset             txnbuild.CreditAsset
	networkPassphrase string
}

// NewClient parses the distribution secret and wires a Horizon client with a
// bounded HTTP timeout.
func NewClient(horizonURL, networkPassphrase, distributionSecret, assetCode, issuer string) (*Client, error) {
	signer, err := keypair.ParseFull(distributionSecret)
	if err != nil {
		return nil, fmt.Errorf("parse distribution secret: %w", err)
	}
	h := &horizonclient.Client{
		HorizonURL: horizonURL,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}
	return &Client{
		horizon:           h,
		signer:            signer,
		asset:             txnbuild.CreditAsset{Code: assetCode, Issuer: issuer},
		networkPassphrase: networkPassphrase,
	}, nil
}

// NewClientWithHorizon is for tests and alternate transports.
func NewClientWithHorizon(h Horizon, signer *keypair.Full, assetCode, issuer, networkPassphrase string) *Client {
	return &Client{
		horizon:           h,
		signer:            signer,
		asset:             txnbuild.CreditAsset{Code: assetCode, Issuer: issuer},
		networkPassphrase: networkPassphrase,
	}
}

// DistributionAddress is the public key of the account payments are drawn
// from. The pool oracle reads this account's balance.
func (c *Client) DistributionAddress() string {
	return c.signer.Address()
}

// HorizonLoader exposes the underlying account reader for the pool oracle.
func (c *Client) HorizonLoader() AccountLoader {
	return c.horizon
}

// ValidAddress reports whether addr is a syntactically valid ed25519 public key.
func (c *Client) ValidAddress(addr string) bool {
	return strkey.IsValidEd25519PublicKey(addr)
}

// HasTrustline reports whether the destination account exists and holds a
// trustline for the reward asset. A missing account counts as no trustline;
// transport failures surface as ErrUpstreamUnavailable.
func (c *Client) HasTrustline(_ context.Context, addr string) (bool, error) {
	account, err := c.horizon.AccountDetail(horizonclient.AccountRequest{AccountID: addr})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	for _, b := range account.Balances {
		if b.Code == c.asset.Code && b.Issuer == c.asset.Issuer {
			return true, nil
		}
	}
	return false, nil
}

// SendPayment builds, signs and submits one payment of amount to dest with
// the given transaction timeout. One attempt per call; the settlement layer
// owns the retry policy. Returns the ledger transaction hash.
func (c *Client) SendPayment(ctx context.Context, dest, amount string, timeout int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	source, err := c.horizon.AccountDetail(horizonclient.AccountRequest{AccountID: c.signer.Address()})
	if err != nil {
		return "", fmt.Errorf("load distribution account: %w", err)
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(timeout)},
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: dest,
				Amount:      amount,
				Asset:       c.asset,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("build payment: %w", err)
	}

	tx, err = tx.Sign(c.networkPassphrase, c.signer)
	if err != nil {
		return "", fmt.Errorf("sign payment: %w", err)
	}

	resp, err := c.horizon.SubmitTransaction(tx)
	if err != nil {
		return "", fmt.Errorf("submit payment: %w", err)
	}
	logger.Info("payment submitted", "destination", dest, "amount", amount, "hash", resp.Hash)
	return resp.Hash, nil
}
