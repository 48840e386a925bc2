package stellar

import (
	"context"
	"strconv"
	"sync"
	"time"

	"felini_trivia/internal/logger"

	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
)

// AccountLoader loads account details from Horizon. horizonclient.Client
// satisfies it.
type AccountLoader interface {
	AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
}

// PoolOracle caches the reward-pool asset balance of the distribution
// account. Reads within the TTL are served from cache; on refresh failure the
// last known value is kept so reward sizing degrades instead of breaking.
type PoolOracle struct {
	horizon   AccountLoader
	account   string
	assetCode string
	issuer    string
	ttl       time.Duration
	now       func() time.Time

	mu        sync.Mutex
	value     float64
	fetchedAt time.Time
}

func NewPoolOracle(h AccountLoader, account, assetCode, issuer string, ttl time.Duration) *PoolOracle {
	return &PoolOracle{
		horizon:   h,
		account:   account,
		assetCode: assetCode,
		issuer:    issuer,
		ttl:       ttl,
		now:       time.Now,
	}
}

// TotalPoolBalance returns the cached pool balance, refreshing it when the
// TTL has elapsed. Returns 0 only when no fetch has ever succeeded.
func (o *PoolOracle) TotalPoolBalance(_ context.Context) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.fetchedAt.IsZero() && o.now().Sub(o.fetchedAt) < o.ttl {
		return o.value
	}

	account, err := o.horizon.AccountDetail(horizonclient.AccountRequest{AccountID: o.account})
	if err != nil {
		logger.Warn("pool balance refresh failed, serving cached value", "error", err, "cached", o.value)
		return o.value
	}

	for _, b := range account.Balances {
		if b.Code != o.assetCode || b.Issuer != o.issuer {
			continue
		}
		v, err := strconv.ParseFloat(b.Balance, 64)
		if err != nil {
			logger.Warn("pool balance unparsable", "balance", b.Balance, "error", err)
			return o.value
		}
		o.value = v
		o.fetchedAt = o.now()
		return o.value
	}

	// No trustline on our own distribution account: treat as an empty pool.
	o.value = 0
	o.fetchedAt = o.now()
	return 0
}
