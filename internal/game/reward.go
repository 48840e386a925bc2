package game

import (
	"context"

	"felini_trivia/internal/domain"
)

// RewardPolicy selects how payouts are computed.
type RewardPolicy string

const (
	// RewardPolicyFixed pays from a fixed per-difficulty table.
	RewardPolicyFixed RewardPolicy = "fixed"
	// RewardPolicyDynamic scales payouts by the distribution pool balance.
	RewardPolicyDynamic RewardPolicy = "dynamic"
)

var payoutTable = map[domain.Difficulty]int64{
	domain.DifficultyEasy:     100,
	domain.DifficultyMedium:   500,
	domain.DifficultyHard:     1000,
	domain.DifficultyVeryHard: 2000,
}

var difficultyMultipliers = map[domain.Difficulty]float64{
	domain.DifficultyEasy:     0.5,
	domain.DifficultyMedium:   1.0,
	domain.DifficultyHard:     1.5,
	domain.DifficultyVeryHard: 2.0,
}

// PayoutFor returns the fixed-table payout for a difficulty. Unknown
// difficulties fall back to the easy payout.
func PayoutFor(d domain.Difficulty) int64 {
	if p, ok := payoutTable[d]; ok {
		return p
	}
	return payoutTable[domain.DifficultyEasy]
}

// DynamicReward computes the pool-scaled payout for a correct answer:
// max(floor(floor(pool/1e6) * multiplier), 1). Incorrect answers pay 0.
func DynamicReward(totalPoolBalance float64, d domain.Difficulty, correct bool) int64 {
	if !correct {
		return 0
	}
	mult, ok := difficultyMultipliers[d]
	if !ok {
		mult = 1.0
	}
	base := int64(totalPoolBalance / 1_000_000)
	reward := int64(float64(base) * mult)
	if reward < 1 {
		reward = 1
	}
	return reward
}

// PoolBalance reads the distribution pool balance. It must never block the
// request path beyond the underlying client timeout.
type PoolBalance interface {
	TotalPoolBalance(ctx context.Context) float64
}

// RewardEngine computes payouts behind a single policy switch.
type RewardEngine struct {
	policy RewardPolicy
	pool   PoolBalance
}

func NewRewardEngine(policy RewardPolicy, pool PoolBalance) *RewardEngine {
	if policy != RewardPolicyDynamic {
		policy = RewardPolicyFixed
	}
	return &RewardEngine{policy: policy, pool: pool}
}

// Reward returns the payout for an answer at the given difficulty. The result
// is always a non-negative integer.
func (e *RewardEngine) Reward(ctx context.Context, d domain.Difficulty, correct bool) int64 {
	if e.policy == RewardPolicyDynamic && e.pool != nil {
		return DynamicReward(e.pool.TotalPoolBalance(ctx), d, correct)
	}
	if !correct {
		return 0
	}
	return PayoutFor(d)
}
