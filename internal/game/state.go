package game

import (
	"encoding/json"
	"errors"

	"felini_trivia/internal/domain"
)

// DefaultDifficultyIndex is where new games start: "medium".
const DefaultDifficultyIndex = 1

var errBadState = errors.New("malformed game state")

// State is the per-session game value object. Balance mirrors the durable
// token balance and is reconciled against it on every authenticated request.
type State struct {
	Balance         int64 `json:"balance"`
	DifficultyIndex int   `json:"difficulty_index"`
}

// NewState creates a game seeded with the given balance at medium difficulty.
func NewState(balance int64) *State {
	return &State{
		Balance:         balance,
		DifficultyIndex: DefaultDifficultyIndex,
	}
}

// Difficulty returns the current difficulty, clamped into the fixed scale.
func (s *State) Difficulty() domain.Difficulty {
	idx := s.DifficultyIndex
	if idx < 0 || idx >= len(domain.DifficultyScale) {
		idx = DefaultDifficultyIndex
	}
	return domain.DifficultyScale[idx]
}

// Serialize encodes the state as a plain record. Deserialize(Serialize(s))
// always round-trips to an equal state.
func (s *State) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

// Deserialize decodes a stored state. It fails closed: any shape mismatch or
// out-of-contract value is an error and the caller should treat the state as
// absent rather than guess.
func Deserialize(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errBadState
	}
	if s.Balance < 0 {
		return nil, errBadState
	}
	if s.DifficultyIndex < 0 || s.DifficultyIndex >= len(domain.DifficultyScale) {
		return nil, errBadState
	}
	return &s, nil
}

// Reconcile overwrites the session balance with the durable one when they
// diverge. The durable record always wins. Reports whether a change was made.
func (s *State) Reconcile(durableBalance int64) bool {
	if s.Balance == durableBalance {
		return false
	}
	s.Balance = durableBalance
	return true
}
