package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/game"
	"felini_trivia/internal/logger"
	"felini_trivia/internal/session"
)

// TokenLedger is the durable balance surface the game and settlement layers
// share. repository.UserRepository satisfies it.
type TokenLedger interface {
	TokenBalance(ctx context.Context, userID int64) (int64, error)
	CreditTokens(ctx context.Context, userID, delta int64) (int64, error)
	ZeroTokens(ctx context.Context, userID int64) error
}

// QuestionPicker supplies parsed trivia items. question.Store satisfies it.
type QuestionPicker interface {
	Pick(ctx context.Context) (domain.Question, error)
}

// Rewarder computes the payout for a scored answer. game.RewardEngine
// satisfies it.
type Rewarder interface {
	Reward(ctx context.Context, d domain.Difficulty, correct bool) int64
}

// EventRecorder appends to the token event log. repository.TokenEventRepository
// satisfies it; recording is best-effort and never blocks gameplay.
type EventRecorder interface {
	Record(ctx context.Context, userID int64, eventType string, amount int64, meta map[string]interface{}) error
}

// AnswerResult is the frozen verdict for one question, identical on replay.
type AnswerResult struct {
	IsCorrect   bool   `json:"is_correct"`
	Reward      int64  `json:"reward"`
	Explanation string `json:"explanation"`
	Balance     int64  `json:"balance"`
	Replayed    bool   `json:"-"`
}

// GameService runs the trivia loop: start a game, mint questions, score
// answers at most once and credit the durable balance.
type GameService struct {
	sessions  session.Store
	questions QuestionPicker
	rewards   Rewarder
	ledger    TokenLedger
	events    EventRecorder
	minDelay  time.Duration
	now       func() time.Time
}

func NewGameService(sessions session.Store, questions QuestionPicker, rewards Rewarder, ledger TokenLedger, events EventRecorder, minDelay time.Duration) *GameService {
	return &GameService{
		sessions:  sessions,
		questions: questions,
		rewards:   rewards,
		ledger:    ledger,
		events:    events,
		minDelay:  minDelay,
		now:       time.Now,
	}
}

// StartGame ensures a game exists for the session, seeding the balance from
// the durable record. An existing game is reconciled, not reset.
func (s *GameService) StartGame(ctx context.Context, sessionID string, userID int64) (*game.State, error) {
	balance, err := s.ledger.TokenBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	state, err := s.sessions.Game(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = game.NewState(balance)
	} else {
		state.Reconcile(balance)
	}
	if err := s.sessions.SaveGame(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// FetchQuestion mints a new question session, replacing any live one. The
// optional difficulty override pins the session's difficulty index first.
func (s *GameService) FetchQuestion(ctx context.Context, sessionID string, difficulty string) (*domain.QuestionSession, error) {
	state, err := s.sessions.Game(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, domain.ErrNoActiveGame
	}

	if difficulty != "" {
		for i, d := range domain.DifficultyScale {
			if string(d) == difficulty {
				state.DifficultyIndex = i
				if err := s.sessions.SaveGame(ctx, sessionID, state); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	q, err := s.questions.Pick(ctx)
	if err != nil {
		return nil, err
	}

	token, err := newQuestionToken()
	if err != nil {
		return nil, err
	}

	qs := &domain.QuestionSession{
		Token:       token,
		Question:    q.Text,
		Options:     q.Options,
		Answer:      q.Answer,
		Explanation: q.Explanation,
		Difficulty:  state.Difficulty(),
		IssuedAt:    s.now(),
	}
	if err := s.sessions.SaveQuestion(ctx, sessionID, qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// SubmitAnswer drives the Issued -> Answered transition. Scoring and the
// balance credit happen at most once per token; repeat submissions replay
// the frozen verdict.
func (s *GameService) SubmitAnswer(ctx context.Context, sessionID string, userID int64, token, answer string) (*AnswerResult, error) {
	state, err := s.sessions.Game(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	qs, err := s.sessions.Question(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil || qs == nil {
		return nil, domain.ErrNoActiveGame
	}
	if token == "" || token != qs.Token {
		return nil, domain.ErrInvalidToken
	}

	if qs.Answered {
		return s.replay(qs, state), nil
	}

	if s.now().Sub(qs.IssuedAt) < s.minDelay {
		return nil, domain.ErrTooSoon
	}

	// Claim the transition before scoring so a concurrent double-submit
	// cannot credit twice.
	claimed, err := s.sessions.ClaimAnswer(ctx, sessionID, token)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Lost the race. If the winner already froze the verdict, replay
		// it; otherwise the submission is still in flight.
		fresh, err := s.sessions.Question(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if fresh != nil && fresh.Token == token && fresh.Answered {
			return s.replay(fresh, state), nil
		}
		return nil, domain.ErrAnswerInFlight
	}

	correct := scoreAnswer(answer, qs.Answer)
	reward := s.rewards.Reward(ctx, qs.Difficulty, correct)

	balance := state.Balance
	if correct && reward > 0 {
		newBalance, err := s.ledger.CreditTokens(ctx, userID, reward)
		if err != nil {
			// The verdict is frozen but the session balance is left
			// untouched so it cannot drift above the durable record.
			logger.Error("reward credit failed", "user_id", userID, "reward", reward, "error", err)
			s.freezeVerdict(ctx, sessionID, state, qs, correct, reward, state.Balance)
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		balance = newBalance
		s.recordEvent(ctx, userID, domain.EventReward, reward, map[string]interface{}{
			"difficulty": string(qs.Difficulty),
		})
	}

	s.freezeVerdict(ctx, sessionID, state, qs, correct, reward, balance)

	return &AnswerResult{
		IsCorrect:   correct,
		Reward:      reward,
		Explanation: qs.Explanation,
		Balance:     balance,
	}, nil
}

// Sessions exposes the session store for cross-cutting middleware.
func (s *GameService) Sessions() session.Store {
	return s.sessions
}

// CurrentGame returns the stored game state without mutating it, or nil when
// the session has no game.
func (s *GameService) CurrentGame(ctx context.Context, sessionID string) (*game.State, error) {
	return s.sessions.Game(ctx, sessionID)
}

// EndGame drops the session's game and question state.
func (s *GameService) EndGame(ctx context.Context, sessionID string) error {
	return s.sessions.Clear(ctx, sessionID)
}

func (s *GameService) replay(qs *domain.QuestionSession, state *game.State) *AnswerResult {
	return &AnswerResult{
		IsCorrect:   qs.IsCorrect,
		Reward:      qs.Reward,
		Explanation: qs.Explanation,
		Balance:     state.Balance,
		Replayed:    true,
	}
}

func (s *GameService) freezeVerdict(ctx context.Context, sessionID string, state *game.State, qs *domain.QuestionSession, correct bool, reward, balance int64) {
	qs.Answered = true
	qs.IsCorrect = correct
	qs.Reward = reward
	if err := s.sessions.SaveQuestion(ctx, sessionID, qs); err != nil {
		logger.Error("freeze verdict failed", "error", err)
	}
	if balance != state.Balance {
		state.Balance = balance
		if err := s.sessions.SaveGame(ctx, sessionID, state); err != nil {
			logger.Error("session balance update failed", "error", err)
		}
	}
}

func (s *GameService) recordEvent(ctx context.Context, userID int64, eventType string, amount int64, meta map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, userID, eventType, amount, meta); err != nil {
		logger.Warn("token event not recorded", "type", eventType, "error", err)
	}
}

// scoreAnswer compares first letters case-insensitively. A stored answer of
// NoAnswer (or an empty submission) never scores as correct.
func scoreAnswer(submitted, stored string) bool {
	if stored == "" || stored == domain.NoAnswer {
		return false
	}
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return false
	}
	return strings.EqualFold(submitted[:1], stored[:1])
}

func newQuestionToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("question token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
