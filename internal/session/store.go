// Package session stores per-player ephemeral game state: the game value
// object and the single live question session. Stores keep the two records
// separately so a new question can replace the old one without touching the
// game, and expose an atomic answer claim so concurrent double-submits for
// the same token settle exactly once.
package session

import (
	"context"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/game"
)

// Store abstracts how session records are kept (Redis in production,
// in-memory for tests).
type Store interface {
	// Game returns the stored game state, or (nil, nil) when absent or
	// malformed. Malformed records are treated as absent, never guessed at.
	Game(ctx context.Context, sid string) (*game.State, error)
	SaveGame(ctx context.Context, sid string, s *game.State) error

	// Question returns the live question session, or (nil, nil) when absent.
	Question(ctx context.Context, sid string) (*domain.QuestionSession, error)
	SaveQuestion(ctx context.Context, sid string, q *domain.QuestionSession) error

	// ClaimAnswer atomically claims the Issued->Answered transition for the
	// given token. Exactly one caller observes true; everyone else must treat
	// the question as already answered.
	ClaimAnswer(ctx context.Context, sid, token string) (bool, error)

	// Clear drops all session records (logout, session end).
	Clear(ctx context.Context, sid string) error
}
