package question

import (
	"context"
	"errors"
	"fmt"

	"felini_trivia/internal/domain"
)

// Source supplies raw question text. Implementations may read a static pool
// or call an external generator.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// Store turns raw source material into parsed questions.
type Store struct {
	source Source
}

func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Pick returns one parsed question. An empty pool yields a caller-visible
// placeholder question instead of an error so the client never breaks on
// missing data. Generator failures do propagate: the caller must surface a
// generation error rather than show a guessed question.
func (s *Store) Pick(ctx context.Context) (domain.Question, error) {
	raw, err := s.source.Next(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoQuestionsAvailable) {
			return emptyPoolQuestion(), nil
		}
		return domain.Question{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	return Parse(raw), nil
}

func emptyPoolQuestion() domain.Question {
	return domain.Question{
		Text:        "Error: No questions available.",
		Options:     []string{},
		Answer:      domain.NoAnswer,
		Explanation: "Please contact support.",
	}
}
