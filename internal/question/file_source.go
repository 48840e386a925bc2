package question

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/logger"
)

// FileSource serves raw questions from a pre-generated JSON pool loaded into
// memory at startup. The file holds an array of {"question": "<raw text>"}.
type FileSource struct {
	items []string
	pick  func(n int) int
}

type fileItem struct {
	Question string `json:"question"`
}

// NewFileSource loads the pool from path. A missing or unreadable file is an
// error; an empty pool is not, it just makes Next fail per request.
func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var items []fileItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse questions file: %w", err)
	}

	raw := make([]string, 0, len(items))
	for _, it := range items {
		if it.Question != "" {
			raw = append(raw, it.Question)
		}
	}
	logger.Info("loaded question pool", "file", path, "count", len(raw))
	return &FileSource{items: raw, pick: rand.Intn}, nil
}

// Next returns a random item from the pool.
func (s *FileSource) Next(_ context.Context) (string, error) {
	if len(s.items) == 0 {
		return "", domain.ErrNoQuestionsAvailable
	}
	return s.items[s.pick(len(s.items))], nil
}
