package repository

import (
	"context"
	"encoding/json"

	"felini_trivia/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenEventRepository appends custodial balance changes to an audit ledger.
type TokenEventRepository struct {
	db *pgxpool.Pool
}

func NewTokenEventRepository(db *pgxpool.Pool) *TokenEventRepository {
	return &TokenEventRepository{db: db}
}

func (r *TokenEventRepository) Record(ctx context.Context, userID int64, eventType string, amount int64, meta map[string]interface{}) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		metaJSON = []byte("{}")
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO token_events (user_id, type, amount, meta) VALUES ($1, $2, $3, $4)`,
		userID, eventType, amount, metaJSON)
	return err
}

// GetByUserID returns a user's recent balance changes, newest first.
func (r *TokenEventRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.TokenEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, type, amount, meta, created_at
		 FROM token_events
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.TokenEvent
	for rows.Next() {
		var e domain.TokenEvent
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &metaJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &e.Meta)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
