package repository

import (
	"context"
	"errors"

	"felini_trivia/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, COALESCE(email, ''), COALESCE(google_id, ''), tokens, COALESCE(photo, ''), created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.GoogleID, &u.Tokens, &u.Photo, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO users (username, email, google_id, tokens, photo)
		 VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''))
		 RETURNING id, created_at`,
		u.Username, u.Email, u.GoogleID, u.Tokens, u.Photo,
	).Scan(&u.ID, &u.CreatedAt)
}

// LinkGoogleID attaches a Google identity to an existing user row found by
// email during first Google login.
func (r *UserRepository) LinkGoogleID(ctx context.Context, userID int64, googleID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET google_id = $1 WHERE id = $2`, googleID, userID)
	return err
}

// TokenBalance reads the durable custodial balance for a user.
func (r *UserRepository) TokenBalance(ctx context.Context, userID int64) (int64, error) {
	var tokens int64
	err := r.db.QueryRow(ctx, `SELECT tokens FROM users WHERE id = $1`, userID).Scan(&tokens)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}
	return tokens, nil
}

// CreditTokens applies a reward as a single atomic increment so concurrent
// submissions cannot double-apply. Returns the new balance.
func (r *UserRepository) CreditTokens(ctx context.Context, userID int64, amount int64) (int64, error) {
	var newBalance int64
	err := r.db.QueryRow(ctx,
		`UPDATE users SET tokens = tokens + $1 WHERE id = $2 AND tokens + $1 >= 0 RETURNING tokens`,
		amount, userID,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}
	return newBalance, nil
}

// ZeroTokens drains the durable balance after a withdrawal settles. It is
// idempotent so the reconcile pass can repeat it safely.
func (r *UserRepository) ZeroTokens(ctx context.Context, userID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET tokens = 0 WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Leaderboard returns users ordered by custodial balance, richest first.
func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY tokens DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.GoogleID, &u.Tokens, &u.Photo, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
