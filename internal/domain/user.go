package domain

import "time"

// User is the durable player record. Tokens is the single source of truth
// for custodial funds; session game state only mirrors it.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	GoogleID  string    `db:"google_id" json:"-"`
	Tokens    int64     `db:"tokens" json:"tokens"`
	Photo     string    `db:"photo" json:"photo,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
