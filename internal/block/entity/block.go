package entity

import "time"

// Block is a directed relation; discovery hides each party's events from
// the other regardless of direction.
type Block struct {
	ID            string    `db:"id" json:"id"`
	BlockerUserID string    `db:"blocker_user_id" json:"blocker_user_id"`
	BlockedUserID string    `db:"blocked_user_id" json:"blocked_user_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
