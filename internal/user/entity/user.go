package entity

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents an account row in the `users` table.
// A nil SuspendedAt means the account is active.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         string     `db:"name" json:"name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	SuspendedAt  *time.Time `db:"suspended_at" json:"suspended_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

func (u *User) Suspended() bool { return u.SuspendedAt != nil }

// Brief is the minimal identity joined onto attendee lists and messages.
type Brief struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email,omitempty"`
}
