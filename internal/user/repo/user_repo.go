package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, name, password_hash, role, suspended_at, created_at`

// CreateUser inserts a new user row; a taken email yields database.ErrDuplicate.
func (r *UserRepo) CreateUser(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, email, name, password_hash, role, created_at)
		VALUES (:id, :email, :name, :password_hash, :role, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, u); err != nil {
		return database.Translate(err)
	}
	return nil
}

// GetUser fetches a user by id or sql.ErrNoRows.
func (r *UserRepo) GetUser(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail returns a user matched by email (case-insensitive due to citext) or sql.ErrNoRows.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email=$1`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetSuspended sets or clears suspended_at only when the row is in the
// opposite state. It reports whether a row changed.
func (r *UserRepo) SetSuspended(ctx context.Context, id string, at *time.Time) (*entity.User, bool, error) {
	var q string
	var args []any
	if at != nil {
		q = `UPDATE users SET suspended_at=$2 WHERE id=$1 AND suspended_at IS NULL RETURNING ` + userColumns
		args = []any{id, *at}
	} else {
		q = `UPDATE users SET suspended_at=NULL WHERE id=$1 AND suspended_at IS NOT NULL RETURNING ` + userColumns
		args = []any{id}
	}
	var u entity.User
	err := r.db.GetContext(ctx, &u, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &u, true, nil
}
