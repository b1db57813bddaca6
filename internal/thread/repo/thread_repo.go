package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/thread/entity"
)

// ThreadRepo provides data access for message_threads and messages.
type ThreadRepo struct {
	db *sqlx.DB
}

func NewThreadRepo(db *sqlx.DB) *ThreadRepo { return &ThreadRepo{db: db} }

func (r *ThreadRepo) GetThread(ctx context.Context, id string) (*entity.Thread, error) {
	var t entity.Thread
	if err := r.db.GetContext(ctx, &t, `SELECT id, event_id, created_at FROM message_threads WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ThreadRepo) GetThreadByEvent(ctx context.Context, eventID string) (*entity.Thread, error) {
	var t entity.Thread
	if err := r.db.GetContext(ctx, &t, `SELECT id, event_id, created_at FROM message_threads WHERE event_id=$1`, eventID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ThreadRepo) ListMessages(ctx context.Context, threadID string) ([]entity.Message, error) {
	const q = `SELECT m.id, m.thread_id, m.sender_user_id, m.body, m.created_at,
		u.id AS "sender.id", u.name AS "sender.name"
		FROM messages m JOIN users u ON u.id = m.sender_user_id
		WHERE m.thread_id=$1
		ORDER BY m.created_at ASC, m.id ASC`
	msgs := []entity.Message{}
	if err := r.db.SelectContext(ctx, &msgs, q, threadID); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *ThreadRepo) CreateMessage(ctx context.Context, m *entity.Message) error {
	const q = `INSERT INTO messages (id, thread_id, sender_user_id, body, created_at)
		VALUES (:id, :thread_id, :sender_user_id, :body, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, m)
	return err
}
