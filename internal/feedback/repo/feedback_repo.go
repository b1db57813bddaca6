package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/feedback/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
)

// FeedbackRepo provides data access for the feedback table.
type FeedbackRepo struct {
	db *sqlx.DB
}

func NewFeedbackRepo(db *sqlx.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

func (r *FeedbackRepo) CreateFeedback(ctx context.Context, f *entity.Feedback) error {
	const q = `INSERT INTO feedback (id, event_id, user_id, rating, tags, created_at)
		VALUES (:id, :event_id, :user_id, :rating, :tags, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, f); err != nil {
		return database.Translate(err)
	}
	return nil
}
