package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	evententity "github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
)

// RSVPRepo provides data access for the rsvps table.
type RSVPRepo struct {
	db *sqlx.DB
}

func NewRSVPRepo(db *sqlx.DB) *RSVPRepo { return &RSVPRepo{db: db} }

const rsvpColumns = `id, event_id, user_id, status, checked_in_at, created_at, updated_at`

// ApplyGoing locks the event row, so concurrent GOING writers for the same
// event queue behind each other and each sees the committed count.
func (r *RSVPRepo) ApplyGoing(ctx context.Context, in *entity.RSVP) (*entity.RSVP, error) {
	var out entity.RSVP
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var ev struct {
			Status       evententity.Status `db:"status"`
			MaxAttendees int                `db:"max_attendees"`
		}
		if err := tx.GetContext(ctx, &ev, `SELECT status, max_attendees FROM events WHERE id=$1 FOR UPDATE`, in.EventID); err != nil {
			return err
		}
		if ev.Status != evententity.StatusActive {
			return entity.ErrEventNotActive
		}
		var going int
		if err := tx.GetContext(ctx, &going,
			`SELECT COUNT(*) FROM rsvps WHERE event_id=$1 AND status=$2 AND user_id<>$3`,
			in.EventID, entity.StatusGoing, in.UserID); err != nil {
			return fmt.Errorf("count going: %w", err)
		}
		if going >= ev.MaxAttendees {
			return entity.ErrAtCapacity
		}
		const q = `INSERT INTO rsvps (id, event_id, user_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (event_id, user_id) DO UPDATE SET status=EXCLUDED.status, updated_at=EXCLUDED.updated_at
			RETURNING ` + rsvpColumns
		return tx.GetContext(ctx, &out, q, in.ID, in.EventID, in.UserID, entity.StatusGoing, in.CreatedAt, in.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RSVPRepo) SetCancelled(ctx context.Context, eventID, userID string, at time.Time) (*entity.RSVP, bool, error) {
	return r.conditional(ctx,
		`UPDATE rsvps SET status=$3, updated_at=$4 WHERE event_id=$1 AND user_id=$2 RETURNING `+rsvpColumns,
		eventID, userID, entity.StatusCancelled, at)
}

// CheckIn stamps a GOING row that has not been checked in yet.
func (r *RSVPRepo) CheckIn(ctx context.Context, eventID, userID string, at time.Time) (*entity.RSVP, bool, error) {
	return r.conditional(ctx,
		`UPDATE rsvps SET checked_in_at=$4, updated_at=$4
		WHERE event_id=$1 AND user_id=$2 AND status=$3 AND checked_in_at IS NULL RETURNING `+rsvpColumns,
		eventID, userID, entity.StatusGoing, at)
}

func (r *RSVPRepo) conditional(ctx context.Context, q string, args ...any) (*entity.RSVP, bool, error) {
	var out entity.RSVP
	err := r.db.GetContext(ctx, &out, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

func (r *RSVPRepo) GetRSVP(ctx context.Context, eventID, userID string) (*entity.RSVP, error) {
	var out entity.RSVP
	if err := r.db.GetContext(ctx, &out, `SELECT `+rsvpColumns+` FROM rsvps WHERE event_id=$1 AND user_id=$2`, eventID, userID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RSVPRepo) ListAttendees(ctx context.Context, eventID string) ([]entity.Attendee, error) {
	const q = `SELECT r.id, r.event_id, r.user_id, r.status, r.checked_in_at, r.created_at, r.updated_at,
		u.id AS "user.id", u.name AS "user.name", u.email AS "user.email"
		FROM rsvps r JOIN users u ON u.id = r.user_id
		WHERE r.event_id=$1
		ORDER BY r.created_at ASC, r.id ASC`
	attendees := []entity.Attendee{}
	if err := r.db.SelectContext(ctx, &attendees, q, eventID); err != nil {
		return nil, err
	}
	return attendees, nil
}
