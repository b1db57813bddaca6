package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	moderationentity "github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
	moderationrepo "github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/repo"
	threadentity "github.com/ovaphlow/pitchfork/service-meetup/internal/thread/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/geo"
)

// EventRepo provides data access for the events table.
type EventRepo struct {
	db *sqlx.DB
}

func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `e.id, e.host_user_id, e.title, e.description, e.category, e.start_at, e.duration_mins,
	e.setting, e.age_min, e.age_max, e.max_attendees, e.screen_light, e.location_label_public,
	e.location_notes_private, e.lat, e.lng, e.status, e.created_at, e.updated_at`

const listingSelect = `SELECT ` + eventColumns + `,
	u.id AS "host.id", u.name AS "host.name", COALESCE(p.trust_score, 0) AS "host.trust_score",
	(SELECT COUNT(*) FROM rsvps r WHERE r.event_id = e.id AND r.status = 'GOING') AS going_count
	FROM events e
	JOIN users u ON u.id = e.host_user_id
	LEFT JOIN profiles p ON p.user_id = e.host_user_id`

const insertEventSQL = `INSERT INTO events (id, host_user_id, title, description, category, start_at, duration_mins,
	setting, age_min, age_max, max_attendees, screen_light, location_label_public, location_notes_private,
	lat, lng, status, created_at, updated_at)
	VALUES (:id, :host_user_id, :title, :description, :category, :start_at, :duration_mins,
	:setting, :age_min, :age_max, :max_attendees, :screen_light, :location_label_public, :location_notes_private,
	:lat, :lng, :status, :created_at, :updated_at)`

// CreateEvent serializes creations per host on the host's user row so the
// quota count and the insert cannot interleave.
func (r *EventRepo) CreateEvent(ctx context.Context, ev *entity.Event, thread *threadentity.Thread, flags []moderationentity.Flag, since time.Time, limit int) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, ev.HostUserID); err != nil {
			return fmt.Errorf("lock host: %w", err)
		}
		if limit > 0 {
			var n int
			if err := tx.GetContext(ctx, &n,
				`SELECT COUNT(*) FROM events WHERE host_user_id=$1 AND created_at >= $2`, ev.HostUserID, since); err != nil {
				return fmt.Errorf("count events: %w", err)
			}
			if n >= limit {
				return entity.ErrQuotaExceeded
			}
		}
		if _, err := tx.NamedExecContext(ctx, insertEventSQL, ev); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		if thread != nil {
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO message_threads (id, event_id, created_at) VALUES (:id, :event_id, :created_at)`, thread); err != nil {
				return fmt.Errorf("insert thread: %w", err)
			}
		}
		return insertFlags(ctx, tx, flags)
	})
}

func insertFlags(ctx context.Context, tx *sqlx.Tx, flags []moderationentity.Flag) error {
	for i := range flags {
		if _, err := tx.NamedExecContext(ctx, moderationrepo.InsertFlagSQL, &flags[i]); err != nil {
			return fmt.Errorf("insert flag: %w", err)
		}
	}
	return nil
}

func (r *EventRepo) GetEvent(ctx context.Context, id string) (*entity.Event, error) {
	var ev entity.Event
	if err := r.db.GetContext(ctx, &ev, `SELECT `+eventColumns+` FROM events e WHERE e.id=$1`, id); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *EventRepo) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	var l entity.Listing
	if err := r.db.GetContext(ctx, &l, listingSelect+` WHERE e.id=$1`, id); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateEvent locks the event row so the GOING count handed to fn stays
// current until the write commits.
func (r *EventRepo) UpdateEvent(ctx context.Context, id string, fn func(ev *entity.Event, goingCount int) ([]moderationentity.Flag, error)) (*entity.Event, error) {
	var ev entity.Event
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &ev, `SELECT `+eventColumns+` FROM events e WHERE e.id=$1 FOR UPDATE`, id); err != nil {
			return err
		}
		var going int
		if err := tx.GetContext(ctx, &going,
			`SELECT COUNT(*) FROM rsvps WHERE event_id=$1 AND status='GOING'`, id); err != nil {
			return fmt.Errorf("count going: %w", err)
		}
		flags, err := fn(&ev, going)
		if err != nil {
			return err
		}
		const q = `UPDATE events SET title=:title, description=:description, category=:category, start_at=:start_at,
			duration_mins=:duration_mins, setting=:setting, age_min=:age_min, age_max=:age_max,
			max_attendees=:max_attendees, screen_light=:screen_light, location_label_public=:location_label_public,
			location_notes_private=:location_notes_private, lat=:lat, lng=:lng, updated_at=:updated_at
			WHERE id=:id`
		if _, err := tx.NamedExecContext(ctx, q, &ev); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return insertFlags(ctx, tx, flags)
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *EventRepo) SetEventStatus(ctx context.Context, id string, from, to entity.Status, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET status=$3, updated_at=$4 WHERE id=$1 AND status=$2`, id, from, to, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// QueryEvents returns ACTIVE events inside the query box, soonest first.
func (r *EventRepo) QueryEvents(ctx context.Context, q entity.Query) ([]entity.Listing, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where,
		"e.status = "+arg(entity.StatusActive),
		"e.lat BETWEEN "+arg(q.Box.MinLat)+" AND "+arg(q.Box.MaxLat),
		lngClause(q.Box, arg),
	)
	if len(q.Categories) > 0 {
		cats := make([]string, len(q.Categories))
		for i, c := range q.Categories {
			cats[i] = string(c)
		}
		where = append(where, "e.category = ANY("+arg(pq.Array(cats))+")")
	}
	if q.StartAfter != nil {
		where = append(where, "e.start_at >= "+arg(*q.StartAfter))
	}
	if q.StartBefore != nil {
		where = append(where, "e.start_at <= "+arg(*q.StartBefore))
	}
	if q.AgeMin != nil {
		where = append(where, "e.age_max >= "+arg(*q.AgeMin))
	}
	if q.AgeMax != nil {
		where = append(where, "e.age_min <= "+arg(*q.AgeMax))
	}
	if q.Setting != "" {
		where = append(where, "e.setting = "+arg(q.Setting))
	}
	if q.ScreenLight {
		where = append(where, "e.screen_light")
	}
	if len(q.ExcludeHostIDs) > 0 {
		where = append(where, "e.host_user_id <> ALL("+arg(pq.Array(q.ExcludeHostIDs))+")")
	}

	stmt := listingSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY e.start_at ASC, e.id ASC"
	listings := []entity.Listing{}
	if err := r.db.SelectContext(ctx, &listings, stmt, args...); err != nil {
		return nil, err
	}
	return listings, nil
}

// lngClause restricts longitude to the box, splitting a box that crosses
// the antimeridian into its two ranges.
func lngClause(b geo.Box, arg func(any) string) string {
	if b.Wraps() {
		return "(e.lng >= " + arg(b.MinLng) + " OR e.lng <= " + arg(b.MaxLng) + ")"
	}
	return "e.lng BETWEEN " + arg(b.MinLng) + " AND " + arg(b.MaxLng)
}

// ListEventsForUser returns ACTIVE events the user hosts or holds a GOING
// RSVP for, soonest first.
func (r *EventRepo) ListEventsForUser(ctx context.Context, userID string, limit int) ([]entity.Listing, error) {
	const where = ` WHERE e.status = 'ACTIVE' AND (e.host_user_id = $1 OR EXISTS (
		SELECT 1 FROM rsvps r WHERE r.event_id = e.id AND r.user_id = $1 AND r.status = 'GOING'))
		ORDER BY e.start_at ASC, e.id ASC LIMIT $2`
	listings := []entity.Listing{}
	if err := r.db.SelectContext(ctx, &listings, listingSelect+where, userID, limit); err != nil {
		return nil, err
	}
	return listings, nil
}
