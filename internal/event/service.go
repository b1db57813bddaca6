// Package event is the event catalog: creation behind moderation and the
// daily quota, host edits, cancellation, admin removal and discovery.
package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/moderation"
	moderationentity "github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
	profileentity "github.com/ovaphlow/pitchfork/service-meetup/internal/profile/entity"
	rsvpentity "github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	threadentity "github.com/ovaphlow/pitchfork/service-meetup/internal/thread/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/utilities"
)

const (
	quotaUnverified    = 1
	quotaPhoneVerified = 3
	listMineLimit      = 20
)

// Config holds catalog settings.
type Config struct {
	// QuotaLocation is the zone whose midnight resets the daily creation quota.
	QuotaLocation *time.Location
}

// ConfigFromEnv reads QUOTA_TIMEZONE (IANA name); unset or unknown falls
// back to the server's local zone.
func ConfigFromEnv() Config {
	loc := time.Local
	if name := strings.TrimSpace(os.Getenv("QUOTA_TIMEZONE")); name != "" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	}
	return Config{QuotaLocation: loc}
}

// Store is the persistence contract for events.
//
// CreateEvent writes the event, its thread and its flags atomically and
// fails with entity.ErrQuotaExceeded when limit > 0 and the host already has
// limit events created at or after since. UpdateEvent runs fn on a locked
// copy together with the current GOING count and persists the copy plus the
// returned flags only when fn succeeds. SetEventStatus changes status only
// from the given state and reports whether it did.
type Store interface {
	CreateEvent(ctx context.Context, ev *entity.Event, thread *threadentity.Thread, flags []moderationentity.Flag, since time.Time, limit int) error
	GetEvent(ctx context.Context, id string) (*entity.Event, error)
	GetListing(ctx context.Context, id string) (*entity.Listing, error)
	UpdateEvent(ctx context.Context, id string, fn func(ev *entity.Event, goingCount int) ([]moderationentity.Flag, error)) (*entity.Event, error)
	SetEventStatus(ctx context.Context, id string, from, to entity.Status, at time.Time) (bool, error)
	QueryEvents(ctx context.Context, q entity.Query) ([]entity.Listing, error)
	ListEventsForUser(ctx context.Context, userID string, limit int) ([]entity.Listing, error)
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*profileentity.Profile, error)
}

// BlockReader lists users in a block relation with userID, either direction.
type BlockReader interface {
	RelatedUserIDs(ctx context.Context, userID string) ([]string, error)
}

type RSVPReader interface {
	GetRSVP(ctx context.Context, eventID, userID string) (*rsvpentity.RSVP, error)
}

type Service struct {
	store    Store
	profiles ProfileReader
	blocks   BlockReader
	rsvps    RSVPReader
	engine   *moderation.Engine
	cfg      Config
	clock    clockwork.Clock
	logger   *zap.SugaredLogger
}

func NewService(store Store, profiles ProfileReader, blocks BlockReader, rsvps RSVPReader, engine *moderation.Engine, cfg Config, clock clockwork.Clock, logger *zap.SugaredLogger) *Service {
	if engine == nil {
		engine = moderation.DefaultEngine()
	}
	if cfg.QuotaLocation == nil {
		cfg.QuotaLocation = time.Local
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: store, profiles: profiles, blocks: blocks, rsvps: rsvps, engine: engine, cfg: cfg, clock: clock, logger: logger}
}

// Create publishes a new ACTIVE event hosted by the caller.
func (s *Service) Create(ctx context.Context, actor identity.Identity, in Fields) (*entity.Event, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	now := s.clock.Now()
	if err := in.check(now, true); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("complete onboarding first")
		}
		return nil, fmt.Errorf("get host profile: %w", err)
	}
	if !profile.EmailVerified() {
		return nil, apperr.VerificationRequired("email verification required to create events")
	}

	ev := &entity.Event{
		ID:         utilities.NewID(),
		HostUserID: actor.UserID,
		Status:     entity.StatusActive,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	in.applyTo(ev)

	var flags []moderationentity.Flag
	for _, text := range []string{ev.Title, ev.Description} {
		v := s.engine.Classify(text)
		if v.Blocked {
			return nil, apperr.Blocked(v.BlockReason)
		}
		if v.Flagged {
			flags = append(flags, moderation.NewFlag(moderationentity.TargetEvent, ev.ID, v.FlagRule, now.UTC()))
		}
	}

	limit := quotaUnverified
	switch {
	case actor.IsAdmin():
		limit = 0
	case profile.PhoneVerified():
		limit = quotaPhoneVerified
	}
	thread := &threadentity.Thread{ID: utilities.NewID(), EventID: ev.ID, CreatedAt: now.UTC()}
	if err := s.store.CreateEvent(ctx, ev, thread, flags, s.dayStart(now), limit); err != nil {
		if errors.Is(err, entity.ErrQuotaExceeded) {
			return nil, quotaError(limit, profile.PhoneVerified())
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Infow("event created", "event_id", ev.ID, "host", actor.UserID, "flags", len(flags))
	return ev, nil
}

func quotaError(limit int, phoneVerified bool) error {
	msg := fmt.Sprintf("You can create at most %d event(s) per day.", limit)
	if !phoneVerified {
		msg += " Verify your phone to increase your limit."
	}
	return apperr.RateLimited("%s", msg)
}

// dayStart is local midnight of now in the quota zone.
func (s *Service) dayStart(now time.Time) time.Time {
	local := now.In(s.cfg.QuotaLocation)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.cfg.QuotaLocation)
}

// Update applies a host edit to an ACTIVE event. Changed title or
// description text is moderated again.
func (s *Service) Update(ctx context.Context, actor identity.Identity, id string, patch Patch) (*entity.Event, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	now := s.clock.Now()
	ev, err := s.store.UpdateEvent(ctx, id, func(ev *entity.Event, going int) ([]moderationentity.Flag, error) {
		if ev.HostUserID != actor.UserID {
			return nil, apperr.Forbidden("user %s does not host event %s", actor.UserID, ev.ID)
		}
		if ev.Status != entity.StatusActive {
			return nil, apperr.Conflict("only active events can be edited")
		}
		merged := fieldsOf(ev)
		patch.apply(&merged)
		startChanged := patch.StartAt != nil && !patch.StartAt.Equal(ev.StartAt)
		if err := merged.check(now, startChanged); err != nil {
			return nil, err
		}
		if merged.MaxAttendees < going {
			return nil, apperr.Validation("max_attendees cannot be lower than the %d attendee(s) already going", going)
		}

		var flags []moderationentity.Flag
		for _, pair := range [][2]string{{ev.Title, merged.Title}, {ev.Description, merged.Description}} {
			if pair[0] == pair[1] {
				continue
			}
			v := s.engine.Classify(pair[1])
			if v.Blocked {
				return nil, apperr.Blocked(v.BlockReason)
			}
			if v.Flagged {
				flags = append(flags, moderation.NewFlag(moderationentity.TargetEvent, ev.ID, v.FlagRule, now.UTC()))
			}
		}
		merged.applyTo(ev)
		ev.UpdatedAt = now.UTC()
		return flags, nil
	})
	if err != nil {
		return nil, storeErr(err, "update event")
	}
	s.logger.Infow("event updated", "event_id", id, "host", actor.UserID)
	return ev, nil
}

// Cancel moves the caller's ACTIVE event to CANCELLED. Terminal.
func (s *Service) Cancel(ctx context.Context, actor identity.Identity, id string) (*entity.Event, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	ev, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.HostUserID != actor.UserID {
		return nil, apperr.Forbidden("user %s does not host event %s", actor.UserID, id)
	}
	return s.transition(ctx, ev, entity.StatusActive, entity.StatusCancelled, actor)
}

// Remove is the admin takedown of an ACTIVE or CANCELLED event. Terminal.
func (s *Service) Remove(ctx context.Context, actor identity.Identity, id string) (*entity.Event, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("user %s is not an admin", actor.UserID)
	}
	ev, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.Status == entity.StatusRemoved {
		return nil, apperr.Conflict("event is already removed")
	}
	return s.transition(ctx, ev, ev.Status, entity.StatusRemoved, actor)
}

func (s *Service) transition(ctx context.Context, ev *entity.Event, from, to entity.Status, actor identity.Identity) (*entity.Event, error) {
	now := s.clock.Now().UTC()
	changed, err := s.store.SetEventStatus(ctx, ev.ID, from, to, now)
	if err != nil {
		return nil, fmt.Errorf("set event status: %w", err)
	}
	if !changed {
		current, err := s.getEvent(ctx, ev.ID)
		if err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("event is already %s", strings.ToLower(string(current.Status)))
	}
	ev.Status = to
	ev.UpdatedAt = now
	s.logger.Infow("event status changed", "event_id", ev.ID, "status", to, "by", actor.UserID)
	return ev, nil
}

// Get returns the single-event view. The private location notes are only
// included for the host and for callers holding a GOING RSVP.
func (s *Service) Get(ctx context.Context, actor identity.Identity, id string) (*entity.Detail, error) {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get event")
	}
	d := &entity.Detail{Listing: *l}
	if actor.Authenticated() {
		r, err := s.rsvps.GetRSVP(ctx, id, actor.UserID)
		switch {
		case err == nil:
			d.UserRSVP = r
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("get rsvp: %w", err)
		}
		if l.HostUserID == actor.UserID || (r != nil && r.Status == rsvpentity.StatusGoing) {
			notes := l.LocationNotesPrivate
			d.LocationNotesPrivate = &notes
		}
	}
	d.Event.LocationNotesPrivate = ""
	return d, nil
}

// ListMine returns up to 20 ACTIVE events the caller hosts or is GOING to,
// soonest first.
func (s *Service) ListMine(ctx context.Context, actor identity.Identity) ([]entity.Listing, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	ls, err := s.store.ListEventsForUser(ctx, actor.UserID, listMineLimit)
	if err != nil {
		return nil, fmt.Errorf("list events for user: %w", err)
	}
	out := make([]entity.Listing, 0, len(ls))
	for _, l := range ls {
		l.LocationNotesPrivate = ""
		out = append(out, l)
	}
	return out, nil
}

func (s *Service) getEvent(ctx context.Context, id string) (*entity.Event, error) {
	ev, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get event")
	}
	return ev, nil
}

// storeErr passes named outcomes through and maps a missing row to NotFound.
func storeErr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("event not found")
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
