// Package rsvp is the attendance ledger: GOING and CANCELLED transitions
// under the event's capacity, check-in and the host's attendee list.
package rsvp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	evententity "github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/utilities"
)

// Store is the persistence contract for RSVPs.
//
// ApplyGoing checks the event is ACTIVE and below capacity, counting GOING
// rows of other users only, and writes the GOING row in the same atomic
// step. SetCancelled and CheckIn only touch an existing row and report
// whether they changed it.
type Store interface {
	GetEvent(ctx context.Context, id string) (*evententity.Event, error)
	ApplyGoing(ctx context.Context, r *entity.RSVP) (*entity.RSVP, error)
	SetCancelled(ctx context.Context, eventID, userID string, at time.Time) (*entity.RSVP, bool, error)
	GetRSVP(ctx context.Context, eventID, userID string) (*entity.RSVP, error)
	CheckIn(ctx context.Context, eventID, userID string, at time.Time) (*entity.RSVP, bool, error)
	ListAttendees(ctx context.Context, eventID string) ([]entity.Attendee, error)
}

type Service struct {
	store  Store
	clock  clockwork.Clock
	logger *zap.SugaredLogger
}

func NewService(store Store, clock clockwork.Clock, logger *zap.SugaredLogger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: store, clock: clock, logger: logger}
}

// Apply resolves the requested transition. An empty kind means GOING.
func (s *Service) Apply(ctx context.Context, actor identity.Identity, eventID string, req entity.Request) (*entity.Result, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	switch entity.Kind(strings.ToUpper(strings.TrimSpace(string(req.Kind)))) {
	case "", entity.SetGoing:
		return s.going(ctx, actor, eventID)
	case entity.SetCancelled:
		ev, err := s.activeEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		r, err := s.cancel(ctx, actor, ev.ID)
		if err != nil {
			return nil, err
		}
		return &entity.Result{RSVP: r}, nil
	default:
		return nil, apperr.Validation("status must be GOING or CANCELLED")
	}
}

func (s *Service) going(ctx context.Context, actor identity.Identity, eventID string) (*entity.Result, error) {
	now := s.clock.Now().UTC()
	r, err := s.store.ApplyGoing(ctx, &entity.RSVP{
		ID:        utilities.NewID(),
		EventID:   eventID,
		UserID:    actor.UserID,
		Status:    entity.StatusGoing,
		CreatedAt: now,
		UpdatedAt: now,
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, apperr.NotFound("event not found")
	case errors.Is(err, entity.ErrEventNotActive):
		return nil, apperr.Validation("cannot RSVP to a cancelled or removed event")
	case errors.Is(err, entity.ErrAtCapacity):
		return nil, apperr.Capacity("this event is at full capacity")
	case err != nil:
		return nil, fmt.Errorf("apply going: %w", err)
	}

	// The row is GOING now, so the private notes may be disclosed.
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	notes := ev.LocationNotesPrivate
	s.logger.Infow("rsvp going", "event_id", eventID, "user_id", actor.UserID)
	return &entity.Result{RSVP: r, LocationNotesPrivate: &notes}, nil
}

// Cancel marks the caller's existing RSVP CANCELLED.
func (s *Service) Cancel(ctx context.Context, actor identity.Identity, eventID string) (*entity.RSVP, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	return s.cancel(ctx, actor, eventID)
}

func (s *Service) cancel(ctx context.Context, actor identity.Identity, eventID string) (*entity.RSVP, error) {
	r, ok, err := s.store.SetCancelled(ctx, eventID, actor.UserID, s.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("cancel rsvp: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("RSVP not found")
	}
	s.logger.Infow("rsvp cancelled", "event_id", eventID, "user_id", actor.UserID)
	return r, nil
}

// CheckIn stamps the caller's GOING RSVP once.
func (s *Service) CheckIn(ctx context.Context, actor identity.Identity, eventID string) (*entity.RSVP, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	if _, err := s.event(ctx, eventID); err != nil {
		return nil, err
	}
	r, ok, err := s.store.CheckIn(ctx, eventID, actor.UserID, s.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("check in: %w", err)
	}
	if ok {
		s.logger.Infow("rsvp checked in", "event_id", eventID, "user_id", actor.UserID)
		return r, nil
	}

	current, err := s.store.GetRSVP(ctx, eventID, actor.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get rsvp: %w", err)
	}
	if current == nil || current.Status != entity.StatusGoing {
		return nil, apperr.Validation("you must have a GOING RSVP to check in")
	}
	return nil, apperr.Conflict("you have already checked in")
}

// ListAttendees returns every RSVP row for the event, oldest first, with
// attendee contact details. Host or admin only.
func (s *Service) ListAttendees(ctx context.Context, actor identity.Identity, eventID string) ([]entity.Attendee, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.HostUserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("user %s may not list attendees of event %s", actor.UserID, eventID)
	}
	attendees, err := s.store.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return attendees, nil
}

func (s *Service) event(ctx context.Context, id string) (*evententity.Event, error) {
	ev, err := s.store.GetEvent(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

func (s *Service) activeEvent(ctx context.Context, id string) (*evententity.Event, error) {
	ev, err := s.event(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.Status != evententity.StatusActive {
		return nil, apperr.Validation("cannot RSVP to a cancelled or removed event")
	}
	return ev, nil
}
