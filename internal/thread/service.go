// Package thread serves the per-event message board. Threads are created
// with their event; clients poll for new messages.
package thread

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	evententity "github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/moderation"
	rsvpentity "github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/thread/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/validate"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/utilities"
)

type Store interface {
	GetThread(ctx context.Context, id string) (*entity.Thread, error)
	GetThreadByEvent(ctx context.Context, eventID string) (*entity.Thread, error)
	ListMessages(ctx context.Context, threadID string) ([]entity.Message, error)
	CreateMessage(ctx context.Context, m *entity.Message) error
	GetEvent(ctx context.Context, id string) (*evententity.Event, error)
	GetRSVP(ctx context.Context, eventID, userID string) (*rsvpentity.RSVP, error)
	GetUser(ctx context.Context, id string) (*userentity.User, error)
}

type Service struct {
	store  Store
	engine *moderation.Engine
	clock  clockwork.Clock
	logger *zap.SugaredLogger
}

func NewService(store Store, engine *moderation.Engine, clock clockwork.Clock, logger *zap.SugaredLogger) *Service {
	if engine == nil {
		engine = moderation.DefaultEngine()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: store, engine: engine, clock: clock, logger: logger}
}

// GetByEvent returns the event's thread with all messages, oldest first.
func (s *Service) GetByEvent(ctx context.Context, actor identity.Identity, eventID string) (*entity.View, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, apperr.Validation("eventId query parameter is required")
	}
	ev, err := s.member(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	t, err := s.store.GetThreadByEvent(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "get thread")
	}
	msgs, err := s.store.ListMessages(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return &entity.View{
		Thread:   *t,
		Event:    entity.EventRef{ID: ev.ID, Title: ev.Title, StartAt: ev.StartAt},
		Messages: msgs,
	}, nil
}

type MessageInput struct {
	Body string `json:"body" validate:"max=1000"`
}

// PostMessage appends a message from the host or a GOING attendee.
func (s *Service) PostMessage(ctx context.Context, actor identity.Identity, threadID string, in MessageInput) (*entity.Message, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	t, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, notFound(err, "get thread")
	}
	if _, err := s.member(ctx, actor, t.EventID); err != nil {
		return nil, err
	}

	in.Body = strings.TrimSpace(in.Body)
	if in.Body == "" {
		return nil, apperr.Validation("message body cannot be empty")
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if v := s.engine.Classify(in.Body); v.Blocked {
		return nil, apperr.Blocked(v.BlockReason)
	}

	m := &entity.Message{
		ID:           utilities.NewID(),
		ThreadID:     t.ID,
		SenderUserID: actor.UserID,
		Body:         in.Body,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	m.Sender.ID = actor.UserID
	if u, err := s.store.GetUser(ctx, actor.UserID); err == nil {
		m.Sender.Name = u.Name
	}
	s.logger.Debugw("message posted", "thread_id", t.ID, "sender", actor.UserID)
	return m, nil
}

// member loads the event and requires the caller to host it or hold a
// GOING RSVP.
func (s *Service) member(ctx context.Context, actor identity.Identity, eventID string) (*evententity.Event, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if ev.HostUserID == actor.UserID {
		return ev, nil
	}
	r, err := s.store.GetRSVP(ctx, eventID, actor.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get rsvp: %w", err)
	}
	if r == nil || r.Status != rsvpentity.StatusGoing {
		return nil, apperr.Forbidden("user %s is not a member of event %s", actor.UserID, eventID)
	}
	return ev, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("thread not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}
