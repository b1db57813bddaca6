// Package feedback collects one post-event rating per attendee.
package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	evententity "github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/feedback/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/validate"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/utilities"
)

// Store persists feedback. CreateFeedback returns database.ErrDuplicate for
// a second row on the same (event, user).
type Store interface {
	CreateFeedback(ctx context.Context, f *entity.Feedback) error
	GetEvent(ctx context.Context, id string) (*evententity.Event, error)
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

type Input struct {
	EventID string   `json:"event_id" validate:"required"`
	Rating  int      `json:"rating" validate:"required,min=1,max=5"`
	Tags    []string `json:"tags" validate:"max=5,dive,required"`
}

// Submit stores the caller's rating once the event has ended.
func (s *Service) Submit(ctx context.Context, actor identity.Identity, in Input) (*entity.Feedback, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	in.EventID = strings.TrimSpace(in.EventID)
	tags := make([]string, len(in.Tags))
	for i, tag := range in.Tags {
		tags[i] = strings.TrimSpace(tag)
	}
	in.Tags = tags
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	ev, err := s.store.GetEvent(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	now := s.clock.Now().UTC()
	if now.Before(ev.EndsAt()) {
		return nil, apperr.Validation("feedback opens after the event ends")
	}

	f := &entity.Feedback{
		ID:        utilities.NewID(),
		EventID:   ev.ID,
		UserID:    actor.UserID,
		Rating:    in.Rating,
		Tags:      pq.StringArray(in.Tags),
		CreatedAt: now,
	}
	if err := s.store.CreateFeedback(ctx, f); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperr.Conflict("You have already submitted feedback for this event")
		}
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	s.logger.Infow("feedback submitted", "event_id", ev.ID, "user_id", actor.UserID, "rating", in.Rating)
	return f, nil
}
