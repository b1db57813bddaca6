// Package block records user blocks. A block hides each party's events
// from the other in discovery.
package block

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/block/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/validate"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/utilities"
)

// Store persists blocks. CreateBlock returns database.ErrDuplicate when the
// pair already exists.
type Store interface {
	CreateBlock(ctx context.Context, b *entity.Block) error
	GetUser(ctx context.Context, id string) (*userentity.User, error)
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
	BlockedUserID string `json:"blocked_user_id" validate:"required"`
}

func (s *Service) Create(ctx context.Context, actor identity.Identity, in Input) (*entity.Block, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	in.BlockedUserID = strings.TrimSpace(in.BlockedUserID)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.BlockedUserID == actor.UserID {
		return nil, apperr.Validation("you cannot block yourself")
	}
	if _, err := s.store.GetUser(ctx, in.BlockedUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	b := &entity.Block{
		ID:            utilities.NewID(),
		BlockerUserID: actor.UserID,
		BlockedUserID: in.BlockedUserID,
		CreatedAt:     s.clock.Now().UTC(),
	}
	if err := s.store.CreateBlock(ctx, b); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperr.Conflict("you have already blocked this user")
		}
		return nil, fmt.Errorf("create block: %w", err)
	}
	s.logger.Infow("user blocked", "blocker", actor.UserID, "blocked", in.BlockedUserID)
	return b, nil
}
