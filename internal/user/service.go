package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/validate"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/utilities"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Store is the persistence contract for accounts.
type Store interface {
	CreateUser(ctx context.Context, u *entity.User) error
	GetUser(ctx context.Context, id string) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	SetSuspended(ctx context.Context, id string, at *time.Time) (*entity.User, bool, error)
}

// Service orchestrates account sign-up, authentication and suspension.
type Service struct {
	store  Store
	hasher PasswordHasher
	clock  clockwork.Clock
	logger *zap.SugaredLogger
}

func NewService(store Store, hasher PasswordHasher, clock clockwork.Clock, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: store, hasher: hasher, clock: clock, logger: logger}
}

// SignupInput is the sign-up payload.
type SignupInput struct {
	Name     string `json:"name" validate:"min=2,max=50"`
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"min=8,max=72"`
}

var errBadCredentials = &apperr.Error{Kind: apperr.ErrAuthenticationRequired, Msg: "invalid email or password"}

// Signup creates a USER account. Emails are stored lowercased and must be unique.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := checkPasswordStrength(in.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		ID:           utilities.NewID(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperr.Conflict("an account with this email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Infow("user signed up", "user_id", u.ID)
	return u, nil
}

func checkPasswordStrength(pw string) error {
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return apperr.Validation("password must contain an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords fail
// the same way; suspended accounts are refused.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errBadCredentials
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, errBadCredentials
	}
	if u.Suspended() {
		return nil, apperr.Forbidden("account %s is suspended", u.ID)
	}
	return u, nil
}

// Get returns the user or NotFound.
func (s *Service) Get(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Suspend marks the target account suspended. Admin only.
func (s *Service) Suspend(ctx context.Context, actor identity.Identity, userID string) (*entity.User, error) {
	now := s.clock.Now().UTC()
	return s.setSuspended(ctx, actor, userID, &now)
}

// Unsuspend clears a suspension. Admin only.
func (s *Service) Unsuspend(ctx context.Context, actor identity.Identity, userID string) (*entity.User, error) {
	return s.setSuspended(ctx, actor, userID, nil)
}

func (s *Service) setSuspended(ctx context.Context, actor identity.Identity, userID string, at *time.Time) (*entity.User, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("user %s is not an admin", actor.UserID)
	}
	if at != nil && actor.UserID == userID {
		return nil, apperr.Validation("you cannot suspend your own account")
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	u, changed, err := s.store.SetSuspended(ctx, userID, at)
	if err != nil {
		return nil, fmt.Errorf("set suspended: %w", err)
	}
	if !changed {
		if at != nil {
			return nil, apperr.Conflict("user is already suspended")
		}
		return nil, apperr.Conflict("user is not suspended")
	}
	s.logger.Infow("user suspension changed", "user_id", userID, "suspended", at != nil, "by", actor.UserID)
	return u, nil
}
