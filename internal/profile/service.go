package profile

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/profile/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/validate"
)

// Config holds profile verification settings.
type Config struct {
	// PhoneCode is the code accepted by phone verification until an SMS
	// provider is wired in.
	PhoneCode string
}

// ConfigFromEnv reads PHONE_VERIFICATION_CODE (default 123456).
func ConfigFromEnv() Config {
	code := strings.TrimSpace(os.Getenv("PHONE_VERIFICATION_CODE"))
	if code == "" {
		code = "123456"
	}
	return Config{PhoneCode: code}
}

// Store is the persistence contract for profiles. UpdateProfile runs fn
// against a locked copy and persists it only when fn returns nil.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
	UpsertProfile(ctx context.Context, p *entity.Profile) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, userID string, fn func(*entity.Profile) error) (*entity.Profile, error)
}

type Service struct {
	store  Store
	cfg    Config
	clock  clockwork.Clock
	logger *zap.SugaredLogger
}

func NewService(store Store, cfg Config, clock clockwork.Clock, logger *zap.SugaredLogger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.PhoneCode == "" {
		cfg.PhoneCode = "123456"
	}
	return &Service{store: store, cfg: cfg, clock: clock, logger: logger}
}

// OnboardInput is the onboarding payload.
type OnboardInput struct {
	City          string   `json:"city" validate:"min=2,max=100"`
	Lat           *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng           *float64 `json:"lng" validate:"required,min=-180,max=180"`
	RadiusMiles   float64  `json:"radius_miles" validate:"min=1,max=50"`
	Interests     []string `json:"interests" validate:"min=1,max=10,dive,required"`
	KidsAgeRanges []string `json:"kids_age_ranges" validate:"min=1,max=5,dive,required"`
}

// Onboard creates or replaces the caller's onboarding answers. Verification
// state and the trust score are kept on re-onboarding.
func (s *Service) Onboard(ctx context.Context, actor identity.Identity, in OnboardInput) (*entity.Profile, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	in.City = strings.TrimSpace(in.City)
	in.Interests = trimAll(in.Interests)
	in.KidsAgeRanges = trimAll(in.KidsAgeRanges)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	p, err := s.store.UpsertProfile(ctx, &entity.Profile{
		UserID:        actor.UserID,
		City:          in.City,
		Lat:           *in.Lat,
		Lng:           *in.Lng,
		RadiusMiles:   in.RadiusMiles,
		Interests:     in.Interests,
		KidsAgeRanges: in.KidsAgeRanges,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	s.logger.Infow("profile onboarded", "user_id", actor.UserID, "city", p.City)
	return p, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

// SettingsInput is a partial update; nil fields are left unchanged.
type SettingsInput struct {
	ScreenLightMode *bool    `json:"screen_light_mode"`
	RadiusMiles     *float64 `json:"radius_miles" validate:"omitempty,min=1,max=50"`
}

func (s *Service) UpdateSettings(ctx context.Context, actor identity.Identity, in SettingsInput) (*entity.Profile, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	return s.update(ctx, actor.UserID, func(p *entity.Profile) error {
		if in.ScreenLightMode != nil {
			p.ScreenLightMode = *in.ScreenLightMode
		}
		if in.RadiusMiles != nil {
			p.RadiusMiles = *in.RadiusMiles
		}
		return nil
	})
}

// VerifyEmail stamps the email verification and recomputes the trust score.
func (s *Service) VerifyEmail(ctx context.Context, actor identity.Identity) (*entity.Profile, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	p, err := s.update(ctx, actor.UserID, func(p *entity.Profile) error {
		if p.EmailVerifiedAt != nil {
			return apperr.Conflict("email is already verified")
		}
		now := s.clock.Now().UTC()
		p.EmailVerifiedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("email verified", "user_id", actor.UserID, "trust_score", p.TrustScore)
	return p, nil
}

// VerifyPhone checks code against the configured stub and stamps the phone
// verification.
func (s *Service) VerifyPhone(ctx context.Context, actor identity.Identity, code string) (*entity.Profile, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation("code is required")
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(s.cfg.PhoneCode)) != 1 {
		return nil, apperr.Validation("invalid verification code")
	}
	p, err := s.update(ctx, actor.UserID, func(p *entity.Profile) error {
		if p.PhoneVerifiedAt != nil {
			return apperr.Conflict("phone is already verified")
		}
		now := s.clock.Now().UTC()
		p.PhoneVerifiedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("phone verified", "user_id", actor.UserID, "trust_score", p.TrustScore)
	return p, nil
}

// Get returns the profile for userID or NotFound.
func (s *Service) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("complete onboarding first")
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// update wraps every profile write so the trust score is recomputed from
// the stored timestamps in the same locked step.
func (s *Service) update(ctx context.Context, userID string, fn func(*entity.Profile) error) (*entity.Profile, error) {
	p, err := s.store.UpdateProfile(ctx, userID, func(p *entity.Profile) error {
		if err := fn(p); err != nil {
			return err
		}
		p.TrustScore = ComputeTrustScore(p.EmailVerifiedAt, p.PhoneVerifiedAt, p.IDVerifiedAt)
		p.UpdatedAt = s.clock.Now().UTC()
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("complete onboarding first")
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}
