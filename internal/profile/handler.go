package profile

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/profile/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

// UserGetter resolves the account shown by GET /api/me.
type UserGetter interface {
	Get(ctx context.Context, id string) (*userentity.User, error)
}

type Handler struct {
	svc    *Service
	users  UserGetter
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, users UserGetter, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, users: users, logger: logger}
}

type meResponse struct {
	User    *userentity.User `json:"user"`
	Profile *entity.Profile  `json:"profile"`
}

// Me returns the caller's account and profile; profile is null before onboarding.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := identity.FromContext(r.Context())
	if !id.Authenticated() {
		httpx.WriteError(w, r, h.logger, apperr.Unauthenticated())
		return
	}
	u, err := h.users.Get(r.Context(), id.UserID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	p, err := h.svc.Get(r.Context(), id.UserID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meResponse{User: u, Profile: p})
}

func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req OnboardInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	p, err := h.svc.Onboard(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	p, err := h.svc.UpdateSettings(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.VerifyEmail(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

type verifyPhoneRequest struct {
	Code string `json:"code"`
}

func (h *Handler) VerifyPhone(w http.ResponseWriter, r *http.Request) {
	var req verifyPhoneRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	p, err := h.svc.VerifyPhone(r.Context(), identity.FromContext(r.Context()), req.Code)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
