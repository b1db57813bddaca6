package auth

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/httpx"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*userentity.User, error)
}

type Handler struct {
	issuer *Issuer
	users  Authenticator
	logger *zap.SugaredLogger
}

func NewHandler(issuer *Issuer, users Authenticator, logger *zap.SugaredLogger) *Handler {
	return &Handler{issuer: issuer, users: users, logger: logger}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int64            `json:"expires_in"`
	User        *userentity.User `json:"user"`
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	token, exp, err := h.issuer.Issue(u)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Infow("signed in", "user_id", u.ID)
	httpx.WriteJSON(w, http.StatusOK, signInResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(exp.Sub(h.issuer.clock.Now()) / time.Second),
		User:        u,
	})
}
