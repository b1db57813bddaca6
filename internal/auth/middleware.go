package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

// UserLookup resolves the account behind a token. A missing account is an
// apperr NotFound.
type UserLookup interface {
	Get(ctx context.Context, id string) (*userentity.User, error)
}

// Middleware attaches the caller identity. Requests without an
// Authorization header pass through anonymous; a bad token, or a token for
// a missing or suspended account, is answered 401.
func Middleware(issuer *Issuer, users UserLookup, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearer(header)
			if !ok {
				httpx.WriteError(w, r, logger, apperr.Unauthenticated())
				return
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				logger.Debugw("token rejected", "path", r.URL.Path, "err", err)
				httpx.WriteError(w, r, logger, apperr.Unauthenticated())
				return
			}
			u, err := users.Get(r.Context(), claims.Subject)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				httpx.WriteError(w, r, logger, apperr.Unauthenticated())
				return
			case err != nil:
				httpx.WriteError(w, r, logger, err)
				return
			}
			if u.Suspended() {
				httpx.WriteError(w, r, logger, apperr.Unauthenticated())
				return
			}
			ctx := identity.WithIdentity(r.Context(), identity.Identity{UserID: u.ID, Role: u.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
