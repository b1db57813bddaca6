package thread

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) GetByEvent(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetByEvent(r.Context(), identity.FromContext(r.Context()), r.URL.Query().Get("eventId"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"thread": v})
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	m, err := h.svc.PostMessage(r.Context(), identity.FromContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"message": m})
}
