package moderation

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
)

// Handler exposes report filing and the admin queue.
type Handler struct {
	queue  *Queue
	logger *zap.SugaredLogger
}

func NewHandler(queue *Queue, logger *zap.SugaredLogger) *Handler {
	return &Handler{queue: queue, logger: logger}
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req ReportInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	rep, err := h.queue.CreateReport(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rep)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.queue.ListReports(r.Context(), identity.FromContext(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (h *Handler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.queue.ResolveReport(r.Context(), identity.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) ListFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := h.queue.ListFlags(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"flags": flags})
}
