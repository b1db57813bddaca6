package event

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Fields
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	ev, err := h.svc.Create(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, ev)
}

// List serves discovery, or the caller's own events when myEvents=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	q := r.URL.Query()
	if q.Get("myEvents") == "true" {
		events, err := h.svc.ListMine(r.Context(), actor)
		if err != nil {
			httpx.WriteError(w, r, h.logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
		return
	}

	in, err := parseDiscover(q)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	events, err := h.svc.Discover(r.Context(), actor, in)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), identity.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req Patch
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	ev, err := h.svc.Update(r.Context(), identity.FromContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ev)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ev, err := h.svc.Cancel(r.Context(), identity.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ev)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	ev, err := h.svc.Remove(r.Context(), identity.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ev)
}

func parseDiscover(q url.Values) (DiscoverInput, error) {
	var (
		in  DiscoverInput
		err error
	)
	if in.Lat, err = floatParam(q, "lat"); err != nil {
		return in, err
	}
	if in.Lng, err = floatParam(q, "lng"); err != nil {
		return in, err
	}
	if in.RadiusMiles, err = floatParam(q, "radius_miles"); err != nil {
		return in, err
	}
	if in.StartAfter, err = timeParam(q, "start_after"); err != nil {
		return in, err
	}
	if in.StartBefore, err = timeParam(q, "start_before"); err != nil {
		return in, err
	}
	if in.AgeMin, err = intParam(q, "age_min"); err != nil {
		return in, err
	}
	if in.AgeMax, err = intParam(q, "age_max"); err != nil {
		return in, err
	}
	in.Category = q.Get("category")
	in.Setting = q.Get("setting")
	in.ScreenLightOnly = q.Get("screen_light") == "true"
	in.Tab = q.Get("tab")
	return in, nil
}

func floatParam(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.Validation("%s must be a number", name)
	}
	return &v, nil
}

func intParam(q url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be an integer", name)
	}
	return &v, nil
}

func timeParam(q url.Values, name string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Validation("%s must be an RFC 3339 timestamp", name)
	}
	return &v, nil
}
