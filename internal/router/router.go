package router

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/auth"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/block"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/event"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/feedback"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/moderation"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/profile"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/thread"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/user"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/utilities"
)

// Store is everything the services persist. Both the postgres repos and
// memstore satisfy it.
type Store interface {
	user.Store
	profile.Store
	event.Store
	event.BlockReader
	rsvp.Store
	moderation.QueueStore
	block.Store
	feedback.Store
	thread.Store
}

// Config collects the per-service settings.
type Config struct {
	Auth           auth.Config
	Events         event.Config
	Profiles       profile.Config
	AllowedOrigins []string
	// Hasher and Clock default to bcrypt and the wall clock.
	Hasher user.PasswordHasher
	Clock  clockwork.Clock
}

// ConfigFromEnv reads the service configs plus CORS_ALLOWED_ORIGINS, a
// comma separated list.
func ConfigFromEnv() Config {
	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return Config{
		Auth:           auth.ConfigFromEnv(),
		Events:         event.ConfigFromEnv(),
		Profiles:       profile.ConfigFromEnv(),
		AllowedOrigins: origins,
	}
}

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware logs each request at debug level, 5xx responses at warn.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			log := logger.Debugw
			if status >= http.StatusInternalServerError {
				log = logger.Warnw
			}
			log("http request",
				"request_id", lrw.Header().Get("X-Request-ID"),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RequestIDMiddleware keeps the caller's X-Request-ID or mints a ksuid and
// sets it on the response, where the request and error logs pick it up.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if id == "" || len(id) > 64 {
				id = utilities.NewKSUID()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			// location comes from the client payload, never from the browser API
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none';")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware allows the configured browser origins. With none
// configured, cross-origin requests get no CORS headers.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         600,
	})
	return c.Handler
}

// RegisterRoutes builds every service over store and mounts the HTTP API.
func RegisterRoutes(logger *zap.SugaredLogger, store Store, cfg Config) (http.Handler, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	issuer, err := auth.NewIssuer(cfg.Auth, clock)
	if err != nil {
		return nil, err
	}
	engine := moderation.DefaultEngine()

	users := user.NewService(store, cfg.Hasher, clock, logger)
	profiles := profile.NewService(store, cfg.Profiles, clock, logger)
	events := event.NewService(store, store, store, store, engine, cfg.Events, clock, logger)
	rsvps := rsvp.NewService(store, clock, logger)
	queue := moderation.NewQueue(store, store, clock, logger)
	blocks := block.NewService(store, clock, logger)
	feedbacks := feedback.NewService(store, clock, logger)
	threads := thread.NewService(store, engine, clock, logger)

	authH := auth.NewHandler(issuer, users, logger)
	userH := user.NewHandler(users, logger)
	profileH := profile.NewHandler(profiles, users, logger)
	eventH := event.NewHandler(events, logger)
	rsvpH := rsvp.NewHandler(rsvps, logger)
	modH := moderation.NewHandler(queue, logger)
	blockH := block.NewHandler(blocks, logger)
	feedbackH := feedback.NewHandler(feedbacks, logger)
	threadH := thread.NewHandler(threads, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// accounts
	mux.HandleFunc("POST /api/auth/sign-up", userH.Signup)
	mux.HandleFunc("POST /api/auth/sign-in", authH.SignIn)
	mux.HandleFunc("GET /api/me", profileH.Me)
	mux.HandleFunc("POST /api/onboarding", profileH.Onboard)
	mux.HandleFunc("PATCH /api/profile/settings", profileH.UpdateSettings)
	mux.HandleFunc("POST /api/verify/email", profileH.VerifyEmail)
	mux.HandleFunc("POST /api/verify/phone", profileH.VerifyPhone)

	// events
	mux.HandleFunc("GET /api/events", eventH.List)
	mux.HandleFunc("POST /api/events", eventH.Create)
	mux.HandleFunc("GET /api/events/{id}", eventH.Get)
	mux.HandleFunc("PATCH /api/events/{id}", eventH.Update)
	mux.HandleFunc("POST /api/events/{id}/cancel", eventH.Cancel)
	mux.HandleFunc("POST /api/events/{id}/rsvp", rsvpH.Apply)
	mux.HandleFunc("DELETE /api/events/{id}/rsvp", rsvpH.Cancel)
	mux.HandleFunc("POST /api/events/{id}/checkin", rsvpH.CheckIn)
	mux.HandleFunc("GET /api/events/{id}/rsvps", rsvpH.ListAttendees)

	// community
	mux.HandleFunc("GET /api/threads", threadH.GetByEvent)
	mux.HandleFunc("POST /api/threads/{id}/messages", threadH.PostMessage)
	mux.HandleFunc("POST /api/blocks", blockH.Create)
	mux.HandleFunc("POST /api/reports", modH.CreateReport)
	mux.HandleFunc("POST /api/feedback", feedbackH.Submit)

	// admin
	mux.HandleFunc("GET /api/admin/reports", modH.ListReports)
	mux.HandleFunc("POST /api/admin/reports/{id}/resolve", modH.ResolveReport)
	mux.HandleFunc("GET /api/admin/flags", modH.ListFlags)
	mux.HandleFunc("POST /api/admin/users/{id}/suspend", userH.Suspend)
	mux.HandleFunc("POST /api/admin/users/{id}/unsuspend", userH.Unsuspend)
	mux.HandleFunc("POST /api/admin/events/{id}/remove", eventH.Remove)

	var handler http.Handler = mux
	handler = auth.Middleware(issuer, users, logger)(handler)
	handler = SecurityHeadersMiddleware()(handler)
	handler = CORSMiddleware(cfg.AllowedOrigins)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	return handler, nil
}
