package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	blockrepo "github.com/ovaphlow/pitchfork/service-meetup/internal/block/repo"
	eventrepo "github.com/ovaphlow/pitchfork/service-meetup/internal/event/repo"
	feedbackrepo "github.com/ovaphlow/pitchfork/service-meetup/internal/feedback/repo"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/memstore"
	moderationrepo "github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/repo"
	profilerepo "github.com/ovaphlow/pitchfork/service-meetup/internal/profile/repo"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/router"
	rsvprepo "github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/repo"
	threadrepo "github.com/ovaphlow/pitchfork/service-meetup/internal/thread/repo"
	userrepo "github.com/ovaphlow/pitchfork/service-meetup/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/utilities"
)

// pgStore joins the per-table repos into one router.Store.
type pgStore struct {
	*userrepo.UserRepo
	*profilerepo.ProfileRepo
	*eventrepo.EventRepo
	*rsvprepo.RSVPRepo
	*moderationrepo.ModerationRepo
	*blockrepo.BlockRepo
	*feedbackrepo.FeedbackRepo
	*threadrepo.ThreadRepo
}

func newPGStore(db *sqlx.DB) *pgStore {
	return &pgStore{
		UserRepo:       userrepo.NewUserRepo(db),
		ProfileRepo:    profilerepo.NewProfileRepo(db),
		EventRepo:      eventrepo.NewEventRepo(db),
		RSVPRepo:       rsvprepo.NewRSVPRepo(db),
		ModerationRepo: moderationrepo.NewModerationRepo(db),
		BlockRepo:      blockrepo.NewBlockRepo(db),
		FeedbackRepo:   feedbackrepo.NewFeedbackRepo(db),
		ThreadRepo:     threadrepo.NewThreadRepo(db),
	}
}

func main() {
	// best-effort: a missing .env leaves the real environment as is
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-meetup")

	var (
		store router.Store
		db    *sqlx.DB
	)
	switch driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER"))); driver {
	case "", "postgres":
		sqlDB, err := database.Connect(database.ConfigFromEnv())
		if err != nil {
			sugar.Fatalf("db connect: %v", err)
		}
		if err := database.Migrate(sqlDB); err != nil {
			sugar.Fatalf("db migrate: %v", err)
		}
		db = sqlx.NewDb(sqlDB, "postgres")
		defer db.Close()
		store = newPGStore(db)
	case "memory":
		sugar.Warn("using in-memory store; data is lost on exit")
		store = memstore.New()
	default:
		sugar.Fatalf("unknown STORE_DRIVER %q", driver)
	}

	handler, err := router.RegisterRoutes(sugar, store, router.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("build routes: %v", err)
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("service is running", "addr", addr)

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	if db != nil {
		if err := db.PingContext(doneCtx); err != nil {
			sugar.Warnf("db ping on shutdown failed: %v", err)
		}
	}

	sugar.Info("goodbye")
}
