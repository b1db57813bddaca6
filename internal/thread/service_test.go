package thread

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap/zaptest"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	evententity "github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/memstore"
	rsvpentity "github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/thread/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

func user(id string) identity.Identity {
	return identity.Identity{UserID: id, Role: userentity.RoleUser}
}

func setup(t *testing.T) (*Service, *clockwork.FakeClock) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	for _, id := range []string{"host", "guest", "lurker"} {
		if err := store.CreateUser(ctx, &userentity.User{ID: id, Email: id + "@example.com", Name: strings.ToUpper(id[:1]) + id[1:], Role: userentity.RoleUser}); err != nil {
			t.Fatal(err)
		}
	}
	ev := &evententity.Event{
		ID:           "ev1",
		HostUserID:   "host",
		Title:        "Playground morning",
		StartAt:      clock.Now().Add(24 * time.Hour),
		DurationMins: 60,
		MaxAttendees: 5,
		Status:       evententity.StatusActive,
		CreatedAt:    clock.Now(),
	}
	th := &entity.Thread{ID: "th1", EventID: "ev1", CreatedAt: clock.Now()}
	if err := store.CreateEvent(ctx, ev, th, nil, time.Time{}, 0); err != nil {
		t.Fatal(err)
	}
	now := clock.Now()
	if _, err := store.ApplyGoing(ctx, &rsvpentity.RSVP{ID: "r1", EventID: "ev1", UserID: "guest", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	return NewService(store, nil, clock, zaptest.NewLogger(t).Sugar()), clock
}

func TestPostAndRead(t *testing.T) {
	svc, clock := setup(t)
	ctx := context.Background()

	m, err := svc.PostMessage(ctx, user("host"), "th1", MessageInput{Body: "  See you at the slide!  "})
	if err != nil {
		t.Fatalf("host post: %v", err)
	}
	if m.Body != "See you at the slide!" || m.Sender.Name != "Host" {
		t.Fatalf("unexpected message %+v", m)
	}
	clock.Advance(time.Minute)
	if _, err := svc.PostMessage(ctx, user("guest"), "th1", MessageInput{Body: "We'll bring chalk"}); err != nil {
		t.Fatalf("guest post: %v", err)
	}

	v, err := svc.GetByEvent(ctx, user("guest"), "ev1")
	if err != nil {
		t.Fatal(err)
	}
	if v.ID != "th1" || v.Event.Title != "Playground morning" || len(v.Messages) != 2 {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.Messages[0].SenderUserID != "host" || v.Messages[1].Sender.Name != "Guest" {
		t.Fatalf("messages out of order: %+v", v.Messages)
	}
}

func TestMembershipRequired(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.GetByEvent(ctx, user("lurker"), "ev1"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-member read = %v", err)
	}
	if _, err := svc.PostMessage(ctx, user("lurker"), "th1", MessageInput{Body: "hi"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-member post = %v", err)
	}
	if _, err := svc.GetByEvent(ctx, identity.Identity{}, "ev1"); !errors.Is(err, apperr.ErrAuthenticationRequired) {
		t.Fatalf("anonymous read = %v", err)
	}
	if _, err := svc.GetByEvent(ctx, user("host"), ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("missing event id = %v", err)
	}
	if _, err := svc.GetByEvent(ctx, user("host"), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown event = %v", err)
	}
	if _, err := svc.PostMessage(ctx, user("host"), "nope", MessageInput{Body: "hi"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown thread = %v", err)
	}
}

func TestMessageBodyRules(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	cases := []struct {
		name string
		body string
		want error
	}{
		{"empty", "   ", apperr.ErrValidation},
		{"too long", strings.Repeat("a", 1001), apperr.ErrValidation},
		{"profane", "this is bullshit", apperr.ErrModerationBlocked},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := svc.PostMessage(ctx, user("guest"), "th1", MessageInput{Body: c.body}); !errors.Is(err, c.want) {
				t.Fatalf("got %v, want %v", err, c.want)
			}
		})
	}
	if _, err := svc.PostMessage(ctx, user("guest"), "th1", MessageInput{Body: strings.Repeat("a", 1000)}); err != nil {
		t.Fatalf("max length body: %v", err)
	}
}
