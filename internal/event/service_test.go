package event

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap/zaptest"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	blockentity "github.com/ovaphlow/pitchfork/service-meetup/internal/block/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/memstore"
	moderationentity "github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
	profileentity "github.com/ovaphlow/pitchfork/service-meetup/internal/profile/entity"
	rsvpentity "github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

const (
	homeLat = 40.0
	homeLng = -75.0
)

type harness struct {
	store *memstore.Store
	clock *clockwork.FakeClock
	svc   *Service
}

type seedUser struct {
	id            string
	role          userentity.Role
	emailVerified bool
	phoneVerified bool
	interests     []string
}

func newHarness(t *testing.T, users ...seedUser) *harness {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	now := clock.Now()
	for _, su := range users {
		role := su.role
		if role == "" {
			role = userentity.RoleUser
		}
		u := &userentity.User{ID: su.id, Email: su.id + "@example.com", Name: strings.ToUpper(su.id[:1]) + su.id[1:], Role: role, CreatedAt: now}
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
		p := &profileentity.Profile{UserID: su.id, City: "Springfield", Lat: homeLat, Lng: homeLng, RadiusMiles: 10, Interests: su.interests, CreatedAt: now, UpdatedAt: now}
		if su.emailVerified {
			p.EmailVerifiedAt = &now
			p.TrustScore += 10
		}
		if su.phoneVerified {
			p.PhoneVerifiedAt = &now
			p.TrustScore += 20
		}
		if _, err := store.UpsertProfile(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	svc := NewService(store, store, store, store, nil, Config{QuotaLocation: time.UTC}, clock, zaptest.NewLogger(t).Sugar())
	return &harness{store: store, clock: clock, svc: svc}
}

func who(id string) identity.Identity {
	return identity.Identity{UserID: id, Role: userentity.RoleUser}
}

func ptr[T any](v T) *T { return &v }

func (h *harness) fields(title string, lat, lng float64) Fields {
	return Fields{
		Title:                title,
		Description:          "Bring snacks and water, we will meet by the big oak tree.",
		Category:             "WALK",
		StartAt:              ptr(h.clock.Now().Add(72 * time.Hour)),
		DurationMins:         60,
		Setting:              "OUTDOOR",
		AgeMin:               ptr(2),
		AgeMax:               ptr(6),
		MaxAttendees:         10,
		LocationLabelPublic:  "Riverside Park",
		LocationNotesPrivate: "North gate, blue bench",
		Lat:                  ptr(lat),
		Lng:                  ptr(lng),
	}
}

func (h *harness) create(t *testing.T, host, title string, lat, lng float64) *entity.Event {
	t.Helper()
	ev, err := h.svc.Create(context.Background(), who(host), h.fields(title, lat, lng))
	if err != nil {
		t.Fatalf("Create(%q): %v", title, err)
	}
	return ev
}

func (h *harness) going(t *testing.T, eventID, userID string) {
	t.Helper()
	now := h.clock.Now()
	_, err := h.store.ApplyGoing(context.Background(), &rsvpentity.RSVP{ID: eventID + userID, EventID: eventID, UserID: userID, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCreateQuotaPhoneVerified(t *testing.T) {
	h := newHarness(t, seedUser{id: "pat", emailVerified: true, phoneVerified: true})
	for i := 0; i < 3; i++ {
		h.create(t, "pat", "Morning stroller walk", homeLat, homeLng)
	}
	_, err := h.svc.Create(context.Background(), who("pat"), h.fields("Morning stroller walk", homeLat, homeLng))
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("fourth create = %v, want rate limited", err)
	}
	if strings.Contains(apperr.PublicMessage(err), "Verify your phone") {
		t.Fatalf("phone-verified host told to verify phone: %q", apperr.PublicMessage(err))
	}
}

func TestCreateQuotaUnverifiedResetsAtMidnight(t *testing.T) {
	h := newHarness(t, seedUser{id: "uma", emailVerified: true})
	h.create(t, "uma", "Library story hour", homeLat, homeLng)

	_, err := h.svc.Create(context.Background(), who("uma"), h.fields("Library story hour", homeLat, homeLng))
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("second create = %v, want rate limited", err)
	}
	if msg := apperr.PublicMessage(err); !strings.Contains(msg, "at most 1 event(s)") || !strings.Contains(msg, "Verify your phone") {
		t.Fatalf("unexpected quota message %q", msg)
	}

	h.clock.Advance(14 * time.Hour)
	h.create(t, "uma", "Library story hour", homeLat, homeLng)
}

func TestCreateAdminUnlimited(t *testing.T) {
	h := newHarness(t, seedUser{id: "ada", role: userentity.RoleAdmin, emailVerified: true})
	admin := identity.Identity{UserID: "ada", Role: userentity.RoleAdmin}
	for i := 0; i < 5; i++ {
		if _, err := h.svc.Create(context.Background(), admin, h.fields("Community clean up", homeLat, homeLng)); err != nil {
			t.Fatalf("admin create %d: %v", i, err)
		}
	}
}

func TestCreateGating(t *testing.T) {
	h := newHarness(t, seedUser{id: "nova"})
	ctx := context.Background()

	if _, err := h.svc.Create(ctx, identity.Identity{}, h.fields("Park playdate", homeLat, homeLng)); !errors.Is(err, apperr.ErrAuthenticationRequired) {
		t.Fatalf("anonymous create = %v", err)
	}
	_, err := h.svc.Create(ctx, who("nova"), h.fields("Park playdate", homeLat, homeLng))
	if !errors.Is(err, apperr.ErrForbidden) || apperr.Status(err) != 403 {
		t.Fatalf("unverified email create = %v", err)
	}
	if msg := apperr.PublicMessage(err); !strings.Contains(msg, "email verification required") {
		t.Fatalf("verification message hidden: %q", msg)
	}
	if _, err := h.svc.Create(ctx, who("ghost"), h.fields("Park playdate", homeLat, homeLng)); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("create without profile = %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t, seedUser{id: "val", emailVerified: true, phoneVerified: true})
	ctx := context.Background()
	cases := []struct {
		name   string
		mutate func(f *Fields)
	}{
		{"short title", func(f *Fields) { f.Title = "Walk" }},
		{"short description", func(f *Fields) { f.Description = "too short" }},
		{"bad category", func(f *Fields) { f.Category = "PARTY" }},
		{"past start", func(f *Fields) { f.StartAt = ptr(h.clock.Now().Add(-time.Hour)) }},
		{"start now", func(f *Fields) { f.StartAt = ptr(h.clock.Now()) }},
		{"missing start", func(f *Fields) { f.StartAt = nil }},
		{"short duration", func(f *Fields) { f.DurationMins = 10 }},
		{"bad setting", func(f *Fields) { f.Setting = "SPACE" }},
		{"age order", func(f *Fields) { f.AgeMin, f.AgeMax = ptr(9), ptr(3) }},
		{"age range", func(f *Fields) { f.AgeMax = ptr(18) }},
		{"too many attendees", func(f *Fields) { f.MaxAttendees = 51 }},
		{"too few attendees", func(f *Fields) { f.MaxAttendees = 1 }},
		{"short label", func(f *Fields) { f.LocationLabelPublic = "Pk" }},
		{"long notes", func(f *Fields) { f.LocationNotesPrivate = strings.Repeat("x", 301) }},
		{"missing lat", func(f *Fields) { f.Lat = nil }},
		{"bad lng", func(f *Fields) { f.Lng = ptr(181.0) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := h.fields("Saturday soccer kickabout", homeLat, homeLng)
			c.mutate(&f)
			if _, err := h.svc.Create(ctx, who("val"), f); !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}

	f := h.fields("Saturday soccer kickabout", homeLat, homeLng)
	f.Setting = "both"
	ev, err := h.svc.Create(ctx, who("val"), f)
	if err != nil || ev.Setting != entity.SettingMixed {
		t.Fatalf("BOTH setting = %+v, %v", ev, err)
	}
}

func TestCreateModeration(t *testing.T) {
	h := newHarness(t, seedUser{id: "mod", emailVerified: true, phoneVerified: true})
	ctx := context.Background()

	_, err := h.svc.Create(ctx, who("mod"), h.fields("Fuck yeah playground day", homeLat, homeLng))
	if !errors.Is(err, apperr.ErrModerationBlocked) || !strings.Contains(apperr.PublicMessage(err), "fuck") {
		t.Fatalf("profane create = %v", err)
	}
	if len(h.store.Flags()) != 0 {
		t.Fatal("blocked content must not create flags")
	}

	ev := h.create(t, "mod", "MAGA meetup at the park", homeLat, homeLng)
	flags := h.store.Flags()
	if len(flags) != 1 {
		t.Fatalf("got %d flags, want 1", len(flags))
	}
	if f := flags[0]; f.TargetType != moderationentity.TargetEvent || f.TargetID != ev.ID || f.Rule != moderationentity.RulePolitics {
		t.Fatalf("unexpected flag %+v", f)
	}
	if ev.Status != entity.StatusActive {
		t.Fatalf("flagged event status = %s", ev.Status)
	}
}

func TestGetLocationNotesGating(t *testing.T) {
	h := newHarness(t,
		seedUser{id: "host", emailVerified: true},
		seedUser{id: "guest"},
		seedUser{id: "other"},
	)
	ctx := context.Background()
	ev := h.create(t, "host", "Crafts at the library", homeLat, homeLng)
	h.going(t, ev.ID, "guest")

	d, err := h.svc.Get(ctx, who("host"), ev.ID)
	if err != nil || d.LocationNotesPrivate == nil || *d.LocationNotesPrivate != "North gate, blue bench" {
		t.Fatalf("host view = %+v, %v", d, err)
	}
	d, err = h.svc.Get(ctx, who("guest"), ev.ID)
	if err != nil || d.LocationNotesPrivate == nil || d.UserRSVP == nil || d.UserRSVP.Status != rsvpentity.StatusGoing {
		t.Fatalf("going view = %+v, %v", d, err)
	}
	if d.GoingCount != 1 || d.Host.Name != "Host" || d.Host.TrustScore != 10 {
		t.Fatalf("listing fields = %+v", d.Listing)
	}
	for _, actor := range []identity.Identity{who("other"), {}} {
		d, err := h.svc.Get(ctx, actor, ev.ID)
		if err != nil || d.LocationNotesPrivate != nil || d.Event.LocationNotesPrivate != "" {
			t.Fatalf("notes leaked to %q: %+v, %v", actor.UserID, d, err)
		}
	}

	if _, _, err := h.store.SetCancelled(ctx, ev.ID, "guest", h.clock.Now()); err != nil {
		t.Fatal(err)
	}
	d, _ = h.svc.Get(ctx, who("guest"), ev.ID)
	if d.LocationNotesPrivate != nil {
		t.Fatal("notes shown after cancelling")
	}
	if _, err := h.svc.Get(ctx, who("guest"), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing event = %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	h := newHarness(t,
		seedUser{id: "host", emailVerified: true, phoneVerified: true},
		seedUser{id: "ada", role: userentity.RoleAdmin},
		seedUser{id: "rando"},
	)
	ctx := context.Background()
	admin := identity.Identity{UserID: "ada", Role: userentity.RoleAdmin}
	first := h.create(t, "host", "Indoor play morning", homeLat, homeLng)
	second := h.create(t, "host", "Sports day at the field", homeLat, homeLng)

	if _, err := h.svc.Cancel(ctx, who("rando"), first.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-host cancel = %v", err)
	}
	if _, err := h.svc.Remove(ctx, who("host"), first.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-admin remove = %v", err)
	}
	ev, err := h.svc.Cancel(ctx, who("host"), first.ID)
	if err != nil || ev.Status != entity.StatusCancelled {
		t.Fatalf("Cancel = %+v, %v", ev, err)
	}
	if _, err := h.svc.Cancel(ctx, who("host"), first.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second cancel = %v", err)
	}
	ev, err = h.svc.Remove(ctx, admin, first.ID)
	if err != nil || ev.Status != entity.StatusRemoved {
		t.Fatalf("remove cancelled = %+v, %v", ev, err)
	}
	if _, err := h.svc.Remove(ctx, admin, first.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second remove = %v", err)
	}
	if _, err := h.svc.Cancel(ctx, who("host"), first.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("cancel after removal = %v", err)
	}

	ev, err = h.svc.Remove(ctx, admin, second.ID)
	if err != nil || ev.Status != entity.StatusRemoved {
		t.Fatalf("Remove = %+v, %v", ev, err)
	}
	if _, err := h.svc.Cancel(ctx, who("host"), second.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("cancel removed = %v", err)
	}
	if _, err := h.svc.Update(ctx, who("host"), second.ID, Patch{Title: ptr("Sports day renamed")}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("update removed = %v", err)
	}
	if _, err := h.svc.Remove(ctx, admin, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("remove missing = %v", err)
	}
}

func TestUpdate(t *testing.T) {
	h := newHarness(t,
		seedUser{id: "host", emailVerified: true},
		seedUser{id: "a"}, seedUser{id: "b"}, seedUser{id: "c"},
	)
	ctx := context.Background()
	ev := h.create(t, "host", "Toddler park walk", homeLat, homeLng)
	for _, u := range []string{"a", "b", "c"} {
		h.going(t, ev.ID, u)
	}

	if _, err := h.svc.Update(ctx, who("a"), ev.ID, Patch{Title: ptr("Hijacked walk")}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-host update = %v", err)
	}
	if _, err := h.svc.Update(ctx, who("host"), ev.ID, Patch{MaxAttendees: ptr(2)}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("capacity below going = %v", err)
	}
	if _, err := h.svc.Update(ctx, who("host"), ev.ID, Patch{StartAt: ptr(h.clock.Now().Add(-time.Hour))}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("past start = %v", err)
	}
	if _, err := h.svc.Update(ctx, who("host"), ev.ID, Patch{Title: ptr("Damn good walk")}); !errors.Is(err, apperr.ErrModerationBlocked) {
		t.Fatalf("profane title = %v", err)
	}

	updated, err := h.svc.Update(ctx, who("host"), ev.ID, Patch{MaxAttendees: ptr(3), Title: ptr("Toddler walk for liberal parents")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.MaxAttendees != 3 || updated.Title != "Toddler walk for liberal parents" || updated.Description != ev.Description {
		t.Fatalf("unexpected update %+v", updated)
	}
	if flags := h.store.Flags(); len(flags) != 1 || flags[0].TargetID != ev.ID {
		t.Fatalf("re-moderation flags = %+v", flags)
	}

	// A started event can still be edited as long as the start is untouched.
	h.clock.Advance(73 * time.Hour)
	if _, err := h.svc.Update(ctx, who("host"), ev.ID, Patch{LocationLabelPublic: ptr("Riverside Park east")}); err != nil {
		t.Fatalf("edit after start: %v", err)
	}
}

func TestDiscoverRadiusAndSorting(t *testing.T) {
	h := newHarness(t,
		seedUser{id: "host", role: userentity.RoleAdmin, emailVerified: true},
		seedUser{id: "u1"}, seedUser{id: "u2"}, seedUser{id: "u3"},
	)
	ctx := context.Background()
	admin := identity.Identity{UserID: "host", Role: userentity.RoleAdmin}
	mk := func(title string, dLat float64) *entity.Event {
		ev, err := h.svc.Create(ctx, admin, h.fields(title, homeLat+dLat, homeLng))
		if err != nil {
			t.Fatal(err)
		}
		return ev
	}
	far := mk("Far away walk", 0.10)
	near := mk("Nearby walk here", 0.01)
	mid := mk("Middle distance walk", 0.05)
	mk("Out of range walk", 0.20)
	cancelled := mk("Cancelled walk", 0.02)
	if _, err := h.svc.Cancel(ctx, admin, cancelled.ID); err != nil {
		t.Fatal(err)
	}
	for _, u := range []string{"u1", "u2"} {
		h.going(t, far.ID, u)
	}
	h.going(t, mid.ID, "u3")

	in := DiscoverInput{Lat: ptr(homeLat), Lng: ptr(homeLng)}
	got, err := h.svc.Discover(ctx, identity.Identity{}, in)
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, near.ID, mid.ID, far.ID)
	for i := 1; i < len(got); i++ {
		if got[i].DistanceMiles < got[i-1].DistanceMiles {
			t.Fatal("nearby not sorted by distance")
		}
	}
	if got[0].DistanceLabel == "" || got[0].Host.Name == "" {
		t.Fatalf("summary missing fields: %+v", got[0])
	}

	in.Tab = "popular"
	got, err = h.svc.Discover(ctx, identity.Identity{}, in)
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, far.ID, mid.ID, near.ID)

	in = DiscoverInput{Lat: ptr(homeLat), Lng: ptr(homeLng), RadiusMiles: ptr(2.0)}
	got, _ = h.svc.Discover(ctx, identity.Identity{}, in)
	assertOrder(t, got, near.ID)
}

func TestDiscoverFilters(t *testing.T) {
	h := newHarness(t, seedUser{id: "host", role: userentity.RoleAdmin, emailVerified: true}, seedUser{id: "fan", interests: []string{"crafts"}})
	ctx := context.Background()
	admin := identity.Identity{UserID: "host", Role: userentity.RoleAdmin}

	walk := h.fields("Morning walk group", homeLat, homeLng)
	walkEv, err := h.svc.Create(ctx, admin, walk)
	if err != nil {
		t.Fatal(err)
	}
	craft := h.fields("Paper crafts afternoon", homeLat, homeLng)
	craft.Category = "CRAFTS"
	craft.Setting = "INDOOR"
	craft.AgeMin, craft.AgeMax = ptr(8), ptr(12)
	craft.ScreenLight = true
	craft.StartAt = ptr(h.clock.Now().Add(120 * time.Hour))
	craftEv, err := h.svc.Create(ctx, admin, craft)
	if err != nil {
		t.Fatal(err)
	}

	base := func() DiscoverInput { return DiscoverInput{Lat: ptr(homeLat), Lng: ptr(homeLng)} }
	cases := []struct {
		name string
		in   func() DiscoverInput
		want []string
	}{
		{"category", func() DiscoverInput { in := base(); in.Category = "crafts"; return in }, []string{craftEv.ID}},
		{"setting", func() DiscoverInput { in := base(); in.Setting = "OUTDOOR"; return in }, []string{walkEv.ID}},
		{"screen light", func() DiscoverInput { in := base(); in.ScreenLightOnly = true; return in }, []string{craftEv.ID}},
		{"age overlap", func() DiscoverInput { in := base(); in.AgeMin = ptr(7); return in }, []string{craftEv.ID}},
		{"age upper", func() DiscoverInput { in := base(); in.AgeMax = ptr(4); return in }, []string{walkEv.ID}},
		{"start before", func() DiscoverInput { in := base(); in.StartBefore = ptr(h.clock.Now().Add(96 * time.Hour)); return in }, []string{walkEv.ID}},
		{"start after", func() DiscoverInput { in := base(); in.StartAfter = ptr(h.clock.Now().Add(96 * time.Hour)); return in }, []string{craftEv.ID}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := h.svc.Discover(ctx, identity.Identity{}, c.in())
			if err != nil {
				t.Fatal(err)
			}
			assertOrder(t, got, c.want...)
		})
	}

	in := base()
	in.Tab = "foryou"
	got, err := h.svc.Discover(ctx, who("fan"), in)
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, craftEv.ID)
}

func TestDiscoverHidesBlockedHosts(t *testing.T) {
	h := newHarness(t,
		seedUser{id: "alice", emailVerified: true},
		seedUser{id: "bob", emailVerified: true},
		seedUser{id: "carol"},
	)
	ctx := context.Background()
	aliceEv := h.create(t, "alice", "Alice's playground hangout", homeLat, homeLng)
	bobEv := h.create(t, "bob", "Bob's library reading club", homeLat, homeLng)
	now := h.clock.Now()
	if err := h.store.CreateBlock(ctx, &blockentity.Block{ID: "b1", BlockerUserID: "alice", BlockedUserID: "bob", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}

	in := DiscoverInput{Lat: ptr(homeLat), Lng: ptr(homeLng)}
	got, _ := h.svc.Discover(ctx, who("alice"), in)
	assertOrder(t, got, aliceEv.ID)
	got, _ = h.svc.Discover(ctx, who("bob"), in)
	assertOrder(t, got, bobEv.ID)
	got, _ = h.svc.Discover(ctx, who("carol"), in)
	if len(got) != 2 {
		t.Fatalf("third party sees %d events, want 2", len(got))
	}
}

func TestDiscoverAcrossAntimeridian(t *testing.T) {
	h := newHarness(t, seedUser{id: "host", role: userentity.RoleAdmin, emailVerified: true})
	ctx := context.Background()
	admin := identity.Identity{UserID: "host", Role: userentity.RoleAdmin}
	east, err := h.svc.Create(ctx, admin, h.fields("Beach morning east", -17.0, 179.95))
	if err != nil {
		t.Fatal(err)
	}
	west, err := h.svc.Create(ctx, admin, h.fields("Beach morning west", -17.0, -179.95))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.Create(ctx, admin, h.fields("Far away crafts", -17.0, 178.0)); err != nil {
		t.Fatal(err)
	}

	for _, lng := range []float64{179.95, -179.95} {
		got, err := h.svc.Discover(ctx, admin, DiscoverInput{Lat: ptr(-17.0), Lng: ptr(lng), RadiusMiles: ptr(10.0)})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("from lng %v found %d events, want both sides of the date line", lng, len(got))
		}
		ids := map[string]bool{got[0].ID: true, got[1].ID: true}
		if !ids[east.ID] || !ids[west.ID] {
			t.Fatalf("from lng %v found %v", lng, ids)
		}
		for _, s := range got {
			if s.DistanceMiles > 10 {
				t.Fatalf("%s is %v mi away", s.ID, s.DistanceMiles)
			}
		}
	}
}

func TestDiscoverValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   DiscoverInput
	}{
		{"missing coords", DiscoverInput{}},
		{"bad lat", DiscoverInput{Lat: ptr(91.0), Lng: ptr(0.0)}},
		{"zero radius", DiscoverInput{Lat: ptr(0.0), Lng: ptr(0.0), RadiusMiles: ptr(0.0)}},
		{"huge radius", DiscoverInput{Lat: ptr(0.0), Lng: ptr(0.0), RadiusMiles: ptr(500.0)}},
		{"bad tab", DiscoverInput{Lat: ptr(0.0), Lng: ptr(0.0), Tab: "trending"}},
		{"bad category", DiscoverInput{Lat: ptr(0.0), Lng: ptr(0.0), Category: "PARTY"}},
		{"bad setting", DiscoverInput{Lat: ptr(0.0), Lng: ptr(0.0), Setting: "SPACE"}},
		{"age order", DiscoverInput{Lat: ptr(0.0), Lng: ptr(0.0), AgeMin: ptr(8), AgeMax: ptr(2)}},
		{"nan lat", DiscoverInput{Lat: ptr(math.NaN()), Lng: ptr(0.0)}},
		{"infinite lng", DiscoverInput{Lat: ptr(0.0), Lng: ptr(math.Inf(1))}},
		{"nan radius", DiscoverInput{Lat: ptr(0.0), Lng: ptr(0.0), RadiusMiles: ptr(math.NaN())}},
		{"infinite radius", DiscoverInput{Lat: ptr(0.0), Lng: ptr(0.0), RadiusMiles: ptr(math.Inf(1))}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := h.svc.Discover(ctx, identity.Identity{}, c.in); !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}
}

func TestListMine(t *testing.T) {
	h := newHarness(t,
		seedUser{id: "host", emailVerified: true},
		seedUser{id: "other", emailVerified: true, phoneVerified: true},
	)
	ctx := context.Background()
	hosted := h.create(t, "host", "Hosted playground meetup", homeLat, homeLng)
	attending := h.create(t, "other", "Other's library visit", homeLat, homeLng)
	h.going(t, attending.ID, "host")
	h.create(t, "other", "Unrelated sports morning", homeLat, homeLng)
	cancelled := h.create(t, "other", "Cancelled crafts hour", homeLat, homeLng)
	h.going(t, cancelled.ID, "host")
	if _, err := h.svc.Cancel(ctx, who("other"), cancelled.ID); err != nil {
		t.Fatal(err)
	}

	got, err := h.svc.ListMine(ctx, who("host"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	ids := map[string]bool{got[0].ID: true, got[1].ID: true}
	if !ids[hosted.ID] || !ids[attending.ID] {
		t.Fatalf("unexpected events %+v", got)
	}
	for _, l := range got {
		if l.LocationNotesPrivate != "" {
			t.Fatal("ListMine leaked private notes")
		}
	}
	if _, err := h.svc.ListMine(ctx, identity.Identity{}); !errors.Is(err, apperr.ErrAuthenticationRequired) {
		t.Fatalf("anonymous ListMine = %v", err)
	}
}

func assertOrder(t *testing.T, got []entity.Summary, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		ids := make([]string, len(got))
		for i, s := range got {
			ids[i] = s.ID
		}
		t.Fatalf("got events %v, want %v", ids, want)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, want[i])
		}
		if got[i].LocationNotesPrivate != "" {
			t.Fatal("discovery leaked private notes")
		}
	}
}
