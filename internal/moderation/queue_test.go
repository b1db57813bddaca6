package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap/zaptest"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

func newTestQueue(t *testing.T) (*Queue, *clockwork.FakeClock) {
	t.Helper()
	store := memstore.New()
	for _, u := range []userentity.User{
		{ID: "admin", Email: "admin@example.com", Name: "Admin", Role: userentity.RoleAdmin},
		{ID: "alice", Email: "alice@example.com", Name: "Alice", Role: userentity.RoleUser},
		{ID: "bob", Email: "bob@example.com", Name: "Bob", Role: userentity.RoleUser},
	} {
		if err := store.CreateUser(context.Background(), &u); err != nil {
			t.Fatal(err)
		}
	}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	return NewQueue(store, store, clock, zaptest.NewLogger(t).Sugar()), clock
}

var (
	admin = identity.Identity{UserID: "admin", Role: userentity.RoleAdmin}
	alice = identity.Identity{UserID: "alice", Role: userentity.RoleUser}
)

func TestReportLifecycle(t *testing.T) {
	q, clock := newTestQueue(t)
	ctx := context.Background()

	first, err := q.CreateReport(ctx, alice, ReportInput{TargetType: "USER", TargetID: "bob", Reason: "HARASSMENT", Notes: " rude "})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if first.Status != entity.ReportOpen || first.Notes != "rude" {
		t.Fatalf("unexpected report %+v", first)
	}
	clock.Advance(time.Minute)
	second, err := q.CreateReport(ctx, alice, ReportInput{TargetType: "USER", TargetID: "bob", Reason: "SPAM"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := q.ListReports(ctx, alice, ""); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-admin list = %v", err)
	}
	reports, err := q.ListReports(ctx, admin, "open")
	if err != nil || len(reports) != 2 || reports[0].ID != second.ID {
		t.Fatalf("ListReports = %+v, %v", reports, err)
	}

	if _, err := q.ResolveReport(ctx, alice, first.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-admin resolve = %v", err)
	}
	resolved, err := q.ResolveReport(ctx, admin, first.ID)
	if err != nil || resolved.Status != entity.ReportResolved || resolved.ResolvedByUserID == nil || *resolved.ResolvedByUserID != "admin" {
		t.Fatalf("ResolveReport = %+v, %v", resolved, err)
	}
	if _, err := q.ResolveReport(ctx, admin, first.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second resolve = %v", err)
	}
	if _, err := q.ResolveReport(ctx, admin, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing report = %v", err)
	}

	open, _ := q.ListReports(ctx, admin, "OPEN")
	if len(open) != 1 || open[0].ID != second.ID {
		t.Fatalf("open reports = %+v", open)
	}
}

func TestCreateReportValidation(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	cases := []struct {
		name string
		in   ReportInput
		want error
	}{
		{"bad target type", ReportInput{TargetType: "THREAD", TargetID: "bob", Reason: "SPAM"}, apperr.ErrValidation},
		{"bad reason", ReportInput{TargetType: "USER", TargetID: "bob", Reason: "BORING"}, apperr.ErrValidation},
		{"notes too long", ReportInput{TargetType: "USER", TargetID: "bob", Reason: "SPAM", Notes: string(long)}, apperr.ErrValidation},
		{"missing user", ReportInput{TargetType: "USER", TargetID: "ghost", Reason: "SPAM"}, apperr.ErrNotFound},
		{"missing event", ReportInput{TargetType: "EVENT", TargetID: "ghost", Reason: "UNSAFE"}, apperr.ErrNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := q.CreateReport(ctx, alice, c.in); !errors.Is(err, c.want) {
				t.Fatalf("got %v, want %v", err, c.want)
			}
		})
	}
	if _, err := q.CreateReport(ctx, identity.Identity{}, cases[0].in); !errors.Is(err, apperr.ErrAuthenticationRequired) {
		t.Fatalf("anonymous report = %v", err)
	}
}

func TestFlagsNewestFirst(t *testing.T) {
	q, clock := newTestQueue(t)
	ctx := context.Background()
	if _, err := q.RecordFlag(ctx, entity.TargetEvent, "e1", entity.RulePolitics); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if _, err := q.RecordFlag(ctx, entity.TargetEvent, "e1", entity.RulePolitics); err != nil {
		t.Fatal(err)
	}
	flags, err := q.ListFlags(ctx, admin)
	if err != nil || len(flags) != 2 || !flags[0].CreatedAt.After(flags[1].CreatedAt) {
		t.Fatalf("ListFlags = %+v, %v", flags, err)
	}
	if _, err := q.ListFlags(ctx, alice); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("non-admin flags = %v", err)
	}
}
