package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	evententity "github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/validate"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/utilities"
)

const flagListLimit = 200

// QueueStore persists flags and reports. ResolveReport only changes an OPEN
// report and reports whether it did.
type QueueStore interface {
	CreateFlag(ctx context.Context, f *entity.Flag) error
	ListFlags(ctx context.Context, limit int) ([]entity.Flag, error)
	CreateReport(ctx context.Context, r *entity.Report) error
	GetReport(ctx context.Context, id string) (*entity.Report, error)
	ListReports(ctx context.Context, status entity.ReportStatus) ([]entity.Report, error)
	ResolveReport(ctx context.Context, id, actorID string, at time.Time) (*entity.Report, bool, error)
}

// TargetLookup confirms report targets exist.
type TargetLookup interface {
	GetUser(ctx context.Context, id string) (*userentity.User, error)
	GetEvent(ctx context.Context, id string) (*evententity.Event, error)
}

// Queue is the admin-facing moderation queue.
type Queue struct {
	store   QueueStore
	targets TargetLookup
	clock   clockwork.Clock
	logger  *zap.SugaredLogger
}

func NewQueue(store QueueStore, targets TargetLookup, clock clockwork.Clock, logger *zap.SugaredLogger) *Queue {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Queue{store: store, targets: targets, clock: clock, logger: logger}
}

// RecordFlag appends a flag. No deduplication.
func (q *Queue) RecordFlag(ctx context.Context, targetType entity.TargetType, targetID string, rule entity.Rule) (*entity.Flag, error) {
	f := NewFlag(targetType, targetID, rule, q.clock.Now().UTC())
	if err := q.store.CreateFlag(ctx, &f); err != nil {
		return nil, fmt.Errorf("create flag: %w", err)
	}
	q.logger.Infow("content flagged", "target_type", targetType, "target_id", targetID, "rule", rule)
	return &f, nil
}

// NewFlag builds a flag row for callers that persist it inside their own
// transaction.
func NewFlag(targetType entity.TargetType, targetID string, rule entity.Rule, at time.Time) entity.Flag {
	return entity.Flag{ID: utilities.NewID(), TargetType: targetType, TargetID: targetID, Rule: rule, CreatedAt: at}
}

func (q *Queue) ListFlags(ctx context.Context, actor identity.Identity) ([]entity.Flag, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	flags, err := q.store.ListFlags(ctx, flagListLimit)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	return flags, nil
}

// ReportInput is the report payload.
type ReportInput struct {
	TargetType string `json:"target_type" validate:"oneof=USER EVENT"`
	TargetID   string `json:"target_id" validate:"required"`
	Reason     string `json:"reason" validate:"oneof=HARASSMENT HATE UNSAFE SPAM POLITICS OTHER"`
	Notes      string `json:"notes" validate:"max=500"`
}

// CreateReport files an OPEN report against an existing user or event.
func (q *Queue) CreateReport(ctx context.Context, actor identity.Identity, in ReportInput) (*entity.Report, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	in.TargetID = strings.TrimSpace(in.TargetID)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	targetType := entity.TargetType(in.TargetType)
	if err := q.checkTarget(ctx, targetType, in.TargetID); err != nil {
		return nil, err
	}
	r := &entity.Report{
		ID:             utilities.NewID(),
		ReporterUserID: actor.UserID,
		TargetType:     targetType,
		TargetID:       in.TargetID,
		Reason:         entity.Reason(in.Reason),
		Notes:          in.Notes,
		Status:         entity.ReportOpen,
		CreatedAt:      q.clock.Now().UTC(),
	}
	if err := q.store.CreateReport(ctx, r); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	q.logger.Infow("report filed", "report_id", r.ID, "target_type", r.TargetType, "target_id", r.TargetID, "reason", r.Reason)
	return r, nil
}

func (q *Queue) checkTarget(ctx context.Context, t entity.TargetType, id string) error {
	var err error
	switch t {
	case entity.TargetUser:
		_, err = q.targets.GetUser(ctx, id)
	case entity.TargetEvent:
		_, err = q.targets.GetEvent(ctx, id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("report target not found")
	}
	if err != nil {
		return fmt.Errorf("lookup report target: %w", err)
	}
	return nil
}

// ListReports lists reports newest first, optionally filtered by status.
func (q *Queue) ListReports(ctx context.Context, actor identity.Identity, status string) ([]entity.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	st := entity.ReportStatus(strings.ToUpper(strings.TrimSpace(status)))
	if st != "" && st != entity.ReportOpen && st != entity.ReportResolved {
		return nil, apperr.Validation("status must be one of: OPEN, RESOLVED")
	}
	reports, err := q.store.ListReports(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ResolveReport moves an OPEN report to RESOLVED. Resolving twice is a Conflict.
func (q *Queue) ResolveReport(ctx context.Context, actor identity.Identity, id string) (*entity.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := q.store.GetReport(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("report not found")
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	r, changed, err := q.store.ResolveReport(ctx, id, actor.UserID, q.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve report: %w", err)
	}
	if !changed {
		return nil, apperr.Conflict("report is already resolved")
	}
	q.logger.Infow("report resolved", "report_id", id, "by", actor.UserID)
	return r, nil
}

func requireAdmin(actor identity.Identity) error {
	if !actor.Authenticated() {
		return apperr.Unauthenticated()
	}
	if !actor.IsAdmin() {
		return apperr.Forbidden("user %s is not an admin", actor.UserID)
	}
	return nil
}
