package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
)

// ModerationRepo provides data access for flags and reports.
type ModerationRepo struct {
	db *sqlx.DB
}

func NewModerationRepo(db *sqlx.DB) *ModerationRepo { return &ModerationRepo{db: db} }

const reportColumns = `id, reporter_user_id, target_type, target_id, reason, notes, status, resolved_at, resolved_by_user_id, created_at`

func (r *ModerationRepo) CreateFlag(ctx context.Context, f *entity.Flag) error {
	_, err := r.db.NamedExecContext(ctx, InsertFlagSQL, f)
	return err
}

// InsertFlagSQL is shared with repositories that write flags inside their
// own transaction.
const InsertFlagSQL = `INSERT INTO flags (id, target_type, target_id, rule, created_at)
	VALUES (:id, :target_type, :target_id, :rule, :created_at)`

func (r *ModerationRepo) ListFlags(ctx context.Context, limit int) ([]entity.Flag, error) {
	flags := []entity.Flag{}
	err := r.db.SelectContext(ctx, &flags,
		`SELECT id, target_type, target_id, rule, created_at FROM flags ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	return flags, err
}

func (r *ModerationRepo) CreateReport(ctx context.Context, rep *entity.Report) error {
	const q = `INSERT INTO reports (id, reporter_user_id, target_type, target_id, reason, notes, status, created_at)
		VALUES (:id, :reporter_user_id, :target_type, :target_id, :reason, :notes, :status, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, rep)
	return err
}

func (r *ModerationRepo) GetReport(ctx context.Context, id string) (*entity.Report, error) {
	var rep entity.Report
	if err := r.db.GetContext(ctx, &rep, `SELECT `+reportColumns+` FROM reports WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *ModerationRepo) ListReports(ctx context.Context, status entity.ReportStatus) ([]entity.Report, error) {
	reports := []entity.Report{}
	var err error
	if status == "" {
		err = r.db.SelectContext(ctx, &reports, `SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id DESC`)
	} else {
		err = r.db.SelectContext(ctx, &reports, `SELECT `+reportColumns+` FROM reports WHERE status=$1 ORDER BY created_at DESC, id DESC`, status)
	}
	return reports, err
}

// ResolveReport flips an OPEN report; a report in any other state is left
// untouched and reported as unchanged.
func (r *ModerationRepo) ResolveReport(ctx context.Context, id, actorID string, at time.Time) (*entity.Report, bool, error) {
	var rep entity.Report
	err := r.db.GetContext(ctx, &rep,
		`UPDATE reports SET status=$2, resolved_at=$3, resolved_by_user_id=$4
		WHERE id=$1 AND status=$5 RETURNING `+reportColumns,
		id, entity.ReportResolved, at, actorID, entity.ReportOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &rep, true, nil
}
