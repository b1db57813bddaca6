package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/block/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
)

// BlockRepo provides data access for the blocks table.
type BlockRepo struct {
	db *sqlx.DB
}

func NewBlockRepo(db *sqlx.DB) *BlockRepo { return &BlockRepo{db: db} }

// CreateBlock relies on the (blocker, blocked) unique constraint; a repeat
// yields database.ErrDuplicate.
func (r *BlockRepo) CreateBlock(ctx context.Context, b *entity.Block) error {
	const q = `INSERT INTO blocks (id, blocker_user_id, blocked_user_id, created_at)
		VALUES (:id, :blocker_user_id, :blocked_user_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, b); err != nil {
		return database.Translate(err)
	}
	return nil
}

// RelatedUserIDs lists users on the other side of any block involving userID.
func (r *BlockRepo) RelatedUserIDs(ctx context.Context, userID string) ([]string, error) {
	const q = `SELECT blocked_user_id FROM blocks WHERE blocker_user_id=$1
		UNION
		SELECT blocker_user_id FROM blocks WHERE blocked_user_id=$1`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, q, userID); err != nil {
		return nil, err
	}
	return ids, nil
}
