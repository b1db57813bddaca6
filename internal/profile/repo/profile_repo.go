package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/profile/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
)

// ProfileRepo provides data access for the profiles table.
type ProfileRepo struct {
	db *sqlx.DB
}

func NewProfileRepo(db *sqlx.DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = `user_id, city, lat, lng, radius_miles, interests, kids_age_ranges, screen_light_mode,
	email_verified_at, phone_verified_at, id_verified_at, trust_score, created_at, updated_at`

func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	var p entity.Profile
	if err := r.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1`, userID); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile inserts the onboarding answers or replaces them on an
// existing row, leaving verification columns untouched.
func (r *ProfileRepo) UpsertProfile(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	const q = `INSERT INTO profiles (user_id, city, lat, lng, radius_miles, interests, kids_age_ranges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			city=EXCLUDED.city, lat=EXCLUDED.lat, lng=EXCLUDED.lng, radius_miles=EXCLUDED.radius_miles,
			interests=EXCLUDED.interests, kids_age_ranges=EXCLUDED.kids_age_ranges, updated_at=EXCLUDED.updated_at
		RETURNING ` + profileColumns
	var out entity.Profile
	err := r.db.GetContext(ctx, &out, q, p.UserID, p.City, p.Lat, p.Lng, p.RadiusMiles,
		p.Interests, p.KidsAgeRanges, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile locks the row, applies fn and writes the mutable columns back.
func (r *ProfileRepo) UpdateProfile(ctx context.Context, userID string, fn func(*entity.Profile) error) (*entity.Profile, error) {
	var out entity.Profile
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &out, `SELECT `+profileColumns+` FROM profiles WHERE user_id=$1 FOR UPDATE`, userID); err != nil {
			return err
		}
		if err := fn(&out); err != nil {
			return err
		}
		const q = `UPDATE profiles SET radius_miles=:radius_miles, screen_light_mode=:screen_light_mode,
			email_verified_at=:email_verified_at, phone_verified_at=:phone_verified_at, id_verified_at=:id_verified_at,
			trust_score=:trust_score, updated_at=:updated_at
			WHERE user_id=:user_id`
		_, err := tx.NamedExecContext(ctx, q, &out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
