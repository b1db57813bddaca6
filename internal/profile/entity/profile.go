package entity

import (
	"time"

	"github.com/lib/pq"
)

// Profile is the per-user onboarding and verification record.
type Profile struct {
	UserID          string         `db:"user_id" json:"user_id"`
	City            string         `db:"city" json:"city"`
	Lat             float64        `db:"lat" json:"lat"`
	Lng             float64        `db:"lng" json:"lng"`
	RadiusMiles     float64        `db:"radius_miles" json:"radius_miles"`
	Interests       pq.StringArray `db:"interests" json:"interests"`
	KidsAgeRanges   pq.StringArray `db:"kids_age_ranges" json:"kids_age_ranges"`
	ScreenLightMode bool           `db:"screen_light_mode" json:"screen_light_mode"`
	EmailVerifiedAt *time.Time     `db:"email_verified_at" json:"email_verified_at,omitempty"`
	PhoneVerifiedAt *time.Time     `db:"phone_verified_at" json:"phone_verified_at,omitempty"`
	IDVerifiedAt    *time.Time     `db:"id_verified_at" json:"id_verified_at,omitempty"`
	TrustScore      int            `db:"trust_score" json:"trust_score"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

func (p *Profile) EmailVerified() bool { return p.EmailVerifiedAt != nil }

func (p *Profile) PhoneVerified() bool { return p.PhoneVerifiedAt != nil }

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Interests = append(pq.StringArray(nil), p.Interests...)
	c.KidsAgeRanges = append(pq.StringArray(nil), p.KidsAgeRanges...)
	return &c
}
