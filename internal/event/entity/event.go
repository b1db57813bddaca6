package entity

import (
	"errors"
	"time"

	rsvpentity "github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/geo"
)

// ErrQuotaExceeded is returned by the store when the host already created
// the allowed number of events since the quota window start.
var ErrQuotaExceeded = errors.New("daily event quota exceeded")

type Category string

const (
	CategoryWalk       Category = "WALK"
	CategoryPlayground Category = "PLAYGROUND"
	CategoryLibrary    Category = "LIBRARY"
	CategoryCrafts     Category = "CRAFTS"
	CategorySports     Category = "SPORTS"
	CategoryOther      Category = "OTHER"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWalk, CategoryPlayground, CategoryLibrary, CategoryCrafts, CategorySports, CategoryOther:
		return true
	}
	return false
}

type Setting string

const (
	SettingIndoor  Setting = "INDOOR"
	SettingOutdoor Setting = "OUTDOOR"
	SettingMixed   Setting = "MIXED"
)

// ParseSetting accepts the stored values plus BOTH, an alias for MIXED.
func ParseSetting(s string) (Setting, bool) {
	switch Setting(s) {
	case SettingIndoor, SettingOutdoor, SettingMixed:
		return Setting(s), true
	case "BOTH":
		return SettingMixed, true
	}
	return "", false
}

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusRemoved   Status = "REMOVED"
)

// Event is a hosted meetup. LocationNotesPrivate is never serialized from
// this type; responses that may disclose it copy it explicitly.
type Event struct {
	ID                   string    `db:"id" json:"id"`
	HostUserID           string    `db:"host_user_id" json:"host_user_id"`
	Title                string    `db:"title" json:"title"`
	Description          string    `db:"description" json:"description"`
	Category             Category  `db:"category" json:"category"`
	StartAt              time.Time `db:"start_at" json:"start_at"`
	DurationMins         int       `db:"duration_mins" json:"duration_mins"`
	Setting              Setting   `db:"setting" json:"setting"`
	AgeMin               int       `db:"age_min" json:"age_min"`
	AgeMax               int       `db:"age_max" json:"age_max"`
	MaxAttendees         int       `db:"max_attendees" json:"max_attendees"`
	ScreenLight          bool      `db:"screen_light" json:"screen_light"`
	LocationLabelPublic  string    `db:"location_label_public" json:"location_label_public"`
	LocationNotesPrivate string    `db:"location_notes_private" json:"-"`
	Lat                  float64   `db:"lat" json:"lat"`
	Lng                  float64   `db:"lng" json:"lng"`
	Status               Status    `db:"status" json:"status"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// EndsAt is the start time plus the duration.
func (e *Event) EndsAt() time.Time {
	return e.StartAt.Add(time.Duration(e.DurationMins) * time.Minute)
}

// Host is the public identity of an event host.
type Host struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	TrustScore int    `db:"trust_score" json:"trust_score"`
}

// Listing is an event joined with its host and current GOING count, as
// read from the store.
type Listing struct {
	Event
	Host       Host `db:"host" json:"host"`
	GoingCount int  `db:"going_count" json:"going_count"`
}

// Summary is one discovery result.
type Summary struct {
	Listing
	DistanceMiles float64 `json:"distance_miles"`
	DistanceLabel string  `json:"distance_label"`
}

// Detail is the single-event view. LocationNotesPrivate is set only for the
// host and GOING attendees.
type Detail struct {
	Listing
	LocationNotesPrivate *string          `json:"location_notes_private,omitempty"`
	UserRSVP             *rsvpentity.RSVP `json:"user_rsvp,omitempty"`
}

type Tab string

const (
	TabNearby  Tab = "nearby"
	TabPopular Tab = "popular"
	TabForYou  Tab = "foryou"
)

// Query is the store-side discovery filter. Only ACTIVE events inside Box
// are returned.
type Query struct {
	Box            geo.Box
	Categories     []Category
	StartAfter     *time.Time
	StartBefore    *time.Time
	AgeMin         *int
	AgeMax         *int
	Setting        Setting
	ScreenLight    bool
	ExcludeHostIDs []string
}
