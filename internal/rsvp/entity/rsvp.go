package entity

import (
	"errors"
	"time"

	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

// Store-level outcomes of the atomic GOING write.
var (
	ErrAtCapacity     = errors.New("event at capacity")
	ErrEventNotActive = errors.New("event not active")
)

type Status string

const (
	StatusGoing     Status = "GOING"
	StatusCancelled Status = "CANCELLED"
)

// RSVP is one user's attendance intent for one event. At most one per
// (event, user).
type RSVP struct {
	ID          string     `db:"id" json:"id"`
	EventID     string     `db:"event_id" json:"event_id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Status      Status     `db:"status" json:"status"`
	CheckedInAt *time.Time `db:"checked_in_at" json:"checked_in_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Attendee is an RSVP joined with the attendee's public identity.
type Attendee struct {
	RSVP
	User userentity.Brief `db:"user" json:"user"`
}

// Kind selects the RSVP transition requested by the caller.
type Kind string

const (
	SetGoing     Kind = "GOING"
	SetCancelled Kind = "CANCELLED"
)

// Request is the body of POST /api/events/{id}/rsvp.
type Request struct {
	Kind Kind `json:"status"`
}

// Result is returned after a successful RSVP change. The private location
// notes are only present for GOING.
type Result struct {
	RSVP                 *RSVP   `json:"rsvp"`
	LocationNotesPrivate *string `json:"location_notes_private,omitempty"`
}
