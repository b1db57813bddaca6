package memstore

import (
	"context"
	"database/sql"
	"sort"
	"time"

	evententity "github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	rsvpentity "github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

func (s *Store) findRSVP(eventID, userID string) *rsvpentity.RSVP {
	for _, r := range s.rsvps {
		if r.EventID == eventID && r.UserID == userID {
			return r
		}
	}
	return nil
}

// ApplyGoing performs the capacity check and the GOING write as one step.
// r.ID and r.CreatedAt are only used when no row exists yet.
func (s *Store) ApplyGoing(_ context.Context, r *rsvpentity.RSVP) (*rsvpentity.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[r.EventID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if ev.Status != evententity.StatusActive {
		return nil, rsvpentity.ErrEventNotActive
	}
	if s.goingCount(r.EventID, r.UserID) >= ev.MaxAttendees {
		return nil, rsvpentity.ErrAtCapacity
	}
	existing := s.findRSVP(r.EventID, r.UserID)
	if existing == nil {
		c := *r
		c.Status = rsvpentity.StatusGoing
		s.rsvps = append(s.rsvps, &c)
		out := c
		return &out, nil
	}
	existing.Status = rsvpentity.StatusGoing
	existing.UpdatedAt = r.UpdatedAt
	out := *existing
	return &out, nil
}

func (s *Store) SetCancelled(_ context.Context, eventID, userID string, at time.Time) (*rsvpentity.RSVP, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.findRSVP(eventID, userID)
	if existing == nil {
		return nil, false, nil
	}
	existing.Status = rsvpentity.StatusCancelled
	existing.UpdatedAt = at
	out := *existing
	return &out, true, nil
}

func (s *Store) GetRSVP(_ context.Context, eventID, userID string) (*rsvpentity.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findRSVP(eventID, userID)
	if r == nil {
		return nil, sql.ErrNoRows
	}
	out := *r
	return &out, nil
}

func (s *Store) CheckIn(_ context.Context, eventID, userID string, at time.Time) (*rsvpentity.RSVP, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findRSVP(eventID, userID)
	if r == nil || r.Status != rsvpentity.StatusGoing || r.CheckedInAt != nil {
		return nil, false, nil
	}
	t := at
	r.CheckedInAt = &t
	r.UpdatedAt = at
	out := *r
	return &out, true, nil
}

func (s *Store) ListAttendees(_ context.Context, eventID string) ([]rsvpentity.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []rsvpentity.Attendee{}
	for _, r := range s.rsvps {
		if r.EventID != eventID {
			continue
		}
		a := rsvpentity.Attendee{RSVP: *r, User: userentity.Brief{ID: r.UserID}}
		if u, ok := s.users[r.UserID]; ok {
			a.User.Name = u.Name
			a.User.Email = u.Email
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
