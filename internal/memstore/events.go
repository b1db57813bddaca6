package memstore

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"time"

	evententity "github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	moderationentity "github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
	rsvpentity "github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	threadentity "github.com/ovaphlow/pitchfork/service-meetup/internal/thread/entity"
)

// CreateEvent stores the event, its thread and its flags in one step. When
// limit is positive the host may have created fewer than limit events since
// the given instant.
func (s *Store) CreateEvent(_ context.Context, ev *evententity.Event, thread *threadentity.Thread, flags []moderationentity.Flag, since time.Time, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > 0 {
		n := 0
		for _, e := range s.events {
			if e.HostUserID == ev.HostUserID && !e.CreatedAt.Before(since) {
				n++
			}
		}
		if n >= limit {
			return evententity.ErrQuotaExceeded
		}
	}
	c := *ev
	s.events[ev.ID] = &c
	if thread != nil {
		t := *thread
		s.threads[t.ID] = &t
	}
	s.flags = append(s.flags, flags...)
	return nil
}

func (s *Store) GetEvent(_ context.Context, id string) (*evententity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *ev
	return &c, nil
}

func (s *Store) GetListing(_ context.Context, id string) (*evententity.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	l := s.listing(ev)
	return &l, nil
}

func (s *Store) UpdateEvent(_ context.Context, id string, fn func(ev *evententity.Event, goingCount int) ([]moderationentity.Flag, error)) (*evententity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	ev := *existing
	flags, err := fn(&ev, s.goingCount(id, ""))
	if err != nil {
		return nil, err
	}
	s.events[id] = &ev
	s.flags = append(s.flags, flags...)
	c := ev
	return &c, nil
}

func (s *Store) SetEventStatus(_ context.Context, id string, from, to evententity.Status, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || ev.Status != from {
		return false, nil
	}
	ev.Status = to
	ev.UpdatedAt = at
	return true, nil
}

func (s *Store) QueryEvents(_ context.Context, q evententity.Query) ([]evententity.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []evententity.Listing{}
	for _, ev := range s.events {
		if matches(ev, q) {
			out = append(out, s.listing(ev))
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *Store) ListEventsForUser(_ context.Context, userID string, limit int) ([]evententity.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []evententity.Listing{}
	for _, ev := range s.events {
		if ev.Status != evententity.StatusActive {
			continue
		}
		if ev.HostUserID == userID || s.isGoing(ev.ID, userID) {
			out = append(out, s.listing(ev))
		}
	}
	sortByStart(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matches(ev *evententity.Event, q evententity.Query) bool {
	if ev.Status != evententity.StatusActive || !q.Box.Contains(ev.Lat, ev.Lng) {
		return false
	}
	if len(q.Categories) > 0 && !slices.Contains(q.Categories, ev.Category) {
		return false
	}
	if q.StartAfter != nil && ev.StartAt.Before(*q.StartAfter) {
		return false
	}
	if q.StartBefore != nil && ev.StartAt.After(*q.StartBefore) {
		return false
	}
	if q.AgeMin != nil && ev.AgeMax < *q.AgeMin {
		return false
	}
	if q.AgeMax != nil && ev.AgeMin > *q.AgeMax {
		return false
	}
	if q.Setting != "" && ev.Setting != q.Setting {
		return false
	}
	if q.ScreenLight && !ev.ScreenLight {
		return false
	}
	return !slices.Contains(q.ExcludeHostIDs, ev.HostUserID)
}

func sortByStart(ls []evententity.Listing) {
	sort.Slice(ls, func(i, j int) bool {
		if !ls[i].StartAt.Equal(ls[j].StartAt) {
			return ls[i].StartAt.Before(ls[j].StartAt)
		}
		return ls[i].ID < ls[j].ID
	})
}

func (s *Store) listing(ev *evententity.Event) evententity.Listing {
	l := evententity.Listing{Event: *ev, GoingCount: s.goingCount(ev.ID, "")}
	l.Host.ID = ev.HostUserID
	if u, ok := s.users[ev.HostUserID]; ok {
		l.Host.Name = u.Name
	}
	l.Host.TrustScore = s.trustScore(ev.HostUserID)
	return l
}

// goingCount counts GOING rows for the event, skipping exceptUser.
func (s *Store) goingCount(eventID, exceptUser string) int {
	n := 0
	for _, r := range s.rsvps {
		if r.EventID == eventID && r.Status == rsvpentity.StatusGoing && r.UserID != exceptUser {
			n++
		}
	}
	return n
}

func (s *Store) isGoing(eventID, userID string) bool {
	r := s.findRSVP(eventID, userID)
	return r != nil && r.Status == rsvpentity.StatusGoing
}
