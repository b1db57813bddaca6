package memstore

import (
	"context"
	"database/sql"
	"time"

	moderationentity "github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
)

func (s *Store) CreateFlag(_ context.Context, f *moderationentity.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = append(s.flags, *f)
	return nil
}

// ListFlags returns flags newest first.
func (s *Store) ListFlags(_ context.Context, limit int) ([]moderationentity.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]moderationentity.Flag, 0, len(s.flags))
	for i := len(s.flags) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.flags[i])
	}
	return out, nil
}

func (s *Store) CreateReport(_ context.Context, r *moderationentity.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *r
	s.reports = append(s.reports, &c)
	return nil
}

func (s *Store) GetReport(_ context.Context, id string) (*moderationentity.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID == id {
			c := *r
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

// ListReports returns reports newest first; an empty status lists all.
func (s *Store) ListReports(_ context.Context, status moderationentity.ReportStatus) ([]moderationentity.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []moderationentity.Report{}
	for i := len(s.reports) - 1; i >= 0; i-- {
		if status == "" || s.reports[i].Status == status {
			out = append(out, *s.reports[i])
		}
	}
	return out, nil
}

func (s *Store) ResolveReport(_ context.Context, id, actorID string, at time.Time) (*moderationentity.Report, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID != id {
			continue
		}
		if r.Status != moderationentity.ReportOpen {
			return nil, false, nil
		}
		t := at
		actor := actorID
		r.Status = moderationentity.ReportResolved
		r.ResolvedAt = &t
		r.ResolvedByUserID = &actor
		c := *r
		return &c, true, nil
	}
	return nil, false, nil
}

// Flags returns every flag in insertion order.
func (s *Store) Flags() []moderationentity.Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]moderationentity.Flag(nil), s.flags...)
}
