package memstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	profileentity "github.com/ovaphlow/pitchfork/service-meetup/internal/profile/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
)

func (s *Store) CreateUser(_ context.Context, u *userentity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return database.ErrDuplicate
		}
	}
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*userentity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *u
	return &c, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*userentity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) SetSuspended(_ context.Context, id string, at *time.Time) (*userentity.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Suspended() == (at != nil) {
		return nil, false, nil
	}
	if at != nil {
		t := *at
		u.SuspendedAt = &t
	} else {
		u.SuspendedAt = nil
	}
	c := *u
	return &c, true, nil
}

// SetRole is a seeding helper; accounts are created as USER.
func (s *Store) SetRole(id string, role userentity.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Role = role
	}
}

func (s *Store) GetProfile(_ context.Context, userID string) (*profileentity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p.Clone(), nil
}

func (s *Store) UpsertProfile(_ context.Context, p *profileentity.Profile) (*profileentity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[p.UserID]
	if !ok {
		s.profiles[p.UserID] = p.Clone()
		return p.Clone(), nil
	}
	existing.City = p.City
	existing.Lat = p.Lat
	existing.Lng = p.Lng
	existing.RadiusMiles = p.RadiusMiles
	existing.Interests = append(existing.Interests[:0:0], p.Interests...)
	existing.KidsAgeRanges = append(existing.KidsAgeRanges[:0:0], p.KidsAgeRanges...)
	existing.UpdatedAt = p.UpdatedAt
	return existing.Clone(), nil
}

func (s *Store) UpdateProfile(_ context.Context, userID string, fn func(*profileentity.Profile) error) (*profileentity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	p := existing.Clone()
	if err := fn(p); err != nil {
		return nil, err
	}
	s.profiles[userID] = p
	return p.Clone(), nil
}

func (s *Store) trustScore(userID string) int {
	if p, ok := s.profiles[userID]; ok {
		return p.TrustScore
	}
	return 0
}
