package memstore

import (
	"context"
	"database/sql"
	"slices"

	blockentity "github.com/ovaphlow/pitchfork/service-meetup/internal/block/entity"
	feedbackentity "github.com/ovaphlow/pitchfork/service-meetup/internal/feedback/entity"
	threadentity "github.com/ovaphlow/pitchfork/service-meetup/internal/thread/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/database"
)

func (s *Store) CreateBlock(_ context.Context, b *blockentity.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.blocks {
		if existing.BlockerUserID == b.BlockerUserID && existing.BlockedUserID == b.BlockedUserID {
			return database.ErrDuplicate
		}
	}
	s.blocks = append(s.blocks, *b)
	return nil
}

// RelatedUserIDs lists users on the other side of any block involving userID.
func (s *Store) RelatedUserIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for _, b := range s.blocks {
		var other string
		switch userID {
		case b.BlockerUserID:
			other = b.BlockedUserID
		case b.BlockedUserID:
			other = b.BlockerUserID
		default:
			continue
		}
		if !slices.Contains(out, other) {
			out = append(out, other)
		}
	}
	return out, nil
}

func (s *Store) CreateFeedback(_ context.Context, f *feedbackentity.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.feedback {
		if existing.EventID == f.EventID && existing.UserID == f.UserID {
			return database.ErrDuplicate
		}
	}
	c := *f
	c.Tags = append(c.Tags[:0:0], f.Tags...)
	s.feedback = append(s.feedback, c)
	return nil
}

func (s *Store) GetThread(_ context.Context, id string) (*threadentity.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *t
	return &c, nil
}

func (s *Store) GetThreadByEvent(_ context.Context, eventID string) (*threadentity.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		if t.EventID == eventID {
			c := *t
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

// ListMessages returns the thread's messages oldest first.
func (s *Store) ListMessages(_ context.Context, threadID string) ([]threadentity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []threadentity.Message{}
	for _, m := range s.messages {
		if m.ThreadID != threadID {
			continue
		}
		m.Sender = userentity.Brief{ID: m.SenderUserID}
		if u, ok := s.users[m.SenderUserID]; ok {
			m.Sender.Name = u.Name
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) CreateMessage(_ context.Context, m *threadentity.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *m)
	return nil
}
