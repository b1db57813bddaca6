// Package memstore is an in-process implementation of every store contract.
// It backs STORE_DRIVER=memory and the service tests. A single mutex makes
// each method atomic, which gives the same check-and-write guarantees the
// postgres repositories get from row locks and unique constraints.
package memstore

import (
	"sync"

	blockentity "github.com/ovaphlow/pitchfork/service-meetup/internal/block/entity"
	evententity "github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	feedbackentity "github.com/ovaphlow/pitchfork/service-meetup/internal/feedback/entity"
	moderationentity "github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
	profileentity "github.com/ovaphlow/pitchfork/service-meetup/internal/profile/entity"
	rsvpentity "github.com/ovaphlow/pitchfork/service-meetup/internal/rsvp/entity"
	threadentity "github.com/ovaphlow/pitchfork/service-meetup/internal/thread/entity"
	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

type Store struct {
	mu sync.Mutex

	users    map[string]*userentity.User
	profiles map[string]*profileentity.Profile
	events   map[string]*evententity.Event
	rsvps    []*rsvpentity.RSVP
	flags    []moderationentity.Flag
	reports  []*moderationentity.Report
	blocks   []blockentity.Block
	feedback []feedbackentity.Feedback
	threads  map[string]*threadentity.Thread
	messages []threadentity.Message
}

func New() *Store {
	return &Store{
		users:    make(map[string]*userentity.User),
		profiles: make(map[string]*profileentity.Profile),
		events:   make(map[string]*evententity.Event),
		threads:  make(map[string]*threadentity.Thread),
	}
}
