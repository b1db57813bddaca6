package entity

import (
	"time"

	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

// Thread is the message board attached to one event.
type Thread struct {
	ID        string    `db:"id" json:"id"`
	EventID   string    `db:"event_id" json:"event_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Message struct {
	ID           string           `db:"id" json:"id"`
	ThreadID     string           `db:"thread_id" json:"thread_id"`
	SenderUserID string           `db:"sender_user_id" json:"sender_user_id"`
	Body         string           `db:"body" json:"body"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	Sender       userentity.Brief `db:"sender" json:"sender"`
}

// EventRef is the part of the event shown above a thread.
type EventRef struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
}

// View is a thread with its messages, oldest first.
type View struct {
	Thread
	Event    EventRef  `json:"event"`
	Messages []Message `json:"messages"`
}
