package entity

import (
	"time"

	"github.com/lib/pq"
)

type Feedback struct {
	ID        string         `db:"id" json:"id"`
	EventID   string         `db:"event_id" json:"event_id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Rating    int            `db:"rating" json:"rating"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
