package entity

import "time"

type Rule string

const (
	RuleProfanity Rule = "PROFANITY"
	RulePolitics  Rule = "POLITICS"
	RuleOther     Rule = "OTHER"
)

type TargetType string

const (
	TargetUser  TargetType = "USER"
	TargetEvent TargetType = "EVENT"
)

func (t TargetType) Valid() bool { return t == TargetUser || t == TargetEvent }

type Reason string

const (
	ReasonHarassment Reason = "HARASSMENT"
	ReasonHate       Reason = "HATE"
	ReasonUnsafe     Reason = "UNSAFE"
	ReasonSpam       Reason = "SPAM"
	ReasonPolitics   Reason = "POLITICS"
	ReasonOther      Reason = "OTHER"
)

type ReportStatus string

const (
	ReportOpen     ReportStatus = "OPEN"
	ReportResolved ReportStatus = "RESOLVED"
)

// Flag is an automatic moderation signal on a piece of content. Flags do not
// hide content; admins review them.
type Flag struct {
	ID         string     `db:"id" json:"id"`
	TargetType TargetType `db:"target_type" json:"target_type"`
	TargetID   string     `db:"target_id" json:"target_id"`
	Rule       Rule       `db:"rule" json:"rule"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Report is a user-filed complaint about a user or an event.
type Report struct {
	ID               string       `db:"id" json:"id"`
	ReporterUserID   string       `db:"reporter_user_id" json:"reporter_user_id"`
	TargetType       TargetType   `db:"target_type" json:"target_type"`
	TargetID         string       `db:"target_id" json:"target_id"`
	Reason           Reason       `db:"reason" json:"reason"`
	Notes            string       `db:"notes" json:"notes"`
	Status           ReportStatus `db:"status" json:"status"`
	ResolvedAt       *time.Time   `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedByUserID *string      `db:"resolved_by_user_id" json:"resolved_by_user_id,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
}
