package event

import (
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/validate"
)

// Fields is the create payload and the merged state validated on update.
type Fields struct {
	Title                string     `json:"title" validate:"min=6,max=80"`
	Description          string     `json:"description" validate:"min=20,max=600"`
	Category             string     `json:"category" validate:"oneof=WALK PLAYGROUND LIBRARY CRAFTS SPORTS OTHER"`
	StartAt              *time.Time `json:"start_at" validate:"required"`
	DurationMins         int        `json:"duration_mins" validate:"min=15,max=480"`
	Setting              string     `json:"setting" validate:"oneof=INDOOR OUTDOOR MIXED BOTH"`
	AgeMin               *int       `json:"age_min" validate:"required,min=0,max=17"`
	AgeMax               *int       `json:"age_max" validate:"required,min=0,max=17"`
	MaxAttendees         int        `json:"max_attendees" validate:"min=2,max=50"`
	ScreenLight          bool       `json:"screen_light"`
	LocationLabelPublic  string     `json:"location_label_public" validate:"min=3,max=100"`
	LocationNotesPrivate string     `json:"location_notes_private" validate:"max=300"`
	Lat                  *float64   `json:"lat" validate:"required,min=-90,max=90"`
	Lng                  *float64   `json:"lng" validate:"required,min=-180,max=180"`
}

// Patch is a partial update. Status is not patchable.
type Patch struct {
	Title                *string    `json:"title"`
	Description          *string    `json:"description"`
	Category             *string    `json:"category"`
	StartAt              *time.Time `json:"start_at"`
	DurationMins         *int       `json:"duration_mins"`
	Setting              *string    `json:"setting"`
	AgeMin               *int       `json:"age_min"`
	AgeMax               *int       `json:"age_max"`
	MaxAttendees         *int       `json:"max_attendees"`
	ScreenLight          *bool      `json:"screen_light"`
	LocationLabelPublic  *string    `json:"location_label_public"`
	LocationNotesPrivate *string    `json:"location_notes_private"`
	Lat                  *float64   `json:"lat"`
	Lng                  *float64   `json:"lng"`
}

func (f *Fields) trim() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Category = strings.ToUpper(strings.TrimSpace(f.Category))
	f.Setting = strings.ToUpper(strings.TrimSpace(f.Setting))
	f.LocationLabelPublic = strings.TrimSpace(f.LocationLabelPublic)
	f.LocationNotesPrivate = strings.TrimSpace(f.LocationNotesPrivate)
}

// check validates f. The start time must be in the future only when
// checkStart is set, so editing other fields of a started event still works.
func (f *Fields) check(now time.Time, checkStart bool) error {
	f.trim()
	if err := validate.Struct(f); err != nil {
		return err
	}
	if *f.AgeMin > *f.AgeMax {
		return apperr.Validation("age_min must be less than or equal to age_max")
	}
	if checkStart && !f.StartAt.After(now) {
		return apperr.Validation("event must be scheduled in the future")
	}
	return nil
}

func fieldsOf(ev *entity.Event) Fields {
	start := ev.StartAt
	ageMin, ageMax := ev.AgeMin, ev.AgeMax
	lat, lng := ev.Lat, ev.Lng
	return Fields{
		Title:                ev.Title,
		Description:          ev.Description,
		Category:             string(ev.Category),
		StartAt:              &start,
		DurationMins:         ev.DurationMins,
		Setting:              string(ev.Setting),
		AgeMin:               &ageMin,
		AgeMax:               &ageMax,
		MaxAttendees:         ev.MaxAttendees,
		ScreenLight:          ev.ScreenLight,
		LocationLabelPublic:  ev.LocationLabelPublic,
		LocationNotesPrivate: ev.LocationNotesPrivate,
		Lat:                  &lat,
		Lng:                  &lng,
	}
}

func (p Patch) apply(f *Fields) {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.StartAt != nil {
		f.StartAt = p.StartAt
	}
	if p.DurationMins != nil {
		f.DurationMins = *p.DurationMins
	}
	if p.Setting != nil {
		f.Setting = *p.Setting
	}
	if p.AgeMin != nil {
		f.AgeMin = p.AgeMin
	}
	if p.AgeMax != nil {
		f.AgeMax = p.AgeMax
	}
	if p.MaxAttendees != nil {
		f.MaxAttendees = *p.MaxAttendees
	}
	if p.ScreenLight != nil {
		f.ScreenLight = *p.ScreenLight
	}
	if p.LocationLabelPublic != nil {
		f.LocationLabelPublic = *p.LocationLabelPublic
	}
	if p.LocationNotesPrivate != nil {
		f.LocationNotesPrivate = *p.LocationNotesPrivate
	}
	if p.Lat != nil {
		f.Lat = p.Lat
	}
	if p.Lng != nil {
		f.Lng = p.Lng
	}
}

// applyTo copies validated fields onto ev.
func (f *Fields) applyTo(ev *entity.Event) {
	setting, _ := entity.ParseSetting(f.Setting)
	ev.Title = f.Title
	ev.Description = f.Description
	ev.Category = entity.Category(f.Category)
	ev.StartAt = f.StartAt.UTC()
	ev.DurationMins = f.DurationMins
	ev.Setting = setting
	ev.AgeMin = *f.AgeMin
	ev.AgeMax = *f.AgeMax
	ev.MaxAttendees = f.MaxAttendees
	ev.ScreenLight = f.ScreenLight
	ev.LocationLabelPublic = f.LocationLabelPublic
	ev.LocationNotesPrivate = f.LocationNotesPrivate
	ev.Lat = *f.Lat
	ev.Lng = *f.Lng
}
