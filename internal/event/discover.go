package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-meetup/internal/identity"
	"github.com/ovaphlow/pitchfork/service-meetup/pkg/geo"
)

const (
	defaultRadiusMiles = 10.0
	maxRadiusMiles     = 100.0
)

// DiscoverInput is the discovery query. Lat and Lng are required.
type DiscoverInput struct {
	Lat             *float64
	Lng             *float64
	RadiusMiles     *float64
	Category        string
	StartAfter      *time.Time
	StartBefore     *time.Time
	AgeMin          *int
	AgeMax          *int
	Setting         string
	ScreenLightOnly bool
	Tab             string
}

// Discover lists ACTIVE events within the radius. The bounding box narrows
// the store query and every candidate is re-checked by exact distance.
// Hosts in a block relation with the caller are excluded. The popular tab
// orders by GOING count, nearby and foryou by distance; ties keep start
// order. Private location notes are never included.
func (s *Service) Discover(ctx context.Context, actor identity.Identity, in DiscoverInput) ([]entity.Summary, error) {
	p, err := s.planDiscovery(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	listings, err := s.store.QueryEvents(ctx, p.query)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	excluded := make(map[string]bool, len(p.query.ExcludeHostIDs))
	for _, id := range p.query.ExcludeHostIDs {
		excluded[id] = true
	}

	out := make([]entity.Summary, 0, len(listings))
	for _, l := range listings {
		if excluded[l.HostUserID] {
			continue
		}
		d := geo.Haversine(p.lat, p.lng, l.Lat, l.Lng)
		if d > p.radius {
			continue
		}
		l.LocationNotesPrivate = ""
		out = append(out, entity.Summary{Listing: l, DistanceMiles: d, DistanceLabel: geo.FormatDistance(d)})
	}

	// Stable over the store's start-time order.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return false
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	if p.tab == entity.TabPopular {
		sort.SliceStable(out, func(i, j int) bool { return out[i].GoingCount > out[j].GoingCount })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMiles < out[j].DistanceMiles })
	}
	return out, nil
}

type plan struct {
	query    entity.Query
	lat, lng float64
	radius   float64
	tab      entity.Tab
}

func (s *Service) planDiscovery(ctx context.Context, actor identity.Identity, in DiscoverInput) (plan, error) {
	var q entity.Query
	if in.Lat == nil || in.Lng == nil {
		return plan{}, apperr.Validation("lat and lng query parameters are required")
	}
	lat, lng := *in.Lat, *in.Lng
	if !finite(lat) || !finite(lng) {
		return plan{}, apperr.Validation("lat and lng must be finite numbers")
	}
	if lat < -90 || lat > 90 {
		return plan{}, apperr.Validation("lat must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return plan{}, apperr.Validation("lng must be between -180 and 180")
	}
	radius := defaultRadiusMiles
	if in.RadiusMiles != nil {
		radius = *in.RadiusMiles
	}
	if !finite(radius) || radius <= 0 || radius > maxRadiusMiles {
		return plan{}, apperr.Validation("radius_miles must be greater than 0 and at most %g", maxRadiusMiles)
	}
	tab := entity.Tab(strings.ToLower(strings.TrimSpace(in.Tab)))
	switch tab {
	case "":
		tab = entity.TabNearby
	case entity.TabNearby, entity.TabPopular, entity.TabForYou:
	default:
		return plan{}, apperr.Validation("tab must be one of: nearby, popular, foryou")
	}

	q.Box = geo.BoundingBox(lat, lng, radius)
	if c := entity.Category(strings.ToUpper(strings.TrimSpace(in.Category))); c != "" {
		if !c.Valid() {
			return plan{}, apperr.Validation("category must be one of: WALK, PLAYGROUND, LIBRARY, CRAFTS, SPORTS, OTHER")
		}
		q.Categories = []entity.Category{c}
	}
	if in.Setting != "" {
		st, ok := entity.ParseSetting(strings.ToUpper(strings.TrimSpace(in.Setting)))
		if !ok {
			return plan{}, apperr.Validation("setting must be one of: INDOOR, OUTDOOR, MIXED")
		}
		q.Setting = st
	}
	if in.AgeMin != nil && in.AgeMax != nil && *in.AgeMin > *in.AgeMax {
		return plan{}, apperr.Validation("age_min must be less than or equal to age_max")
	}
	q.StartAfter, q.StartBefore = in.StartAfter, in.StartBefore
	q.AgeMin, q.AgeMax = in.AgeMin, in.AgeMax
	q.ScreenLight = in.ScreenLightOnly

	if actor.Authenticated() {
		related, err := s.blocks.RelatedUserIDs(ctx, actor.UserID)
		if err != nil {
			return plan{}, fmt.Errorf("list block relations: %w", err)
		}
		q.ExcludeHostIDs = related
		if tab == entity.TabForYou {
			cats, err := s.interestCategories(ctx, actor.UserID)
			if err != nil {
				return plan{}, err
			}
			if len(cats) > 0 {
				q.Categories = cats
			}
		}
	}
	return plan{query: q, lat: lat, lng: lng, radius: radius, tab: tab}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// interestCategories maps profile interests onto event categories.
func (s *Service) interestCategories(ctx context.Context, userID string) ([]entity.Category, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	var cats []entity.Category
	for _, interest := range p.Interests {
		if c := entity.Category(strings.ToUpper(strings.TrimSpace(interest))); c.Valid() {
			cats = append(cats, c)
		}
	}
	return cats, nil
}
