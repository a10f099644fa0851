package app

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"hostel_guide/internal/adapters/observability"
	"hostel_guide/internal/domain"
	"hostel_guide/internal/geo"
)

// LocateRequest names the viewer and the host capability to ask for a
// position.
type LocateRequest struct {
	Session string
	Source  domain.PositionSource
}

// Annotator computes walking distances from the user's position to a batch of
// displayed entries. It only produces data; element lookup and mutation stay
// with the presentation layer.
type Annotator struct {
	loc *LocationProvider
}

func NewAnnotator(loc *LocationProvider) *Annotator {
	return &Annotator{loc: loc}
}

// Annotate resolves the user's position and returns one annotation per target
// with usable coordinates. located is false when no position is available, in
// which case nothing must be changed on the page.
func (a *Annotator) Annotate(ctx context.Context, req LocateRequest, targets []domain.DistanceTarget) (anns []domain.DistanceAnnotation, located bool) {
	user, ok := a.loc.GetUserLocation(ctx, req.Session, req.Source)
	if !ok {
		return nil, false
	}
	return ComputeAnnotations(user, targets), true
}

// ComputeAnnotations is the pure part of Annotate.
func ComputeAnnotations(user domain.Coordinates, targets []domain.DistanceTarget) []domain.DistanceAnnotation {
	out := make([]domain.DistanceAnnotation, 0, len(targets))
	for _, t := range targets {
		c, ok := ParseTargetCoordinates(t.Lat, t.Lng)
		if !ok {
			observability.ObserveAnnotation(string(t.Kind), "skipped")
			continue
		}
		m := geo.Distance(user, c)
		ann := domain.DistanceAnnotation{Key: t.Key, Kind: t.Kind, Meters: m, Text: geo.FormatDistance(m)}
		if t.Kind == domain.TargetBadge {
			ann.Caption = ann.Text + " walk"
		}
		observability.ObserveAnnotation(string(t.Kind), "annotated")
		out = append(out, ann)
	}
	return out
}

// ParseTargetCoordinates reads coordinate attribute values. Missing,
// non-numeric and out-of-range values are rejected, as is the (0,0)
// placeholder that templates emit for spots without a location.
func ParseTargetCoordinates(lat, lng string) (domain.Coordinates, bool) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return domain.Coordinates{}, false
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return domain.Coordinates{}, false
	}
	c := domain.Coordinates{Lat: la, Lng: ln}
	if (la == 0 && ln == 0) || !geo.Valid(c) {
		return domain.Coordinates{}, false
	}
	return c, true
}

// SpotDistances returns the distance to every spot that has a position,
// nearest first. Spots are judged by field presence, so a real point at
// (0,0) is kept.
func (a *Annotator) SpotDistances(ctx context.Context, req LocateRequest, spots []domain.Spot) ([]domain.SpotDistance, bool) {
	user, ok := a.loc.GetUserLocation(ctx, req.Session, req.Source)
	if !ok {
		return nil, false
	}
	out := make([]domain.SpotDistance, 0, len(spots))
	for _, sp := range spots {
		pos, ok := sp.Position()
		if !ok || !geo.Valid(pos) {
			continue
		}
		m := geo.Distance(user, pos)
		out = append(out, domain.SpotDistance{ID: sp.ID, Name: sp.Name, Meters: m, Text: geo.FormatDistance(m)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Meters < out[j].Meters })
	return out, true
}
