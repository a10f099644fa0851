package domain

import "context"

// ContentSource reads the raw static content. Implementations do no caching.
type ContentSource interface {
	LoadSettings(ctx context.Context) (Settings, error)
	LoadSpots(ctx context.Context, c Category) ([]Spot, error)
	LoadEvents(ctx context.Context) ([]HostelEvent, error)
}

// PositionSource is the host capability that yields the user's position.
// It returns ErrLocationUnsupported or ErrPermissionDenied when no position
// can be given.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
}

type PositionSourceFunc func(ctx context.Context) (Coordinates, error)

func (f PositionSourceFunc) CurrentPosition(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models for the proximity annotator.

type TargetKind string

const (
	TargetInline TargetKind = "inline"
	TargetBadge  TargetKind = "badge"
)

// DistanceTarget is a display element carrying raw coordinate attributes.
type DistanceTarget struct {
	Key  string
	Kind TargetKind
	Lat  string
	Lng  string
}

type DistanceAnnotation struct {
	Key     string     `json:"key"`
	Kind    TargetKind `json:"kind"`
	Meters  float64    `json:"meters"`
	Text    string     `json:"text"`
	Caption string     `json:"caption,omitempty"`
}

type SpotDistance struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Meters float64 `json:"meters"`
	Text   string  `json:"text"`
}
