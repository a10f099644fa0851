package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"hostel_guide/internal/adapters/observability"
	"hostel_guide/internal/domain"
	"hostel_guide/internal/geo"
)

const (
	DefaultLocationTimeout    = 10 * time.Second
	DefaultLocationMaximumAge = 5 * time.Minute
)

type LocationConfig struct {
	// Timeout bounds the wait on the position source.
	Timeout time.Duration
	// MaximumAge is how long a previously obtained position may be reused.
	// Zero disables reuse.
	MaximumAge time.Duration
}

// LocationProvider obtains the user's position once per call with a bounded
// wait. Every failure mode (unsupported, denied, timeout, source error) is
// reported as "no location", never as an error.
type LocationProvider struct {
	cache domain.Cache
	cfg   LocationConfig
	now   func() time.Time
}

// NewLocationProvider builds a provider. cache may be nil, in which case
// positions are never reused.
func NewLocationProvider(cache domain.Cache, cfg LocationConfig) *LocationProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLocationTimeout
	}
	if cfg.MaximumAge < 0 {
		cfg.MaximumAge = 0
	}
	return &LocationProvider{cache: cache, cfg: cfg, now: time.Now}
}

type cachedPosition struct {
	Coords     domain.Coordinates `json:"coords"`
	ObtainedAt time.Time          `json:"obtained_at"`
}

// GetUserLocation asks src for the current position. session identifies the
// viewer for position reuse; an empty session disables reuse.
//
// The source is always asked first. A stored position stands in only when
// the source cannot answer (unsupported or timed out); a denial drops it.
func (p *LocationProvider) GetUserLocation(ctx context.Context, session string, src domain.PositionSource) (domain.Coordinates, bool) {
	if src == nil {
		return p.fallback(ctx, session, "unsupported")
	}

	c, err := p.ask(ctx, src)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrPermissionDenied):
		observability.ObserveLocation("denied")
		p.forget(ctx, session)
		return domain.Coordinates{}, false
	case errors.Is(err, domain.ErrLocationUnsupported):
		return p.fallback(ctx, session, "unsupported")
	case errors.Is(err, context.DeadlineExceeded):
		log.Debug().Dur("timeout", p.cfg.Timeout).Msg("location request timed out")
		return p.fallback(ctx, session, "timeout")
	default:
		observability.ObserveLocation("error")
		log.Warn().Err(err).Msg("location source failed")
		return domain.Coordinates{}, false
	}
	if !geo.Valid(c) {
		observability.ObserveLocation("error")
		log.Warn().Float64("lat", c.Lat).Float64("lng", c.Lng).Msg("location source returned out-of-range coordinates")
		return domain.Coordinates{}, false
	}

	observability.ObserveLocation("granted")
	p.remember(ctx, session, c)
	return c, true
}

// ask waits on src for at most the configured timeout.
func (p *LocationProvider) ask(ctx context.Context, src domain.PositionSource) (domain.Coordinates, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	type result struct {
		c   domain.Coordinates
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := src.CurrentPosition(ctx)
		ch <- result{c: c, err: err}
	}()

	select {
	case r := <-ch:
		return r.c, r.err
	case <-ctx.Done():
		return domain.Coordinates{}, ctx.Err()
	}
}

// fallback serves a stored position when one is fresh, otherwise reports
// outcome.
func (p *LocationProvider) fallback(ctx context.Context, session, outcome string) (domain.Coordinates, bool) {
	if c, ok := p.reuse(ctx, session); ok {
		observability.ObserveLocation("cached")
		return c, true
	}
	observability.ObserveLocation(outcome)
	return domain.Coordinates{}, false
}

func positionKey(session string) string { return "position:" + session }

func (p *LocationProvider) reuse(ctx context.Context, session string) (domain.Coordinates, bool) {
	if p.cache == nil || session == "" || p.cfg.MaximumAge == 0 {
		return domain.Coordinates{}, false
	}
	var cp cachedPosition
	ok, err := p.cache.Get(ctx, positionKey(session), &cp)
	if err != nil {
		log.Warn().Err(err).Msg("position cache read failed")
		return domain.Coordinates{}, false
	}
	if !ok || p.now().Sub(cp.ObtainedAt) > p.cfg.MaximumAge {
		return domain.Coordinates{}, false
	}
	return cp.Coords, true
}

func (p *LocationProvider) remember(ctx context.Context, session string, c domain.Coordinates) {
	if p.cache == nil || session == "" || p.cfg.MaximumAge == 0 {
		return
	}
	ttl := int(p.cfg.MaximumAge.Seconds())
	if ttl < 1 {
		ttl = 1
	}
	cp := cachedPosition{Coords: c, ObtainedAt: p.now()}
	if err := p.cache.Set(context.WithoutCancel(ctx), positionKey(session), cp, ttl); err != nil {
		log.Warn().Err(err).Msg("position cache write failed")
	}
}

func (p *LocationProvider) forget(ctx context.Context, session string) {
	if p.cache == nil || session == "" {
		return
	}
	if err := p.cache.Del(context.WithoutCancel(ctx), positionKey(session)); err != nil {
		log.Warn().Err(err).Msg("position cache delete failed")
	}
}
