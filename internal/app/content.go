package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"hostel_guide/internal/adapters/observability"
	"hostel_guide/internal/domain"
)

type spotLoader func(ctx context.Context) ([]domain.Spot, error)

// ContentStore gives cached, typed access to the static content. Settings and
// each category's spots are loaded at most once per store; the returned
// slices are shared and must not be modified by callers.
type ContentStore struct {
	src     domain.ContentSource
	loaders map[domain.Category]spotLoader
	loc     *time.Location // nil: taken from settings.timezone
	now     func() time.Time

	mu       sync.RWMutex
	settings *domain.Settings
	spots    map[domain.Category][]domain.Spot
	inflight singleflight.Group
}

type ContentOption func(*ContentStore)

// WithTimezone fixes the zone used to place event dates on the calendar,
// overriding the settings' timezone.
func WithTimezone(loc *time.Location) ContentOption {
	return func(s *ContentStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides time.Now for upcoming-event queries.
func WithClock(now func() time.Time) ContentOption {
	return func(s *ContentStore) { s.now = now }
}

func NewContentStore(src domain.ContentSource, opts ...ContentOption) *ContentStore {
	s := &ContentStore{
		src:     src,
		loaders: make(map[domain.Category]spotLoader, len(domain.Categories)),
		now:     time.Now,
		spots:   make(map[domain.Category][]domain.Spot, len(domain.Categories)),
	}
	for _, c := range domain.Categories {
		c := c
		s.loaders[c] = func(ctx context.Context) ([]domain.Spot, error) { return src.LoadSpots(ctx, c) }
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *ContentStore) GetSettings(ctx context.Context) (domain.Settings, error) {
	s.mu.RLock()
	cached := s.settings
	s.mu.RUnlock()
	if cached != nil {
		observability.ObserveCache("content", "hit")
		return *cached, nil
	}
	observability.ObserveCache("content", "miss")

	v, err, _ := s.inflight.Do("settings", func() (any, error) {
		s.mu.RLock()
		cached := s.settings
		s.mu.RUnlock()
		if cached != nil {
			return *cached, nil
		}
		var st domain.Settings
		err := s.load(ctx, "settings", func(ctx context.Context) error {
			var err error
			st, err = s.src.LoadSettings(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.settings = &st
		s.mu.Unlock()
		return st, nil
	})
	if err != nil {
		return domain.Settings{}, err
	}
	return v.(domain.Settings), nil
}

func (s *ContentStore) GetSpots(ctx context.Context, c domain.Category) ([]domain.Spot, error) {
	load, ok := s.loaders[c]
	if !ok {
		return nil, &domain.InvalidCategoryError{Value: string(c)}
	}
	if spots, ok := s.cachedSpots(c); ok {
		observability.ObserveCache("content", "hit")
		return spots, nil
	}
	observability.ObserveCache("content", "miss")

	// concurrent first calls for a category share one load
	v, err, _ := s.inflight.Do("spots:"+string(c), func() (any, error) {
		if spots, ok := s.cachedSpots(c); ok {
			return spots, nil
		}
		var spots []domain.Spot
		err := s.load(ctx, "spots/"+string(c), func(ctx context.Context) error {
			var err error
			spots, err = load(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		if spots == nil {
			spots = []domain.Spot{}
		}
		s.mu.Lock()
		s.spots[c] = spots
		s.mu.Unlock()
		return spots, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Spot), nil
}

func (s *ContentStore) cachedSpots(c domain.Category) ([]domain.Spot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spots, ok := s.spots[c]
	return spots, ok
}

// GetSpotByID scans one category. ok is false when no spot has the id.
func (s *ContentStore) GetSpotByID(ctx context.Context, c domain.Category, id string) (domain.Spot, bool, error) {
	spots, err := s.GetSpots(ctx, c)
	if err != nil {
		return domain.Spot{}, false, err
	}
	for _, sp := range spots {
		if sp.ID == id {
			return sp, true, nil
		}
	}
	return domain.Spot{}, false, nil
}

// GetAllSpots loads every category concurrently. Any failure fails the whole
// call; a partial catalog is never returned.
func (s *ContentStore) GetAllSpots(ctx context.Context) (map[domain.Category][]domain.Spot, error) {
	results := make([][]domain.Spot, len(domain.Categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range domain.Categories {
		i, c := i, c
		g.Go(func() error {
			spots, err := s.GetSpots(gctx, c)
			if err != nil {
				return err
			}
			results[i] = spots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[domain.Category][]domain.Spot, len(domain.Categories))
	for i, c := range domain.Categories {
		out[c] = results[i]
	}
	return out, nil
}

// FindSpotByID looks the id up across categories in enumeration order and
// returns the first match. Ids are only unique within a category, so a later
// category holding the same id is never returned.
func (s *ContentStore) FindSpotByID(ctx context.Context, id string) (domain.SpotMatch, bool, error) {
	all, err := s.GetAllSpots(ctx)
	if err != nil {
		return domain.SpotMatch{}, false, err
	}
	for _, c := range domain.Categories {
		for _, sp := range all[c] {
			if sp.ID == id {
				return domain.SpotMatch{Spot: sp, Category: c}, true, nil
			}
		}
	}
	return domain.SpotMatch{}, false, nil
}

// GetEvents reads the event collection. It is not cached.
func (s *ContentStore) GetEvents(ctx context.Context) ([]domain.HostelEvent, error) {
	var events []domain.HostelEvent
	err := s.load(ctx, "events", func(ctx context.Context) error {
		var err error
		events, err = s.src.LoadEvents(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// GetUpcomingEvents returns events dated from today through today+windowDays
// (both inclusive, calendar days in the store's timezone), oldest first with
// ties kept in collection order.
//
// Events whose date does not parse are left out of the result and reported in
// a *domain.EventDateError returned together with the valid events.
func (s *ContentStore) GetUpcomingEvents(ctx context.Context, windowDays int) ([]domain.HostelEvent, error) {
	events, err := s.GetEvents(ctx)
	if err != nil {
		return nil, err
	}
	if windowDays < 0 {
		windowDays = 0
	}

	loc, err := s.Timezone(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	last := today.AddDate(0, 0, windowDays)

	type dated struct {
		ev domain.HostelEvent
		at time.Time
	}
	var (
		picked  []dated
		badDate []error
	)
	for _, ev := range events {
		at, err := ev.ParseDate(loc)
		if err != nil {
			badDate = append(badDate, err)
			continue
		}
		at = at.In(loc)
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, loc)
		if day.Before(today) || day.After(last) {
			continue
		}
		picked = append(picked, dated{ev: ev, at: at})
	}
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].at.Before(picked[j].at) })

	out := make([]domain.HostelEvent, len(picked))
	for i, p := range picked {
		out[i] = p.ev
	}
	if len(badDate) > 0 {
		derr := &domain.EventDateError{Entries: badDate}
		log.Warn().Err(derr).Int("invalid", len(badDate)).Msg("events with unparseable dates")
		return out, derr
	}
	return out, nil
}

// Timezone is the site's calendar zone: the WithTimezone override if given,
// else settings.timezone (UTC when blank). It goes through GetSettings, so
// resolving it at boot also warms the settings cache.
func (s *ContentStore) Timezone(ctx context.Context) (*time.Location, error) {
	s.mu.RLock()
	loc := s.loc
	s.mu.RUnlock()
	if loc != nil {
		return loc, nil
	}
	st, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	loc = time.UTC
	if st.Timezone != "" {
		if loc, err = time.LoadLocation(st.Timezone); err != nil {
			return nil, fmt.Errorf("settings timezone %q: %w", st.Timezone, err)
		}
	}
	s.mu.Lock()
	s.loc = loc
	s.mu.Unlock()
	return loc, nil
}

// Categories returns the category descriptor table. No I/O.
func (s *ContentStore) Categories() []domain.CategoryMeta {
	return domain.AllCategoryMeta()
}

func (s *ContentStore) CategoryMeta(slug domain.Category) (domain.CategoryMeta, bool) {
	return domain.LookupCategoryMeta(slug)
}

// load runs fn detached from the caller's cancellation so a load shared by
// several callers is not aborted by the first one leaving.
func (s *ContentStore) load(ctx context.Context, source string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(context.WithoutCancel(ctx))
	observability.ObserveContentLoad(source, err, time.Since(start))
	if err == nil {
		log.Debug().Str("source", source).Dur("duration", time.Since(start)).Msg("content loaded")
		return nil
	}

	var invalid *domain.InvalidCategoryError
	if errors.As(err, &invalid) {
		return err
	}
	var cle *domain.ContentLoadError
	if !errors.As(err, &cle) {
		err = &domain.ContentLoadError{Source: source, Err: err}
	}
	log.Error().Err(err).Str("source", source).Msg("content load failed")
	observability.ReportContentError(err)
	return err
}
