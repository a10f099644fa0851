// Command contentcheck loads every piece of bundled (or CONTENT_DIR) content
// and reports problems a page would otherwise hide: unreadable files, spots
// with duplicate ids or bad coordinates, and events with unparseable dates.
// It exits non-zero when anything is wrong.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
	_ "time/tzdata" // site timezones resolve without system zoneinfo

	"github.com/rs/zerolog/log"

	"hostel_guide/content"
	"hostel_guide/internal/adapters/observability"
	"hostel_guide/internal/app"
	"hostel_guide/internal/domain"
	"hostel_guide/internal/geo"
	"hostel_guide/internal/shared"
	"hostel_guide/internal/storage/files"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	var fsys fs.FS = content.FS
	if cfg.ContentDir != "" {
		fsys = os.DirFS(cfg.ContentDir)
	}
	problems := check(ctx, fsys)
	if problems > 0 {
		log.Error().Int("problems", problems).Msg("content check failed")
		cancel()
		os.Exit(1)
	}
	log.Info().Msg("content ok")
}

func check(ctx context.Context, fsys fs.FS) int {
	src := files.New(fsys)
	problems := 0

	store := app.NewContentStore(src)
	settings, err := store.GetSettings(ctx)
	if err != nil {
		log.Error().Err(err).Msg("settings")
		return 1
	}
	tz, err := store.Timezone(ctx)
	if err != nil {
		log.Error().Err(err).Msg("settings")
		problems++
		store = app.NewContentStore(src, app.WithTimezone(time.UTC))
		tz = time.UTC
	}

	all, err := store.GetAllSpots(ctx)
	if err != nil {
		log.Error().Err(err).Msg("spots")
		problems++
	}
	for _, c := range domain.Categories {
		seen := map[string]bool{}
		for _, sp := range all[c] {
			if seen[sp.ID] {
				log.Error().Str("category", string(c)).Str("id", sp.ID).Msg("duplicate spot id")
				problems++
			}
			seen[sp.ID] = true
			if pos, ok := sp.Position(); ok && !geo.Valid(pos) {
				log.Error().Str("category", string(c)).Str("id", sp.ID).
					Float64("lat", pos.Lat).Float64("lng", pos.Lng).Msg("coordinates out of range")
				problems++
			}
		}
		if all != nil {
			log.Info().Str("category", string(c)).Int("spots", len(all[c])).Msg("spots loaded")
		}
	}

	events, err := store.GetEvents(ctx)
	if err != nil {
		log.Error().Err(err).Msg("events")
		return problems + 1
	}
	for _, ev := range events {
		if _, err := ev.ParseDate(tz); err != nil {
			log.Error().Err(err).Msg("event date")
			problems++
		}
		if ev.CTA != nil && ev.CTA.Href(settings) == "" {
			log.Error().Str("id", ev.ID).Msg("event CTA resolves to an empty link")
			problems++
		}
	}

	upcoming, err := store.GetUpcomingEvents(ctx, 7)
	var derr *domain.EventDateError
	if err != nil && !errors.As(err, &derr) {
		log.Error().Err(err).Msg("upcoming events")
		problems++
	}
	log.Info().Int("events", len(events)).Int("upcoming", len(upcoming)).Msg("events loaded")
	return problems
}
