package main

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"time"
	_ "time/tzdata" // site timezones resolve without system zoneinfo

	"github.com/rs/zerolog/log"

	"hostel_guide/content"
	"hostel_guide/internal/adapters/geoip"
	server "hostel_guide/internal/adapters/http_server"
	"hostel_guide/internal/adapters/observability"
	redisad "hostel_guide/internal/adapters/redis"
	"hostel_guide/internal/app"
	"hostel_guide/internal/domain"
	"hostel_guide/internal/shared"
	"hostel_guide/internal/storage/files"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	if ms := observability.Serve(cfg.MetricsAddr, reg); ms != nil {
		defer ms.Close()
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		log.Error().Err(err).Msg("sentry init failed, continuing without error reporting")
	}
	defer observability.FlushSentry()

	// content
	var fsys fs.FS = content.FS
	if cfg.ContentDir != "" {
		fsys = os.DirFS(cfg.ContentDir)
		log.Info().Str("dir", cfg.ContentDir).Msg("serving content from disk")
	}
	store := app.NewContentStore(files.New(fsys))

	// settings decide the calendar zone for events, so they must load at boot;
	// going through the store keeps them to a single load
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	settings, err := store.GetSettings(ctx)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("settings load failed")
	}
	tz, err := store.Timezone(ctx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid site timezone")
	}
	log.Info().Str("timezone", tz.String()).Msg("site timezone")

	// position reuse
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, pcancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, positions will not be reused")
		} else {
			cache = rc
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis connection ok")
		}
		pcancel()
	}

	// approximate fallback, opt-in per request
	var ipLocator server.IPLocator
	if cfg.GeoIPDBPath != "" {
		r, err := geoip.Open(cfg.GeoIPDBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("geoip open failed")
		}
		defer r.Close()
		ipLocator = r
	}

	loc := app.NewLocationProvider(cache, app.LocationConfig{
		Timeout:    cfg.LocationTimeout,
		MaximumAge: cfg.LocationMaxAge,
	})

	// http
	srv := server.New(cfg.TrustedProxies...)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Content:      store,
		Annotator:    app.NewAnnotator(loc),
		IP:           ipLocator,
		UpcomingDays: cfg.UpcomingWindowDays,
		RateLimitRPS: cfg.RateLimitRPS,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Str("hostel", settings.HostelName).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
