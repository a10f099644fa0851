package shared

import (
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv             string
	HTTPAddr           string
	MetricsAddr        string
	ContentDir         string // empty: bundled content
	RedisAddr          string // empty: no position reuse
	RedisDB            int
	RedisPass          string
	GeoIPDBPath        string
	LocationTimeout    time.Duration
	LocationMaxAge     time.Duration
	UpcomingWindowDays int
	RateLimitRPS       int
	SentryDSN          string
	TrustedProxies     []netip.Prefix // peers whose X-Forwarded-For is believed
}

// Load reads the environment, after merging a local .env file if present.
func Load() Config {
	if err := godotenv.Load(".env"); err == nil {
		log.Debug().Msg("loaded .env")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric config value")
		}
		return def
	}
	c := Config{
		AppEnv:             env("APP_ENV", "prod"),
		HTTPAddr:           env("HTTP_ADDR", ":8080"),
		MetricsAddr:        env("METRICS_ADDR", ""),
		ContentDir:         env("CONTENT_DIR", ""),
		RedisAddr:          env("REDIS_ADDR", ""),
		RedisPass:          env("REDIS_PASSWORD", ""),
		RedisDB:            atoi("REDIS_DB", 0),
		GeoIPDBPath:        env("GEOIP_DB_PATH", ""),
		LocationTimeout:    time.Duration(atoi("LOCATION_TIMEOUT_SECONDS", 10)) * time.Second,
		LocationMaxAge:     time.Duration(atoi("LOCATION_MAX_AGE_SECONDS", 300)) * time.Second,
		UpcomingWindowDays: atoi("UPCOMING_WINDOW_DAYS", 7),
		RateLimitRPS:       atoi("RATE_LIMIT_RPS", 20),
		SentryDSN:          env("SENTRY_DSN", ""),
		TrustedProxies:     prefixes("TRUSTED_PROXIES"),
	}
	if c.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR is empty, user positions will not be reused")
	}
	return c
}

// prefixes parses a comma-separated list of CIDRs or bare addresses.
func prefixes(k string) []netip.Prefix {
	var out []netip.Prefix
	for _, f := range strings.Split(os.Getenv(k), ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if p, err := netip.ParsePrefix(f); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(f); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		log.Warn().Str("key", k).Str("value", f).Msg("ignoring invalid proxy address")
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
