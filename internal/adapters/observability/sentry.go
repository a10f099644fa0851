package observability

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"hostel_guide/internal/domain"
)

// InitSentry enables error reporting when dsn is set. A blank dsn leaves
// reporting disabled.
func InitSentry(dsn, env string) error {
	if dsn == "" {
		log.Debug().Msg("sentry DSN not configured, error reporting disabled")
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Request != nil && event.Request.Headers != nil {
				delete(event.Request.Headers, "Cookie")
				delete(event.Request.Headers, "X-Geo-Lat")
				delete(event.Request.Headers, "X-Geo-Lng")
			}
			return event
		},
	})
	if err != nil {
		return err
	}
	log.Info().Str("environment", env).Msg("sentry initialized")
	return nil
}

// ReportContentError forwards content load failures to sentry. Other errors
// are caller bugs or expected outcomes and are not reported.
func ReportContentError(err error) {
	var cle *domain.ContentLoadError
	if !errors.As(err, &cle) {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("content_source", cle.Source)
		sentry.CaptureException(err)
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
