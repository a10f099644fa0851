package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"hostel_guide/internal/app"
	"hostel_guide/internal/domain"
)

// Headers a page script uses to forward the browser geolocation outcome.
const (
	HeaderLat     = "X-Geo-Lat"
	HeaderLng     = "X-Geo-Lng"
	HeaderDenied  = "X-Geo-Denied"
	HeaderConsent = "X-Geo-Consent" // "approximate" allows an IP-based fallback
)

// IPLocator resolves a client IP to a position source.
type IPLocator interface {
	SourceFor(ip net.IP) domain.PositionSource
}

// requestSource answers with the coordinates the browser forwarded on the
// request, if any.
type requestSource struct{ r *http.Request }

func (s requestSource) CurrentPosition(ctx context.Context) (domain.Coordinates, error) {
	h := s.r.Header
	q := s.r.URL.Query()
	if h.Get(HeaderDenied) == "1" || q.Get("geo") == "denied" {
		return domain.Coordinates{}, domain.ErrPermissionDenied
	}
	lat, lng := h.Get(HeaderLat), h.Get(HeaderLng)
	if lat == "" && lng == "" {
		lat, lng = q.Get("lat"), q.Get("lng")
	}
	if lat == "" || lng == "" {
		return domain.Coordinates{}, domain.ErrLocationUnsupported
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return domain.Coordinates{}, domain.ErrLocationUnsupported
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return domain.Coordinates{}, domain.ErrLocationUnsupported
	}
	return domain.Coordinates{Lat: la, Lng: ln}, nil
}

// chainSource asks each source in turn. A denial ends the chain: the user
// said no, so no fallback is tried.
type chainSource []domain.PositionSource

func (c chainSource) CurrentPosition(ctx context.Context) (domain.Coordinates, error) {
	last := domain.ErrLocationUnsupported
	for _, s := range c {
		pos, err := s.CurrentPosition(ctx)
		if err == nil {
			return pos, nil
		}
		if errors.Is(err, domain.ErrPermissionDenied) || ctx.Err() != nil {
			return domain.Coordinates{}, err
		}
		last = err
	}
	return domain.Coordinates{}, last
}

func (h *Handlers) locateRequest(r *http.Request) app.LocateRequest {
	src := chainSource{requestSource{r: r}}
	if h.IP != nil && strings.EqualFold(r.Header.Get(HeaderConsent), "approximate") {
		if ip := net.ParseIP(remoteIP(r)); ip != nil {
			src = append(src, h.IP.SourceFor(ip))
		}
	}
	return app.LocateRequest{Session: sessionFrom(r.Context()), Source: src}
}
