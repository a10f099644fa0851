// Package geoip resolves a client IP to an approximate position using a
// MaxMind City database. It only backs viewers who opted in to approximate
// location; it never substitutes for a denied browser prompt.
package geoip

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"hostel_guide/internal/domain"
)

type cityLookup interface {
	City(ip net.IP) (*geoip2.City, error)
}

type Reader struct {
	db     cityLookup
	closer func() error
}

func Open(path string) (*Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", path, err)
	}
	return &Reader{db: db, closer: db.Close}, nil
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// SourceFor returns a position source answering for ip.
func (r *Reader) SourceFor(ip net.IP) domain.PositionSource {
	return domain.PositionSourceFunc(func(ctx context.Context) (domain.Coordinates, error) {
		if err := ctx.Err(); err != nil {
			return domain.Coordinates{}, err
		}
		if ip == nil || ip.IsLoopback() || ip.IsPrivate() {
			return domain.Coordinates{}, fmt.Errorf("geoip: no public address: %w", domain.ErrLocationUnsupported)
		}
		rec, err := r.db.City(ip)
		if err != nil {
			return domain.Coordinates{}, fmt.Errorf("geoip lookup %s: %w", ip, err)
		}
		// the database leaves both at zero when it has no location for the network
		if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
			return domain.Coordinates{}, fmt.Errorf("geoip: %s not located: %w", ip, domain.ErrLocationUnsupported)
		}
		return domain.Coordinates{Lat: rec.Location.Latitude, Lng: rec.Location.Longitude}, nil
	})
}
