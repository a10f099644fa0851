package geoip

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_guide/internal/domain"
)

type fakeDB map[string]*geoip2.City

func (f fakeDB) City(ip net.IP) (*geoip2.City, error) {
	if c, ok := f[ip.String()]; ok {
		return c, nil
	}
	return nil, errors.New("not in db")
}

func city(lat, lng float64) *geoip2.City {
	c := &geoip2.City{}
	c.Location.Latitude = lat
	c.Location.Longitude = lng
	return c
}

func TestSourceFor(t *testing.T) {
	r := &Reader{db: fakeDB{
		"203.0.113.7":  city(18.79, 98.98),
		"198.51.100.1": city(0, 0),
	}}
	ctx := context.Background()

	got, err := r.SourceFor(net.ParseIP("203.0.113.7")).CurrentPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 18.79, Lng: 98.98}, got)

	_, err = r.SourceFor(net.ParseIP("198.51.100.1")).CurrentPosition(ctx)
	assert.ErrorIs(t, err, domain.ErrLocationUnsupported)

	_, err = r.SourceFor(net.ParseIP("127.0.0.1")).CurrentPosition(ctx)
	assert.ErrorIs(t, err, domain.ErrLocationUnsupported)

	_, err = r.SourceFor(net.ParseIP("192.168.1.10")).CurrentPosition(ctx)
	assert.ErrorIs(t, err, domain.ErrLocationUnsupported)

	_, err = r.SourceFor(net.ParseIP("8.8.8.8")).CurrentPosition(ctx)
	assert.Error(t, err)

	assert.NoError(t, r.Close())
}
