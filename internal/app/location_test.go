package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"hostel_guide/internal/domain"
)

// memCache is a Cache that round-trips through JSON like the redis adapter.
type memCache struct {
	store map[string][]byte
	sets  int
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	c.sets++
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

var chiangMai = domain.Coordinates{Lat: 18.7883, Lng: 98.9853}

func fixed(c domain.Coordinates) domain.PositionSource {
	return domain.PositionSourceFunc(func(ctx context.Context) (domain.Coordinates, error) { return c, nil })
}

func failing(err error) domain.PositionSource {
	return domain.PositionSourceFunc(func(ctx context.Context) (domain.Coordinates, error) {
		return domain.Coordinates{}, err
	})
}

func TestGetUserLocation_Granted(t *testing.T) {
	p := NewLocationProvider(nil, LocationConfig{})
	got, ok := p.GetUserLocation(context.Background(), "", fixed(chiangMai))
	if !ok || got != chiangMai {
		t.Fatalf("expected %v, got %v ok=%v", chiangMai, got, ok)
	}
}

func TestGetUserLocation_AbsentOutcomes(t *testing.T) {
	tests := []struct {
		name string
		src  domain.PositionSource
	}{
		{"no capability", nil},
		{"unsupported", failing(domain.ErrLocationUnsupported)},
		{"denied", failing(domain.ErrPermissionDenied)},
		{"source error", failing(errors.New("gps exploded"))},
		{"out of range", fixed(domain.Coordinates{Lat: 123, Lng: 0})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewLocationProvider(nil, LocationConfig{})
			if got, ok := p.GetUserLocation(context.Background(), "s1", tt.src); ok {
				t.Fatalf("expected no location, got %v", got)
			}
		})
	}
}

func TestGetUserLocation_Timeout(t *testing.T) {
	p := NewLocationProvider(nil, LocationConfig{Timeout: 20 * time.Millisecond})
	hang := domain.PositionSourceFunc(func(ctx context.Context) (domain.Coordinates, error) {
		time.Sleep(time.Second)
		return chiangMai, nil
	})

	start := time.Now()
	_, ok := p.GetUserLocation(context.Background(), "", hang)
	if ok {
		t.Fatalf("expected timeout to yield no location")
	}
	if el := time.Since(start); el > 500*time.Millisecond {
		t.Fatalf("call was not bounded by the timeout: %v", el)
	}
}

func TestGetUserLocation_ReusesFreshPosition(t *testing.T) {
	cache := &memCache{}
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	p := NewLocationProvider(cache, LocationConfig{MaximumAge: 5 * time.Minute})
	p.now = func() time.Time { return now }
	ctx := context.Background()

	if _, ok := p.GetUserLocation(ctx, "s1", fixed(chiangMai)); !ok {
		t.Fatalf("expected first lookup to succeed")
	}

	// within the staleness bound a silent source falls back to the stored position
	now = now.Add(4 * time.Minute)
	got, ok := p.GetUserLocation(ctx, "s1", failing(domain.ErrLocationUnsupported))
	if !ok || got != chiangMai {
		t.Fatalf("expected cached position, got %v ok=%v", got, ok)
	}
	if got, ok := p.GetUserLocation(ctx, "s1", nil); !ok || got != chiangMai {
		t.Fatalf("expected cached position without a source, got %v ok=%v", got, ok)
	}

	// another session does not see it
	if _, ok := p.GetUserLocation(ctx, "s2", failing(domain.ErrLocationUnsupported)); ok {
		t.Fatalf("expected no position for a different session")
	}

	// stale
	now = now.Add(2 * time.Minute)
	if _, ok := p.GetUserLocation(ctx, "s1", failing(domain.ErrLocationUnsupported)); ok {
		t.Fatalf("expected stale position to be ignored")
	}
}

func TestGetUserLocation_FreshAnswerWinsOverStored(t *testing.T) {
	cache := &memCache{}
	p := NewLocationProvider(cache, LocationConfig{MaximumAge: 5 * time.Minute})
	ctx := context.Background()
	moved := domain.Coordinates{Lat: 18.8047, Lng: 98.9789}

	_, _ = p.GetUserLocation(ctx, "s1", fixed(chiangMai))
	got, ok := p.GetUserLocation(ctx, "s1", fixed(moved))
	if !ok || got != moved {
		t.Fatalf("expected the fresh position %v, got %v ok=%v", moved, got, ok)
	}
}

func TestGetUserLocation_DenialOverridesStoredPosition(t *testing.T) {
	cache := &memCache{}
	p := NewLocationProvider(cache, LocationConfig{MaximumAge: 5 * time.Minute})
	ctx := context.Background()

	if _, ok := p.GetUserLocation(ctx, "s1", fixed(chiangMai)); !ok {
		t.Fatalf("expected first lookup to succeed")
	}
	if got, ok := p.GetUserLocation(ctx, "s1", failing(domain.ErrPermissionDenied)); ok {
		t.Fatalf("expected no location after denial, got %v", got)
	}
	if _, stored := cache.store[positionKey("s1")]; stored {
		t.Fatalf("expected the stored position to be dropped on denial")
	}
	// and nothing comes back afterwards either
	if _, ok := p.GetUserLocation(ctx, "s1", failing(domain.ErrLocationUnsupported)); ok {
		t.Fatalf("expected no reuse after denial")
	}
}

func TestGetUserLocation_TimeoutFallsBackToStored(t *testing.T) {
	cache := &memCache{}
	p := NewLocationProvider(cache, LocationConfig{Timeout: 20 * time.Millisecond, MaximumAge: time.Minute})
	ctx := context.Background()
	hang := domain.PositionSourceFunc(func(ctx context.Context) (domain.Coordinates, error) {
		<-ctx.Done()
		return domain.Coordinates{}, ctx.Err()
	})

	_, _ = p.GetUserLocation(ctx, "s1", fixed(chiangMai))
	got, ok := p.GetUserLocation(ctx, "s1", hang)
	if !ok || got != chiangMai {
		t.Fatalf("expected stored position after timeout, got %v ok=%v", got, ok)
	}
}

func TestGetUserLocation_NoReuseWithoutSession(t *testing.T) {
	cache := &memCache{}
	p := NewLocationProvider(cache, LocationConfig{MaximumAge: time.Minute})
	_, _ = p.GetUserLocation(context.Background(), "", fixed(chiangMai))
	if cache.sets != 0 {
		t.Fatalf("expected nothing cached without a session, got %d sets", cache.sets)
	}
}
