//go:build integration

package redisad_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	redisad "hostel_guide/internal/adapters/redis"
	"hostel_guide/internal/domain"
)

func TestCache_RealRedis(t *testing.T) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run redis: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	addr := fmt.Sprintf("127.0.0.1:%s", resource.GetPort("6379/tcp"))
	c := redisad.New(addr, "", 0)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	if err := pool.Retry(func() error { return c.Ping(ctx) }); err != nil {
		t.Fatalf("connect redis: %v", err)
	}

	in := domain.Coordinates{Lat: -33.8688, Lng: 151.2093}
	if err := c.Set(ctx, "position:it", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out domain.Coordinates
	ok, err := c.Get(ctx, "position:it", &out)
	if err != nil || !ok || out != in {
		t.Fatalf("get: ok=%v err=%v out=%v", ok, err, out)
	}
}
