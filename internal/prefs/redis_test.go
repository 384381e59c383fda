//go:build testutil
// +build testutil

package prefs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(ctx context.Context, t *testing.T) string {
	t.Helper()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := c.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	s := NewRedis(startRedis(ctx, t))
	defer s.Close()

	if err := s.Ping(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Get(ctx, PicketNameKey("dev")); ok || err != nil {
		t.Fatalf("отсутствующий ключ: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, PicketNameKey("dev"), "Bu Sari"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get(ctx, PicketNameKey("dev"))
	if err != nil || !ok || v != "Bu Sari" {
		t.Fatalf("получили %q ok=%v err=%v", v, ok, err)
	}
	ttl, err := s.Client.TTL(ctx, PicketNameKey("dev")).Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("ожидали положительный TTL, получили %v err=%v", ttl, err)
	}
}
