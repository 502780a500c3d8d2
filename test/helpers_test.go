//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/engine"
	"github.com/MrEthical07/goSession/registry"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newIntegrationEngine(t *testing.T) (*engine.Redis, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	eng := engine.NewRedis(rdb, engine.RedisConfig{Prefix: "it"})

	return eng, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func newIntegrationManager(t *testing.T) (*goSession.Manager, func()) {
	t.Helper()

	eng, _, cleanup := newIntegrationEngine(t)

	mgr, err := goSession.New().
		WithEngine(eng).
		WithAccessTracking(true).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		cleanup()
		t.Fatalf("Build failed: %v", err)
	}

	return mgr, func() {
		_ = mgr.Close()
		cleanup()
	}
}

func makeSubject(identityID string) *registry.Subject {
	now := time.Now()
	return &registry.Subject{
		IdentityID:    identityID,
		FirstAccessed: now,
		LastAccessed:  now,
		FirstIP:       "127.0.0.1",
		LastIP:        "127.0.0.1",
		UserAgent:     "integration/1.0",
	}
}
