package engine

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, RedisConfig{Prefix: "test"}), mr
}

func TestRedisPutGetRoundTrip(t *testing.T) {
	eng, _ := newTestRedis(t)
	ctx := context.Background()

	if err := eng.Put(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := eng.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("Get = %q, want %q", got, "v1")
	}
}

func TestRedisGetMissing(t *testing.T) {
	eng, _ := newTestRedis(t)

	_, err := eng.Get(context.Background(), "absent")
	if err != ErrNotFound {
		t.Fatalf("Get absent = %v, want ErrNotFound", err)
	}
}

func TestRedisPutIndexedAndGetGroup(t *testing.T) {
	eng, _ := newTestRedis(t)
	ctx := context.Background()

	if err := eng.PutIndexed(ctx, "t1", []byte("a"), "g1"); err != nil {
		t.Fatalf("PutIndexed t1: %v", err)
	}
	if err := eng.PutIndexed(ctx, "t2", []byte("b"), "g1"); err != nil {
		t.Fatalf("PutIndexed t2: %v", err)
	}
	if err := eng.PutIndexed(ctx, "t3", []byte("c"), "g2"); err != nil {
		t.Fatalf("PutIndexed t3: %v", err)
	}

	g1, err := eng.GetGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGroup g1: %v", err)
	}
	if len(g1) != 2 {
		t.Fatalf("g1 has %d members, want 2", len(g1))
	}
	if !bytes.Equal(g1["t1"], []byte("a")) || !bytes.Equal(g1["t2"], []byte("b")) {
		t.Fatalf("g1 members wrong: %v", g1)
	}

	g2, err := eng.GetGroup(ctx, "g2")
	if err != nil {
		t.Fatalf("GetGroup g2: %v", err)
	}
	if len(g2) != 1 || !bytes.Equal(g2["t3"], []byte("c")) {
		t.Fatalf("g2 members wrong: %v", g2)
	}
}

func TestRedisPutIndexedMigratesGroup(t *testing.T) {
	eng, _ := newTestRedis(t)
	ctx := context.Background()

	if err := eng.PutIndexed(ctx, "t1", []byte("a"), "g1"); err != nil {
		t.Fatalf("PutIndexed: %v", err)
	}
	if err := eng.PutIndexed(ctx, "t1", []byte("a2"), "g2"); err != nil {
		t.Fatalf("re-PutIndexed: %v", err)
	}

	g1, err := eng.GetGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGroup g1: %v", err)
	}
	if len(g1) != 0 {
		t.Fatalf("g1 still has %d members after migration", len(g1))
	}

	g2, err := eng.GetGroup(ctx, "g2")
	if err != nil {
		t.Fatalf("GetGroup g2: %v", err)
	}
	if !bytes.Equal(g2["t1"], []byte("a2")) {
		t.Fatalf("g2 membership wrong: %v", g2)
	}
}

func TestRedisDeleteIndexed(t *testing.T) {
	eng, _ := newTestRedis(t)
	ctx := context.Background()

	if err := eng.PutIndexed(ctx, "t1", []byte("a"), "g1"); err != nil {
		t.Fatalf("PutIndexed: %v", err)
	}
	if err := eng.DeleteIndexed(ctx, "t1"); err != nil {
		t.Fatalf("DeleteIndexed: %v", err)
	}
	if err := eng.DeleteIndexed(ctx, "t1"); err != nil {
		t.Fatalf("second DeleteIndexed: %v", err)
	}

	if _, err := eng.Get(ctx, "t1"); err != ErrNotFound {
		t.Fatalf("Get after DeleteIndexed = %v, want ErrNotFound", err)
	}
	g1, err := eng.GetGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(g1) != 0 {
		t.Fatalf("g1 still has %d members", len(g1))
	}
}

func TestRedisGetGroupHealsStaleMembers(t *testing.T) {
	eng, mr := newTestRedis(t)
	ctx := context.Background()

	if err := eng.PutIndexed(ctx, "t1", []byte("a"), "g1"); err != nil {
		t.Fatalf("PutIndexed t1: %v", err)
	}
	if err := eng.PutIndexed(ctx, "t2", []byte("b"), "g1"); err != nil {
		t.Fatalf("PutIndexed t2: %v", err)
	}

	// Simulate an out-of-band expiry of one primary entry.
	mr.Del("test:k:t1")

	g1, err := eng.GetGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(g1) != 1 || !bytes.Equal(g1["t2"], []byte("b")) {
		t.Fatalf("stale member not skipped: %v", g1)
	}

	// The heal removed the stale member from the set.
	members, err := mr.SMembers("test:g:g1")
	if err != nil {
		t.Fatalf("SMembers: %v", err)
	}
	if len(members) != 1 || members[0] != "t2" {
		t.Fatalf("set not healed: %v", members)
	}
}

func TestRedisGetGroupEmpty(t *testing.T) {
	eng, _ := newTestRedis(t)

	group, err := eng.GetGroup(context.Background(), "none")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(group) != 0 {
		t.Fatalf("empty group returned %d members", len(group))
	}
}

func TestRedisCompareAndSwap(t *testing.T) {
	eng, _ := newTestRedis(t)
	ctx := context.Background()

	if err := eng.Put(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	swapped, err := eng.CompareAndSwap(ctx, "k1", []byte("v1"), []byte("v2"))
	if err != nil {
		t.Fatalf("CompareAndSwap: %v", err)
	}
	if !swapped {
		t.Fatal("CompareAndSwap with matching expected did not swap")
	}

	swapped, err = eng.CompareAndSwap(ctx, "k1", []byte("v1"), []byte("v3"))
	if err != nil {
		t.Fatalf("CompareAndSwap: %v", err)
	}
	if swapped {
		t.Fatal("CompareAndSwap with stale expected swapped")
	}

	swapped, err = eng.CompareAndSwap(ctx, "absent", []byte("x"), []byte("y"))
	if err != nil {
		t.Fatalf("CompareAndSwap absent: %v", err)
	}
	if swapped {
		t.Fatal("CompareAndSwap on absent key swapped")
	}

	got, err := eng.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("value = %q, want %q", got, "v2")
	}
}

func TestRedisUnavailable(t *testing.T) {
	eng, mr := newTestRedis(t)
	ctx := context.Background()

	mr.Close()

	if err := eng.Put(ctx, "k1", []byte("v1")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Put after close = %v, want ErrUnavailable", err)
	}
	if _, err := eng.Get(ctx, "k1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Get after close = %v, want ErrUnavailable", err)
	}
	if err := eng.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Ping after close = %v, want ErrUnavailable", err)
	}
}

func TestRedisDefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	eng := NewRedis(client, RedisConfig{})
	ctx := context.Background()

	if err := eng.Put(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !mr.Exists("sr:k:k1") {
		t.Fatal("default prefix not applied")
	}
}
