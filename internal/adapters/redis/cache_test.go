package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "hotel_churn/internal/adapters/redis"
	"hotel_churn/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	var got domain.CustomerRisk
	if ok, err := c.Get(ctx, "k", &got); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	in := domain.CustomerRisk{RunID: "r1", Email: "a@x", ChurnProbability: 0.72, RiskCategory: domain.TierCritical}
	if err := c.Set(ctx, "k", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("churn:k") {
		t.Fatal("key should be stored under the churn: prefix")
	}
	if ok, err := c.Get(ctx, "k", &got); !ok || err != nil || got != in {
		t.Fatalf("get: ok=%v err=%v got=%+v", ok, err, got)
	}

	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "k", &got); ok {
		t.Fatal("deleted key still readable")
	}
}

func TestCache_Expires(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	if err := c.Set(ctx, "k", 1, 10); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(11 * time.Second)
	var v int
	if ok, _ := c.Get(ctx, "k", &v); ok {
		t.Fatal("expired key still readable")
	}
}
