package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values  map[string]string
	counts  map[string]int64
	expires map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:  map[string]string{},
		counts:  map[string]int64{},
		expires: map[string]time.Duration{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	f.values[key] = value.(string)
	f.expires[key] = ttl
	cmd := goredis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	cmd := goredis.NewStringCmd(ctx)
	if v, ok := f.values[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(goredis.Nil)
	}
	return cmd
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	cmd := goredis.NewBoolCmd(ctx)
	if _, exists := f.values[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	f.values[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeStore) Incr(ctx context.Context, key string) *goredis.IntCmd {
	f.counts[key]++
	cmd := goredis.NewIntCmd(ctx)
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *goredis.BoolCmd {
	f.expires[key] = ttl
	cmd := goredis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
		delete(f.counts, key)
	}
	cmd := goredis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func TestFixedWindowAllow(t *testing.T) {
	client := &Client{store: newFakeStore()}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("4th request should be rejected, count=%d", count)
	}
}

func TestLoginFlowKeyNamespacing(t *testing.T) {
	client := &Client{store: newFakeStore()}
	key := client.LoginFlowKey("12345")
	if key != "fw:flow:12345" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestSetGetDelRoundTrip(t *testing.T) {
	client := &Client{store: newFakeStore()}
	ctx := context.Background()

	key := client.LoginFlowKey("777")
	if err := client.Set(ctx, key, `{"step":"username"}`, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != `{"step":"username"}` {
		t.Fatalf("unexpected value %q", got)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}
