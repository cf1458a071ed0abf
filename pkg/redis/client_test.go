package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/platehub-backend/pkg/config"
)

func TestSetNXClaimsOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetNX(ctx, "k", "first", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected first claim to succeed")
	}

	ok, err = client.SetNX(ctx, "k", "second", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected second claim to fail")
	}

	value, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "first" {
		t.Fatalf("expected first value to stick, got %q", value)
	}
	if mock.ttls["k"] != time.Minute {
		t.Fatalf("expected ttl recorded, got %s", mock.ttls["k"])
	}
}

func TestSetXXRequiresExistingKey(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetXX(ctx, "missing", "v", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected setxx on missing key to fail")
	}

	if err := client.Set(ctx, "present", "old", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	ok, err = client.SetXX(ctx, "present", "new", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected setxx to overwrite, ok=%v err=%v", ok, err)
	}
	if got, _ := client.Get(ctx, "present"); got != "new" {
		t.Fatalf("expected overwritten value, got %q", got)
	}
}

func TestDelRemovesKeys(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	_ = client.Set(ctx, "a", "1", 0)
	_ = client.Set(ctx, "b", "2", 0)
	if err := client.Del(ctx, "a", "b"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "a"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error for uninitialized client")
	}
	if _, err := client.SetNX(context.Background(), "k", "v", 0); err == nil {
		t.Fatalf("expected error for uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(configWith("", "")); err == nil {
		t.Fatalf("expected error when url and address are empty")
	}
	opts, err := optionsFromConfig(configWith("", "localhost:6379"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.PoolSize != 10 {
		t.Fatalf("unexpected options %+v", opts)
	}
	opts, err = optionsFromConfig(configWith("redis://localhost:6380/2", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 {
		t.Fatalf("unexpected parsed options %+v", opts)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "ph:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.IdempotencyKey("scope", ""); got != "ph:idempotency:scope" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
	if got := client.buildKey(); got != "ph" {
		t.Fatalf("unexpected bare key %s", got)
	}
}

func configWith(url, addr string) config.RedisConfig {
	return config.RedisConfig{
		URL:      url,
		Address:  addr,
		PoolSize: 10,
	}
}

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) SetXX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; !exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
		delete(m.ttls, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
