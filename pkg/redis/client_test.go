package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLockLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	held, err := client.AcquireLock(ctx, "bling:pull", time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !held {
		t.Fatal("expected to hold the lock on first acquire")
	}

	held, err = client.AcquireLock(ctx, "bling:pull", time.Minute)
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if held {
		t.Fatal("second acquire should be rejected")
	}

	if err := client.ReleaseLock(ctx, "bling:pull"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	held, err = client.AcquireLock(ctx, "bling:pull", time.Minute)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	if !held {
		t.Fatal("lock should be available again after release")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("mp-webhook", "123"); got != "vitrine:idempotency:mp-webhook:123" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.LockKey("bling:pull"); got != "vitrine:lock:bling:pull" {
		t.Fatalf("unexpected lock key %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("nil client ping should error")
	}
	if _, err := client.SetNX(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("nil client setnx should error")
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
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
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
