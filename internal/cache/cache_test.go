package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nextchow/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStoreWithClient(client, "nctest"), mr
}

func TestDisabledStoreIsNoop(t *testing.T) {
	store := NewStore(nil)
	if store.Enabled() {
		t.Fatalf("store without config must be disabled")
	}
	hit, err := store.GetJSON(context.Background(), "k", &struct{}{})
	if hit || err != nil {
		t.Fatalf("disabled get must miss silently, hit=%v err=%v", hit, err)
	}
	if _, ok := NewLocker(store).(*LocalLocker); !ok {
		t.Fatalf("disabled store must fall back to local locker")
	}
}

func TestCustomerAuthStateRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	state := BuildCustomerAuthState(&models.Customer{ID: 11, Status: "active", TokenVersion: 3})
	if err := store.SetCustomerAuthState(ctx, state); err != nil {
		t.Fatalf("set auth state failed: %v", err)
	}
	if !mr.Exists("nctest:auth:customer:11") {
		t.Fatalf("expected prefixed key to exist")
	}
	got, hit, err := store.GetCustomerAuthState(ctx, 11)
	if err != nil || !hit {
		t.Fatalf("get auth state failed: hit=%v err=%v", hit, err)
	}
	if got.TokenVersion != 3 || got.Status != "active" {
		t.Fatalf("unexpected state: %+v", got)
	}
	if err := store.DelCustomerAuthState(ctx, 11); err != nil {
		t.Fatalf("del auth state failed: %v", err)
	}
	if _, hit, _ := store.GetCustomerAuthState(ctx, 11); hit {
		t.Fatalf("auth state should be deleted")
	}
}

func TestRedisLockerExclusive(t *testing.T) {
	store, mr := newTestStore(t)
	locker := NewLocker(store)
	if _, ok := locker.(*RedisLocker); !ok {
		t.Fatalf("enabled store must use redis locker")
	}
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "customer:1", time.Minute, 0)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if _, err := locker.Acquire(ctx, "customer:1", time.Minute, 120*time.Millisecond); !errors.Is(err, ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired, got %v", err)
	}
	other, err := locker.Acquire(ctx, "customer:2", time.Minute, 0)
	if err != nil {
		t.Fatalf("other key must not block: %v", err)
	}
	other()

	release()
	release()
	if mr.Exists("nctest:lock:customer:1") {
		t.Fatalf("lock key should be released")
	}
	again, err := locker.Acquire(ctx, "customer:1", time.Minute, 0)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	again()
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	store, mr := newTestStore(t)
	locker := NewRedisLocker(store)
	release, err := locker.Acquire(context.Background(), "customer:9", time.Second, 0)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	// 锁过期后被其他持有者获得
	mr.FastForward(2 * time.Second)
	if err := mr.Set("nctest:lock:customer:9", "someone-else"); err != nil {
		t.Fatalf("seed foreign lock failed: %v", err)
	}
	release()
	if got, _ := mr.Get("nctest:lock:customer:9"); got != "someone-else" {
		t.Fatalf("release must not delete a foreign lock, got %q", got)
	}
}

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "customer:1", 0, time.Second)
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent holders", maxSeen)
	}
	if len(locker.entries) != 0 {
		t.Fatalf("expected lock entries to be cleaned up, got %d", len(locker.entries))
	}
}

func TestLocalLockerTimeout(t *testing.T) {
	locker := NewLocalLocker()
	release, err := locker.Acquire(context.Background(), "k", 0, time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()
	if _, err := locker.Acquire(context.Background(), "k", 0, 20*time.Millisecond); !errors.Is(err, ErrLockNotAcquired) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
