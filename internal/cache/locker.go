package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired 等待超时仍未获得锁
var ErrLockNotAcquired = errors.New("lock not acquired")

const lockRetryInterval = 50 * time.Millisecond

// Locker 按 key 互斥
// Acquire 返回的 release 必须在所有退出路径上调用。
type Locker interface {
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (release func(), err error)
}

// NewLocker 有 Redis 时使用分布式锁，否则退化为进程内锁
func NewLocker(store *Store) Locker {
	if store.Enabled() {
		return NewRedisLocker(store)
	}
	return NewLocalLocker()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SET NX PX 的分布式锁
type RedisLocker struct {
	store *Store
}

// NewRedisLocker 创建分布式锁
func NewRedisLocker(store *Store) *RedisLocker {
	return &RedisLocker{store: store}
}

// Acquire 获取锁，wait 内轮询重试
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	client := l.store.Client()
	if client == nil {
		return nil, errors.New("redis locker without client")
	}
	token := uuid.NewString()
	fullKey := l.store.Key("lock:" + key)
	deadline := time.Now().Add(wait)

	for {
		ok, err := client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			var once sync.Once
			release := func() {
				once.Do(func() {
					// 使用独立 context，请求取消后仍需释放
					releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = releaseScript.Run(releaseCtx, client, []string{fullKey}, token).Err()
				})
			}
			return release, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// LocalLocker 进程内按 key 互斥，适用于单实例部署
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localLockEntry
}

type localLockEntry struct {
	slot chan struct{}
	refs int
}

// NewLocalLocker 创建进程内锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]*localLockEntry)}
}

// Acquire 获取锁，ttl 在进程内锁中不生效
func (l *LocalLocker) Acquire(ctx context.Context, key string, _ time.Duration, wait time.Duration) (func(), error) {
	entry := l.ref(key)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case entry.slot <- struct{}{}:
	case <-timer.C:
		l.unref(key)
		return nil, ErrLockNotAcquired
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.slot
			l.unref(key)
		})
	}, nil
}

func (l *LocalLocker) ref(key string) *localLockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &localLockEntry{slot: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.entries, key)
	}
}
