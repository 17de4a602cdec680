package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockTimeout is returned when an invoice lock stays busy past LockWaitTimeout.
var ErrLockTimeout = errors.New("timed out waiting for invoice lock")

// InvoiceLocker serialises writers of a single invoice.
type InvoiceLocker interface {
	Lock(ctx context.Context, invoiceID string) (unlock func(), err error)
}

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds invoice locks as Redis keys so replicas share them. The TTL frees a
// lock whose holder died.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, invoiceID string) (func(), error) {
	key := InvoiceLockPrefix + invoiceID
	token := uuid.New().String()

	ctx, cancel := context.WithTimeout(ctx, LockWaitTimeout)
	defer cancel()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("failed to acquire invoice lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			GetLogger().Sugar().Warnf("failed to release invoice lock %s: %v", invoiceID, err)
		}
	}, nil
}

// LocalLocker keeps one lock per invoice id in process memory.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]*localLock{}}
}

func (l *LocalLocker) Lock(ctx context.Context, invoiceID string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[invoiceID]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[invoiceID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	timer := time.NewTimer(LockWaitTimeout)
	defer timer.Stop()

	select {
	case lk.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lk.ch
				l.release(invoiceID, lk)
			})
		}, nil
	case <-ctx.Done():
		l.release(invoiceID, lk)
		return nil, ctx.Err()
	case <-timer.C:
		l.release(invoiceID, lk)
		return nil, ErrLockTimeout
	}
}

func (l *LocalLocker) release(invoiceID string, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, invoiceID)
	}
}
