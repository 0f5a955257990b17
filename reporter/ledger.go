package reporter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger remembers the last accepted submission fingerprint of each reporter.
//
// Reserve stores fingerprint and returns the value it replaced in one atomic
// step, so of two identical concurrent submissions only one sees a different
// previous value. Release undoes a reservation whose write failed: prev is put
// back only while fingerprint is still the stored value.
type Ledger interface {
	Last(ctx context.Context, reporterID string) (string, error)
	Reserve(ctx context.Context, reporterID, fingerprint string) (prev string, err error)
	Release(ctx context.Context, reporterID, fingerprint, prev string) error
}

// MemoryLedger is a process-local Ledger.
type MemoryLedger struct {
	mu   sync.Mutex
	last map[string]string
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{last: make(map[string]string)}
}

func (l *MemoryLedger) Last(_ context.Context, reporterID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last[reporterID], nil
}

func (l *MemoryLedger) Reserve(_ context.Context, reporterID, fingerprint string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.last[reporterID]
	l.last[reporterID] = fingerprint
	return prev, nil
}

func (l *MemoryLedger) Release(_ context.Context, reporterID, fingerprint, prev string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last[reporterID] != fingerprint {
		return nil
	}
	if prev == "" {
		delete(l.last, reporterID)
	} else {
		l.last[reporterID] = prev
	}
	return nil
}

const defaultLedgerPrefix = "issue:last-fingerprint"

// KEYS[1] reporter key, ARGV[1] reserved fingerprint, ARGV[2] previous value,
// ARGV[3] ttl in milliseconds (0 keeps the entry forever).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
if ARGV[2] == "" then
	return redis.call("DEL", KEYS[1])
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// RedisLedger shares fingerprints between API instances. Entries expire after
// ttl so an idle reporter can file the same text again later.
type RedisLedger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, prefix string, ttl time.Duration) *RedisLedger {
	if prefix == "" {
		prefix = defaultLedgerPrefix
	}
	return &RedisLedger{client: client, prefix: prefix, ttl: ttl}
}

func (l *RedisLedger) key(reporterID string) string {
	return l.prefix + ":" + reporterID
}

func (l *RedisLedger) Last(ctx context.Context, reporterID string) (string, error) {
	fp, err := l.client.Get(ctx, l.key(reporterID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis error reading fingerprint: %w", err)
	}
	return fp, nil
}

// Reserve issues SET key fingerprint GET, which swaps the value and returns
// the old one atomically.
func (l *RedisLedger) Reserve(ctx context.Context, reporterID, fingerprint string) (string, error) {
	prev, err := l.client.SetArgs(ctx, l.key(reporterID), fingerprint, redis.SetArgs{
		TTL: l.ttl,
		Get: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis error storing fingerprint: %w", err)
	}
	return prev, nil
}

func (l *RedisLedger) Release(ctx context.Context, reporterID, fingerprint, prev string) error {
	keys := []string{l.key(reporterID)}
	if err := releaseScript.Eval(ctx, l.client, keys, fingerprint, prev, l.ttl.Milliseconds()).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis error releasing fingerprint: %w", err)
	}
	return nil
}
