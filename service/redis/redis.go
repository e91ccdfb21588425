package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/scimarket/goapi/base/ctx"
)

// Forever sets a key without expiration
const Forever = time.Duration(-1)

var (
	// ErrNotFound is returned when the key does not exist
	ErrNotFound = redis.ErrNil

	// ErrNoTTL is returned by TTL when the key exists but has no associated expire
	ErrNoTTL = errors.New("no ttl on key")

	// ErrGapTime is returned when no pool can serve the command
	ErrGapTime = errors.New("redis pool is not available")
)

// Service is the redis accessor shared by the cache providers and the
// health check
type Service interface {
	Get(context ctx.Ctx, key string) ([]byte, error)
	Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error
	Del(context ctx.Ctx, ks ...string) (int, error)
	Incrby(context ctx.Ctx, key string, val int) (int64, error)
	Exists(context ctx.Ctx, key string) (bool, error)
	TTL(context ctx.Ctx, key string) (int, error)
}
