package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNetwork wraps Redis failures that persisted through every retry.
	ErrNetwork = errors.New("network error")

	// ErrCacheMiss is returned by GetJSON when the key is absent.
	ErrCacheMiss = errors.New("cache miss")
)

// redisRetry bounds how RedisCache retries dropped connections.
type redisRetry struct {
	attempts int
	base     time.Duration
}

var defaultRedisRetry = redisRetry{attempts: 3, base: 100 * time.Millisecond}

// do runs fn until it succeeds or fails with a non-transient error, waiting
// base, 2*base, ... between attempts. A transient failure that outlasts every
// attempt is returned wrapped in ErrNetwork.
func (p redisRetry) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := range p.attempts {
		if err = fn(); err == nil || !transient(err) {
			return err
		}
		if i == p.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.base << i):
		}
	}
	return fmt.Errorf("redis %s: %w: %v", op, ErrNetwork, err)
}

// transient reports whether a Redis error came from the connection rather
// than the command. redis.Nil and context errors never are.
func transient(err error) bool {
	switch {
	case errors.Is(err, redis.Nil),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
