package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetJSON is Get followed by a decode, with a miss reported as ErrCacheMiss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, error) {
	var v T
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, ErrCacheMiss
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
