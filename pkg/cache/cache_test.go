package cache

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v, want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestHash(t *testing.T) {
	h1, h2 := Hash([]byte("hello")), Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash() is not deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs hashed the same")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(h1))
	}

	j, err := HashJSON(map[string]int{"a": 1})
	if err != nil || j != Hash([]byte(`{"a":1}`)) {
		t.Errorf("HashJSON() = %s, %v", j, err)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if k.ResultKey("p", "s1") == k.ResultKey("p", "s2") {
		t.Error("ResultKey ignores the script hash")
	}
	if !strings.HasPrefix(k.ResultKey("p", "s"), "result:") {
		t.Errorf("ResultKey() = %s", k.ResultKey("p", "s"))
	}
	if k.ValidationKey("p", "gif") == k.ValidationKey("p", "animation") {
		t.Error("ValidationKey ignores the mode")
	}
	g1 := k.GraphKey("p", GraphKeyOpts{Mode: "gif", Format: "svg"})
	g2 := k.GraphKey("p", GraphKeyOpts{Mode: "gif", Format: "dot"})
	if g1 == g2 {
		t.Error("GraphKey ignores the format")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "team:a:")

	if got, want := scoped.ResultKey("p", "s"), "team:a:"+inner.ResultKey("p", "s"); got != want {
		t.Errorf("ResultKey() = %s, want %s", got, want)
	}
	if !strings.HasPrefix(scoped.ValidationKey("p", "gif"), "team:a:validate:") {
		t.Errorf("ValidationKey() = %s", scoped.ValidationKey("p", "gif"))
	}

	nilInner := NewScopedKeyer(nil, "x:")
	if got := nilInner.GraphKey("p", GraphKeyOpts{}); !strings.HasPrefix(got, "x:graph:") {
		t.Errorf("GraphKey() with nil inner = %s", got)
	}
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"miss", redis.Nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"eof", io.EOF, true},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"command", errors.New("WRONGTYPE"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transient(tt.err); got != tt.want {
				t.Errorf("transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRedisRetry(t *testing.T) {
	ctx := context.Background()
	p := redisRetry{attempts: 3, base: time.Millisecond}

	calls := 0
	if err := p.do(ctx, "get", func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err = %v, calls = %d", err, calls)
	}

	calls = 0
	err := p.do(ctx, "get", func() error { calls++; return redis.Nil })
	if err != redis.Nil || calls != 1 {
		t.Errorf("miss: err = %v, calls = %d", err, calls)
	}

	calls = 0
	err = p.do(ctx, "get", func() error {
		calls++
		if calls < 2 {
			return io.EOF
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("dropped connection: err = %v, calls = %d", err, calls)
	}

	calls = 0
	err = p.do(ctx, "set", func() error { calls++; return io.EOF })
	if !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Errorf("exhausted: err = %v, calls = %d", err, calls)
	}
	if err != nil && !strings.Contains(err.Error(), "redis set") {
		t.Errorf("exhausted error %q does not name the command", err)
	}
}

func TestRedisRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := redisRetry{attempts: 3, base: time.Hour}
	if err := p.do(ctx, "get", func() error { return io.EOF }); err != context.Canceled {
		t.Errorf("do() = %v, want context.Canceled", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("empty cache reported a hit")
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get() = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key still present")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	_ = c.Set(ctx, "short", []byte("v"), time.Nanosecond)
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}

	_ = c.Set(ctx, "forever", []byte("v"), 0)
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl missing")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit = %v, err = %v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v, want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if _, err := GetJSON[[]string](ctx, c, "list"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON(miss) error = %v, want ErrCacheMiss", err)
	}
	if err := SetJSON(ctx, c, "list", []string{"a", "b"}, 0); err != nil {
		t.Fatal(err)
	}
	got, err := GetJSON[[]string](ctx, c, "list")
	if err != nil || len(got) != 2 || got[1] != "b" {
		t.Errorf("GetJSON() = %v, %v", got, err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("FRAMELINK_TEST_REDIS")
	if addr == "" {
		t.Skip("FRAMELINK_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "framelink-test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get() = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key still present")
	}
}
