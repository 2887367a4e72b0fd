// Package config loads framelink's TOML configuration.
//
// Values may reference environment variables as ${NAME}; they are expanded
// before decoding. Every section validates itself.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/matzehuels/framelink/pkg/link"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full configuration.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Link   LinkConfig   `toml:"link"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Link.Validate(); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	return nil
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
	Prefix  string        `toml:"prefix"`
	Redis   RedisConfig   `toml:"redis"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(CacheFile, CacheRedis, CacheNone)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	if c.Backend == CacheRedis {
		return c.Redis.Validate()
	}
	return nil
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Validate validates the Redis configuration.
func (c *RedisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required, is.DialString),
		validation.Field(&c.DB, validation.Min(0), validation.Max(15)),
	)
}

// ServerConfig holds API server settings. An empty Token disables auth.
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Token string `toml:"token"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
	)
}

// AuthEnabled reports whether requests must carry the bearer token.
func (c *ServerConfig) AuthEnabled() bool { return c.Token != "" }

// LinkConfig holds linking policy.
type LinkConfig struct {
	AnimationScope string `toml:"animation_scope"`
}

// Validate validates the link configuration.
func (c *LinkConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AnimationScope, validation.Required,
			validation.In(string(link.ScopeSize), string(link.ScopeProject))),
	)
}

// Scope returns the configured animation scope.
func (c *LinkConfig) Scope() link.Scope { return link.Scope(c.AnimationScope) }

// Default returns a configuration that works without a file: file cache in
// the user cache directory, local server, size-scoped animation links.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Cache: CacheConfig{
			Backend: CacheFile,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Server: ServerConfig{Addr: ":8080"},
		Link:   LinkConfig{AnimationScope: string(link.ScopeSize)},
	}
}

// Load reads path on top of Default, expanding ${ENV} references, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(os.ExpandEnv(string(data)))
}

// Parse decodes TOML text on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(text string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse config: unknown keys %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
