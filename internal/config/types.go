package config

import (
	"time"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Position sync backends.
const (
	SyncHTTP   = "http"
	SyncFile   = "file"
	SyncSQLite = "sqlite"
	SyncMongo  = "mongo"
	SyncNone   = "none"
)

// Config is the top-level semtiles configuration, corresponding to
// config.yaml or config.toml.
type Config struct {
	Store    StoreConfig    `yaml:"store" toml:"store" koanf:"store"`
	Viewport ViewportConfig `yaml:"viewport" toml:"viewport" koanf:"viewport"`
	Layout   LayoutConfig   `yaml:"layout" toml:"layout" koanf:"layout"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache" koanf:"cache"`
	Sync     SyncConfig     `yaml:"sync" toml:"sync" koanf:"sync"`
	Server   ServerConfig   `yaml:"server" toml:"server" koanf:"server"`
}

// StoreConfig points at the domain store API.
type StoreConfig struct {
	URL     string   `yaml:"url" toml:"url" koanf:"url" validate:"omitempty,url"`
	Timeout Duration `yaml:"timeout" toml:"timeout" koanf:"timeout" validate:"gte=0"`
}

// ViewportConfig is the default frame size.
type ViewportConfig struct {
	Width  float64 `yaml:"width" toml:"width" koanf:"width" validate:"gt=0,lte=20000"`
	Height float64 `yaml:"height" toml:"height" koanf:"height" validate:"gt=0,lte=20000"`
}

// LayoutConfig holds force simulation settings.
type LayoutConfig struct {
	Seed uint64 `yaml:"seed" toml:"seed" koanf:"seed"`
}

// CacheConfig selects where listings and artifacts are cached.
type CacheConfig struct {
	Backend   string   `yaml:"backend" toml:"backend" koanf:"backend" validate:"oneof=file redis none"`
	Dir       string   `yaml:"dir" toml:"dir" koanf:"dir"`
	RedisAddr string   `yaml:"redis_addr" toml:"redis_addr" koanf:"redis_addr" validate:"required_if=Backend redis"`
	TTL       Duration `yaml:"ttl" toml:"ttl" koanf:"ttl" validate:"gte=0"`
	// Prefix namespaces keys when several deployments share one Redis.
	Prefix string `yaml:"prefix,omitempty" toml:"prefix,omitempty" koanf:"prefix"`
}

// SyncConfig selects where computed positions are written.
type SyncConfig struct {
	Backend       string   `yaml:"backend" toml:"backend" koanf:"backend" validate:"oneof=http file sqlite mongo none"`
	Path          string   `yaml:"path" toml:"path" koanf:"path"`
	MongoURI      string   `yaml:"mongo_uri" toml:"mongo_uri" koanf:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase string   `yaml:"mongo_database" toml:"mongo_database" koanf:"mongo_database" validate:"required_if=Backend mongo"`
	Timeout       Duration `yaml:"timeout" toml:"timeout" koanf:"timeout" validate:"gte=0"`
}

// ServerConfig configures `semtiles serve`.
type ServerConfig struct {
	Addr            string `yaml:"addr" toml:"addr" koanf:"addr" validate:"required"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" toml:"allow_all_origins" koanf:"allow_all_origins"`
}

// Duration is a time.Duration written as "30s" in config files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
