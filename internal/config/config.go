// Package config loads semtiles settings.
//
// Values are layered: built-in defaults, then the config file (YAML or TOML,
// chosen by extension), then SEMTILES_* environment variables. Command-line
// flags are applied on top by the CLI. Environment names map to keys by
// replacing the first underscore with a dot, so SEMTILES_CACHE_REDIS_ADDR
// sets cache.redis_addr.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	errs "github.com/matzehuels/semtiles/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SEMTILES_"

var validate = func() *validator.Validate {
	v := validator.New()
	// Report fields by their config key.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("koanf")
	})
	return v
}()

// Load reads configuration from path, then overlays environment variable
// overrides. A missing file is not an error. An empty path uses
// DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "locate config")
		}
		path = p
	}

	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "reading config %s", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "accessing config %s", path)
	}

	// SEMTILES_STORE_URL -> store.url, SEMTILES_SYNC_MONGO_URI -> sync.mongo_uri.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "loading env overrides")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "unmarshalling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return tomlParser{}, nil
	default:
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unsupported config format %q (use .yaml or .toml)", filepath.Ext(path))
	}
}

// Save writes the configuration to path, as TOML for a .toml extension and
// YAML otherwise.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(c)
		data = []byte(sb.String())
	} else {
		data, err = yamlv3.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks struct tags and the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, formatValidationError(err), "invalid config")
	}
	if c.Sync.Backend == SyncHTTP && c.Store.URL == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "sync.backend http requires store.url")
	}
	if c.Sync.Backend == SyncSQLite && c.Sync.Path == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "sync.backend sqlite requires sync.path")
	}
	if c.Cache.Backend == CacheFile && c.Cache.Dir == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.backend file requires cache.dir")
	}
	if c.Store.URL != "" {
		if err := errs.ValidateURL(c.Store.URL); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "store.url")
		}
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s: field is required", field)
	case "oneof":
		return fmt.Errorf("%s: must be one of %s, got %v", field, e.Param(), e.Value())
	case "gt", "gte":
		return fmt.Errorf("%s: must be greater than %s", field, e.Param())
	case "lte":
		return fmt.Errorf("%s: must not exceed %s", field, e.Param())
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}
