package config

import (
	"os"
	"path/filepath"
	"time"
)

// AppName names the config and cache directories.
const AppName = "semtiles"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, _ := CacheDir()
	return &Config{
		Store: StoreConfig{
			URL:     "http://localhost:5001/api",
			Timeout: Duration(30 * time.Second),
		},
		Viewport: ViewportConfig{Width: 800, Height: 600},
		Layout:   LayoutConfig{Seed: 42},
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     cacheDir,
			TTL:     Duration(24 * time.Hour),
		},
		Sync: SyncConfig{
			Backend:       SyncHTTP,
			MongoDatabase: AppName,
			Timeout:       Duration(10 * time.Second),
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/semtiles, falling back to
// ~/.config/semtiles.
func ConfigDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns $XDG_CACHE_HOME/semtiles, falling back to
// ~/.cache/semtiles.
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// DefaultPath is config.yaml inside ConfigDir.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
