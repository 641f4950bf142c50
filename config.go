package sesskit

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/minus-twelve/sesskit/types"
)

// LoadConfig reads a yaml config file and fills in defaults.
func LoadConfig(path string) (types.Config, error) {
	var cfg types.Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return withDefaults(cfg), nil
}

// DefaultConfig returns the configuration used when nothing is
// specified: in-memory backend, "session_id" cookie, bounded locks.
func DefaultConfig() types.Config {
	return withDefaults(types.Config{})
}

func withDefaults(cfg types.Config) types.Config {
	if cfg.StoreType == "" {
		cfg.StoreType = "memory"
	}
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = DefaultCookieName
	}
	if cfg.Cookie.Path == "" {
		cfg.Cookie.Path = "/"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "sess:"
	}
	if cfg.Lock.Wait <= 0 {
		cfg.Lock.Wait = defaultLockWait
	}
	if cfg.Lock.TTL <= 0 {
		cfg.Lock.TTL = defaultLockTTL
	}
	return cfg
}
