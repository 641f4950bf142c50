package types

import "time"

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type CookieConfig struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Domain   string `yaml:"domain"`
	Secure   bool   `yaml:"secure"`
	HTTPOnly bool   `yaml:"http_only"`
}

// LockConfig bounds the per-session lock. Wait caps how long an
// operation blocks trying to acquire the lock; TTL caps how long a
// crashed holder can keep it.
type LockConfig struct {
	Wait time.Duration `yaml:"wait"`
	TTL  time.Duration `yaml:"ttl"`
}

type Config struct {
	StoreType string `yaml:"store_type"`
	Memory    struct {
		MaxSessions int `yaml:"max_sessions"`
	} `yaml:"memory"`
	Redis  RedisConfig  `yaml:"redis"`
	Cookie CookieConfig `yaml:"cookie"`
	Lock   LockConfig   `yaml:"lock"`
}
