package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"
)

// Config is the full configuration surface. Every recognized option and
// its default is enumerated once, in Default.
type Config struct {
	Server   Server   `yaml:"server"`
	Site     Site     `yaml:"site"`
	Security Security `yaml:"security"`
	Storage  Storage  `yaml:"storage"`
	Cache    Cache    `yaml:"cache"`
	Display  Display  `yaml:"display"`
	Send     Send     `yaml:"send"`
	Trace    Trace    `yaml:"trace"`
}

type Server struct {
	Listen string `yaml:"listen"`
	// AdminToken guards the delete API; empty disables those routes.
	AdminToken string `yaml:"adminToken"`
}

type Site struct {
	BaseURL   string `yaml:"baseUrl"`
	PagesFile string `yaml:"pagesFile"`
	// Languages are locale path prefixes stripped before page lookup.
	Languages []string `yaml:"languages"`
}

type Security struct {
	AllowedSources   []string  `yaml:"allowedSources"`
	FetchTimeout     int       `yaml:"fetchTimeout"` // seconds
	MaxContentSize   int64     `yaml:"maxContentSize"`
	SanitizeHTML     bool      `yaml:"sanitizeHtml"`
	MaxContentLength int       `yaml:"maxContentLength"` // runes
	RateLimit        RateLimit `yaml:"rateLimit"`
}

type RateLimit struct {
	Enabled       bool `yaml:"enabled"`
	MaxRequests   int  `yaml:"maxRequests"`
	WindowSeconds int  `yaml:"windowSeconds"`
}

type Storage struct {
	Backend     string `yaml:"backend"` // file, redis, postgres
	Path        string `yaml:"path"`
	RedisAddr   string `yaml:"redisAddr"`
	RedisDB     int    `yaml:"redisDb"`
	PostgresDsn string `yaml:"postgresDsn"`
}

type Cache struct {
	Enabled       bool   `yaml:"enabled"`
	Backend       string `yaml:"backend"` // local, memcached
	MemcachedAddr string `yaml:"memcachedAddr"`
	TTLSeconds    int    `yaml:"ttlSeconds"`
}

type Display struct {
	RepliesOrder string `yaml:"repliesOrder"` // asc, desc
}

type Send struct {
	Endpoint       string `yaml:"endpoint"`
	MaxPostAgeDays int    `yaml:"maxPostAgeDays"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type Trace struct {
	Enable   bool   `yaml:"enable"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Server: Server{
			Listen:     ":8000",
			AdminToken: "",
		},
		Site: Site{
			BaseURL:   "",
			PagesFile: "pages.yaml",
			Languages: nil,
		},
		Security: Security{
			AllowedSources:   []string{"fed.brid.gy", "brid.gy"},
			FetchTimeout:     5,
			MaxContentSize:   1 << 20,
			SanitizeHTML:     true,
			MaxContentLength: 2000,
			RateLimit: RateLimit{
				Enabled:       true,
				MaxRequests:   10,
				WindowSeconds: 60,
			},
		},
		Storage: Storage{
			Backend: "file",
			Path:    "data",
		},
		Cache: Cache{
			Enabled:    true,
			Backend:    "local",
			TTLSeconds: 600,
		},
		Display: Display{
			RepliesOrder: "desc",
		},
		Send: Send{
			Endpoint:       "https://fed.brid.gy/webmention",
			MaxPostAgeDays: 14,
			TimeoutSeconds: 10,
		},
		Trace: Trace{
			Enable:   false,
			Endpoint: "",
		},
	}
}

// Load reads a yaml file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}
	defer file.Close()

	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate rejects option values the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "redis", "postgres":
	default:
		return fmt.Errorf("storage.backend must be file, redis or postgres, got %q", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case "local", "memcached":
	default:
		return fmt.Errorf("cache.backend must be local or memcached, got %q", c.Cache.Backend)
	}
	switch c.Display.RepliesOrder {
	case "asc", "desc":
	default:
		return fmt.Errorf("display.repliesOrder must be asc or desc, got %q", c.Display.RepliesOrder)
	}
	if c.Security.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("security.rateLimit.maxRequests must be positive")
	}
	if c.Security.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("security.rateLimit.windowSeconds must be positive")
	}
	return nil
}

// FetchTimeoutDuration is Security.FetchTimeout as a time.Duration.
func (c Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.Security.FetchTimeout) * time.Second
}

// SendTimeoutDuration is Send.TimeoutSeconds as a time.Duration.
func (c Config) SendTimeoutDuration() time.Duration {
	return time.Duration(c.Send.TimeoutSeconds) * time.Second
}
