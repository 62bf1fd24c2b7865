package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Listen != ":8000" {
		t.Fatalf("listen default: got %q", cfg.Server.Listen)
	}
	if !cfg.Security.RateLimit.Enabled || cfg.Security.RateLimit.MaxRequests != 10 {
		t.Fatalf("rate limit defaults: %+v", cfg.Security.RateLimit)
	}
	if cfg.Send.Endpoint != "https://fed.brid.gy/webmention" {
		t.Fatalf("send endpoint default: got %q", cfg.Send.Endpoint)
	}
}

func TestLoadOverridesKeepOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `server:
  listen: ":9999"
security:
  maxContentLength: 500
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Listen != ":9999" {
		t.Fatalf("listen: got %q", cfg.Server.Listen)
	}
	if cfg.Security.MaxContentLength != 500 {
		t.Fatalf("maxContentLength: got %d", cfg.Security.MaxContentLength)
	}
	// Untouched sections keep their defaults.
	if cfg.Storage.Backend != "file" || cfg.Storage.Path != "data" {
		t.Fatalf("storage defaults lost: %+v", cfg.Storage)
	}
	if cfg.FetchTimeoutDuration() != 5*time.Second {
		t.Fatalf("fetch timeout: got %v", cfg.FetchTimeoutDuration())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, doc := range map[string]string{
		"backend": "storage:\n  backend: carrier-pigeon\n",
		"order":   "display:\n  repliesOrder: sideways\n",
		"window":  "security:\n  rateLimit:\n    windowSeconds: 0\n",
	} {
		path := filepath.Join(t.TempDir(), name+".yaml")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected a validation error", name)
		}
	}
}
