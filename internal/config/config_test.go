package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if err := Validate(d); err != nil {
		t.Fatalf("Defaults() failed validation: %v", err)
	}
	if d.Mesh.CacheMaxSize != 10_000 {
		t.Errorf("CacheMaxSize = %d, want 10000", d.Mesh.CacheMaxSize)
	}
	if d.Crypto.Iterations != 10_000 {
		t.Errorf("Iterations = %d, want 10000", d.Crypto.Iterations)
	}
	if d.Fragment.ReassemblyTimeout != 5*time.Minute {
		t.Errorf("ReassemblyTimeout = %v, want 5m", d.Fragment.ReassemblyTimeout)
	}
	if d.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", d.Logging.Level, "info")
	}
}

func TestLoadNoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Mesh.CacheMaxSize != Defaults().Mesh.CacheMaxSize {
		t.Errorf("Load(\"\") should equal Defaults(), got CacheMaxSize=%d", cfg.Mesh.CacheMaxSize)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bitpack.yaml")
	yamlBody := []byte("mesh:\n  cache_max_size: 500\nbackoff:\n  jitter: 0.5\n")
	if err := os.WriteFile(path, yamlBody, 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) returned error: %v", path, err)
	}
	if cfg.Mesh.CacheMaxSize != 500 {
		t.Errorf("Mesh.CacheMaxSize = %d, want 500", cfg.Mesh.CacheMaxSize)
	}
	if cfg.Backoff.Jitter != 0.5 {
		t.Errorf("Backoff.Jitter = %v, want 0.5", cfg.Backoff.Jitter)
	}
	// Unconfigured fields still inherit defaults.
	if cfg.Crypto.Iterations != Defaults().Crypto.Iterations {
		t.Errorf("Crypto.Iterations = %d, want default %d", cfg.Crypto.Iterations, Defaults().Crypto.Iterations)
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("BITPACK_MESH_CACHE_MAX_SIZE", "42")
	t.Setenv("BITPACK_CRYPTO_ITERATIONS", "20000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Mesh.CacheMaxSize != 42 {
		t.Errorf("Mesh.CacheMaxSize = %d, want 42", cfg.Mesh.CacheMaxSize)
	}
	if cfg.Crypto.Iterations != 20000 {
		t.Errorf("Crypto.Iterations = %d, want 20000", cfg.Crypto.Iterations)
	}
}

func TestEnvKeyMapper(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BITPACK_MESH_CACHE_MAX_SIZE", "mesh.cache_max_size"},
		{"BITPACK_CRYPTO_ITERATIONS", "crypto.iterations"},
		{"BITPACK_MESH", "mesh"},
	}
	for _, tt := range tests {
		if got := envKeyMapper(tt.in); got != tt.want {
			t.Errorf("envKeyMapper(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero cache size", func(c *Config) { c.Mesh.CacheMaxSize = 0 }, ErrInvalidCacheMaxSize},
		{"max delay below base", func(c *Config) { c.Backoff.MaxDelayMs = 1 }, ErrInvalidMaxDelay},
		{"jitter out of range", func(c *Config) { c.Backoff.Jitter = 1.5 }, ErrInvalidJitter},
		{"iterations too low", func(c *Config) { c.Crypto.Iterations = 100 }, ErrInvalidIterations},
		{"bad key length", func(c *Config) { c.Crypto.KeyLenBytes = 24 }, ErrInvalidKeyLen},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			if err := Validate(cfg); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
