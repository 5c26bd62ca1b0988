// Package config loads BitPack's runtime configuration: the five
// enumerated groups of spec §6 (Mesh, Backoff, Fragment, SelectiveRepeat,
// Crypto), layered as defaults, then file, then env (env wins) per
// github.com/knadh/koanf/v2, the same pattern as the reference BFD
// daemon's internal/config package. A config file is optional — the
// mesh runtime never requires one; every constructor elsewhere in this
// module accepts the in-memory struct directly.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/bitpack/bitpack/internal/logging"
)

// Config holds the complete BitPack runtime configuration.
type Config struct {
	Mesh            MeshConfig            `koanf:"mesh"`
	Backoff         BackoffConfig         `koanf:"backoff"`
	Fragment        FragmentConfig        `koanf:"fragment"`
	SelectiveRepeat SelectiveRepeatConfig `koanf:"selective_repeat"`
	Crypto          CryptoConfig          `koanf:"crypto"`
	Logging         LoggingConfig         `koanf:"logging"`
}

// LoggingConfig controls the verbosity of the shared logging.Logger.
type LoggingConfig struct {
	// Level is one of error, warn, info, debug, trace (case-insensitive).
	Level string `koanf:"level"`
}

// ParsedLevel parses c's configured level string via logging.ParseLevel.
func (c LoggingConfig) ParsedLevel() (logging.Level, error) {
	return logging.ParseLevel(c.Level)
}

// MeshConfig controls the duplicate-suppression cache and relay policy
// (spec §4.9).
type MeshConfig struct {
	// CacheMaxSize bounds the duplicate-suppression MessageCache.
	CacheMaxSize int `koanf:"cache_max_size"`
	// CacheTTL is how long a message ID is remembered.
	CacheTTL time.Duration `koanf:"cache_ttl"`
	// MaxAgeMinutes is the relative-age ceiling past which a packet is
	// never relayed (spec §4.4).
	MaxAgeMinutes uint32 `koanf:"max_age_minutes"`
	// DefaultTTL is the hop_ttl assumed for packets this node originates,
	// used to estimate hop_count for backoff scaling on relay.
	DefaultTTL uint8 `koanf:"default_ttl"`
}

// BackoffConfig controls the randomized exponential relay backoff (spec §4.9).
type BackoffConfig struct {
	BaseDelayMs   float64 `koanf:"base_delay_ms"`
	MaxDelayMs    float64 `koanf:"max_delay_ms"`
	Jitter        float64 `koanf:"jitter"`
	HopMultiplier float64 `koanf:"hop_multiplier"`
}

// FragmentConfig controls the fragmentation reassembler (spec §4.7).
type FragmentConfig struct {
	// MaxBuffers bounds the number of in-flight reassembly buffers.
	MaxBuffers int `koanf:"max_buffers"`
	// ReassemblyTimeout is how long a partial buffer is kept before
	// being swept by Cleanup.
	ReassemblyTimeout time.Duration `koanf:"reassembly_timeout"`
}

// SelectiveRepeatConfig controls NACK-based fragment retry (spec §4.7).
type SelectiveRepeatConfig struct {
	MaxRetries    int           `koanf:"max_retries"`
	RetryInterval time.Duration `koanf:"retry_interval"`
}

// CryptoConfig controls PBKDF2 key derivation (spec §4.10).
type CryptoConfig struct {
	// Iterations is the PBKDF2 iteration count, clamped into
	// [MinIterations, MaxIterations] at use (see internal/crypto).
	Iterations int `koanf:"iterations"`
	// KeyLenBytes is the derived AES key length: 16 (AES-128) or 32 (AES-256).
	KeyLenBytes int `koanf:"key_len_bytes"`
}

// Defaults returns a Config populated with the spec's documented
// defaults, with no file or environment overlay applied.
func Defaults() *Config {
	return &Config{
		Mesh: MeshConfig{
			CacheMaxSize:  10_000,
			CacheTTL:      24 * time.Hour,
			MaxAgeMinutes: 1440,
			DefaultTTL:    15,
		},
		Backoff: BackoffConfig{
			BaseDelayMs:   50.0,
			MaxDelayMs:    2000.0,
			Jitter:        0.2,
			HopMultiplier: 1.5,
		},
		Fragment: FragmentConfig{
			MaxBuffers:        100,
			ReassemblyTimeout: 5 * time.Minute,
		},
		SelectiveRepeat: SelectiveRepeatConfig{
			MaxRetries:    3,
			RetryInterval: 5 * time.Second,
		},
		Crypto: CryptoConfig{
			Iterations:  10_000,
			KeyLenBytes: 32,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// envPrefix is the environment variable prefix for BitPack configuration.
// Variables are named BITPACK_<section>_<key>, e.g. BITPACK_MESH_CACHE_MAX_SIZE.
const envPrefix = "BITPACK_"

// Load reads configuration from a YAML file at path, overlays
// BITPACK_-prefixed environment variables, and merges on top of
// Defaults(). path may be empty, in which case only defaults and
// environment overrides apply — a config file is optional.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Defaults()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms BITPACK_MESH_CACHE_MAX_SIZE ->
// mesh.cache_max_size: strips the BITPACK_ prefix, lowercases, and
// replaces the first remaining underscore-delimited segment boundary
// with a dot (section, then key). The selective_repeat section, whose
// name itself contains an underscore, is matched by name.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	const srSection = "selective_repeat_"
	if strings.HasPrefix(s, srSection) {
		return "selective_repeat." + s[len(srSection):]
	}
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	return parts[0] + "." + parts[1]
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, d *Config) error {
	defaultMap := map[string]any{
		"mesh.cache_max_size":               d.Mesh.CacheMaxSize,
		"mesh.cache_ttl":                    d.Mesh.CacheTTL.String(),
		"mesh.max_age_minutes":              d.Mesh.MaxAgeMinutes,
		"mesh.default_ttl":                  d.Mesh.DefaultTTL,
		"backoff.base_delay_ms":             d.Backoff.BaseDelayMs,
		"backoff.max_delay_ms":              d.Backoff.MaxDelayMs,
		"backoff.jitter":                    d.Backoff.Jitter,
		"backoff.hop_multiplier":            d.Backoff.HopMultiplier,
		"fragment.max_buffers":              d.Fragment.MaxBuffers,
		"fragment.reassembly_timeout":       d.Fragment.ReassemblyTimeout.String(),
		"selective_repeat.max_retries":      d.SelectiveRepeat.MaxRetries,
		"selective_repeat.retry_interval":   d.SelectiveRepeat.RetryInterval.String(),
		"crypto.iterations":                 d.Crypto.Iterations,
		"crypto.key_len_bytes":              d.Crypto.KeyLenBytes,
		"logging.level":                     d.Logging.Level,
	}
	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}
