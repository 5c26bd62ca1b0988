package config

import "errors"

// Validation errors.
var (
	ErrInvalidCacheMaxSize      = errors.New("mesh.cache_max_size must be > 0")
	ErrInvalidMaxAgeMinutes     = errors.New("mesh.max_age_minutes must be > 0")
	ErrInvalidBaseDelay         = errors.New("backoff.base_delay_ms must be > 0")
	ErrInvalidMaxDelay          = errors.New("backoff.max_delay_ms must be >= backoff.base_delay_ms")
	ErrInvalidJitter            = errors.New("backoff.jitter must be in [0, 1]")
	ErrInvalidHopMultiplier     = errors.New("backoff.hop_multiplier must be >= 1")
	ErrInvalidMaxBuffers        = errors.New("fragment.max_buffers must be > 0")
	ErrInvalidReassemblyTimeout = errors.New("fragment.reassembly_timeout must be > 0")
	ErrInvalidMaxRetries        = errors.New("selective_repeat.max_retries must be >= 0")
	ErrInvalidRetryInterval     = errors.New("selective_repeat.retry_interval must be > 0")
	ErrInvalidIterations        = errors.New("crypto.iterations must be in [5000, 100000]")
	ErrInvalidKeyLen            = errors.New("crypto.key_len_bytes must be 16 or 32")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of error, warn, info, debug, trace")
)

// Validate checks cfg for logical errors, returning the first one found.
func Validate(cfg *Config) error {
	if cfg.Mesh.CacheMaxSize <= 0 {
		return ErrInvalidCacheMaxSize
	}
	if cfg.Mesh.MaxAgeMinutes == 0 {
		return ErrInvalidMaxAgeMinutes
	}
	if cfg.Backoff.BaseDelayMs <= 0 {
		return ErrInvalidBaseDelay
	}
	if cfg.Backoff.MaxDelayMs < cfg.Backoff.BaseDelayMs {
		return ErrInvalidMaxDelay
	}
	if cfg.Backoff.Jitter < 0 || cfg.Backoff.Jitter > 1 {
		return ErrInvalidJitter
	}
	if cfg.Backoff.HopMultiplier < 1 {
		return ErrInvalidHopMultiplier
	}
	if cfg.Fragment.MaxBuffers <= 0 {
		return ErrInvalidMaxBuffers
	}
	if cfg.Fragment.ReassemblyTimeout <= 0 {
		return ErrInvalidReassemblyTimeout
	}
	if cfg.SelectiveRepeat.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if cfg.SelectiveRepeat.RetryInterval <= 0 {
		return ErrInvalidRetryInterval
	}
	if cfg.Crypto.Iterations < 5000 || cfg.Crypto.Iterations > 100_000 {
		return ErrInvalidIterations
	}
	if cfg.Crypto.KeyLenBytes != 16 && cfg.Crypto.KeyLenBytes != 32 {
		return ErrInvalidKeyLen
	}
	if _, err := cfg.Logging.ParsedLevel(); err != nil {
		return ErrInvalidLogLevel
	}
	return nil
}
