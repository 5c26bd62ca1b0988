// Package biterr defines the closed error-kind enumeration surfaced at
// BitPack's decode and mesh-operation boundaries (spec §7). Decode errors
// are always returned to the caller, never silently coerced; callers
// should match with errors.Is against the sentinels below.
package biterr

import "errors"

// Sentinel error kinds. Wrap with fmt.Errorf("...: %w", ErrX) for context;
// match with errors.Is.
var (
	// ErrInsufficientBytes is returned when a buffer is shorter than the
	// minimum required to decode the structure being parsed.
	ErrInsufficientBytes = errors.New("bitpack: insufficient bytes")

	// ErrCrcMismatch is returned when a packet's integrity trailer does
	// not match the checksum of the preceding bytes. Fail-fast: no
	// payload parsing is attempted once this fires.
	ErrCrcMismatch = errors.New("bitpack: crc mismatch")

	// ErrInvalidMode is returned when the mode bit (MSB of byte 0) does
	// not match the parser that was invoked.
	ErrInvalidMode = errors.New("bitpack: invalid mode")

	// ErrInvalidType is returned for a Standard-only type used with
	// Compact framing, or a type code outside either codespace.
	ErrInvalidType = errors.New("bitpack: invalid type")

	// ErrOutOfRange is returned when a field's value exceeds the range
	// its bit-width can carry (ttl, payload_length, age_minutes, ...).
	ErrOutOfRange = errors.New("bitpack: value out of range")

	// ErrUtf8Decode is returned when a length-prefixed text field is not
	// valid UTF-8.
	ErrUtf8Decode = errors.New("bitpack: invalid utf-8")

	// ErrFragmentation covers fragment index/total/count invariant
	// violations (e.g. index >= total, total == 0, mismatched totals
	// for an existing reassembly buffer).
	ErrFragmentation = errors.New("bitpack: fragmentation error")

	// ErrMissingFragment reports that a fragment needed to complete a
	// message is absent. No function in this module returns it.
	ErrMissingFragment = errors.New("bitpack: missing fragment")

	// ErrAuthentication is returned on AES-GCM tag mismatch. Never
	// soft-failed: ciphertext that fails authentication is discarded,
	// never partially returned.
	ErrAuthentication = errors.New("bitpack: authentication failed")

	// ErrKeyDerivation is returned when PBKDF2 key derivation cannot
	// proceed (e.g. a key length other than 16 or 32 bytes; an
	// out-of-range iteration count is clamped, not rejected).
	ErrKeyDerivation = errors.New("bitpack: key derivation failed")
)
