// Package crypto implements BitPack's authenticated-encryption envelope
// (spec §4.10): PBKDF2-HMAC-SHA256 key derivation and AES-GCM with the
// encoded packet header bound in as additional authenticated data. Key
// derivation is CPU-heavy by design (5,000-100,000 iterations) and is
// dispatchable to a background worker so it never blocks the
// packet-receive path (spec §5); DeriveKeyAsync does that dispatch.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/bitpack/bitpack/internal/biterr"
)

// Iteration count bounds (spec §6 Crypto config).
const (
	MinIterations     = 5_000
	MaxIterations     = 100_000
	DefaultIterations = 10_000
)

// SaltSize is the fixed size of a PBKDF2 salt.
const SaltSize = 16

// NonceSize is the AES-GCM nonce size used on the wire (spec §4.10).
const NonceSize = 12

// TagSize is the AES-GCM authentication tag size.
const TagSize = 16

// DeriveKey derives a key of keyLen bytes (16 or 32) from password and
// salt using PBKDF2-HMAC-SHA256. iterations is clamped into
// [MinIterations, MaxIterations] if out of range rather than failing,
// matching the "configurable integer, default 10000" framing in spec
// §4.10; an explicitly invalid keyLen is a KeyDerivationError.
func DeriveKey(password string, salt []byte, iterations int, keyLen int) ([]byte, error) {
	if keyLen != 16 && keyLen != 32 {
		return nil, fmt.Errorf("crypto: key length must be 16 or 32, got %d: %w", keyLen, biterr.ErrKeyDerivation)
	}
	if iterations < MinIterations {
		iterations = MinIterations
	}
	if iterations > MaxIterations {
		iterations = MaxIterations
	}
	return pbkdf2.Key([]byte(password), salt, iterations, keyLen, sha256.New), nil
}

// KeyResult carries the outcome of a DeriveKeyAsync call.
type KeyResult struct {
	Key []byte
	Err error
}

// DeriveKeyAsync runs DeriveKey on a background goroutine and delivers
// the result on the returned channel, so a caller on the packet-receive
// path never blocks on the PBKDF2 work (spec §5: "long derivations MUST
// NOT block the packet-receive path").
func DeriveKeyAsync(password string, salt []byte, iterations int, keyLen int) <-chan KeyResult {
	out := make(chan KeyResult, 1)
	go func() {
		key, err := DeriveKey(password, salt, iterations, keyLen)
		out <- KeyResult{Key: key, Err: err}
	}()
	return out
}

// NewSalt draws a fresh CSPRNG salt of SaltSize bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("crypto: read salt: %w", err)
	}
	return salt, nil
}

// EncryptWithHeader encrypts plaintext under key with headerBytes bound
// as additional authenticated data (spec §4.10). The nonce is drawn fresh
// from the CSPRNG for every call (never reused with the same key) and
// prepended to the output: nonce(12) ‖ ciphertext ‖ tag(16).
func EncryptWithHeader(plaintext, key, headerBytes []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: read nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, headerBytes)
	return append(nonce, sealed...), nil
}

// DecryptWithHeader reverses EncryptWithHeader: it splits the nonce from
// the front of envelope, verifies the AES-GCM tag against headerBytes as
// AAD, and returns the plaintext. A tag, key, nonce, or AAD mismatch
// always returns biterr.ErrAuthentication with no partial plaintext
// (spec §4.10, §7: crypto failures are never soft-failed).
func DecryptWithHeader(envelope, key, headerBytes []byte) ([]byte, error) {
	if len(envelope) < NonceSize+TagSize {
		return nil, fmt.Errorf("crypto: envelope shorter than nonce+tag: %w", biterr.ErrAuthentication)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}

	nonce := envelope[:NonceSize]
	ciphertext := envelope[NonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, headerBytes)
	if err != nil {
		return nil, fmt.Errorf("crypto: gcm open: %w", biterr.ErrAuthentication)
	}
	return plaintext, nil
}
