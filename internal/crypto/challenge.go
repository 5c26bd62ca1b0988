package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/bitpack/bitpack/internal/biterr"
)

// challengeMagic is the fixed 8-byte prefix of a challenge plaintext
// block (spec §4.10): "BITPACK\0".
var challengeMagic = [8]byte{'B', 'I', 'T', 'P', 'A', 'C', 'K', 0}

// ChallengePlaintextSize is the fixed size of the plaintext block a
// challenge encrypts: the 8-byte magic plus 8 random bytes.
const ChallengePlaintextSize = 16

// BuildChallengePlaintext returns a fresh 16-byte challenge plaintext:
// "BITPACK\0" followed by 8 CSPRNG bytes, demonstrating liveness without
// revealing the shared secret once encrypted.
func BuildChallengePlaintext() ([]byte, error) {
	nonce := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: read challenge nonce: %w", err)
	}
	out := make([]byte, 0, ChallengePlaintextSize)
	out = append(out, challengeMagic[:]...)
	out = append(out, nonce...)
	return out, nil
}

// VerifyChallengePlaintext reports whether a decrypted challenge
// plaintext starts with the expected "BITPACK\0" prefix.
func VerifyChallengePlaintext(plaintext []byte) bool {
	if len(plaintext) < len(challengeMagic) {
		return false
	}
	return bytes.Equal(plaintext[:len(challengeMagic)], challengeMagic[:])
}

// BuildChallenge derives a key from password/salt, builds a fresh
// challenge plaintext, and encrypts it with headerBytes as AAD (spec
// §4.10). It returns the ciphertext (nonce‖ciphertext‖tag) ready to embed
// in a ChallengePayload.
func BuildChallenge(password string, salt, headerBytes []byte, iterations, keyLen int) ([]byte, error) {
	key, err := DeriveKey(password, salt, iterations, keyLen)
	if err != nil {
		return nil, err
	}
	plaintext, err := BuildChallengePlaintext()
	if err != nil {
		return nil, err
	}
	return EncryptWithHeader(plaintext, key, headerBytes)
}

// VerifyChallenge derives a key from password/salt and attempts to
// decrypt ciphertext with headerBytes as AAD, returning true only if
// decryption succeeds and the plaintext carries the expected magic
// prefix. Any authentication failure verifies as false, never an error:
// a failed challenge is a negative verification result, not an
// exceptional condition.
func VerifyChallenge(password string, salt, ciphertext, headerBytes []byte, iterations, keyLen int) (bool, error) {
	key, err := DeriveKey(password, salt, iterations, keyLen)
	if err != nil {
		return false, err
	}
	plaintext, err := DecryptWithHeader(ciphertext, key, headerBytes)
	if err != nil {
		if errors.Is(err, biterr.ErrAuthentication) {
			return false, nil
		}
		return false, err
	}
	return VerifyChallengePlaintext(plaintext), nil
}
