package crypto

import (
	"bytes"
	"testing"
)

func TestBuildVerifyChallengePlaintextRoundtrip(t *testing.T) {
	plaintext, err := BuildChallengePlaintext()
	if err != nil {
		t.Fatalf("BuildChallengePlaintext: %v", err)
	}
	if len(plaintext) != ChallengePlaintextSize {
		t.Fatalf("len(plaintext) = %d, want %d", len(plaintext), ChallengePlaintextSize)
	}
	if !VerifyChallengePlaintext(plaintext) {
		t.Error("VerifyChallengePlaintext rejected a freshly built plaintext")
	}
}

func TestVerifyChallengePlaintextRejectsWrongMagic(t *testing.T) {
	bad := bytes.Repeat([]byte{0xAA}, ChallengePlaintextSize)
	if VerifyChallengePlaintext(bad) {
		t.Error("VerifyChallengePlaintext accepted a plaintext with no magic prefix")
	}
}

func TestVerifyChallengePlaintextRejectsShortInput(t *testing.T) {
	if VerifyChallengePlaintext([]byte("short")) {
		t.Error("VerifyChallengePlaintext accepted a too-short plaintext")
	}
}

func TestBuildVerifyChallengeRoundtrip(t *testing.T) {
	salt := bytes.Repeat([]byte{0x10}, SaltSize)
	header := []byte("standard-header-bytes")

	ciphertext, err := BuildChallenge("shared-secret", salt, header, MinIterations, 16)
	if err != nil {
		t.Fatalf("BuildChallenge: %v", err)
	}

	ok, err := VerifyChallenge("shared-secret", salt, ciphertext, header, MinIterations, 16)
	if err != nil {
		t.Fatalf("VerifyChallenge: %v", err)
	}
	if !ok {
		t.Error("VerifyChallenge rejected a valid challenge")
	}
}

func TestVerifyChallengeRejectsWrongPassword(t *testing.T) {
	salt := bytes.Repeat([]byte{0x11}, SaltSize)
	header := []byte("header")

	ciphertext, err := BuildChallenge("correct-horse", salt, header, MinIterations, 16)
	if err != nil {
		t.Fatalf("BuildChallenge: %v", err)
	}

	ok, err := VerifyChallenge("wrong-password", salt, ciphertext, header, MinIterations, 16)
	if err != nil {
		t.Fatalf("VerifyChallenge: %v", err)
	}
	if ok {
		t.Error("VerifyChallenge accepted a challenge decrypted with the wrong password")
	}
}

func TestVerifyChallengeRejectsTamperedCiphertext(t *testing.T) {
	salt := bytes.Repeat([]byte{0x12}, SaltSize)
	header := []byte("header")

	ciphertext, err := BuildChallenge("secret", salt, header, MinIterations, 16)
	if err != nil {
		t.Fatalf("BuildChallenge: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xFF

	ok, err := VerifyChallenge("secret", salt, ciphertext, header, MinIterations, 16)
	if err != nil {
		t.Fatalf("VerifyChallenge: %v", err)
	}
	if ok {
		t.Error("VerifyChallenge accepted a tampered ciphertext")
	}
}
