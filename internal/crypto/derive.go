package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/yshui/entangle/internal/domain"
)

const (
	secretInfo = "entangle pairing secret v1"
	verifyInfo = "entangle verification code v1"
)

// VerificationDigits is the length of the code operators compare.
const VerificationDigits = 8

// DeriveSecret turns raw Diffie–Hellman output into the long-term pairing
// secret. Both peers derive byte-identical secrets from identical shared
// material.
func DeriveSecret(shared [32]byte) (domain.Secret, error) {
	var out domain.Secret
	r := hkdf.New(sha256.New, shared[:], nil, []byte(secretInfo))
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return domain.Secret{}, err
	}
	return out, nil
}

// VerificationCode derives the short decimal code displayed on both machines
// during pairing. It is keyed independently of the persisted secret so that
// showing it to the operator reveals nothing about the credential.
func VerificationCode(shared [32]byte) (string, error) {
	var raw [4]byte
	r := hkdf.New(sha256.New, shared[:], nil, []byte(verifyInfo))
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return "", err
	}
	pin := binary.BigEndian.Uint32(raw[:]) % 1_0000_0000
	return fmt.Sprintf("%0*d", VerificationDigits, pin), nil
}

// Fingerprint returns a short hex fingerprint of a stored secret for
// display and logging.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(secret domain.Secret) string {
	sum := sha256.Sum256(secret[:])
	return hex.EncodeToString(sum[:10])
}

// Wipe best-effort clears sensitive bytes.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
