package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
)

// NonceBytes is the length of an authentication challenge nonce.
const NonceBytes = 32

// ProofBytes is the length of a challenge proof.
const ProofBytes = sha256.Size

// NewNonce returns a fresh random challenge nonce.
func NewNonce() (n [NonceBytes]byte, err error) {
	_, err = rand.Read(n[:])
	return
}

// Proof computes the response to an authentication challenge:
// HMAC-SHA256(secret, role || nonce). The role label keeps a proof from one
// direction from being reflected back in the other.
func Proof(secret []byte, role string, nonce [NonceBytes]byte) (out [ProofBytes]byte) {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(role))
	h.Write(nonce[:])
	copy(out[:], h.Sum(nil))
	return
}

// VerifyProof checks a challenge response in constant time.
func VerifyProof(secret []byte, role string, nonce [NonceBytes]byte, proof [ProofBytes]byte) bool {
	want := Proof(secret, role, nonce)
	return hmac.Equal(want[:], proof[:])
}
