// Package crypto exposes the minimal primitives used by entangle.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Derivation of the long-term pairing secret and the short
//     human-comparable verification code from shared key material
//     (DeriveSecret, VerificationCode)
//   - Challenge/response proofs of secret possession (Proof, VerifyProof)
//   - Short secret fingerprints for display/logging (Fingerprint)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Notes
//
// All functions work on fixed-size array types defined in internal/domain to
// avoid accidental reallocations. Callers should treat returned secrets as
// sensitive and rely on Wipe when practical to reduce lifetime in memory.
package crypto
