package domain

import "time"

// SecretBytes is the fixed length of a pairing secret.
const SecretBytes = 32

// Secret is the symmetric shared secret produced by pairing.
type Secret [SecretBytes]byte

// Slice returns the secret as a []byte.
func (s Secret) Slice() []byte { return s[:] }

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// Credential is the durable output of a successful pairing: the name the
// peer was recorded under, the shared secret, and when it was created.
// It is never sent over the wire after the pairing handshake completes.
type Credential struct {
	Peer      string
	Secret    Secret
	CreatedAt time.Time
}
