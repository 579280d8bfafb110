package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"

	"github.com/yshui/entangle/internal/domain"
)

// GenerateX25519 returns a fresh Curve25519 key pair for one pairing
// exchange. The private scalar is clamped per RFC 7748 before the public
// point is derived, so it never exists in unclamped form.
func GenerateX25519() (domain.X25519Private, domain.X25519Public, error) {
	var priv domain.X25519Private
	if _, err := rand.Read(priv[:]); err != nil {
		return domain.X25519Private{}, domain.X25519Public{}, err
	}
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return domain.X25519Private{}, domain.X25519Public{}, err
	}
	var pub domain.X25519Public
	copy(pub[:], pb)
	return priv, pub, nil
}

// DH combines our private key with the peer's public contribution. Run on
// both ends of an exchange it yields identical shared material, which
// DeriveSecret and VerificationCode then split into independent outputs.
func DH(priv domain.X25519Private, pub domain.X25519Public) ([32]byte, error) {
	var out [32]byte
	shared, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, err
	}
	copy(out[:], shared)
	return out, nil
}
