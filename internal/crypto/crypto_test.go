package crypto_test

import (
	"testing"

	"github.com/yshui/entangle/internal/crypto"
	"github.com/yshui/entangle/internal/domain"
)

func TestDH_BothDirectionsAgree(t *testing.T) {
	aPriv, aPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	bPriv, bPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}

	ab, err := crypto.DH(aPriv, bPub)
	if err != nil {
		t.Fatalf("DH a->b: %v", err)
	}
	ba, err := crypto.DH(bPriv, aPub)
	if err != nil {
		t.Fatalf("DH b->a: %v", err)
	}
	if ab != ba {
		t.Fatal("shared secrets differ")
	}
}

func TestDeriveSecret_Deterministic(t *testing.T) {
	shared := [32]byte{1, 2, 3}

	s1, err := crypto.DeriveSecret(shared)
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	s2, err := crypto.DeriveSecret(shared)
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	if s1 != s2 {
		t.Fatal("same shared material, different secrets")
	}

	other, err := crypto.DeriveSecret([32]byte{4, 5, 6})
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	if s1 == other {
		t.Fatal("different shared material, same secret")
	}
}

func TestVerificationCode_EightDigits(t *testing.T) {
	code, err := crypto.VerificationCode([32]byte{9})
	if err != nil {
		t.Fatalf("VerificationCode: %v", err)
	}
	if len(code) != crypto.VerificationDigits {
		t.Fatalf("code %q: want %d digits", code, crypto.VerificationDigits)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("code %q contains non-digit %q", code, r)
		}
	}

	again, err := crypto.VerificationCode([32]byte{9})
	if err != nil {
		t.Fatalf("VerificationCode: %v", err)
	}
	if code != again {
		t.Fatal("same shared material, different codes")
	}
}

// An observer of the pairing exchange sees both public contributions but
// neither private key. Whatever it derives from material it can actually
// compute must not match the honest verification code.
func TestVerificationCode_TranscriptOnlyAdversary(t *testing.T) {
	aPriv, aPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	_, bPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	honest, err := crypto.DH(aPriv, bPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	honestCode, err := crypto.VerificationCode(honest)
	if err != nil {
		t.Fatalf("VerificationCode: %v", err)
	}

	advPriv, _, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	for _, pub := range []domain.X25519Public{aPub, bPub} {
		guessShared, err := crypto.DH(advPriv, pub)
		if err != nil {
			t.Fatalf("DH: %v", err)
		}
		guess, err := crypto.VerificationCode(guessShared)
		if err != nil {
			t.Fatalf("VerificationCode: %v", err)
		}
		if guess == honestCode {
			t.Fatal("adversary reproduced the verification code from transcript material")
		}
	}
}

func TestProof_VerifyAndReject(t *testing.T) {
	secret := domain.Secret{42}
	nonce, err := crypto.NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}

	proof := crypto.Proof(secret[:], "entangle client", nonce)
	if !crypto.VerifyProof(secret[:], "entangle client", nonce, proof) {
		t.Fatal("valid proof rejected")
	}

	wrong := domain.Secret{43}
	if crypto.VerifyProof(wrong[:], "entangle client", nonce, proof) {
		t.Fatal("proof accepted under a different secret")
	}
	if crypto.VerifyProof(secret[:], "entangle server", nonce, proof) {
		t.Fatal("proof accepted under a different role label")
	}

	other, err := crypto.NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}
	if other == nonce {
		t.Fatal("nonces repeat")
	}
	if crypto.VerifyProof(secret[:], "entangle client", other, proof) {
		t.Fatal("proof accepted against a different nonce")
	}
}

func TestFingerprint_StableAndShort(t *testing.T) {
	s := domain.Secret{1}
	fp := crypto.Fingerprint(s)
	if len(fp) != 20 {
		t.Fatalf("fingerprint %q: want 20 hex chars", fp)
	}
	if fp != crypto.Fingerprint(s) {
		t.Fatal("fingerprint not stable")
	}
	if fp == crypto.Fingerprint(domain.Secret{2}) {
		t.Fatal("distinct secrets share a fingerprint")
	}
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3}
	crypto.Wipe(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not cleared", i)
		}
	}
}
