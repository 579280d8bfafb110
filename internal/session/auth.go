package session

import (
	"fmt"
	"net"
	"time"

	"github.com/yshui/entangle/internal/crypto"
	"github.com/yshui/entangle/internal/domain"
	"github.com/yshui/entangle/internal/wire"
)

// Proof role labels. Binding the role into the HMAC keeps a proof from one
// direction from being replayed in the other.
const (
	roleClient = "entangle client"
	roleServer = "entangle server"
)

// authenticateClient runs the server half of the mutual proof: challenge
// the client's claim first, then answer the client's challenge. A failed
// proof yields domain.ErrAuthenticationFailed with nothing sent that would
// reveal whether the claimed peer was even known.
func (m *Manager) authenticateClient(conn net.Conn) (domain.Credential, error) {
	if err := conn.SetDeadline(time.Now().Add(m.cfg.HandshakeTimeout)); err != nil {
		return domain.Credential{}, err
	}
	defer conn.SetDeadline(time.Time{})

	nonce, err := crypto.NewNonce()
	if err != nil {
		return domain.Credential{}, err
	}
	if err := wire.WriteMessage(conn, wire.AuthChallenge{Nonce: nonce}); err != nil {
		return domain.Credential{}, fmt.Errorf("sending challenge: %w", err)
	}
	resp, err := expect[wire.AuthResponse](conn)
	if err != nil {
		return domain.Credential{}, err
	}

	cred, known, err := m.cfg.Store.Load(resp.Peer)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("loading credential: %w", err)
	}
	if !known || !crypto.VerifyProof(cred.Secret.Slice(), roleClient, nonce, resp.Proof) {
		return domain.Credential{}, domain.ErrAuthenticationFailed
	}

	challenge, err := expect[wire.AuthChallenge](conn)
	if err != nil {
		return domain.Credential{}, err
	}
	reply := wire.AuthResponse{
		Peer:  resp.Peer,
		Proof: crypto.Proof(cred.Secret.Slice(), roleServer, challenge.Nonce),
	}
	if err := wire.WriteMessage(conn, reply); err != nil {
		return domain.Credential{}, fmt.Errorf("sending proof: %w", err)
	}
	return cred, nil
}

// authenticateServer runs the client half: answer the server's challenge
// with our peer-identifier claim, then require the server to pass ours.
func (m *Manager) authenticateServer(conn net.Conn, peer string) (domain.Credential, error) {
	cred, known, err := m.cfg.Store.Load(peer)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("loading credential: %w", err)
	}
	if !known {
		return domain.Credential{}, fmt.Errorf("%w: %s", domain.ErrUnknownPeer, peer)
	}

	if err := conn.SetDeadline(time.Now().Add(m.cfg.HandshakeTimeout)); err != nil {
		return domain.Credential{}, err
	}
	defer conn.SetDeadline(time.Time{})

	challenge, err := expect[wire.AuthChallenge](conn)
	if err != nil {
		return domain.Credential{}, err
	}
	resp := wire.AuthResponse{
		Peer:  peer,
		Proof: crypto.Proof(cred.Secret.Slice(), roleClient, challenge.Nonce),
	}
	if err := wire.WriteMessage(conn, resp); err != nil {
		return domain.Credential{}, fmt.Errorf("sending proof: %w", err)
	}

	nonce, err := crypto.NewNonce()
	if err != nil {
		return domain.Credential{}, err
	}
	if err := wire.WriteMessage(conn, wire.AuthChallenge{Nonce: nonce}); err != nil {
		return domain.Credential{}, fmt.Errorf("sending challenge: %w", err)
	}
	proof, err := expect[wire.AuthResponse](conn)
	if err != nil {
		return domain.Credential{}, err
	}
	if !crypto.VerifyProof(cred.Secret.Slice(), roleServer, nonce, proof.Proof) {
		return domain.Credential{}, domain.ErrAuthenticationFailed
	}
	return cred, nil
}

// expect reads one message and requires it to be of type T.
func expect[T wire.Message](conn net.Conn) (T, error) {
	var zero T
	m, err := wire.ReadMessage(conn)
	if err != nil {
		return zero, fmt.Errorf("reading message: %w", err)
	}
	v, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("%w: expected %T, got %T", domain.ErrMalformedFrame, zero, m)
	}
	return v, nil
}
