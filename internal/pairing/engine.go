package pairing

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/yshui/entangle/internal/crypto"
	"github.com/yshui/entangle/internal/domain"
	"github.com/yshui/entangle/internal/wire"
)

// State is the pairing state machine position.
type State int

const (
	StateIdle State = iota
	StateListening
	StateConnecting
	StateExchanging
	StateAwaitingConfirmation
	StatePaired
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateConnecting:
		return "connecting"
	case StateExchanging:
		return "exchanging"
	case StateAwaitingConfirmation:
		return "awaiting-confirmation"
	case StatePaired:
		return "paired"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ConfirmFunc supplies the operator's verdict on a verification code. It may
// block on a human; the engine bounds it with the confirmation timeout.
type ConfirmFunc func(code string) (bool, error)

// DefaultConfirmTimeout bounds how long the engine waits for both the local
// operator and the peer's confirmation.
const DefaultConfirmTimeout = 2 * time.Minute

// Engine runs one pairing attempt.
type Engine struct {
	store   domain.CredentialStore
	confirm ConfirmFunc
	timeout time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	state   State
	started bool
}

// Option adjusts an Engine.
type Option func(*Engine)

// WithConfirmTimeout overrides DefaultConfirmTimeout.
func WithConfirmTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an idle single-use Engine that persists through store and asks
// confirm for the human verification step.
func New(store domain.CredentialStore, confirm ConfirmFunc, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		confirm: confirm,
		timeout: DefaultConfirmTimeout,
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// State returns the current state machine position.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Accept waits for one inbound pairing connection on ln and runs the
// responder side, recording the peer under name. An empty name falls back
// to the remote address.
func (e *Engine) Accept(ln net.Listener, name string) (domain.Credential, error) {
	if err := e.start(StateListening); err != nil {
		return domain.Credential{}, err
	}
	conn, err := ln.Accept()
	if err != nil {
		return domain.Credential{}, e.fail(fmt.Errorf("pairing accept: %w", err))
	}
	if name == "" {
		name = conn.RemoteAddr().String()
	}
	return e.run(conn, false, name)
}

// Connect dials addr and runs the initiator side, recording the peer under
// name. An empty name falls back to addr.
func (e *Engine) Connect(addr, name string) (domain.Credential, error) {
	if err := e.start(StateConnecting); err != nil {
		return domain.Credential{}, err
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return domain.Credential{}, e.fail(fmt.Errorf("pairing dial %s: %w", addr, err))
	}
	if name == "" {
		name = addr
	}
	return e.run(conn, true, name)
}

// Run drives one pairing attempt over an established connection. It is the
// transport-independent core behind Accept and Connect.
func (e *Engine) Run(conn net.Conn, initiator bool, name string) (domain.Credential, error) {
	initial := StateListening
	if initiator {
		initial = StateConnecting
	}
	if err := e.start(initial); err != nil {
		return domain.Credential{}, err
	}
	return e.run(conn, initiator, name)
}

func (e *Engine) start(s State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("pairing: engine already used (state %s)", e.state)
	}
	e.started = true
	e.state = s
	return nil
}

func (e *Engine) run(conn net.Conn, initiator bool, name string) (domain.Credential, error) {
	defer conn.Close()

	// The name later travels as the session auth claim, so it must fit
	// the wire's length prefix.
	if len(name) > wire.MaxStringLen {
		return domain.Credential{}, e.fail(fmt.Errorf(
			"pairing: peer name is %d bytes, limit %d", len(name), wire.MaxStringLen))
	}

	e.setState(StateExchanging)
	shared, err := e.exchange(conn, initiator)
	if err != nil {
		return domain.Credential{}, e.fail(err)
	}
	secret, err := crypto.DeriveSecret(shared)
	if err != nil {
		return domain.Credential{}, e.fail(err)
	}
	code, err := crypto.VerificationCode(shared)
	if err != nil {
		return domain.Credential{}, e.fail(err)
	}
	crypto.Wipe(shared[:])

	e.setState(StateAwaitingConfirmation)
	if err := e.confirmBothSides(conn, code); err != nil {
		return domain.Credential{}, e.fail(err)
	}

	cred := domain.Credential{Peer: name, Secret: secret, CreatedAt: time.Now()}
	if err := e.store.Save(cred); err != nil {
		return domain.Credential{}, e.fail(fmt.Errorf("persisting credential: %w", err))
	}
	e.setState(StatePaired)
	e.log.Info("paired", "peer", name, "fingerprint", crypto.Fingerprint(secret))
	return cred, nil
}

// exchange runs the Diffie–Hellman key share. Each side contributes a fresh
// key pair; neither private value ever leaves its host.
func (e *Engine) exchange(conn net.Conn, initiator bool) ([32]byte, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return [32]byte{}, err
	}
	defer crypto.Wipe(priv[:])

	share := wire.HandshakeKeyShare{Public: pub}
	var peer wire.HandshakeKeyShare
	if initiator {
		if err := wire.WriteMessage(conn, share); err != nil {
			return [32]byte{}, fmt.Errorf("sending key share: %w", err)
		}
		if peer, err = readKeyShare(conn); err != nil {
			return [32]byte{}, err
		}
	} else {
		if peer, err = readKeyShare(conn); err != nil {
			return [32]byte{}, err
		}
		if err := wire.WriteMessage(conn, share); err != nil {
			return [32]byte{}, fmt.Errorf("sending key share: %w", err)
		}
	}
	return crypto.DH(priv, peer.Public)
}

func readKeyShare(conn net.Conn) (wire.HandshakeKeyShare, error) {
	m, err := wire.ReadMessage(conn)
	if err != nil {
		return wire.HandshakeKeyShare{}, fmt.Errorf("reading key share: %w", err)
	}
	share, ok := m.(wire.HandshakeKeyShare)
	if !ok {
		return wire.HandshakeKeyShare{}, fmt.Errorf("%w: expected key share, got %T",
			domain.ErrMalformedFrame, m)
	}
	return share, nil
}

// confirmBothSides collects the local operator verdict, exchanges
// HandshakeConfirm with the peer, and succeeds only when both accept.
func (e *Engine) confirmBothSides(conn net.Conn, code string) error {
	type verdict struct {
		ok  bool
		err error
	}
	local := make(chan verdict, 1)
	go func() {
		ok, err := e.confirm(code)
		local <- verdict{ok, err}
	}()

	var accepted bool
	select {
	case v := <-local:
		if v.err != nil {
			return fmt.Errorf("confirmation: %w", v.err)
		}
		accepted = v.ok
	case <-time.After(e.timeout):
		// Tell the peer we are bailing out, best effort.
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = wire.WriteMessage(conn, wire.HandshakeConfirm{Accept: false})
		return domain.ErrPairingTimeout
	}

	// Send our verdict while reading theirs, so neither side can wedge the
	// other by writing first on an unbuffered transport. The read happens
	// on the reject path too: the peer may be blocked sending its verdict.
	sent := make(chan error, 1)
	go func() {
		sent <- wire.WriteMessage(conn, wire.HandshakeConfirm{Accept: accepted})
	}()

	_ = conn.SetReadDeadline(time.Now().Add(e.timeout))
	m, err := wire.ReadMessage(conn)

	// A local rejection outranks whatever the peer said and whatever
	// happened to the exchange; the pending write is unblocked when run
	// closes the connection.
	if !accepted {
		return domain.ErrPairingRejected
	}
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return domain.ErrPairingTimeout
		}
		return fmt.Errorf("reading peer confirmation: %w", err)
	}
	confirm, ok := m.(wire.HandshakeConfirm)
	if !ok {
		return fmt.Errorf("%w: expected confirmation, got %T", domain.ErrMalformedFrame, m)
	}
	if !confirm.Accept {
		return domain.ErrPairingRejected
	}
	if werr := <-sent; werr != nil {
		return fmt.Errorf("sending confirmation: %w", werr)
	}
	return nil
}

func (e *Engine) fail(err error) error {
	e.setState(StateFailed)
	e.log.Warn("pairing failed", "err", err)
	return err
}
