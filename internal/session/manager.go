package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/yshui/entangle/internal/domain"
	"github.com/yshui/entangle/internal/wire"
)

// Defaults for the session timers.
const (
	DefaultKeepAliveInterval = 1 * time.Second
	DefaultIdleTimeout       = 5 * time.Second
	DefaultHandshakeTimeout  = 10 * time.Second
)

// ErrLivenessTimeout ends a session that saw no traffic, keep-alives
// included, for the idle timeout. It is terminal for the session.
var ErrLivenessTimeout = errors.New("session liveness timeout")

// Config wires a Manager. Store and Devices are required.
type Config struct {
	Store   domain.CredentialStore
	Devices domain.DeviceProvider

	// KeepAliveInterval is how often an otherwise idle side emits a
	// keep-alive. Must be shorter than IdleTimeout.
	KeepAliveInterval time.Duration
	// IdleTimeout is how long a side tolerates total silence before the
	// session is considered disconnected.
	IdleTimeout time.Duration
	// HandshakeTimeout bounds the authentication exchange.
	HandshakeTimeout time.Duration

	Logger *slog.Logger
}

// Manager authenticates connections against the credential store and runs
// forwarding sessions over them. One Manager serves many consecutive
// sessions; each session owns exactly one connection.
type Manager struct {
	cfg   Config
	stats Stats
}

// NewManager returns a Manager with defaults applied.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session: nil credential store")
	}
	if cfg.Devices == nil {
		return nil, fmt.Errorf("session: nil device provider")
	}
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.IdleTimeout <= cfg.KeepAliveInterval {
		return nil, fmt.Errorf("session: idle timeout %v must exceed keep-alive interval %v",
			cfg.IdleTimeout, cfg.KeepAliveInterval)
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{cfg: cfg}, nil
}

// Stats exposes the diagnostic counters shared by this Manager's sessions.
func (m *Manager) Stats() *Stats { return &m.stats }

// write sends one message under the idle timeout. A peer that stops
// draining its end of the connection therefore surfaces as
// ErrLivenessTimeout instead of wedging the writer forever.
func (m *Manager) write(conn net.Conn, msg wire.Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(m.cfg.IdleTimeout)); err != nil {
		return err
	}
	if err := wire.WriteMessage(conn, msg); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return ErrLivenessTimeout
		}
		return err
	}
	return nil
}
