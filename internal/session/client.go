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

// clientDevice is one entry in the client's dispatch table: the injection
// handle plus the last sequence number accepted for that device.
type clientDevice struct {
	desc    domain.Descriptor
	handle  domain.InjectionHandle
	lastSeq uint64
}

// RunClient runs the client side of one forwarding session on conn,
// authenticating against the stored credential for peer, then injecting
// whatever the server forwards. Like Serve, the return is the session's
// single terminal status.
func (m *Manager) RunClient(conn net.Conn, peer string) error {
	defer conn.Close()

	if _, err := m.authenticateServer(conn, peer); err != nil {
		return fmt.Errorf("authenticating to %s: %w", peer, err)
	}
	log := m.cfg.Logger.With("peer", peer)
	log.Info("session authenticated")

	if err := conn.SetReadDeadline(time.Now().Add(m.cfg.HandshakeTimeout)); err != nil {
		return err
	}
	announce, err := expect[wire.DeviceList](conn)
	if err != nil {
		return fmt.Errorf("reading device list: %w", err)
	}

	table := make(map[domain.DeviceID]*clientDevice, len(announce.Devices))
	defer func() {
		for _, d := range table {
			_ = d.handle.Close()
		}
	}()
	for _, desc := range announce.Devices {
		h, err := m.cfg.Devices.OpenForInjection(desc)
		if err != nil {
			log.Warn("cannot create virtual device", "device", desc.Name, "err", err)
			continue
		}
		table[desc.ID] = &clientDevice{desc: desc, handle: h}
	}
	log.Info("session started", "devices", len(table))

	stop := make(chan struct{})
	defer close(stop)
	go m.keepAliveLoop(conn, stop)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(m.cfg.IdleTimeout)); err != nil {
			return err
		}
		msg, err := wire.ReadMessage(conn)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				log.Info("session ended", "err", ErrLivenessTimeout)
				return ErrLivenessTimeout
			}
			return fmt.Errorf("reading from server: %w", err)
		}
		switch v := msg.(type) {
		case wire.KeepAlive:
			// The successful read already refreshed liveness.
		case wire.DeviceEvent:
			m.dispatch(table, v.Event, log)
		default:
			return fmt.Errorf("%w: unexpected %T from server", domain.ErrMalformedFrame, msg)
		}
	}
}

// dispatch routes one event through the device table, enforcing per-device
// sequence semantics: duplicates and regressions are dropped silently, a
// gap is counted once and the event still injected. Nothing here can fail
// the session.
func (m *Manager) dispatch(table map[domain.DeviceID]*clientDevice, ev domain.Event, log *slog.Logger) {
	dev, ok := table[ev.Device]
	if !ok {
		// Unknown target device: the event is consumed by discarding it.
		return
	}
	if ev.Seq <= dev.lastSeq {
		m.stats.duplicates.Add(1)
		return
	}
	if ev.Seq > dev.lastSeq+1 {
		m.stats.sequenceGaps.Add(1)
		log.Warn("sequence gap", "device", ev.Device, "have", dev.lastSeq, "got", ev.Seq)
	}
	dev.lastSeq = ev.Seq

	switch err := dev.handle.WriteEvent(ev); {
	case err == nil:
	case errors.Is(err, domain.ErrCapabilityMismatch):
		m.stats.capabilityDrops.Add(1)
		log.Warn("dropping event outside capability set",
			"device", ev.Device, "type", ev.Type, "code", ev.Code)
	default:
		// The virtual device is gone; the session continues without it.
		m.stats.devicesLost.Add(1)
		log.Warn("virtual device lost", "device", ev.Device, "err", err)
		_ = dev.handle.Close()
		delete(table, ev.Device)
	}
}

// keepAliveLoop is the client's only writer after authentication.
func (m *Manager) keepAliveLoop(conn net.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(m.cfg.KeepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := m.write(conn, wire.KeepAlive{}); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}
