package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/yshui/entangle/internal/domain"
	"github.com/yshui/entangle/internal/wire"
)

// outboundBuffer absorbs capture bursts between the device goroutines and
// the single connection writer.
const outboundBuffer = 256

// Serve runs the server side of one forwarding session on conn:
// authenticate, announce devices, then stream their events until the
// connection dies, the client goes silent, or every device is gone. The
// returned error is the session's single terminal status; Serve never
// reconnects.
func (m *Manager) Serve(conn net.Conn) error {
	defer conn.Close()

	cred, err := m.authenticateClient(conn)
	if err != nil {
		return fmt.Errorf("authenticating client: %w", err)
	}
	log := m.cfg.Logger.With("peer", cred.Peer)
	log.Info("session authenticated")

	devices, err := m.cfg.Devices.ListDevices()
	if err != nil {
		return fmt.Errorf("enumerating devices: %w", err)
	}

	// Grab every capturable device before announcing, so the announcement
	// matches what we can actually forward. A device that cannot be opened
	// is skipped, not fatal.
	type capture struct {
		desc   domain.Descriptor
		handle domain.CaptureHandle
	}
	var captures []capture
	for _, desc := range devices {
		h, err := m.cfg.Devices.OpenForCapture(desc.ID)
		if err != nil {
			log.Warn("skipping device", "device", desc.Name, "err", err)
			continue
		}
		captures = append(captures, capture{desc, h})
	}
	announce := wire.DeviceList{}
	for _, c := range captures {
		announce.Devices = append(announce.Devices, c.desc)
	}

	// The grab is released on every exit path, normal or not.
	done := make(chan struct{})
	var wg sync.WaitGroup
	defer wg.Wait()
	defer func() {
		close(done)
		for _, c := range captures {
			_ = c.handle.Close()
		}
	}()

	if err := m.write(conn, announce); err != nil {
		return fmt.Errorf("announcing devices: %w", err)
	}
	log.Info("session started", "devices", len(captures))

	out := make(chan domain.Event, outboundBuffer)
	for _, c := range captures {
		wg.Add(1)
		go func(c capture) {
			defer wg.Done()
			m.captureLoop(c.desc.ID, c.handle, out, done, log)
		}(c)
	}

	readErr := make(chan error, 1)
	go m.serveReadLoop(conn, readErr)

	ticker := time.NewTicker(m.cfg.KeepAliveInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	for {
		select {
		case ev := <-out:
			if err := m.write(conn, wire.DeviceEvent{Event: ev}); err != nil {
				return fmt.Errorf("sending event: %w", err)
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < m.cfg.KeepAliveInterval {
				continue
			}
			if err := m.write(conn, wire.KeepAlive{}); err != nil {
				return fmt.Errorf("sending keep-alive: %w", err)
			}
			lastWrite = time.Now()
		case err := <-readErr:
			log.Info("session ended", "err", err)
			return err
		}
	}
}

// captureLoop owns one device: it blocks on the device's next raw event,
// stamps the per-device sequence number, and feeds the shared outbound
// stream. Losing the device ends only this loop; the session carries on for
// the rest.
func (m *Manager) captureLoop(id domain.DeviceID, h domain.CaptureHandle, out chan<- domain.Event, done <-chan struct{}, log *slog.Logger) {
	var seq uint64
	for {
		ev, err := h.ReadEvent()
		if err != nil {
			if errors.Is(err, domain.ErrDeviceLost) {
				m.stats.devicesLost.Add(1)
				log.Warn("device lost", "device", id)
			}
			return
		}
		seq++
		ev.Device = id
		ev.Seq = seq
		select {
		case out <- ev:
		case <-done:
			return
		}
	}
}

// serveReadLoop drains the client's keep-alives. Any decoded message counts
// as liveness; anything other than a keep-alive is a protocol violation and
// tears the session down.
func (m *Manager) serveReadLoop(conn net.Conn, readErr chan<- error) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(m.cfg.IdleTimeout)); err != nil {
			readErr <- err
			return
		}
		msg, err := wire.ReadMessage(conn)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				readErr <- ErrLivenessTimeout
				return
			}
			readErr <- fmt.Errorf("reading from client: %w", err)
			return
		}
		if _, ok := msg.(wire.KeepAlive); !ok {
			readErr <- fmt.Errorf("%w: unexpected %T from client", domain.ErrMalformedFrame, msg)
			return
		}
	}
}
