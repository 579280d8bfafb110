//go:build linux

package device

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/yshui/entangle/internal/domain"
)

// inputEventSize is sizeof(struct input_event) on 64-bit kernels:
// 16-byte timeval + type + code + value.
const inputEventSize = 24

// OpenForCapture opens the device's event node and takes the exclusive
// grab. The grab lives exactly as long as the handle.
func (p *Provider) OpenForCapture(id domain.DeviceID) (domain.CaptureHandle, error) {
	if id == 0 {
		return nil, domain.ErrReservedDeviceID
	}
	p.mu.Lock()
	node, ok := p.nodes[id]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("device %d not in current enumeration", id)
	}

	f, err := os.OpenFile(node, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", node, err)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), eviocGrab, 1); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("grabbing %s: %w", node, err)
	}
	return &captureHandle{f: f}, nil
}

type captureHandle struct {
	f      *os.File
	closed atomic.Bool
	once   sync.Once
}

// ReadEvent blocks for the next raw event. Close unblocks it with
// ErrHandleClosed; a vanished device surfaces as ErrDeviceLost.
func (h *captureHandle) ReadEvent() (domain.Event, error) {
	var buf [inputEventSize]byte
	if _, err := io.ReadFull(h.f, buf[:]); err != nil {
		if h.closed.Load() {
			return domain.Event{}, domain.ErrHandleClosed
		}
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrDeviceLost, err)
	}
	sec := int64(binary.LittleEndian.Uint64(buf[0:8]))
	usec := int64(binary.LittleEndian.Uint64(buf[8:16]))
	return domain.Event{
		Type:      binary.LittleEndian.Uint16(buf[16:18]),
		Code:      binary.LittleEndian.Uint16(buf[18:20]),
		Value:     int32(binary.LittleEndian.Uint32(buf[20:24])),
		Timestamp: sec*1_000_000 + usec,
	}, nil
}

// Close releases the grab and the file; closing the file is what unblocks
// a pending ReadEvent.
func (h *captureHandle) Close() error {
	var err error
	h.once.Do(func() {
		h.closed.Store(true)
		_ = unix.IoctlSetInt(int(h.f.Fd()), eviocGrab, 0)
		err = h.f.Close()
	})
	return err
}
