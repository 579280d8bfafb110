//go:build linux

package device

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/yshui/entangle/internal/domain"
)

const (
	uinputNode = "/dev/uinput"
	busUSB     = 3
)

// OpenForInjection creates a uinput virtual device mirroring desc. The
// kernel device exists exactly as long as the handle.
func (p *Provider) OpenForInjection(desc domain.Descriptor) (domain.InjectionHandle, error) {
	if desc.ID == 0 {
		return nil, domain.ErrReservedDeviceID
	}
	f, err := os.OpenFile(uinputNode, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", uinputNode, err)
	}
	fd := int(f.Fd())

	fail := func(err error) (domain.InjectionHandle, error) {
		_ = f.Close()
		return nil, err
	}
	if err := setBits(fd, uiSetEvBit, desc.Caps.Events); err != nil {
		return fail(err)
	}
	if err := setBits(fd, uiSetKeyBit, desc.Caps.Keys); err != nil {
		return fail(err)
	}
	if err := setBits(fd, uiSetRelBit, desc.Caps.Rel); err != nil {
		return fail(err)
	}

	setup, err := packSetup(desc)
	if err != nil {
		return fail(err)
	}
	if err := ioctlPtr(fd, uiDevSetup, unsafe.Pointer(&setup[0])); err != nil {
		return fail(fmt.Errorf("uinput setup: %w", err))
	}
	if err := ioctlNone(fd, uiDevCreate); err != nil {
		return fail(fmt.Errorf("uinput create: %w", err))
	}
	return &injectionHandle{f: f, caps: desc.Caps}, nil
}

type injectionHandle struct {
	f    *os.File
	caps domain.Capabilities
	mu   sync.Mutex
	done bool
}

// WriteEvent replays one event onto the virtual device. Events outside the
// announced capability set are dropped with ErrCapabilityMismatch; the
// handle stays usable.
func (h *injectionHandle) WriteEvent(ev domain.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return domain.ErrHandleClosed
	}
	if !h.caps.Allows(ev.Type, ev.Code) {
		return domain.ErrCapabilityMismatch
	}
	// The kernel stamps its own time on injected events.
	var buf [inputEventSize]byte
	binary.LittleEndian.PutUint16(buf[16:18], ev.Type)
	binary.LittleEndian.PutUint16(buf[18:20], ev.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(ev.Value))
	if _, err := h.f.Write(buf[:]); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeviceLost, err)
	}
	return nil
}

// Close destroys the virtual device on every exit path.
func (h *injectionHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return nil
	}
	h.done = true
	_ = ioctlNone(int(h.f.Fd()), uiDevDestroy)
	return h.f.Close()
}

// packSetup builds struct uinput_setup: input_id, the device name, and
// ff_effects_max (always zero).
func packSetup(desc domain.Descriptor) ([]byte, error) {
	if len(desc.Name) > uinputMaxNameSize-1 {
		return nil, fmt.Errorf("device name %q too long", desc.Name)
	}
	buf := make([]byte, uinputSetupSize)
	binary.LittleEndian.PutUint16(buf[0:2], busUSB)
	binary.LittleEndian.PutUint16(buf[2:4], desc.Vendor)
	binary.LittleEndian.PutUint16(buf[4:6], desc.Product)
	binary.LittleEndian.PutUint16(buf[6:8], desc.Version)
	copy(buf[8:], desc.Name)
	return buf, nil
}

func setBits(fd int, req uint, bits domain.Bitset) error {
	for i := 0; i < len(bits)*8; i++ {
		if !bits.Test(i) {
			continue
		}
		if err := unix.IoctlSetInt(fd, req, i); err != nil {
			return fmt.Errorf("uinput set bit %d: %w", i, err)
		}
	}
	return nil
}

func ioctlNone(fd int, req uint) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlPtr(fd int, req uint, p unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(p))
	if errno != 0 {
		return errno
	}
	return nil
}
