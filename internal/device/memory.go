package device

import (
	"fmt"
	"sync"

	"github.com/yshui/entangle/internal/domain"
)

// MemoryProvider implements domain.DeviceProvider entirely in process. It
// exists so the pairing-free parts of the system — session wiring, capture
// fan-in, injection dispatch — can run against scripted devices.
type MemoryProvider struct {
	mu       sync.Mutex
	devices  map[domain.DeviceID]*memoryDevice
	order    []domain.Descriptor
	injected map[domain.DeviceID][]domain.Event
}

type memoryDevice struct {
	desc   domain.Descriptor
	events chan domain.Event
	lost   chan struct{}
	once   sync.Once
}

// NewMemoryProvider registers the given devices. Descriptors must carry
// non-zero ids.
func NewMemoryProvider(descs ...domain.Descriptor) (*MemoryProvider, error) {
	p := &MemoryProvider{
		devices:  make(map[domain.DeviceID]*memoryDevice),
		injected: make(map[domain.DeviceID][]domain.Event),
	}
	for _, d := range descs {
		if d.ID == 0 {
			return nil, domain.ErrReservedDeviceID
		}
		p.devices[d.ID] = &memoryDevice{
			desc:   d,
			events: make(chan domain.Event, 64),
			lost:   make(chan struct{}),
		}
		p.order = append(p.order, d)
	}
	return p, nil
}

var _ domain.DeviceProvider = (*MemoryProvider)(nil)

// ListDevices returns the registered descriptors in registration order.
func (p *MemoryProvider) ListDevices() ([]domain.Descriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Descriptor(nil), p.order...), nil
}

// Push feeds one captured event to the device's open capture handle.
func (p *MemoryProvider) Push(id domain.DeviceID, ev domain.Event) error {
	p.mu.Lock()
	dev, ok := p.devices[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("memory provider: no device %d", id)
	}
	select {
	case dev.events <- ev:
		return nil
	case <-dev.lost:
		return domain.ErrDeviceLost
	}
}

// Lose simulates the device disappearing mid-session.
func (p *MemoryProvider) Lose(id domain.DeviceID) {
	p.mu.Lock()
	dev, ok := p.devices[id]
	p.mu.Unlock()
	if ok {
		dev.once.Do(func() { close(dev.lost) })
	}
}

// Injected returns the events written to the virtual device for id so far.
func (p *MemoryProvider) Injected(id domain.DeviceID) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event(nil), p.injected[id]...)
}

// OpenForCapture hands out a handle reading from the scripted event feed.
func (p *MemoryProvider) OpenForCapture(id domain.DeviceID) (domain.CaptureHandle, error) {
	p.mu.Lock()
	dev, ok := p.devices[id]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("memory provider: no device %d", id)
	}
	return &memoryCapture{dev: dev, closed: make(chan struct{})}, nil
}

type memoryCapture struct {
	dev    *memoryDevice
	closed chan struct{}
	once   sync.Once
}

func (c *memoryCapture) ReadEvent() (domain.Event, error) {
	select {
	case ev := <-c.dev.events:
		return ev, nil
	case <-c.dev.lost:
		return domain.Event{}, domain.ErrDeviceLost
	case <-c.closed:
		return domain.Event{}, domain.ErrHandleClosed
	}
}

func (c *memoryCapture) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// OpenForInjection hands out a handle that records events, enforcing the
// descriptor's capability set the way a real virtual device would.
func (p *MemoryProvider) OpenForInjection(desc domain.Descriptor) (domain.InjectionHandle, error) {
	if desc.ID == 0 {
		return nil, domain.ErrReservedDeviceID
	}
	return &memoryInjection{p: p, desc: desc}, nil
}

type memoryInjection struct {
	p      *MemoryProvider
	desc   domain.Descriptor
	mu     sync.Mutex
	closed bool
}

func (i *memoryInjection) WriteEvent(ev domain.Event) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return domain.ErrHandleClosed
	}
	if !i.desc.Caps.Allows(ev.Type, ev.Code) {
		return domain.ErrCapabilityMismatch
	}
	i.p.mu.Lock()
	i.p.injected[i.desc.ID] = append(i.p.injected[i.desc.ID], ev)
	i.p.mu.Unlock()
	return nil
}

func (i *memoryInjection) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return nil
}
