//go:build linux

package device

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/yshui/entangle/internal/domain"
)

const (
	sysInputGlob = "/sys/class/input/event*"
	devInputDir  = "/dev/input"
)

// btnLeft is the left mouse button key code, used to classify pointers.
const btnLeft = 0x110

// Provider is the Linux evdev/uinput implementation of
// domain.DeviceProvider.
type Provider struct {
	mu    sync.Mutex
	nodes map[domain.DeviceID]string // id -> /dev/input/eventN, set by ListDevices
}

// NewProvider returns the platform device provider.
func NewProvider() domain.DeviceProvider {
	return &Provider{nodes: make(map[domain.DeviceID]string)}
}

// ListDevices snapshots the machine's capturable input devices, assigning
// ids from 1 in stable (node-name) order. The snapshot replaces any prior
// one; ids are only meaningful against the latest snapshot.
func (p *Provider) ListDevices() ([]domain.Descriptor, error) {
	sysDirs, err := filepath.Glob(sysInputGlob)
	if err != nil {
		return nil, err
	}
	sort.Strings(sysDirs)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes = make(map[domain.DeviceID]string)

	var out []domain.Descriptor
	next := domain.DeviceID(1)
	for _, dir := range sysDirs {
		desc, err := readSysDevice(dir)
		if err != nil {
			continue // transient or permission trouble, not worth failing the list
		}
		// Only forward devices that produce keys or relative motion;
		// everything else (switches, accelerometers) stays local.
		if !desc.Caps.Events.Test(int(domain.EventKey)) &&
			!desc.Caps.Events.Test(int(domain.EventRelative)) {
			continue
		}
		desc.ID = next
		p.nodes[next] = filepath.Join(devInputDir, filepath.Base(dir))
		next++
		out = append(out, desc)
	}
	return out, nil
}

// readSysDevice builds a descriptor (without id) from one
// /sys/class/input/eventN directory.
func readSysDevice(dir string) (domain.Descriptor, error) {
	name, err := sysString(filepath.Join(dir, "device/name"))
	if err != nil {
		return domain.Descriptor{}, err
	}
	events, err := sysBitmap(filepath.Join(dir, "device/capabilities/ev"))
	if err != nil {
		return domain.Descriptor{}, err
	}
	// Key and rel maps are absent for devices without those event types.
	keys, _ := sysBitmap(filepath.Join(dir, "device/capabilities/key"))
	rel, _ := sysBitmap(filepath.Join(dir, "device/capabilities/rel"))

	desc := domain.Descriptor{
		Name:    name,
		Vendor:  sysHex16(filepath.Join(dir, "device/id/vendor")),
		Product: sysHex16(filepath.Join(dir, "device/id/product")),
		Version: sysHex16(filepath.Join(dir, "device/id/version")),
		Caps: domain.Capabilities{
			Events: events,
			Keys:   keys,
			Rel:    rel,
		},
	}
	desc.Class = classify(desc.Caps)
	return desc, nil
}

func classify(caps domain.Capabilities) domain.DeviceClass {
	switch {
	case caps.Events.Test(int(domain.EventRelative)) && caps.Keys.Test(btnLeft):
		return domain.ClassPointer
	case caps.Events.Test(int(domain.EventKey)) && caps.Keys.Count() >= 64:
		return domain.ClassKeyboard
	default:
		return domain.ClassGeneric
	}
}

func sysString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func sysHex16(path string) uint16 {
	s, err := sysString(path)
	if err != nil {
		return 0
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}

// sysBitmap parses a sysfs capability bitmap: space-separated hex words,
// most significant word first, each word one unsigned long.
func sysBitmap(path string) (domain.Bitset, error) {
	s, err := sysString(path)
	if err != nil {
		return nil, err
	}
	words := strings.Fields(s)
	bits := domain.NewBitset(len(words) * 64)
	for i, w := range words {
		v, err := strconv.ParseUint(w, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		base := (len(words) - 1 - i) * 64
		for b := 0; b < 64; b++ {
			if v&(1<<b) != 0 {
				bits.Set(base + b)
			}
		}
	}
	return bits, nil
}
