package domain

import "fmt"

// DeviceID identifies one input device within a session. IDs are assigned by
// the server when it enumerates devices and are stable only for that
// session's lifetime. The zero value is reserved as "no device".
type DeviceID uint32

// ErrReservedDeviceID is returned when a device id of zero is used.
var ErrReservedDeviceID = fmt.Errorf("device id 0 is reserved")

// DeviceClass is a coarse classification of an input device.
type DeviceClass uint8

const (
	ClassGeneric DeviceClass = iota
	ClassKeyboard
	ClassPointer
)

// String returns a human-readable class name.
func (c DeviceClass) String() string {
	switch c {
	case ClassKeyboard:
		return "keyboard"
	case ClassPointer:
		return "pointer"
	default:
		return "generic"
	}
}

// Event type values, matching the Linux input event types they are captured
// from. The wire format carries these verbatim.
const (
	EventSync     uint16 = 0x00
	EventKey      uint16 = 0x01
	EventRelative uint16 = 0x02
	EventAbsolute uint16 = 0x03
)

// Bitset is a little-endian packed bit array: bit n lives at byte n/8,
// position n%8. It mirrors the kernel's capability bitmaps.
type Bitset []byte

// NewBitset returns a Bitset able to hold at least n bits.
func NewBitset(n int) Bitset { return make(Bitset, (n+7)/8) }

// Set marks bit n, growing the set as needed.
func (b *Bitset) Set(n int) {
	for len(*b) <= n/8 {
		*b = append(*b, 0)
	}
	(*b)[n/8] |= 1 << (n % 8)
}

// Test reports whether bit n is set.
func (b Bitset) Test(n int) bool {
	if n < 0 || n/8 >= len(b) {
		return false
	}
	return b[n/8]&(1<<(n%8)) != 0
}

// Count returns the number of set bits.
func (b Bitset) Count() int {
	total := 0
	for _, byt := range b {
		for byt != 0 {
			total += int(byt & 1)
			byt >>= 1
		}
	}
	return total
}

// Clone returns an independent copy.
func (b Bitset) Clone() Bitset { return append(Bitset(nil), b...) }

// Capabilities describes which events a device can produce or accept.
type Capabilities struct {
	// Events marks the supported event types (EventKey, EventRelative, ...).
	Events Bitset
	// Keys marks the supported key and button codes.
	Keys Bitset
	// Rel marks the supported relative axes.
	Rel Bitset
}

// Allows reports whether an event of the given type and code falls inside
// the capability set. Sync events are always allowed.
func (c Capabilities) Allows(typ, code uint16) bool {
	if typ == EventSync {
		return true
	}
	if !c.Events.Test(int(typ)) {
		return false
	}
	switch typ {
	case EventKey:
		return c.Keys.Test(int(code))
	case EventRelative:
		return c.Rel.Test(int(code))
	default:
		return true
	}
}

// Descriptor identifies one input device and what it can do. Vendor,
// product and version let the client recreate a faithful virtual device.
type Descriptor struct {
	ID      DeviceID
	Class   DeviceClass
	Name    string
	Vendor  uint16
	Product uint16
	Version uint16
	Caps    Capabilities
}

// Event is one input event, immutable once produced. Timestamp is the
// capture time in microseconds since the Unix epoch.
type Event struct {
	Device    DeviceID
	Seq       uint64
	Type      uint16
	Code      uint16
	Value     int32
	Timestamp int64
}

// NewEvent builds an Event, rejecting the reserved device id before the
// value can ever reach the codec.
func NewEvent(dev DeviceID, typ, code uint16, value int32, ts int64) (Event, error) {
	if dev == 0 {
		return Event{}, ErrReservedDeviceID
	}
	return Event{Device: dev, Type: typ, Code: code, Value: value, Timestamp: ts}, nil
}
