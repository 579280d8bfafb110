package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/yshui/entangle/internal/domain"
)

// MaxFrameSize bounds a frame's declared length (type byte + payload). A
// larger declaration is treated as a malformed frame before any payload is
// read.
const MaxFrameSize = 1 << 20

// MaxStringLen bounds every variable-length field (names, capability
// bitmaps), which carry a u16 length on the wire.
const MaxStringLen = 1<<16 - 1

// WriteMessage encodes m as one frame and writes it to w. A message whose
// variable-length fields exceed MaxStringLen is rejected before any byte
// is written; everything else encodes totally.
func WriteMessage(w io.Writer, m Message) error {
	if err := checkEncodable(m); err != nil {
		return err
	}
	payload := appendPayload(nil, m)
	frame := make([]byte, 0, 5+len(payload))
	frame = binary.BigEndian.AppendUint32(frame, uint32(1+len(payload)))
	frame = append(frame, m.wireType())
	frame = append(frame, payload...)
	_, err := w.Write(frame)
	return err
}

// ReadMessage reads and decodes one frame from r. io.EOF is returned
// verbatim on a clean end of stream before any frame byte.
func ReadMessage(r io.Reader) (Message, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(head[:])
	if length < 1 || length > MaxFrameSize {
		return nil, fmt.Errorf("%w: declared length %d", domain.ErrMalformedFrame, length)
	}
	frame := make([]byte, length)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, fmt.Errorf("%w: truncated frame: %v", domain.ErrMalformedFrame, err)
	}
	return decode(frame[0], frame[1:])
}

// checkEncodable rejects values the u16 length prefixes cannot represent,
// so a frame is never emitted with a declared length that disagrees with
// its bytes.
func checkEncodable(m Message) error {
	switch v := m.(type) {
	case AuthResponse:
		return checkLen("peer name", len(v.Peer))
	case DeviceList:
		for _, d := range v.Devices {
			if err := checkLen("device name", len(d.Name)); err != nil {
				return err
			}
			for _, bits := range [][]byte{d.Caps.Events, d.Caps.Keys, d.Caps.Rel} {
				if err := checkLen("capability bitmap", len(bits)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkLen(what string, n int) error {
	if n > MaxStringLen {
		return fmt.Errorf("wire: %s is %d bytes, limit %d", what, n, MaxStringLen)
	}
	return nil
}

func appendPayload(b []byte, m Message) []byte {
	switch v := m.(type) {
	case HandshakeKeyShare:
		return append(b, v.Public[:]...)
	case HandshakeConfirm:
		if v.Accept {
			return append(b, 1)
		}
		return append(b, 0)
	case AuthChallenge:
		return append(b, v.Nonce[:]...)
	case AuthResponse:
		b = appendString(b, v.Peer)
		return append(b, v.Proof[:]...)
	case DeviceList:
		b = binary.BigEndian.AppendUint16(b, uint16(len(v.Devices)))
		for _, d := range v.Devices {
			b = appendDescriptor(b, d)
		}
		return b
	case DeviceEvent:
		b = binary.BigEndian.AppendUint32(b, uint32(v.Event.Device))
		b = binary.BigEndian.AppendUint64(b, v.Event.Seq)
		b = binary.BigEndian.AppendUint16(b, v.Event.Type)
		b = binary.BigEndian.AppendUint16(b, v.Event.Code)
		b = binary.BigEndian.AppendUint32(b, uint32(v.Event.Value))
		return binary.BigEndian.AppendUint64(b, uint64(v.Event.Timestamp))
	case KeepAlive:
		return b
	default:
		panic(fmt.Sprintf("wire: unencodable message %T", m))
	}
}

func appendDescriptor(b []byte, d domain.Descriptor) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(d.ID))
	b = append(b, byte(d.Class))
	b = appendString(b, d.Name)
	b = binary.BigEndian.AppendUint16(b, d.Vendor)
	b = binary.BigEndian.AppendUint16(b, d.Product)
	b = binary.BigEndian.AppendUint16(b, d.Version)
	b = appendBytes(b, d.Caps.Events)
	b = appendBytes(b, d.Caps.Keys)
	return appendBytes(b, d.Caps.Rel)
}

func appendString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

func appendBytes(b, p []byte) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(len(p)))
	return append(b, p...)
}

func decode(typ byte, payload []byte) (Message, error) {
	d := &decoder{buf: payload}
	var m Message
	switch typ {
	case TypeHandshakeKeyShare:
		var v HandshakeKeyShare
		d.array(v.Public[:])
		m = v
	case TypeHandshakeConfirm:
		v := HandshakeConfirm{Accept: d.u8() != 0}
		m = v
	case TypeAuthChallenge:
		var v AuthChallenge
		d.array(v.Nonce[:])
		m = v
	case TypeAuthResponse:
		var v AuthResponse
		v.Peer = d.str()
		d.array(v.Proof[:])
		m = v
	case TypeDeviceList:
		var v DeviceList
		n := int(d.u16())
		for i := 0; i < n && d.err == nil; i++ {
			v.Devices = append(v.Devices, d.descriptor())
		}
		m = v
	case TypeDeviceEvent:
		var v DeviceEvent
		v.Event.Device = domain.DeviceID(d.u32())
		v.Event.Seq = d.u64()
		v.Event.Type = d.u16()
		v.Event.Code = d.u16()
		v.Event.Value = int32(d.u32())
		v.Event.Timestamp = int64(d.u64())
		if d.err == nil && v.Event.Device == 0 {
			return nil, fmt.Errorf("%w: reserved device id", domain.ErrMalformedFrame)
		}
		m = v
	case TypeKeepAlive:
		m = KeepAlive{}
	default:
		return nil, fmt.Errorf("%w: 0x%02x", domain.ErrUnknownMessage, typ)
	}
	if d.err != nil {
		return nil, d.err
	}
	if len(d.buf) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", domain.ErrMalformedFrame, len(d.buf))
	}
	return m, nil
}

// decoder consumes a payload front to back, latching the first error.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.buf) < n {
		d.err = fmt.Errorf("%w: payload short by %d bytes", domain.ErrMalformedFrame, n-len(d.buf))
		return nil
	}
	out := d.buf[:n]
	d.buf = d.buf[n:]
	return out
}

func (d *decoder) u8() byte {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (d *decoder) str() string { return string(d.take(int(d.u16()))) }

func (d *decoder) bytes() []byte {
	return append([]byte(nil), d.take(int(d.u16()))...)
}

func (d *decoder) array(dst []byte) { copy(dst, d.take(len(dst))) }

func (d *decoder) descriptor() domain.Descriptor {
	var desc domain.Descriptor
	desc.ID = domain.DeviceID(d.u32())
	desc.Class = domain.DeviceClass(d.u8())
	desc.Name = d.str()
	desc.Vendor = d.u16()
	desc.Product = d.u16()
	desc.Version = d.u16()
	desc.Caps.Events = domain.Bitset(d.bytes())
	desc.Caps.Keys = domain.Bitset(d.bytes())
	desc.Caps.Rel = domain.Bitset(d.bytes())
	if d.err == nil && desc.ID == 0 {
		d.err = fmt.Errorf("%w: reserved device id in device list", domain.ErrMalformedFrame)
	}
	return desc
}
