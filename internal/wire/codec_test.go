package wire_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/yshui/entangle/internal/domain"
	"github.com/yshui/entangle/internal/wire"
)

func roundTrip(t *testing.T, m wire.Message) wire.Message {
	t.Helper()
	var buf bytes.Buffer
	if err := wire.WriteMessage(&buf, m); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	got, err := wire.ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("%d bytes left after one frame", buf.Len())
	}
	return got
}

func sampleDescriptor(id domain.DeviceID) domain.Descriptor {
	var caps domain.Capabilities
	caps.Events.Set(int(domain.EventKey))
	caps.Events.Set(int(domain.EventRelative))
	caps.Keys.Set(30)
	caps.Keys.Set(272)
	caps.Rel.Set(0)
	caps.Rel.Set(1)
	return domain.Descriptor{
		ID:      id,
		Class:   domain.ClassKeyboard,
		Name:    "AT Translated Set 2 keyboard",
		Vendor:  0x0001,
		Product: 0x0001,
		Version: 0xab41,
		Caps:    caps,
	}
}

func TestRoundTrip_AllMessages(t *testing.T) {
	ev, err := domain.NewEvent(3, domain.EventKey, 30, 1, 1700000000123456)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	ev.Seq = 42

	var share wire.HandshakeKeyShare
	for i := range share.Public {
		share.Public[i] = byte(i)
	}
	var challenge wire.AuthChallenge
	for i := range challenge.Nonce {
		challenge.Nonce[i] = byte(0xff - i)
	}
	resp := wire.AuthResponse{Peer: "laptop"}
	for i := range resp.Proof {
		resp.Proof[i] = byte(i * 3)
	}

	msgs := []wire.Message{
		share,
		wire.HandshakeConfirm{Accept: true},
		wire.HandshakeConfirm{Accept: false},
		challenge,
		resp,
		wire.DeviceList{Devices: []domain.Descriptor{sampleDescriptor(1), sampleDescriptor(2)}},
		wire.DeviceEvent{Event: ev},
		wire.KeepAlive{},
	}
	for _, m := range msgs {
		got := roundTrip(t, m)
		if !reflect.DeepEqual(got, m) {
			t.Fatalf("round trip %T: got %#v want %#v", m, got, m)
		}
	}
}

func TestRoundTrip_EmptyDeviceList(t *testing.T) {
	got := roundTrip(t, wire.DeviceList{})
	dl, ok := got.(wire.DeviceList)
	if !ok {
		t.Fatalf("got %T, want DeviceList", got)
	}
	if len(dl.Devices) != 0 {
		t.Fatalf("want no devices, got %d", len(dl.Devices))
	}
}

func TestWriteMessage_OversizedFieldsRejected(t *testing.T) {
	long := strings.Repeat("x", wire.MaxStringLen+1)

	// None of these may emit a frame whose u16 length prefix would have
	// silently truncated.
	var resp wire.AuthResponse
	resp.Peer = long
	oversized := []wire.Message{
		resp,
		wire.DeviceList{Devices: []domain.Descriptor{{ID: 1, Name: long}}},
		wire.DeviceList{Devices: []domain.Descriptor{{
			ID:   1,
			Caps: domain.Capabilities{Keys: make(domain.Bitset, wire.MaxStringLen+1)},
		}}},
	}
	for _, m := range oversized {
		var buf bytes.Buffer
		if err := wire.WriteMessage(&buf, m); err == nil {
			t.Fatalf("%T with oversized field encoded", m)
		}
		if buf.Len() != 0 {
			t.Fatalf("%T: %d bytes written for a rejected message", m, buf.Len())
		}
	}

	// The boundary value still encodes.
	resp.Peer = strings.Repeat("x", wire.MaxStringLen)
	if got := roundTrip(t, resp); !reflect.DeepEqual(got, resp) {
		t.Fatal("maximum-length peer name did not round trip")
	}
}

func TestReadMessage_UnknownType(t *testing.T) {
	frame := []byte{0, 0, 0, 1, 0x7f}
	_, err := wire.ReadMessage(bytes.NewReader(frame))
	if !errors.Is(err, domain.ErrUnknownMessage) {
		t.Fatalf("want ErrUnknownMessage, got %v", err)
	}
}

func TestReadMessage_ZeroLength(t *testing.T) {
	frame := []byte{0, 0, 0, 0}
	_, err := wire.ReadMessage(bytes.NewReader(frame))
	if !errors.Is(err, domain.ErrMalformedFrame) {
		t.Fatalf("want ErrMalformedFrame, got %v", err)
	}
}

func TestReadMessage_OversizedDeclaration(t *testing.T) {
	var frame [4]byte
	binary.BigEndian.PutUint32(frame[:], wire.MaxFrameSize+1)
	_, err := wire.ReadMessage(bytes.NewReader(frame[:]))
	if !errors.Is(err, domain.ErrMalformedFrame) {
		t.Fatalf("want ErrMalformedFrame, got %v", err)
	}
}

func TestReadMessage_TruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := wire.WriteMessage(&buf, wire.AuthChallenge{}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	short := buf.Bytes()[:buf.Len()-5]
	_, err := wire.ReadMessage(bytes.NewReader(short))
	if !errors.Is(err, domain.ErrMalformedFrame) {
		t.Fatalf("want ErrMalformedFrame, got %v", err)
	}
}

func TestReadMessage_PayloadShortForType(t *testing.T) {
	// Declared length covers the type byte plus two payload bytes, far
	// short of a key share's 32.
	frame := []byte{0, 0, 0, 3, wire.TypeHandshakeKeyShare, 0xaa, 0xbb}
	_, err := wire.ReadMessage(bytes.NewReader(frame))
	if !errors.Is(err, domain.ErrMalformedFrame) {
		t.Fatalf("want ErrMalformedFrame, got %v", err)
	}
}

func TestReadMessage_TrailingBytes(t *testing.T) {
	frame := []byte{0, 0, 0, 3, wire.TypeKeepAlive, 0, 0}
	_, err := wire.ReadMessage(bytes.NewReader(frame))
	if !errors.Is(err, domain.ErrMalformedFrame) {
		t.Fatalf("want ErrMalformedFrame, got %v", err)
	}
}

func TestReadMessage_ReservedDeviceID(t *testing.T) {
	var buf bytes.Buffer
	ev, err := domain.NewEvent(1, domain.EventKey, 30, 1, 0)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if err := wire.WriteMessage(&buf, wire.DeviceEvent{Event: ev}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	frame := buf.Bytes()
	// The device id is the first payload field. Zero it out.
	binary.BigEndian.PutUint32(frame[5:], 0)
	_, err = wire.ReadMessage(bytes.NewReader(frame))
	if !errors.Is(err, domain.ErrMalformedFrame) {
		t.Fatalf("want ErrMalformedFrame, got %v", err)
	}
}

func TestReadMessage_ReservedDeviceIDInList(t *testing.T) {
	var buf bytes.Buffer
	msg := wire.DeviceList{Devices: []domain.Descriptor{sampleDescriptor(7)}}
	if err := wire.WriteMessage(&buf, msg); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	frame := buf.Bytes()
	// Descriptor id sits right after the u16 device count.
	binary.BigEndian.PutUint32(frame[7:], 0)
	_, err := wire.ReadMessage(bytes.NewReader(frame))
	if !errors.Is(err, domain.ErrMalformedFrame) {
		t.Fatalf("want ErrMalformedFrame, got %v", err)
	}
}

func TestReadMessage_CleanEOF(t *testing.T) {
	_, err := wire.ReadMessage(bytes.NewReader(nil))
	if err != io.EOF {
		t.Fatalf("want io.EOF, got %v", err)
	}
}

func TestWriteMessage_Stream(t *testing.T) {
	var buf bytes.Buffer
	ev, _ := domain.NewEvent(2, domain.EventRelative, 0, -5, 99)
	ev.Seq = 1
	for _, m := range []wire.Message{wire.KeepAlive{}, wire.DeviceEvent{Event: ev}, wire.KeepAlive{}} {
		if err := wire.WriteMessage(&buf, m); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := wire.ReadMessage(&buf); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("%d bytes left after three frames", buf.Len())
	}
}
