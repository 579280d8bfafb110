package wire

import (
	"github.com/yshui/entangle/internal/crypto"
	"github.com/yshui/entangle/internal/domain"
)

// Message type tags. Fixed across a deployment.
const (
	TypeHandshakeKeyShare byte = 0x01
	TypeHandshakeConfirm  byte = 0x02
	TypeAuthChallenge     byte = 0x03
	TypeAuthResponse      byte = 0x04
	TypeDeviceList        byte = 0x05
	TypeDeviceEvent       byte = 0x06
	TypeKeepAlive         byte = 0x07
)

// Message is one decoded wire message.
type Message interface {
	wireType() byte
}

// HandshakeKeyShare carries one side's public key-agreement contribution
// during pairing.
type HandshakeKeyShare struct {
	Public domain.X25519Public
}

// HandshakeConfirm carries the operator's accept/reject decision.
type HandshakeConfirm struct {
	Accept bool
}

// AuthChallenge carries a fresh nonce the peer must prove secret
// possession against.
type AuthChallenge struct {
	Nonce [crypto.NonceBytes]byte
}

// AuthResponse carries the responder's peer-identifier claim and the proof
// over the challenge nonce.
type AuthResponse struct {
	Peer  string
	Proof [crypto.ProofBytes]byte
}

// DeviceList announces the server's capturable devices at session start.
type DeviceList struct {
	Devices []domain.Descriptor
}

// DeviceEvent is one forwarded input event. Construct the embedded Event
// through domain.NewEvent so the reserved device id never reaches encoding.
type DeviceEvent struct {
	Event domain.Event
}

// KeepAlive is sent on an idle timer to keep the session live.
type KeepAlive struct{}

func (HandshakeKeyShare) wireType() byte { return TypeHandshakeKeyShare }
func (HandshakeConfirm) wireType() byte  { return TypeHandshakeConfirm }
func (AuthChallenge) wireType() byte     { return TypeAuthChallenge }
func (AuthResponse) wireType() byte      { return TypeAuthResponse }
func (DeviceList) wireType() byte        { return TypeDeviceList }
func (DeviceEvent) wireType() byte       { return TypeDeviceEvent }
func (KeepAlive) wireType() byte         { return TypeKeepAlive }
