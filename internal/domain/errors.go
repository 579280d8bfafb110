package domain

import "errors"

// Stream-fatal codec failures. Either closes the connection; the codec never
// attempts to resynchronize.
var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownMessage = errors.New("unknown message type")
)

// Session- and pairing-fatal failures.
var (
	// ErrAuthenticationFailed is reported without revealing whether the
	// peer identifier was known.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrPairingRejected      = errors.New("pairing rejected")
	ErrPairingTimeout       = errors.New("pairing confirmation timed out")
)

// Device- and event-local failures. These are absorbed and counted, never
// propagated as session failures.
var (
	ErrDeviceLost         = errors.New("device lost")
	ErrCapabilityMismatch = errors.New("event outside device capability set")
)

var (
	// ErrUnknownPeer is returned by credential stores for unpaired peers.
	ErrUnknownPeer = errors.New("no credential for peer")
	// ErrHandleClosed is returned by device handles after Close.
	ErrHandleClosed = errors.New("device handle closed")
)
