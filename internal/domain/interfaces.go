package domain

// CredentialStore persists one Credential per paired peer, keyed by peer
// name. Records survive process restart. Saving an existing peer overwrites
// its record; a failed pairing must never reach Save.
type CredentialStore interface {
	Save(cred Credential) error
	// Load returns the credential for peer, ok=false when none is stored.
	Load(peer string) (Credential, bool, error)
	List() ([]Credential, error)
}

// CaptureHandle reads raw events from one grabbed physical device.
type CaptureHandle interface {
	// ReadEvent blocks until the next event, Close, or device
	// disappearance. A vanished device surfaces as ErrDeviceLost, a closed
	// handle as ErrHandleClosed.
	ReadEvent() (Event, error)
	// Close releases the exclusive grab and unblocks ReadEvent.
	Close() error
}

// InjectionHandle replays events onto one virtual device.
type InjectionHandle interface {
	// WriteEvent injects ev. Events outside the descriptor's capability
	// set fail with ErrCapabilityMismatch and are dropped; the handle
	// stays usable.
	WriteEvent(ev Event) error
	Close() error
}

// DeviceProvider enumerates, captures and injects input devices. It is the
// platform boundary: the session layer only ever talks to this interface.
type DeviceProvider interface {
	ListDevices() ([]Descriptor, error)
	// OpenForCapture takes an exclusive grab on the device so forwarded
	// input is not also delivered locally.
	OpenForCapture(id DeviceID) (CaptureHandle, error)
	// OpenForInjection creates a virtual device matching desc.
	OpenForInjection(desc Descriptor) (InjectionHandle, error)
}
