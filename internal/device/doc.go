// Package device is the platform boundary for input hardware.
//
// On Linux the Provider enumerates devices from sysfs, captures raw events
// from /dev/input/eventN under an exclusive grab (EVIOCGRAB, so forwarded
// input is not also delivered locally), and injects events through a
// virtual uinput device recreated from the server's descriptor. The grab
// and the virtual device are tied to the handle's lifetime and are released
// on every exit path.
//
// MemoryProvider is an in-process implementation of the same interface,
// used wherever a test needs devices without hardware.
//
// Hot-plug is not delivered here: enumeration is a point-in-time snapshot
// and the Provider interface is the seam where device arrival would plug
// in.
package device
