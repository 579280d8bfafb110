// Package domain holds the shared types and interfaces of entangle.
//
// Contents
//
//   - Input device identity and capability types (DeviceID, DeviceClass,
//     Capabilities, Descriptor)
//   - Input events as captured and forwarded (Event)
//   - Durable pairing state (Credential, Secret)
//   - The error taxonomy shared by all packages
//   - Store and device-provider interfaces implemented elsewhere
//
// # Notes
//
// This package imports nothing from the rest of the module. Fixed-size array
// types are used for key and secret material to avoid accidental
// reallocations; callers should treat them as sensitive.
package domain
