// Package session turns a stored pairing credential plus one live
// connection into a running event-forwarding session.
//
// The server proves and checks possession of the shared secret through a
// challenge/response exchange before any device data moves, then announces
// its devices and streams their events, each tagged with a per-device
// sequence number. The client demultiplexes by device id into injection
// handles, counting sequence gaps (best effort, no retransmission) and
// silently dropping duplicates.
//
// Ordering is guaranteed per device id only; events from different devices
// interleave in transmission order. Each side sends a keep-alive on an idle
// timer; silence past the idle timeout ends the session. Disconnection is
// terminal — a new session must be established from scratch, repeating
// authentication with the same stored credential.
package session
