// Package wire is the codec for everything entangle puts on a connection.
//
// Every message travels as one frame:
//
//	[4-byte big-endian length][1-byte message type][payload]
//
// where length counts the type byte plus the payload. The framing is the
// part that must stay bit-stable across versions. Decoding a truncated or
// length-mismatched frame fails with domain.ErrMalformedFrame and an
// unrecognized tag with domain.ErrUnknownMessage; both are stream-fatal and
// the codec makes no attempt to resynchronize.
package wire
