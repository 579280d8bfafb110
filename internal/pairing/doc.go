// Package pairing runs the interactive key-agreement handshake that
// establishes a durable shared secret between two hosts.
//
// An Engine is single-use: it walks Idle through Listening or Connecting,
// Exchanging, AwaitingConfirmation, and ends in exactly one of the terminal
// states Paired or Failed. A fresh attempt always starts a new Engine;
// partial state is never reused.
//
// The operator confirmation is an external boolean input with a timeout,
// not a prompt embedded in the protocol, so the state machine is fully
// testable without a terminal. Nothing is persisted unless both sides
// accept; a rejected or timed-out attempt leaves any previously stored
// credential for the peer untouched.
package pairing
