// Package commands defines the entangle CLI: pairing two machines, running
// the forwarding daemon in either role, and inspecting stored peers and
// local devices.
package commands
