package session

import "sync/atomic"

// Stats is the session diagnostic counters. Event- and device-local
// failures land here instead of terminating the session.
type Stats struct {
	sequenceGaps    atomic.Uint64
	duplicates      atomic.Uint64
	capabilityDrops atomic.Uint64
	devicesLost     atomic.Uint64
}

// SequenceGaps counts per-device sequence discontinuities, one per gap.
func (s *Stats) SequenceGaps() uint64 { return s.sequenceGaps.Load() }

// Duplicates counts events dropped for a repeated or regressed sequence
// number.
func (s *Stats) Duplicates() uint64 { return s.duplicates.Load() }

// CapabilityDrops counts events dropped for falling outside the target
// device's capability set.
func (s *Stats) CapabilityDrops() uint64 { return s.capabilityDrops.Load() }

// DevicesLost counts devices that disappeared while a session was live.
func (s *Stats) DevicesLost() uint64 { return s.devicesLost.Load() }
