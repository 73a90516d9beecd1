package bindgroup

import (
	"fmt"
	"sync/atomic"
)

// Stats holds the bind group counters. It is safe to read from any goroutine.
type Stats struct {
	created      atomic.Uint64
	createdFrame atomic.Uint64
	lookupsFrame atomic.Uint64
	noLookup     atomic.Uint64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	NumBindGroupsCreatedTotal uint64
	NumBindGroupsCreatedFrame uint64
	NumLookupsFrame           uint64
	NumNoLookup               uint64
}

// String formats the snapshot on one line.
func (s Snapshot) String() string {
	return fmt.Sprintf("bind groups created=%d frame=%d lookups=%d no lookup=%d",
		s.NumBindGroupsCreatedTotal, s.NumBindGroupsCreatedFrame, s.NumLookupsFrame, s.NumNoLookup)
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		NumBindGroupsCreatedTotal: s.created.Load(),
		NumBindGroupsCreatedFrame: s.createdFrame.Load(),
		NumLookupsFrame:           s.lookupsFrame.Load(),
		NumNoLookup:               s.noLookup.Load(),
	}
}

// EndFrame clears the per-frame counters.
func (s *Stats) EndFrame() {
	s.createdFrame.Store(0)
	s.lookupsFrame.Store(0)
}
