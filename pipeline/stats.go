package pipeline

import (
	"fmt"
	"sync/atomic"
)

// Stats holds the pipeline cache counters. One Stats may be shared by every
// cache of a process to aggregate them; it is safe to read from any
// goroutine.
type Stats struct {
	cacheMiss           atomic.Uint64
	cacheHitWithHash    atomic.Uint64
	cacheHitWithoutHash atomic.Uint64
	creations           atomic.Uint64
	creationsFrame      atomic.Uint64
	creationsLastFrame  atomic.Uint64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	NumCacheMiss                    uint64
	NumCacheHitWithHash             uint64
	NumCacheHitWithoutHash          uint64
	NumPipelineCreation             uint64
	NumPipelineCreationCurrentFrame uint64
	NumPipelineCreationLastFrame    uint64
}

// String formats the snapshot on one line.
func (s Snapshot) String() string {
	return fmt.Sprintf("miss=%d hit(hash)=%d hit(no hash)=%d created=%d frame=%d last frame=%d",
		s.NumCacheMiss, s.NumCacheHitWithHash, s.NumCacheHitWithoutHash,
		s.NumPipelineCreation, s.NumPipelineCreationCurrentFrame, s.NumPipelineCreationLastFrame)
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		NumCacheMiss:                    s.cacheMiss.Load(),
		NumCacheHitWithHash:             s.cacheHitWithHash.Load(),
		NumCacheHitWithoutHash:          s.cacheHitWithoutHash.Load(),
		NumPipelineCreation:             s.creations.Load(),
		NumPipelineCreationCurrentFrame: s.creationsFrame.Load(),
		NumPipelineCreationLastFrame:    s.creationsLastFrame.Load(),
	}
}

// EndFrame moves the current frame's creation count to the last frame.
func (s *Stats) EndFrame() {
	s.creationsLastFrame.Store(s.creationsFrame.Swap(0))
}

func (s *Stats) miss() {
	s.cacheMiss.Add(1)
	s.creations.Add(1)
	s.creationsFrame.Add(1)
}

func (s *Stats) hitWithHash() {
	s.cacheHitWithHash.Add(1)
}

func (s *Stats) hitWithoutHash() {
	s.cacheHitWithoutHash.Add(1)
}
