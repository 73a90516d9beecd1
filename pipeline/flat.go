package pipeline

import (
	"strconv"

	"github.com/gogpu/pipecache"
	"github.com/gogpu/pipecache/internal/cache"
)

// Flat is the hash-string strategy. Every lookup joins the full state
// sequence into one key, regardless of how much of it changed.
type Flat struct {
	entries *cache.Cache[string, Handle]
	onEvict func(string, Handle)
	key     []byte
}

// NewFlat creates a flat strategy. A softLimit of 0 never evicts; otherwise
// least recently used pipelines are evicted and passed to release, which may
// be nil.
func NewFlat(softLimit int, release func(Handle)) *Flat {
	onEvict := func(key string, h Handle) {
		pipecache.Logger().Warn("pipeline: evicting cached pipeline", "key", key)
		if release != nil {
			release(h)
		}
	}
	return &Flat{
		entries: cache.New[string, Handle](softLimit, onEvict),
		onEvict: onEvict,
	}
}

// Key joins states with "_".
func (f *Flat) Key(states []uint64) string {
	f.key = f.key[:0]
	for i, v := range states {
		if i > 0 {
			f.key = append(f.key, '_')
		}
		f.key = strconv.AppendUint(f.key, v, 10)
	}
	return string(f.key)
}

// Lookup ignores dirtyFrom and hashes the whole sequence.
func (f *Flat) Lookup(states []uint64, _ int) (Token, Handle) {
	key := f.Key(states)
	h, _ := f.entries.Get(key)
	return key, h
}

// Store records h under the key returned by Lookup.
func (f *Flat) Store(tok Token, h Handle) {
	key, ok := tok.(string)
	if !ok {
		return
	}
	f.entries.Set(key, h)
}

// Len returns the number of stored pipelines.
func (f *Flat) Len() int {
	return f.entries.Len()
}

// Evictions returns the number of pipelines evicted by the soft limit.
func (f *Flat) Evictions() uint64 {
	return f.entries.Stats().Evictions
}

// Reset drops every stored pipeline without releasing it.
func (f *Flat) Reset() {
	f.entries = cache.New[string, Handle](f.entries.Capacity(), f.onEvict)
}
