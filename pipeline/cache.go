package pipeline

import (
	"github.com/gogpu/pipecache"
)

// Cache resolves the state of its Encoder into compiled pipelines.
//
// A Cache and its Encoder are owned by one render loop. Independent passes
// (a clear-quad pass next to the main material pass, for example) each own
// their own Cache.
//
// Usage:
//
//	cache := pipeline.New(backend)
//	enc := cache.Encoder()
//	enc.SetCullEnabled(false)
//	enc.SetBuffers(buffers, gputypes.IndexFormatUint16, nil)
//	p, err := cache.GetRenderPipeline(pipeline.FillModeTriangle, effect, 1, 0)
type Cache struct {
	enc      *Encoder
	compiler Compiler
	strategy Strategy
	stats    *Stats
	disabled bool
	label    string

	last Handle
}

// New creates a cache that compiles misses with compiler.
func New(compiler Compiler, opts ...Option) *Cache {
	o := buildOptions(opts)
	c := &Cache{
		enc:      newEncoder(&o),
		compiler: compiler,
		strategy: o.strategy,
		stats:    o.stats,
		disabled: o.disabled,
		label:    o.label,
	}
	if c.strategy == nil {
		c.strategy = NewTrie()
	}
	if c.stats == nil {
		c.stats = &Stats{}
	}
	return c
}

// Encoder returns the state encoder of the cache.
func (c *Cache) Encoder() *Encoder {
	return c.enc
}

// Strategy returns the caching strategy.
func (c *Cache) Strategy() Strategy {
	return c.strategy
}

// Stats returns the counters of the cache.
func (c *Cache) Stats() *Stats {
	return c.stats
}

// Disabled reports whether caching is bypassed.
func (c *Cache) Disabled() bool {
	return c.disabled
}

// GetRenderPipeline returns the pipeline for the current encoder state drawn
// with fill mode, effect, sample count and texture state.
//
// Consecutive calls without state changes return the previous pipeline
// without touching the strategy. Compile errors are returned unchanged and
// leave the state dirty.
func (c *Cache) GetRenderPipeline(fill FillMode, effect *Effect, sampleCount, textureState uint32) (Handle, error) {
	if effect == nil {
		return nil, ErrNilEffect
	}
	e := c.enc
	if err := e.SetFillMode(fill); err != nil {
		return nil, err
	}
	e.SetSampleCount(sampleCount)
	e.SetShaderStage(effect.ID)
	e.SetTextureState(textureState)
	if err := e.SetVertexState(effect.Attributes); err != nil {
		return nil, err
	}
	if err := e.Err(); err != nil {
		return nil, err
	}

	if c.disabled {
		h, err := c.compile(effect)
		if err != nil {
			return nil, err
		}
		c.stats.miss()
		return h, nil
	}

	if !e.dirty && c.last != nil {
		c.stats.hitWithoutHash()
		return c.last, nil
	}

	tok, h := c.strategy.Lookup(e.States(), e.lowestDirty)
	if h != nil {
		e.clean()
		c.last = h
		c.stats.hitWithHash()
		return h, nil
	}

	h, err := c.compile(effect)
	if err != nil {
		return nil, err
	}
	c.strategy.Store(tok, h)
	e.clean()
	c.last = h
	c.stats.miss()

	pipecache.Logger().Debug("pipeline: created",
		"cache", c.label, "effect", effect.Label, "states", e.States())
	return h, nil
}

func (c *Cache) compile(effect *Effect) (Handle, error) {
	if c.compiler == nil {
		return nil, ErrNoCompiler
	}
	return c.compiler.CreateRenderPipeline(c.enc.request(effect))
}

// EndFrame rolls the per-frame creation counter.
func (c *Cache) EndFrame() {
	c.stats.EndFrame()
}

// Reset drops every cached pipeline and resets the encoder. The trie never
// evicts on its own; Reset is the only way to bound its growth.
func (c *Cache) Reset() {
	c.strategy.Reset()
	c.enc.Reset()
	c.last = nil
	pipecache.Logger().Info("pipeline: cache reset", "cache", c.label)
}
