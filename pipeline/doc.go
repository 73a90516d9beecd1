// Package pipeline resolves mutable render state into cached render pipelines.
//
// # State encoding
//
// An Encoder packs fixed-function state into a sequence of 64 bit state
// slots. Every setter compares the new value with the current one; a change
// rewrites the owning slot, sets the dirty flag and lowers the lowest dirty
// index to that slot. Unused state (no stencil, no MRT, no depth test) packs
// to fixed sentinel values so that stale settings never reach the cache key.
//
//	slot  0-3   stencil masks, depth bias, slope scale
//	slot  4     depth/stencil format, depth compare, stencil face
//	slot  5-7   MRT enabled mask and attachment formats
//	slot  8     rasterization
//	slot  9     color target, blending, depth write
//	slot 10-11  shader program, unfilterable texture mask
//	slot 12+    one word per vertex attribute
//
// # Caching strategies
//
// A Trie walks only the dirty suffix of the sequence, reusing the nodes
// reached by the previous lookup for the unchanged prefix. Flat joins the
// whole sequence into a string key. Both implement Strategy and classify
// hits and misses identically.
//
// Consecutive GetRenderPipeline calls with no state change return the
// previous pipeline without any lookup.
//
// # Eviction
//
// The trie never evicts; Cache.Reset drops it. The flat strategy evicts least
// recently used pipelines above its soft limit when one is configured.
package pipeline
