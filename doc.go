// Package pipecache resolves mutable WebGPU rendering state into immutable,
// cached render pipelines and bind groups.
//
// # Overview
//
// Explicit graphics APIs require every draw to reference a pre-compiled
// pipeline object built from the complete fixed-function state (rasterization,
// depth/stencil, blending, vertex input, render target formats). Creating a
// pipeline is orders of magnitude more expensive than recording a draw, so
// pipecache keeps pipeline creation off the per-draw path:
//
//	Shader scan -> binding.Allocator -> (group, binding) slots
//	Draw        -> pipeline.Encoder setters -> state words
//	            -> pipeline.Cache (trie or flat) -> hit or Compiler on miss
//	            -> bindgroup.Assembler -> bind groups for the same layout
//
// # Packages
//
//   - binding: stable (group, binding) slot allocation for shader resources
//   - vertex: shader attribute to vertex buffer layout resolution with coalescing
//   - pipeline: dirty-tracked state encoder, trie and flat caches, statistics
//   - bindgroup: bind group assembly with in-place entry reuse
//   - backend/halgpu: github.com/gogpu/wgpu/hal implementation of the collaborators
//   - config: TOML configuration
//
// # Quick Start
//
//	be, err := halgpu.New(device, queue)
//	if err != nil {
//	    return err
//	}
//	cache := pipeline.New(be, pipeline.WithResolver(be.Resolver()))
//	cache.Encoder().SetDepthWriteEnabled(true)
//	cache.Encoder().SetBuffers(vertexBuffers, gputypes.IndexFormatUint16, nil)
//	p, err := cache.GetRenderPipeline(pipeline.FillModeTriangle, effect, 1, 0)
//
// # Thread Safety
//
// An encoder/cache pair is owned by exactly one render loop. None of the
// types in this module lock; independent render passes should each own
// their own cache. The diagnostics counters in pipeline.Stats and
// bindgroup.Stats may be read from any goroutine.
//
// # Logging
//
// Logging is disabled by default. See [SetLogger].
package pipecache
