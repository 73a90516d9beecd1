// Package vertex translates shader input attributes and bound vertex buffers
// into the vertex buffer layouts of a render pipeline.
//
// Adjacent attributes that read from the same underlying storage with an
// offset the pipeline can express are coalesced into one layout. Attributes
// with no bound buffer read from a shared zero-filled dummy buffer.
//
// Alongside the layouts, a Resolver emits one state word per attribute for
// the pipeline cache key.
package vertex
