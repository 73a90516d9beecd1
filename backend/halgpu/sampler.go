package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache/bindgroup"
	"github.com/gogpu/pipecache/internal/cache"
	"github.com/gogpu/wgpu/hal"
)

// SamplerDesc describes a sampler. Equal descriptions share one sampler.
type SamplerDesc struct {
	AddressMode  gputypes.AddressMode
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	MipmapFilter gputypes.FilterMode
}

// LinearClamp is a bilinear, mipmapped, clamp-to-edge sampler.
var LinearClamp = SamplerDesc{
	AddressMode:  gputypes.AddressModeClampToEdge,
	MagFilter:    gputypes.FilterModeLinear,
	MinFilter:    gputypes.FilterModeLinear,
	MipmapFilter: gputypes.FilterModeLinear,
}

// NearestClamp is a point-sampling, clamp-to-edge sampler. Use it for
// unfilterable textures.
var NearestClamp = SamplerDesc{
	AddressMode:  gputypes.AddressModeClampToEdge,
	MagFilter:    gputypes.FilterModeNearest,
	MinFilter:    gputypes.FilterModeNearest,
	MipmapFilter: gputypes.FilterModeNearest,
}

type cachedSampler struct {
	sampler hal.Sampler
	id      bindgroup.ID
}

type samplerCache struct {
	b       *Backend
	entries *cache.Cache[SamplerDesc, cachedSampler]
}

func newSamplerCache(b *Backend, limit int) *samplerCache {
	return &samplerCache{
		b: b,
		entries: cache.New[SamplerDesc, cachedSampler](limit, func(_ SamplerDesc, s cachedSampler) {
			b.device.DestroySampler(s.sampler)
		}),
	}
}

func (c *samplerCache) get(desc SamplerDesc) (cachedSampler, error) {
	if s, ok := c.entries.Get(desc); ok {
		return s, nil
	}
	s, err := c.b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        c.b.name("sampler"),
		AddressModeU: desc.AddressMode,
		AddressModeV: desc.AddressMode,
		AddressModeW: desc.AddressMode,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: desc.MipmapFilter,
	})
	if err != nil {
		return cachedSampler{}, fmt.Errorf("halgpu: create sampler: %w", err)
	}
	cs := cachedSampler{sampler: s, id: bindgroup.NewID()}
	c.entries.Set(desc, cs)
	return cs, nil
}

func (c *samplerCache) clear() {
	c.entries.Clear()
}

// Sampler returns the shared sampler for desc as a bind group resource with
// a stable ID.
func (b *Backend) Sampler(desc SamplerDesc) (bindgroup.Resource, error) {
	if b.destroyed {
		return bindgroup.Resource{}, ErrDestroyed
	}
	s, err := b.samplers.get(desc)
	if err != nil {
		return bindgroup.Resource{}, err
	}
	return bindgroup.Sampler(s.id, s.sampler), nil
}

// NumSamplers returns the number of cached samplers.
func (b *Backend) NumSamplers() int {
	return b.samplers.entries.Len()
}
