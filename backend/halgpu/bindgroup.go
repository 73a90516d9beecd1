package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache/binding"
	"github.com/gogpu/pipecache/bindgroup"
	"github.com/gogpu/wgpu/hal"
)

// CreateBindGroup implements bindgroup.Creator. Buffer resources must hold a
// hal.Buffer, texture and external resources a hal.TextureView and samplers
// a hal.Sampler.
func (b *Backend) CreateBindGroup(layout *binding.Layout, group int, textureState uint32, entries []bindgroup.Entry) (bindgroup.Handle, error) {
	if b.destroyed {
		return nil, ErrDestroyed
	}
	ls, err := b.layoutsFor(layout, textureState)
	if err != nil {
		return nil, err
	}
	if group < 0 || group >= len(ls.groups) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoGroup, group, len(ls.groups))
	}

	halEntries := make([]gputypes.BindGroupEntry, len(entries))
	for i, e := range entries {
		he, err := bindGroupEntry(e)
		if err != nil {
			return nil, err
		}
		halEntries[i] = he
	}

	bg, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   b.name(fmt.Sprintf("bind_group_%d", group)),
		Layout:  ls.groups[group],
		Entries: halEntries,
	})
	if err != nil {
		return nil, err
	}
	b.groups[bg] = struct{}{}
	return bg, nil
}

func bindGroupEntry(e bindgroup.Entry) (gputypes.BindGroupEntry, error) {
	out := gputypes.BindGroupEntry{Binding: e.Binding}
	r := e.Resource
	switch r.Kind {
	case bindgroup.ResourceBuffer:
		buf, ok := r.Handle.(hal.Buffer)
		if !ok {
			return out, fmt.Errorf("%w: binding %d: buffer is %T", ErrForeignResource, e.Binding, r.Handle)
		}
		out.Resource = gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: r.Offset, Size: r.Size}
	case bindgroup.ResourceTexture, bindgroup.ResourceExternal:
		view, ok := r.Handle.(hal.TextureView)
		if !ok {
			return out, fmt.Errorf("%w: binding %d: texture view is %T", ErrForeignResource, e.Binding, r.Handle)
		}
		out.Resource = gputypes.TextureViewBinding{TextureView: view.NativeHandle()}
	case bindgroup.ResourceSampler:
		s, ok := r.Handle.(hal.Sampler)
		if !ok {
			return out, fmt.Errorf("%w: binding %d: sampler is %T", ErrForeignResource, e.Binding, r.Handle)
		}
		out.Resource = gputypes.SamplerBinding{Sampler: s.NativeHandle()}
	default:
		return out, fmt.Errorf("%w: binding %d: %s", ErrForeignResource, e.Binding, r.Kind)
	}
	return out, nil
}

// DestroyBindGroup releases a bind group returned by CreateBindGroup. It
// matches the release hook of bindgroup.WithRelease.
func (b *Backend) DestroyBindGroup(h bindgroup.Handle) {
	bg, ok := h.(hal.BindGroup)
	if !ok {
		return
	}
	if _, owned := b.groups[bg]; owned {
		delete(b.groups, bg)
		b.device.DestroyBindGroup(bg)
	}
}
