// Package binding assigns stable (group, binding) slots to the shader
// resources discovered while scanning shader source.
//
// An Allocator is created per shader-processing context. Engine uniform
// blocks listed in the known buffer table keep their reserved slots; every
// other resource receives the next free slot, rolling over to a new group
// when the current one is full:
//
//	a := binding.NewAllocator()
//	scene, _ := a.AddBuffer("Scene", binding.KindUniformBuffer, false, gputypes.ShaderStageVertex)
//	tex, _ := a.AddTexture("diffuse", binding.TextureDesc{
//	    SampleType:  gputypes.TextureSampleTypeFloat,
//	    Visibility:  gputypes.ShaderStageFragment,
//	    AutoSampler: true,
//	    SamplerType: gputypes.SamplerBindingTypeFiltering,
//	})
//	layout := a.Layout()
//
// Registration is idempotent per name. A texture array of N elements is one
// Entry with N consecutive Locations and at most one shared auto sampler.
package binding
