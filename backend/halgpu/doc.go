// Package halgpu implements the pipeline compiler and bind group creator on
// a github.com/gogpu/wgpu/hal device.
//
// A Backend owns everything it creates: shader modules, bind group layouts
// and pipeline layouts per binding layout and texture state, render
// pipelines, bind groups, a sampler cache and a zero-filled dummy vertex
// buffer for attributes without a bound buffer.
//
//	be, err := halgpu.New(device, queue)
//	if err != nil {
//	    return err
//	}
//	defer be.Destroy()
//	cache := pipeline.New(be, pipeline.WithResolver(be.Resolver()))
//	groups := bindgroup.New(be, bindgroup.WithRelease(be.DestroyBindGroup))
package halgpu
