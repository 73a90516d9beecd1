package halgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/pipecache/binding"
	"github.com/gogpu/pipecache/internal/cache"
	"github.com/gogpu/pipecache/pipeline"
	"github.com/gogpu/pipecache/vertex"
	"github.com/gogpu/wgpu/hal"
)

// spirvCacheSize bounds the compiled shaders kept by CompileWGSL.
const spirvCacheSize = 64

var spirvCache = struct {
	sync.Mutex
	entries *cache.Cache[string, []uint32]
}{entries: cache.New[string, []uint32](spirvCacheSize, nil)}

// CompileWGSL compiles WGSL source to SPIR-V words. Results are memoized by
// source; the returned slice is shared and must not be modified. It is safe
// for concurrent use.
func CompileWGSL(source string) ([]uint32, error) {
	spirvCache.Lock()
	words, ok := spirvCache.entries.Get(source)
	spirvCache.Unlock()
	if ok {
		return words, nil
	}

	words, err := compileWGSL(source)
	if err != nil {
		return nil, err
	}
	spirvCache.Lock()
	spirvCache.entries.Set(source, words)
	spirvCache.Unlock()
	return words, nil
}

func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("halgpu: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("halgpu: compile shader: SPIR-V size %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// CreateShaderModule creates a shader module from SPIR-V words. The module is
// destroyed with the backend.
func (b *Backend) CreateShaderModule(label string, spirv []uint32) (hal.ShaderModule, error) {
	if b.destroyed {
		return nil, ErrDestroyed
	}
	m, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create shader module %q: %w", label, err)
	}
	b.modules = append(b.modules, m)
	return m, nil
}

// CreateShaderModuleWGSL compiles source and creates a shader module.
func (b *Backend) CreateShaderModuleWGSL(label, source string) (hal.ShaderModule, error) {
	spirv, err := CompileWGSL(source)
	if err != nil {
		return nil, err
	}
	return b.CreateShaderModule(label, spirv)
}

// NewEffect compiles source and wraps the module in an effect with the
// vs_main and fs_main entry points.
func (b *Backend) NewEffect(label, source string, layout *binding.Layout, attrs []vertex.Attribute) (*pipeline.Effect, error) {
	m, err := b.CreateShaderModuleWGSL(label, source)
	if err != nil {
		return nil, err
	}
	return pipeline.NewEffect(label, m, layout, attrs), nil
}
