// Package config loads pipecache settings from a TOML file and converts them
// into the option sets of the individual packages.
//
//	[pipeline]
//	strategy = "flat"
//	flat_soft_limit = 512
//
//	[binding]
//	max_groups = 4
//	simplified_known_buffers = false
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/pipecache/backend/halgpu"
	"github.com/gogpu/pipecache/binding"
	"github.com/gogpu/pipecache/bindgroup"
	"github.com/gogpu/pipecache/pipeline"
	"github.com/gogpu/pipecache/vertex"
)

// ErrInvalid is returned for settings that fail validation or keys that do
// not exist.
var ErrInvalid = errors.New("config: invalid configuration")

// Strategy names accepted by [pipeline] strategy.
const (
	StrategyTrie = "trie"
	StrategyFlat = "flat"
)

// Config is the content of a configuration file.
type Config struct {
	Pipeline  Pipeline  `toml:"pipeline"`
	Binding   Binding   `toml:"binding"`
	Vertex    Vertex    `toml:"vertex"`
	BindGroup BindGroup `toml:"bindgroup"`
	Backend   Backend   `toml:"backend"`
}

// Pipeline configures the render pipeline cache.
type Pipeline struct {
	Strategy string `toml:"strategy"`
	Disabled bool   `toml:"disabled"`

	// FlatSoftLimit bounds the flat strategy. 0 never evicts. The trie
	// never evicts.
	FlatSoftLimit int    `toml:"flat_soft_limit"`
	Label         string `toml:"label,omitempty"`
}

// Binding configures the binding allocator.
type Binding struct {
	MaxGroups           int `toml:"max_groups"`
	MaxBindingsPerGroup int `toml:"max_bindings_per_group"`

	// SimplifiedKnownBuffers reserves only Scene and Mesh. When false every
	// engine uniform block gets a fixed slot.
	SimplifiedKnownBuffers bool `toml:"simplified_known_buffers"`
}

// Vertex configures the vertex layout resolver.
type Vertex struct {
	MaxStride uint32 `toml:"max_stride"`
}

// BindGroup configures the bind group assembler.
type BindGroup struct {
	Disabled bool   `toml:"disabled"`
	Label    string `toml:"label,omitempty"`
}

// Backend configures the hal backend.
type Backend struct {
	Label        string `toml:"label,omitempty"`
	SamplerLimit int    `toml:"sampler_limit"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Pipeline: Pipeline{Strategy: StrategyTrie},
		Binding: Binding{
			MaxGroups:              binding.DefaultMaxGroups,
			MaxBindingsPerGroup:    binding.DefaultMaxBindingsPerGroup,
			SimplifiedKnownBuffers: true,
		},
		Vertex: Vertex{MaxStride: vertex.DefaultMaxStride},
	}
}

// Load reads the file at path on top of Default and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode reads TOML from r on top of Default and validates the result.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(names, ", "))
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	var buffer bytes.Buffer
	if err := Encode(&buffer, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(path, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Encode validates cfg and writes it to w as TOML.
func Encode(w io.Writer, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	switch c.Pipeline.Strategy {
	case "", StrategyTrie, StrategyFlat:
	default:
		return fmt.Errorf("%w: pipeline.strategy %q, want %q or %q", ErrInvalid, c.Pipeline.Strategy, StrategyTrie, StrategyFlat)
	}
	if c.Pipeline.FlatSoftLimit < 0 {
		return fmt.Errorf("%w: pipeline.flat_soft_limit %d is negative", ErrInvalid, c.Pipeline.FlatSoftLimit)
	}
	if c.Binding.MaxGroups < 1 {
		return fmt.Errorf("%w: binding.max_groups %d, want at least 1", ErrInvalid, c.Binding.MaxGroups)
	}
	if c.Binding.MaxBindingsPerGroup < 1 {
		return fmt.Errorf("%w: binding.max_bindings_per_group %d, want at least 1", ErrInvalid, c.Binding.MaxBindingsPerGroup)
	}
	if !c.Binding.SimplifiedKnownBuffers && c.Binding.MaxGroups < 3 {
		return fmt.Errorf("%w: binding.max_groups %d leaves no dynamic group with full known buffers", ErrInvalid, c.Binding.MaxGroups)
	}
	if c.Vertex.MaxStride == 0 || c.Vertex.MaxStride > vertex.MaxStrideLimit {
		return fmt.Errorf("%w: vertex.max_stride %d, want 1..%d", ErrInvalid, c.Vertex.MaxStride, vertex.MaxStrideLimit)
	}
	if c.Backend.SamplerLimit < 0 {
		return fmt.Errorf("%w: backend.sampler_limit %d is negative", ErrInvalid, c.Backend.SamplerLimit)
	}
	return nil
}

// PipelineOptions returns the cache options. release is passed to the flat
// strategy and may be nil.
func (c *Config) PipelineOptions(release func(pipeline.Handle)) []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithCachingDisabled(c.Pipeline.Disabled)}
	if c.Pipeline.Strategy == StrategyFlat {
		opts = append(opts, pipeline.WithFlatStrategy(c.Pipeline.FlatSoftLimit, release))
	}
	if c.Pipeline.Label != "" {
		opts = append(opts, pipeline.WithLabel(c.Pipeline.Label))
	}
	return opts
}

// BindingOptions returns the allocator options.
func (c *Config) BindingOptions() []binding.Option {
	known := binding.SimplifiedKnownBuffers
	if !c.Binding.SimplifiedKnownBuffers {
		known = binding.FullKnownBuffers
	}
	return []binding.Option{
		binding.WithMaxGroups(c.Binding.MaxGroups),
		binding.WithMaxBindingsPerGroup(c.Binding.MaxBindingsPerGroup),
		binding.WithKnownBuffers(known),
	}
}

// VertexOptions returns the resolver options.
func (c *Config) VertexOptions() []vertex.Option {
	return []vertex.Option{vertex.WithMaxStride(c.Vertex.MaxStride)}
}

// BindGroupOptions returns the assembler options. release may be nil.
func (c *Config) BindGroupOptions(release func(bindgroup.Handle)) []bindgroup.Option {
	opts := []bindgroup.Option{bindgroup.WithCachingDisabled(c.BindGroup.Disabled)}
	if release != nil {
		opts = append(opts, bindgroup.WithRelease(release))
	}
	if c.BindGroup.Label != "" {
		opts = append(opts, bindgroup.WithLabel(c.BindGroup.Label))
	}
	return opts
}

// BackendOptions returns the hal backend options. The backend's resolver
// takes its stride limit from [vertex].
func (c *Config) BackendOptions() []halgpu.Option {
	opts := []halgpu.Option{
		halgpu.WithSamplerLimit(c.Backend.SamplerLimit),
		halgpu.WithMaxStride(c.Vertex.MaxStride),
	}
	if c.Backend.Label != "" {
		opts = append(opts, halgpu.WithLabel(c.Backend.Label))
	}
	return opts
}
