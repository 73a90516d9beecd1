package pipeline

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache/vertex"
)

// Option configures an Encoder or a Cache.
type Option func(*options)

type options struct {
	strategy           Strategy
	disabled           bool
	stats              *Stats
	colorFormat        gputypes.TextureFormat
	depthStencilFormat gputypes.TextureFormat
	resolver           *vertex.Resolver
	label              string
}

func defaultOptions() options {
	return options{
		colorFormat:        gputypes.TextureFormatBGRA8Unorm,
		depthStencilFormat: gputypes.TextureFormatDepth24PlusStencil8,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithStrategy selects the caching strategy. The default is a Trie.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithFlatStrategy selects the flat hash-string strategy. See NewFlat.
func WithFlatStrategy(softLimit int, release func(Handle)) Option {
	return func(o *options) {
		o.strategy = NewFlat(softLimit, release)
	}
}

// WithCachingDisabled bypasses dirty tracking and caching: every request
// compiles a new pipeline.
func WithCachingDisabled(disabled bool) Option {
	return func(o *options) {
		o.disabled = disabled
	}
}

// WithStats shares a counter set between caches.
func WithStats(s *Stats) Option {
	return func(o *options) {
		if s != nil {
			o.stats = s
		}
	}
}

// WithColorFormat sets the default color target format.
func WithColorFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.colorFormat = f
	}
}

// WithSurfaceFormat uses the surface format of the host device as the
// default color target format.
func WithSurfaceFormat(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		if p == nil {
			return
		}
		if f := p.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			o.colorFormat = f
		}
	}
}

// WithDepthStencilFormat sets the default depth/stencil attachment format.
func WithDepthStencilFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.depthStencilFormat = f
	}
}

// WithResolver sets the vertex layout resolver, typically one whose dummy
// buffer is a real GPU buffer.
func WithResolver(r *vertex.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithLabel names the cache in log output.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}
