package bindgroup

// Option configures an Assembler.
type Option func(*options)

type options struct {
	disabled bool
	stats    *Stats
	release  func(Handle)
	label    string
}

// WithCachingDisabled creates new bind groups on every call.
func WithCachingDisabled(disabled bool) Option {
	return func(o *options) {
		o.disabled = disabled
	}
}

// WithStats shares a counter set between assemblers.
func WithStats(s *Stats) Option {
	return func(o *options) {
		if s != nil {
			o.stats = s
		}
	}
}

// WithRelease sets the function called for every cached bind group dropped
// by Reset or Forget, and for uncached bind groups at the next EndFrame.
func WithRelease(release func(Handle)) Option {
	return func(o *options) {
		o.release = release
	}
}

// WithLabel names the assembler in log output.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}
