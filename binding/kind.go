package binding

import "fmt"

// Kind identifies the class of a shader resource. It is fixed when the
// resource is registered and never inferred from a bound value.
type Kind uint8

// Resource kinds.
const (
	// KindUniformBuffer is a uniform buffer (var<uniform>).
	KindUniformBuffer Kind = iota + 1

	// KindStorageBuffer is a storage buffer (var<storage>), read-only or read-write.
	KindStorageBuffer

	// KindTexture is a sampled texture, optionally an array of textures.
	KindTexture

	// KindStorageTexture is a storage texture.
	KindStorageTexture

	// KindExternalTexture is a texture whose underlying handle changes every
	// frame (video). Bind groups referencing it are rebuilt on every call.
	KindExternalTexture

	// KindSampler is a texture sampler.
	KindSampler
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUniformBuffer:
		return "UniformBuffer"
	case KindStorageBuffer:
		return "StorageBuffer"
	case KindTexture:
		return "Texture"
	case KindStorageTexture:
		return "StorageTexture"
	case KindExternalTexture:
		return "ExternalTexture"
	case KindSampler:
		return "Sampler"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsBuffer reports whether the kind binds a buffer.
func (k Kind) IsBuffer() bool {
	return k == KindUniformBuffer || k == KindStorageBuffer
}

// IsTexture reports whether the kind binds a texture view.
func (k Kind) IsTexture() bool {
	return k == KindTexture || k == KindStorageTexture || k == KindExternalTexture
}
