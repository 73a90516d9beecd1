// Package bindgroup assembles the bind groups submitted with a draw.
//
// Resources are bound by the names a binding.Allocator registered:
//
//	res := bindgroup.NewResources()
//	res.Set("Scene", bindgroup.Buffer(sceneID, sceneBuf, 0, 0))
//	res.Set("diffuse", bindgroup.Texture(texID, view, &sampler))
//	groups, err := asm.BindGroups(layout, textureState, res)
//
// A texture with an auto sampler fills the sampler slot first, from the
// sampler bound under the slot name or else from the texture's own sampler.
//
// Bind groups are cached per layout, texture state and the identity of every
// bound resource. Resources with a zero ID and external textures bypass the
// cache.
package bindgroup
