package loader

import (
	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
)

// shaderMotionFloats maps EXT_voyage_shadermotion fields to mesh player
// shader properties. Absent fields leave the property unset.
var shaderMotionFloats = [][2]string{
	{"alphaTest", "_AlphaTest"},
	{"cull", "_Cull"},
	{"alphaCutOff", "_Cutoff"},
	{"humanScale", "_HumanScale"},
	{"layer", "_Layer"},
	{"rotationTolerance", "_RotationTolerance"},
	{"color", "_Color"},
}

var shaderMotionTextures = [][2]string{
	{"boneTexture", "_Bone"},
	{"mainTexture", "_MainTex"},
	{"shapeTexture", "_Shape"},
}

// ShaderMotionExtension handles EXT_voyage_shadermotion, which plays baked
// motion on a mesh through the ShaderMotion mesh player template.
type ShaderMotionExtension struct{}

// Name returns the extension name.
func (ShaderMotionExtension) Name() string { return "EXT_voyage_shadermotion" }

// Apply moves mat to the mesh player template, keeping its render queue,
// and copies the motion parameters and textures.
func (ShaderMotionExtension) Apply(mat *host.Material, ext, _ gltfdoc.Value, ctx Context) error {
	mat.Shader = ctx.Templates().ShaderMotion

	for _, p := range shaderMotionFloats {
		if v, ok := ext.Lookup(p[0], gltfdoc.Number); ok {
			mat.SetFloat(p[1], float32(v.Float()))
		}
	}
	for _, p := range shaderMotionTextures {
		info, ok := ext.OptObject(p[0])
		if !ok {
			continue
		}
		if slot, ok := ctx.TextureSlot(info); ok {
			mat.SetTextureSlot(p[1], slot)
		}
	}
	return nil
}
