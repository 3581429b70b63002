package loader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
	"github.com/Faultbox/glbloader/pkg/math"
)

const extTextureTransform = "KHR_texture_transform"

// Default alpha cutoff of MASK materials.
const defaultAlphaCutoff = 0.5

func (l *Loader) parseMaterials(cursor int) (int, error) {
	list, err := l.section("materials")
	if err != nil {
		return 0, err
	}
	if cursor == 0 {
		l.materials = make([]*host.Material, list.Len())
	}
	return l.forEach(cursor, list.Len(), func(i int) {
		def := list.Index(i)
		if !def.Is(gltfdoc.Object) {
			l.defect("material", i, fmt.Errorf("%w: material is %s", ErrDefectiveSubResource, def.Kind()))
			return
		}
		l.materials[i] = l.buildMaterial(i, def)
		l.stats.Materials++
	}), nil
}

// buildMaterial maps a glTF metallic-roughness material onto a material
// duplicated from the lit template, then runs the extension handlers.
func (l *Loader) buildMaterial(index int, def gltfdoc.Value) *host.Material {
	mat := l.engine.NewMaterial(l.opts.Templates.Lit)
	mat.Name = def.OptString("name", fmt.Sprintf("material_%d", index))

	pbr, _ := def.OptObject("pbrMetallicRoughness")
	baseColor := pbr.OptVec4("baseColorFactor", [4]float32{1, 1, 1, 1})
	mat.SetColor(host.PropColor, baseColor)
	if info, ok := pbr.OptObject("baseColorTexture"); ok {
		l.bindTexture(mat, host.PropMainTex, info)
	}

	mat.SetFloat(host.PropMetallic, clamp01(pbr.OptFloat("metallicFactor", 1)))
	smoothness := 1 - clamp01(pbr.OptFloat("roughnessFactor", 1))
	mat.SetFloat(host.PropGlossiness, smoothness)
	mat.SetFloat(host.PropGlossMapScale, smoothness)
	if info, ok := pbr.OptObject("metallicRoughnessTexture"); ok && l.bindTexture(mat, host.PropMetallicGlossMap, info) {
		mat.EnableKeyword(host.KeywordMetallicGlossMap)
	}

	if info, ok := def.OptObject("normalTexture"); ok && l.bindTexture(mat, host.PropBumpMap, info) {
		mat.EnableKeyword(host.KeywordNormalMap)
		mat.SetFloat(host.PropBumpScale, info.OptFloat("scale", 1))
	}
	if info, ok := def.OptObject("occlusionTexture"); ok && l.bindTexture(mat, host.PropOcclusionMap, info) {
		mat.SetFloat(host.PropOcclusionStrength, clamp01(info.OptFloat("strength", 1)))
	}
	l.mapEmission(mat, def)

	switch mode := def.OptString("alphaMode", ""); mode {
	case "MASK":
		mat.SetCutout(def.OptFloat("alphaCutoff", defaultAlphaCutoff))
	case "BLEND":
		mat.SetFade()
	case "OPAQUE":
		mat.SetOpaque()
	case "":
		// Without a declared mode, a translucent base color still fades.
		if baseColor[3] < 1 {
			mat.SetFade()
		} else {
			mat.SetOpaque()
		}
	default:
		l.defect("material", index, fmt.Errorf("%w: alphaMode %q", ErrUnsupportedEncoding, mode))
		mat.SetOpaque()
	}

	if def.OptBool("doubleSided", false) {
		mat.SetFloat(host.PropCull, host.CullOff)
	} else {
		mat.SetFloat(host.PropCull, host.CullBack)
	}

	l.applyExtensions(mat, index, def)
	return mat
}

// mapEmission enables emission when the material declares a non-black
// emissive factor or an emissive texture. A texture without a factor
// emits at full strength.
func (l *Loader) mapEmission(mat *host.Material, def gltfdoc.Value) {
	info, hasTexture := def.OptObject("emissiveTexture")
	var fallback math.Vec3
	if hasTexture {
		fallback = math.Vec3One
	}
	factor := def.OptVec3("emissiveFactor", fallback)
	if factor.X <= 0 && factor.Y <= 0 && factor.Z <= 0 && !hasTexture {
		return
	}
	if hasTexture {
		l.bindTexture(mat, host.PropEmissionMap, info)
	}
	mat.SetColor(host.PropEmissionColor, [4]float32{factor.X, factor.Y, factor.Z, 1})
	mat.EnableKeyword(host.KeywordEmission)
	mat.GIFlags = host.GINone
}

// bindTexture resolves info and binds it to prop.
func (l *Loader) bindTexture(mat *host.Material, prop string, info gltfdoc.Value) bool {
	slot, ok := l.TextureSlot(info)
	if !ok {
		return false
	}
	mat.SetTextureSlot(prop, slot)
	return true
}

// TextureSlot resolves a glTF textureInfo object into a texture and its UV
// transform. A dangling index binds the placeholder texture.
func (l *Loader) TextureSlot(info gltfdoc.Value) (host.TextureSlot, bool) {
	idx, ok := info.Lookup("index", gltfdoc.Number)
	if !ok {
		return host.TextureSlot{}, false
	}
	i := idx.Int()
	slot := host.TextureSlot{
		Scale:    [2]float32{1, 1},
		TexCoord: info.OptInt("texCoord", 0),
	}
	if i >= 0 && i < len(l.textures) && l.textures[i] != nil {
		slot.Texture = l.textures[i]
	} else {
		l.defect("texture reference", i, ErrUnresolvableReference)
		slot.Texture = l.placeholderTexture()
	}

	if tr, ok := info.Field("extensions").OptObject(extTextureTransform); ok {
		slot.Offset = tr.OptVec2("offset", [2]float32{0, 0})
		slot.Scale = tr.OptVec2("scale", [2]float32{1, 1})
		slot.TexCoord = tr.OptInt("texCoord", slot.TexCoord)
		if tr.Has("rotation") {
			l.log.Debug("texture transform rotation ignored", zap.Int("texture", i))
		}
	}
	return slot, true
}

// fallbackMaterial returns the material bound to primitives whose material
// is missing. It is created once per load.
func (l *Loader) fallbackMaterial() *host.Material {
	if l.fallback == nil {
		l.fallback = l.engine.NewMaterial(l.opts.Templates.Lit)
		l.fallback.Name = "fallback"
		l.fallback.SetOpaque()
	}
	return l.fallback
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
