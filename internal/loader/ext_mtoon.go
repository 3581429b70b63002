package loader

import (
	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
	"github.com/Faultbox/glbloader/pkg/math"
)

// MToon shader properties set outside the property table.
const (
	mtoonSrcBlend        = "_M_SrcBlend"
	mtoonDstBlend        = "_M_DstBlend"
	mtoonZWrite          = "_M_ZWrite"
	mtoonAlphaToMask     = "_M_AlphaToMask"
	mtoonDoubleSided     = "_DoubleSided"
	mtoonOutlineMode     = "_OutlineWidthMode"
	mtoonEmissiveMap     = "_MTOON_EMISSIVEMAP"
	mtoonOutlineWorld    = "_MTOON_OUTLINE_WORLD"
	mtoonOutlineScreen   = "_MTOON_OUTLINE_SCREEN"
	mtoonParameterMap    = "_MTOON_PARAMETERMAP"
	mtoonRimMap          = "_MTOON_RIMMAP"
	mtoonTransparentBase = host.QueueGeometryEnd + 1
)

type mtoonKind int

const (
	mtoonBool mtoonKind = iota
	mtoonFloat
	mtoonColor
	mtoonTexture
	mtoonEnum
)

// mtoonProperty maps one VRMC_materials_mtoon field onto a shader property.
type mtoonProperty struct {
	field string
	prop  string
	kind  mtoonKind
	// def is the default of bool and float properties.
	def   float32
	color math.Vec3
	// bounds clamps float values: [min] or [min, max].
	bounds []float32
	// keywords are enabled when a texture property is present.
	keywords []string
	// values are the enum names; the property holds the index.
	values []string
}

var mtoonProperties = []mtoonProperty{
	{field: "transparentWithZWrite", prop: "_TransparentWithZWrite", kind: mtoonBool},
	{field: "renderQueueOffsetNumber", prop: "_RenderQueueOffset", kind: mtoonFloat, bounds: []float32{-9, 9}},
	{field: "shadeColorFactor", prop: "_ShadeColor", kind: mtoonColor, color: math.Vec3One},
	{field: "shadeMultiplyTexture", prop: "_ShadeTex", kind: mtoonTexture},
	{field: "shadingShiftFactor", prop: "_ShadingShiftFactor", kind: mtoonFloat},
	{field: "shadingShiftTexture", prop: "_ShadingShiftTex", kind: mtoonTexture, keywords: []string{mtoonParameterMap}},
	{field: "shadingToonyFactor", prop: "_ShadingToonyFactor", kind: mtoonFloat, def: 0.9, bounds: []float32{0, 1}},
	{field: "giEqualizationFactor", prop: "_GiEqualization", kind: mtoonFloat, def: 0.9, bounds: []float32{0, 1}},
	{field: "matcapFactor", prop: "_MatcapColor", kind: mtoonColor},
	{field: "matcapTexture", prop: "_MatcapTex", kind: mtoonTexture, keywords: []string{mtoonRimMap}},
	{field: "parametricRimColorFactor", prop: "_RimColor", kind: mtoonColor},
	{field: "rimMultiplyTexture", prop: "_RimTex", kind: mtoonTexture, keywords: []string{mtoonRimMap}},
	{field: "rimLightingMixFactor", prop: "_RimLightingMix", kind: mtoonFloat, def: 1, bounds: []float32{0, 1}},
	{field: "parametricRimFresnelPowerFactor", prop: "_RimFresnelPower", kind: mtoonFloat, def: 5, bounds: []float32{0}},
	{field: "parametricRimLiftFactor", prop: "_RimLift", kind: mtoonFloat},
	{field: "outlineWidthMode", prop: mtoonOutlineMode, kind: mtoonEnum, values: []string{"none", "worldCoordinates", "screenCoordinates"}},
	{field: "outlineWidthFactor", prop: "_OutlineWidth", kind: mtoonFloat, bounds: []float32{0}},
	{field: "outlineWidthMultiplyTexture", prop: "_OutlineWidthTex", kind: mtoonTexture, keywords: []string{mtoonParameterMap}},
	{field: "outlineColorFactor", prop: "_OutlineColor", kind: mtoonColor},
	{field: "outlineLightingMixFactor", prop: "_OutlineLightingMix", kind: mtoonFloat, def: 1, bounds: []float32{0, 1}},
	{field: "uvAnimationMaskTexture", prop: "_UvAnimMaskTex", kind: mtoonTexture, keywords: []string{mtoonParameterMap}},
	{field: "uvAnimationScrollXSpeedFactor", prop: "_UvAnimScrollXSpeed", kind: mtoonFloat},
	{field: "uvAnimationScrollYSpeedFactor", prop: "_UvAnimScrollYSpeed", kind: mtoonFloat},
	{field: "uvAnimationRotationSpeedFactor", prop: "_UvAnimRotationSpeed", kind: mtoonFloat},
}

// apply writes the property default, then the value from ext when it is
// present with the expected kind.
func (p mtoonProperty) apply(mat *host.Material, ext gltfdoc.Value, ctx Context) {
	switch p.kind {
	case mtoonBool:
		mat.SetFloat(p.prop, boolFloat(ext.OptBool(p.field, p.def != 0)))
	case mtoonFloat:
		mat.SetFloat(p.prop, clampBounds(ext.OptFloat(p.field, p.def), p.bounds))
	case mtoonColor:
		c := ext.OptVec3(p.field, p.color)
		mat.SetColor(p.prop, [4]float32{clamp01(c.X), clamp01(c.Y), clamp01(c.Z), 1})
	case mtoonTexture:
		info, ok := ext.OptObject(p.field)
		if !ok {
			return
		}
		for _, k := range p.keywords {
			mat.EnableKeyword(k)
		}
		if slot, ok := ctx.TextureSlot(info); ok {
			mat.SetTextureSlot(p.prop, slot)
		}
	case mtoonEnum:
		mat.SetFloat(p.prop, 0)
		v := ext.OptString(p.field, "")
		for i, name := range p.values {
			if name == v {
				mat.SetFloat(p.prop, float32(i))
			}
		}
	}
}

// MToonExtension handles VRMC_materials_mtoon by moving the material to the
// MToon template and mapping the toon shading parameters.
type MToonExtension struct{}

// Name returns the extension name.
func (MToonExtension) Name() string { return "VRMC_materials_mtoon" }

// Apply maps the extension onto mat.
func (MToonExtension) Apply(mat *host.Material, ext, def gltfdoc.Value, ctx Context) error {
	mat.Shader = ctx.Templates().MToon
	for _, p := range mtoonProperties {
		p.apply(mat, ext, ctx)
	}

	if def.Has("emissiveTexture") {
		mat.EnableKeyword(mtoonEmissiveMap)
	}
	if def.Has("normalTexture") {
		mat.EnableKeyword(host.KeywordNormalMap)
	}
	mat.SetFloat(mtoonDoubleSided, boolFloat(def.OptBool("doubleSided", false)))
	setupMToonRenderMode(mat, def, ext)

	switch mode, _ := mat.Float(mtoonOutlineMode); mode {
	case 1:
		mat.EnableKeyword(mtoonOutlineWorld)
	case 2:
		mat.EnableKeyword(mtoonOutlineScreen)
	}
	return nil
}

// setupMToonRenderMode sets blending, depth writes and the render queue
// from the core alpha mode. Transparent materials writing depth are drawn
// first among transparents.
func setupMToonRenderMode(mat *host.Material, def, ext gltfdoc.Value) {
	zWrite := ext.OptBool("transparentWithZWrite", false)
	offset := ext.OptInt("renderQueueOffsetNumber", 0)

	switch def.OptString("alphaMode", "") {
	case "MASK":
		mat.Mode = host.RenderCutout
		mat.SetOverrideTag("RenderType", "TransparentCutout")
		mat.SetFloat(mtoonSrcBlend, host.BlendOne)
		mat.SetFloat(mtoonDstBlend, host.BlendZero)
		mat.SetFloat(mtoonZWrite, 1)
		mat.SetFloat(mtoonAlphaToMask, 1)
		mat.RenderQueue = host.QueueAlphaTest
	case "BLEND":
		mat.Mode = host.RenderBlend
		mat.SetOverrideTag("RenderType", "Transparent")
		mat.SetFloat(mtoonSrcBlend, host.BlendSrcAlpha)
		mat.SetFloat(mtoonDstBlend, host.BlendOneMinusSrcAlpha)
		mat.SetFloat(mtoonZWrite, boolFloat(zWrite))
		mat.SetFloat(mtoonAlphaToMask, 0)
		if zWrite {
			mat.RenderQueue = mtoonTransparentBase + min(max(offset, 0), 9)
		} else {
			mat.RenderQueue = host.QueueTransparent + min(max(offset, -9), 0)
		}
	default:
		mat.Mode = host.RenderOpaque
		mat.SetOverrideTag("RenderType", "Opaque")
		mat.SetFloat(mtoonSrcBlend, host.BlendOne)
		mat.SetFloat(mtoonDstBlend, host.BlendZero)
		mat.SetFloat(mtoonZWrite, 1)
		mat.SetFloat(mtoonAlphaToMask, 0)
		mat.RenderQueue = host.QueueGeometry
	}
}

func clampBounds(v float32, bounds []float32) float32 {
	if len(bounds) > 0 && v < bounds[0] {
		return bounds[0]
	}
	if len(bounds) > 1 && v > bounds[1] {
		return bounds[1]
	}
	return v
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
