package host

import "sort"

// Render queues.
const (
	QueueGeometry    = 2000
	QueueAlphaTest   = 2450
	QueueGeometryEnd = 2500
	QueueTransparent = 3000
)

// Material property names shared by the loader and the viewer.
const (
	PropColor             = "_Color"
	PropMainTex           = "_MainTex"
	PropMetallic          = "_Metallic"
	PropGlossiness        = "_Glossiness"
	PropGlossMapScale     = "_GlossMapScale"
	PropMetallicGlossMap  = "_MetallicGlossMap"
	PropBumpMap           = "_BumpMap"
	PropBumpScale         = "_BumpScale"
	PropOcclusionMap      = "_OcclusionMap"
	PropOcclusionStrength = "_OcclusionStrength"
	PropEmissionColor     = "_EmissionColor"
	PropEmissionMap       = "_EmissionMap"
	PropCutoff            = "_Cutoff"
	PropCull              = "_Cull"
	PropSrcBlend          = "_SrcBlend"
	PropDstBlend          = "_DstBlend"
	PropZWrite            = "_ZWrite"
)

// Shader keywords.
const (
	KeywordNormalMap        = "_NORMALMAP"
	KeywordEmission         = "_EMISSION"
	KeywordAlphaTest        = "_ALPHATEST_ON"
	KeywordAlphaBlend       = "_ALPHABLEND_ON"
	KeywordAlphaPremultiply = "_ALPHAPREMULTIPLY_ON"
	KeywordMetallicGlossMap = "_METALLICGLOSSMAP"
)

// Blend factors stored in PropSrcBlend / PropDstBlend.
const (
	BlendZero             = 0
	BlendOne              = 1
	BlendSrcAlpha         = 5
	BlendOneMinusSrcAlpha = 10
)

// Cull modes stored in PropCull.
const (
	CullOff  = 0
	CullBack = 2
)

// RenderMode is the alpha handling state of a material.
type RenderMode int

const (
	RenderOpaque RenderMode = iota
	RenderCutout
	RenderBlend
)

// String returns the render-state tag.
func (m RenderMode) String() string {
	switch m {
	case RenderCutout:
		return "cutout"
	case RenderBlend:
		return "blend"
	default:
		return "opaque"
	}
}

// GIFlags controls how a material contributes to global illumination.
type GIFlags int

const (
	// GIRealtime is the default for lit materials.
	GIRealtime GIFlags = iota
	// GINone excludes self-lit surfaces from baked/realtime GI.
	GINone
)

// TextureSlot binds a texture with its UV transform.
type TextureSlot struct {
	Texture  *Texture
	Offset   [2]float32
	Scale    [2]float32
	TexCoord int
}

// Material is a host material resource: a shader template plus a bag of
// named properties.
type Material struct {
	ID          int
	Name        string
	Shader      string
	Mode        RenderMode
	RenderQueue int
	GIFlags     GIFlags

	floats   map[string]float32
	colors   map[string][4]float32
	textures map[string]TextureSlot
	keywords map[string]bool
	tags     map[string]string
}

// NewMaterial returns an opaque material using shader.
func NewMaterial(shader string) *Material {
	return &Material{
		Shader:      shader,
		RenderQueue: QueueGeometry,
		floats:      map[string]float32{},
		colors:      map[string][4]float32{PropColor: {1, 1, 1, 1}},
		textures:    map[string]TextureSlot{},
		keywords:    map[string]bool{},
		tags:        map[string]string{},
	}
}

func (m *Material) SetFloat(name string, v float32) { m.floats[name] = v }

// Float returns property name and whether it was set.
func (m *Material) Float(name string) (float32, bool) {
	v, ok := m.floats[name]
	return v, ok
}

func (m *Material) SetColor(name string, c [4]float32) { m.colors[name] = c }

// Color returns color property name and whether it was set.
func (m *Material) Color(name string) ([4]float32, bool) {
	c, ok := m.colors[name]
	return c, ok
}

// SetTexture binds tex to slot name with an identity UV transform.
func (m *Material) SetTexture(name string, tex *Texture) {
	m.SetTextureSlot(name, TextureSlot{Texture: tex, Scale: [2]float32{1, 1}})
}

func (m *Material) SetTextureSlot(name string, slot TextureSlot) { m.textures[name] = slot }

// TextureSlot returns the binding of slot name.
func (m *Material) TextureSlot(name string) (TextureSlot, bool) {
	s, ok := m.textures[name]
	return s, ok
}

// TextureNames returns the bound slot names, sorted.
func (m *Material) TextureNames() []string {
	return sortedKeys(m.textures)
}

func (m *Material) EnableKeyword(k string)  { m.keywords[k] = true }
func (m *Material) DisableKeyword(k string) { delete(m.keywords, k) }

// IsKeywordEnabled reports whether keyword k is on.
func (m *Material) IsKeywordEnabled(k string) bool { return m.keywords[k] }

// Keywords returns the enabled keywords, sorted.
func (m *Material) Keywords() []string {
	return sortedKeys(m.keywords)
}

// SetOverrideTag sets a shader tag such as RenderType.
func (m *Material) SetOverrideTag(tag, value string) { m.tags[tag] = value }

// OverrideTag returns the value of tag.
func (m *Material) OverrideTag(tag string) string { return m.tags[tag] }

// SetOpaque puts the material in the default opaque state.
func (m *Material) SetOpaque() {
	m.Mode = RenderOpaque
	m.SetOverrideTag("RenderType", "Opaque")
	m.SetFloat(PropSrcBlend, BlendOne)
	m.SetFloat(PropDstBlend, BlendZero)
	m.SetFloat(PropZWrite, 1)
	m.DisableKeyword(KeywordAlphaTest)
	m.DisableKeyword(KeywordAlphaBlend)
	m.DisableKeyword(KeywordAlphaPremultiply)
	m.RenderQueue = QueueGeometry
}

// SetCutout switches the material to alpha testing against threshold.
func (m *Material) SetCutout(threshold float32) {
	m.Mode = RenderCutout
	m.SetOverrideTag("RenderType", "TransparentCutout")
	m.SetFloat(PropCutoff, threshold)
	m.SetFloat(PropSrcBlend, BlendOne)
	m.SetFloat(PropDstBlend, BlendZero)
	m.SetFloat(PropZWrite, 1)
	m.EnableKeyword(KeywordAlphaTest)
	m.DisableKeyword(KeywordAlphaBlend)
	m.DisableKeyword(KeywordAlphaPremultiply)
	m.RenderQueue = QueueAlphaTest
}

// SetFade switches the material to alpha blending.
func (m *Material) SetFade() {
	m.Mode = RenderBlend
	m.SetOverrideTag("RenderType", "Transparent")
	m.SetFloat(PropSrcBlend, BlendSrcAlpha)
	m.SetFloat(PropDstBlend, BlendOneMinusSrcAlpha)
	m.SetFloat(PropZWrite, 0)
	m.DisableKeyword(KeywordAlphaTest)
	m.EnableKeyword(KeywordAlphaBlend)
	m.DisableKeyword(KeywordAlphaPremultiply)
	m.RenderQueue = QueueTransparent
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
