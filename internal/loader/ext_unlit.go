package loader

import (
	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
)

// UnlitExtension handles KHR_materials_unlit by swapping a lit material to
// the unlit template matching its render mode. Materials already moved off
// the lit template by another handler are left alone.
type UnlitExtension struct{}

// Name returns the extension name.
func (UnlitExtension) Name() string { return "KHR_materials_unlit" }

// Apply swaps the shader template.
func (UnlitExtension) Apply(mat *host.Material, _, _ gltfdoc.Value, ctx Context) error {
	t := ctx.Templates()
	if mat.Shader != t.Lit {
		return nil
	}
	switch mat.Mode {
	case host.RenderCutout:
		mat.Shader = t.UnlitCutout
	case host.RenderBlend:
		mat.Shader = t.UnlitTransparent
	default:
		mat.Shader = t.Unlit
	}
	return nil
}
