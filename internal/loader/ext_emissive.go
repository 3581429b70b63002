package loader

import (
	"fmt"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
)

// EmissiveStrengthExtension handles KHR_materials_emissive_strength.
type EmissiveStrengthExtension struct{}

// Name returns the extension name.
func (EmissiveStrengthExtension) Name() string { return "KHR_materials_emissive_strength" }

// Apply scales the emission color by emissiveStrength.
func (EmissiveStrengthExtension) Apply(mat *host.Material, ext, _ gltfdoc.Value, _ Context) error {
	s := ext.OptFloat("emissiveStrength", 1)
	if s < 0 {
		return fmt.Errorf("%w: emissiveStrength %v", ErrDefectiveSubResource, s)
	}
	c, ok := mat.Color(host.PropEmissionColor)
	if !ok {
		return nil
	}
	mat.SetColor(host.PropEmissionColor, [4]float32{c[0] * s, c[1] * s, c[2] * s, c[3]})
	return nil
}
