package loader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
)

// Context is what a material extension handler may use from the loader.
type Context interface {
	// TextureSlot resolves a glTF textureInfo object. It reports false when
	// info has no texture index.
	TextureSlot(info gltfdoc.Value) (host.TextureSlot, bool)
	Templates() Templates
	Logger() *zap.Logger
}

// MaterialExtension handles one glTF material extension. Apply receives the
// extension's own definition and the whole material definition, and may
// mutate mat freely. Errors are logged; the material is kept.
type MaterialExtension interface {
	Name() string
	Apply(mat *host.Material, ext, def gltfdoc.Value, ctx Context) error
}

// DefaultExtensions returns the handlers registered when Options.Extensions
// is nil.
func DefaultExtensions() []MaterialExtension {
	return []MaterialExtension{
		UnlitExtension{},
		EmissiveStrengthExtension{},
		MToonExtension{},
		ShaderMotionExtension{},
	}
}

// RegisterExtension appends ext to the dispatch list. A handler with the
// same name is replaced in place.
func (l *Loader) RegisterExtension(ext MaterialExtension) {
	for i, e := range l.extensions {
		if e.Name() == ext.Name() {
			l.extensions[i] = ext
			return
		}
	}
	l.extensions = append(l.extensions, ext)
}

// Extensions returns the registered handler names in dispatch order.
func (l *Loader) Extensions() []string {
	names := make([]string, len(l.extensions))
	for i, e := range l.extensions {
		names[i] = e.Name()
	}
	return names
}

// Templates returns the material template names.
func (l *Loader) Templates() Templates { return l.opts.Templates }

// Logger returns the loader's logger.
func (l *Loader) Logger() *zap.Logger { return l.log }

// applyExtensions runs every registered handler whose extension def
// declares, in registration order.
func (l *Loader) applyExtensions(mat *host.Material, index int, def gltfdoc.Value) {
	exts, ok := def.OptObject("extensions")
	if !ok {
		return
	}
	for _, h := range l.extensions {
		ext, ok := exts.Get(h.Name())
		if !ok {
			continue
		}
		if !ext.Is(gltfdoc.Object) {
			l.defect("material", index, fmt.Errorf("%w: extension %s is %s", ErrDefectiveSubResource, h.Name(), ext.Kind()))
			continue
		}
		if err := h.Apply(mat, ext, def, l); err != nil {
			l.defect("material", index, fmt.Errorf("extension %s: %w", h.Name(), err))
		}
	}
	for _, name := range exts.Keys() {
		if !l.hasExtension(name) {
			l.log.Debug("no handler for material extension", zap.String("extension", name), zap.Int("material", index))
		}
	}
}

func (l *Loader) hasExtension(name string) bool {
	for _, e := range l.extensions {
		if e.Name() == name {
			return true
		}
	}
	return false
}
