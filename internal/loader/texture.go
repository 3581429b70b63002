package loader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
)

// Texture source extensions, tried before the core source.
var textureSourceExtensions = []string{"EXT_texture_webp", "MSFT_texture_dds"}

func (l *Loader) parseTextures(cursor int) (int, error) {
	list, err := l.section("textures")
	if err != nil {
		return 0, err
	}
	if cursor == 0 {
		l.textures = make([]*host.Texture, list.Len())
	}
	return l.forEach(cursor, list.Len(), func(i int) {
		tex, err := l.buildTexture(list.Index(i))
		if err != nil {
			l.defect("texture", i, err)
			l.textures[i] = l.placeholderTexture()
			return
		}
		l.textures[i] = tex
		l.stats.Textures++
	}), nil
}

func (l *Loader) buildTexture(def gltfdoc.Value) (*host.Texture, error) {
	if !def.Is(gltfdoc.Object) {
		return nil, fmt.Errorf("%w: texture is %s", ErrDefectiveSubResource, def.Kind())
	}
	source := l.textureSource(def)
	if source < 0 || source >= len(l.images) || l.images[source] == nil {
		return nil, fmt.Errorf("%w: image %d", ErrUnresolvableReference, source)
	}

	sampler := host.DefaultSampler
	if s := def.OptInt("sampler", -1); s >= 0 {
		if s >= len(l.samplers) || l.samplers[s] == nil {
			l.log.Warn("texture sampler missing, using default", zap.Int("sampler", s))
		} else {
			sampler = *l.samplers[s]
		}
	}

	data := *l.images[source]
	data.Name = def.OptString("name", data.Name)
	tex, err := l.engine.NewTexture(data, sampler)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDefectiveSubResource, err)
	}
	return tex, nil
}

// textureSource returns the image index of a texture, preferring a decoded
// extension source.
func (l *Loader) textureSource(def gltfdoc.Value) int {
	exts := def.Field("extensions")
	for _, name := range textureSourceExtensions {
		ext, ok := exts.OptObject(name)
		if !ok {
			continue
		}
		if s := ext.OptInt("source", -1); s >= 0 && s < len(l.images) && l.images[s] != nil {
			return s
		}
	}
	return def.OptInt("source", -1)
}

// placeholderTexture returns the 1x1 white texture bound in place of
// unresolvable textures. It is created once per load.
func (l *Loader) placeholderTexture() *host.Texture {
	if l.placeholder == nil {
		tex, err := l.engine.NewTexture(host.WhitePixel("placeholder"), host.DefaultSampler)
		if err != nil {
			l.log.Error("placeholder texture rejected by host", zap.Error(err))
			return nil
		}
		l.placeholder = tex
	}
	return l.placeholder
}
