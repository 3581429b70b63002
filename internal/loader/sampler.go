package loader

import (
	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
)

// glTF sampler enums.
const (
	filterNearest              = 9728
	filterLinear               = 9729
	filterNearestMipmapNearest = 9984
	filterLinearMipmapNearest  = 9985
	filterNearestMipmapLinear  = 9986
	filterLinearMipmapLinear   = 9987

	wrapClampToEdge    = 33071
	wrapMirroredRepeat = 33648
	wrapRepeat         = 10497
)

// Samplers returns the parsed samplers. Defective entries are nil.
func (l *Loader) Samplers() []*host.Sampler { return l.samplers }

func (l *Loader) parseSamplers(cursor int) (int, error) {
	list, err := l.section("samplers")
	if err != nil {
		return 0, err
	}
	if cursor == 0 {
		l.samplers = make([]*host.Sampler, list.Len())
	}
	return l.forEach(cursor, list.Len(), func(i int) {
		def := list.Index(i)
		if !def.Is(gltfdoc.Object) {
			l.defect("sampler", i, ErrDefectiveSubResource)
			return
		}
		s := parseSampler(def)
		l.samplers[i] = &s
		l.stats.Samplers++
	}), nil
}

func parseSampler(def gltfdoc.Value) host.Sampler {
	return host.Sampler{
		Filter: samplerFilter(def.OptInt("magFilter", -1), def.OptInt("minFilter", -1)),
		WrapU:  samplerWrap(def.OptInt("wrapS", wrapRepeat)),
		WrapV:  samplerWrap(def.OptInt("wrapT", wrapRepeat)),
	}
}

// samplerFilter picks the filter from the minification mode, falling back
// to the magnification mode when min is absent.
func samplerFilter(mag, minFilter int) host.FilterMode {
	switch minFilter {
	case filterNearestMipmapLinear, filterLinearMipmapLinear:
		return host.FilterTrilinear
	case filterNearest, filterNearestMipmapNearest:
		return host.FilterPoint
	case filterLinear, filterLinearMipmapNearest:
		return host.FilterBilinear
	}
	if mag == filterNearest {
		return host.FilterPoint
	}
	return host.FilterBilinear
}

func samplerWrap(mode int) host.WrapMode {
	switch mode {
	case wrapClampToEdge:
		return host.WrapClamp
	case wrapMirroredRepeat:
		return host.WrapMirror
	default:
		return host.WrapRepeat
	}
}
