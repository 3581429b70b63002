package host

import (
	"fmt"

	"github.com/Faultbox/glbloader/pkg/dds"
)

// MaxTextureSide bounds the width and height of a texture.
const MaxTextureSide = dds.MaxDimension

// TextureFormat is the pixel layout of a texture payload.
type TextureFormat int

const (
	FormatRGBA32 TextureFormat = iota
	FormatBGRA32
	FormatDXT1
	FormatDXT5
	FormatBC5
	FormatBC7
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA32:
		return "RGBA32"
	case FormatBGRA32:
		return "BGRA32"
	case FormatDXT1:
		return "DXT1"
	case FormatDXT5:
		return "DXT5"
	case FormatBC5:
		return "BC5"
	case FormatBC7:
		return "BC7"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// Compressed reports whether f is a block-compressed format.
func (f TextureFormat) Compressed() bool {
	return f >= FormatDXT1
}

// FormatFromDDS maps a DDS block format to a TextureFormat.
func FormatFromDDS(f dds.Format) TextureFormat {
	switch f {
	case dds.DXT1:
		return FormatDXT1
	case dds.DXT5:
		return FormatDXT5
	case dds.BC5:
		return FormatBC5
	default:
		return FormatBC7
	}
}

// DDSFormat returns the block format of a compressed texture format.
func (f TextureFormat) DDSFormat() dds.Format {
	switch f {
	case FormatDXT1:
		return dds.DXT1
	case FormatDXT5:
		return dds.DXT5
	case FormatBC5:
		return dds.BC5
	default:
		return dds.BC7
	}
}

// FilterMode is the texture sampling filter.
type FilterMode int

const (
	FilterPoint FilterMode = iota
	FilterBilinear
	FilterTrilinear
)

// String returns the filter name.
func (f FilterMode) String() string {
	switch f {
	case FilterPoint:
		return "point"
	case FilterTrilinear:
		return "trilinear"
	default:
		return "bilinear"
	}
}

// WrapMode is the texture addressing mode.
type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClamp
	WrapMirror
)

// String returns the wrap mode name.
func (w WrapMode) String() string {
	switch w {
	case WrapClamp:
		return "clamp"
	case WrapMirror:
		return "mirror"
	default:
		return "repeat"
	}
}

// Sampler holds filtering and addressing settings.
type Sampler struct {
	Filter FilterMode
	WrapU  WrapMode
	WrapV  WrapMode
}

// DefaultSampler is used when a texture names no sampler.
var DefaultSampler = Sampler{Filter: FilterBilinear, WrapU: WrapRepeat, WrapV: WrapRepeat}

// TextureData is a raw pixel payload.
type TextureData struct {
	Name    string
	Width   int
	Height  int
	Format  TextureFormat
	Linear  bool
	MipMaps bool
	Pixels  []byte
}

// Texture is a host texture resource.
type Texture struct {
	TextureData
	ID      int
	Sampler Sampler
}

// validateTexture checks the payload is large enough for its declared
// dimensions and format.
func validateTexture(data TextureData) error {
	if data.Width <= 0 || data.Height <= 0 || data.Width > MaxTextureSide || data.Height > MaxTextureSide {
		return fmt.Errorf("%w: %q has size %dx%d", ErrInvalidTexture, data.Name, data.Width, data.Height)
	}
	var need int
	switch {
	case data.Format == FormatRGBA32 || data.Format == FormatBGRA32:
		need = data.Width * data.Height * 4
	case data.Format.Compressed() && data.Format <= FormatBC7:
		need = dds.LevelSize(data.Format.DDSFormat(), data.Width, data.Height)
	default:
		return fmt.Errorf("%w: %q has unknown format %s", ErrInvalidTexture, data.Name, data.Format)
	}
	if len(data.Pixels) < need {
		return fmt.Errorf("%w: %q has %d bytes, %s %dx%d needs %d",
			ErrInvalidTexture, data.Name, len(data.Pixels), data.Format, data.Width, data.Height, need)
	}
	return nil
}

// WhitePixel returns a 1x1 opaque white RGBA texture payload.
func WhitePixel(name string) TextureData {
	return TextureData{
		Name:   name,
		Width:  1,
		Height: 1,
		Format: FormatRGBA32,
		Pixels: []byte{255, 255, 255, 255},
	}
}
