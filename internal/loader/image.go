package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/dds"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
	"github.com/Faultbox/glbloader/pkg/tga"
)

// extVoyageExporter marks an image stored as raw, GPU-ready pixels.
const extVoyageExporter = "EXT_voyage_exporter"

var rawFormats = map[string]host.TextureFormat{
	"RGBA32": host.FormatRGBA32,
	"BGRA32": host.FormatBGRA32,
	"DXT1":   host.FormatDXT1,
	"DXT5":   host.FormatDXT5,
	"BC5":    host.FormatBC5,
	"BC7":    host.FormatBC7,
}

// Images returns the decoded image payloads. Defective entries are nil.
func (l *Loader) Images() []*host.TextureData { return l.images }

func (l *Loader) parseImages(cursor int) (int, error) {
	list, err := l.section("images")
	if err != nil {
		return 0, err
	}
	if cursor == 0 {
		l.images = make([]*host.TextureData, list.Len())
	}
	return l.forEach(cursor, list.Len(), func(i int) {
		img, err := l.decodeImage(i, list.Index(i))
		if err != nil {
			l.defect("image", i, err)
			return
		}
		l.images[i] = img
		l.stats.Images++
	}), nil
}

func (l *Loader) decodeImage(index int, def gltfdoc.Value) (*host.TextureData, error) {
	if !def.Is(gltfdoc.Object) {
		return nil, fmt.Errorf("%w: image is %s", ErrDefectiveSubResource, def.Kind())
	}
	raw, err := l.imageBytes(def)
	if err != nil {
		return nil, err
	}
	name := def.OptString("name", fmt.Sprintf("image_%d", index))

	if ext, ok := def.Field("extensions").OptObject(extVoyageExporter); ok {
		return decodeRawImage(name, raw, ext)
	}
	switch mime := def.OptString("mimeType", ""); mime {
	case "image/vnd-ms.dds", "image/x-dds", "image/dds":
		return decodeDDS(name, raw)
	case "image/png", "image/jpeg", "image/webp", "image/bmp", "image/tiff":
		return l.decodeBitmap(name, raw)
	case "image/x-tga", "image/tga", "image/targa":
		img, err := tga.Decode(raw)
		if err != nil {
			if errors.Is(err, tga.ErrUnsupported) {
				return nil, fmt.Errorf("%w: %v", ErrUnsupportedPixelFormat, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrDefectiveSubResource, err)
		}
		return l.bitmapTexture(name, img, "tga"), nil
	case "":
		if bytes.HasPrefix(raw, []byte("DDS ")) {
			return decodeDDS(name, raw)
		}
		return l.decodeBitmap(name, raw)
	default:
		return nil, fmt.Errorf("%w: mime type %q", ErrUnsupportedPixelFormat, mime)
	}
}

// imageBytes returns the encoded bytes of an image. Only images embedded
// in a buffer view can be read.
func (l *Loader) imageBytes(def gltfdoc.Value) ([]byte, error) {
	idx := def.OptInt("bufferView", -1)
	if idx < 0 {
		if def.Has("uri") {
			return nil, fmt.Errorf("%w: external image uri", ErrUnresolvableReference)
		}
		return nil, fmt.Errorf("%w: image has neither bufferView nor uri", ErrDefectiveSubResource)
	}
	if idx >= len(l.bufferViews) || l.bufferViews[idx] == nil {
		return nil, fmt.Errorf("%w: image buffer view %d", ErrUnresolvableReference, idx)
	}
	return l.bufferViews[idx].Bytes(l.binary()), nil
}

// decodeRawImage wraps pixels described by an EXT_voyage_exporter block.
func decodeRawImage(name string, raw []byte, ext gltfdoc.Value) (*host.TextureData, error) {
	w, h := ext.OptInt("width", 0), ext.OptInt("height", 0)
	if w <= 0 || h <= 0 || w > host.MaxTextureSide || h > host.MaxTextureSide {
		return nil, fmt.Errorf("%w: raw image size %dx%d", ErrDefectiveSubResource, w, h)
	}
	formatName := ext.OptString("format", "")
	format, ok := rawFormats[formatName]
	if !ok {
		return nil, fmt.Errorf("%w: raw format %q", ErrUnsupportedPixelFormat, formatName)
	}

	var need int
	if format.Compressed() {
		need = dds.LevelSize(format.DDSFormat(), w, h)
	} else {
		need = w * h * 4
	}
	if len(raw) < need {
		return nil, fmt.Errorf("%w: raw %s %dx%d needs %d bytes, have %d",
			ErrDefectiveSubResource, formatName, w, h, need, len(raw))
	}
	return &host.TextureData{
		Name:    name,
		Width:   w,
		Height:  h,
		Format:  format,
		Linear:  ext.OptBool("linear", false),
		MipMaps: len(raw) > need,
		Pixels:  raw,
	}, nil
}

func decodeDDS(name string, raw []byte) (*host.TextureData, error) {
	tex, err := dds.Parse(raw)
	if err != nil {
		if errors.Is(err, dds.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedPixelFormat, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDefectiveSubResource, err)
	}
	return &host.TextureData{
		Name:    name,
		Width:   tex.Width,
		Height:  tex.Height,
		Format:  host.FormatFromDDS(tex.Format),
		MipMaps: tex.HasMipMaps(),
		Pixels:  tex.Data,
	}, nil
}

// decodeBitmap decodes PNG, JPEG, WebP, BMP or TIFF data to RGBA32.
func (l *Loader) decodeBitmap(name string, raw []byte) (*host.TextureData, error) {
	if cfg, kind, err := image.DecodeConfig(bytes.NewReader(raw)); err == nil &&
		(cfg.Width > host.MaxTextureSide || cfg.Height > host.MaxTextureSide) {
		return nil, fmt.Errorf("%w: %s image size %dx%d", ErrDefectiveSubResource, kind, cfg.Width, cfg.Height)
	}
	img, kind, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPixelFormat, err)
	}
	return l.bitmapTexture(name, img, kind), nil
}

// bitmapTexture converts a decoded bitmap to an RGBA32 payload.
func (l *Loader) bitmapTexture(name string, img image.Image, kind string) *host.TextureData {
	rgba := toRGBA(img, l.opts.MaxTextureSize)
	if b := img.Bounds(); rgba.Rect.Dx() != b.Dx() || rgba.Rect.Dy() != b.Dy() {
		l.log.Debug("image downscaled",
			zap.String("image", name),
			zap.Int("width", b.Dx()),
			zap.Int("height", b.Dy()),
			zap.Int("maxSize", l.opts.MaxTextureSize))
	}
	l.log.Debug("image decoded", zap.String("image", name), zap.String("codec", kind))
	return &host.TextureData{
		Name:   name,
		Width:  rgba.Rect.Dx(),
		Height: rgba.Rect.Dy(),
		Format: host.FormatRGBA32,
		Pixels: rgba.Pix,
	}
}

// toRGBA converts img to a tightly packed RGBA image whose larger side is
// at most maxSize (0 means unbounded).
func toRGBA(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			w, h = maxSize, max(1, h*maxSize/w)
		} else {
			w, h = max(1, w*maxSize/h), maxSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*w {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
