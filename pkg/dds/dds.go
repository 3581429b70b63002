// Package dds parses DirectDraw Surface containers holding block-compressed
// textures (DXT1, DXT5, BC5 and BC7 through the DX10 extension header).
package dds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// DDS format errors.
var (
	ErrTruncated         = errors.New("truncated DDS data")
	ErrInvalidMagic      = errors.New("invalid DDS magic: expected 'DDS '")
	ErrInvalidHeader     = errors.New("invalid DDS header")
	ErrUnsupportedFormat = errors.New("unsupported DDS pixel format")
)

const (
	Magic           = 0x20534444
	magicSize       = 4
	headerSize      = 124
	headerDX10Size  = 144
	flagCaps        = 0x1
	flagHeight      = 0x2
	flagWidth       = 0x4
	flagPixelFormat = 0x1000
	requiredFlags   = flagCaps | flagHeight | flagWidth | flagPixelFormat

	fourCCDXT1 = 0x31545844
	fourCCDX10 = 0x30315844
	fourCCATI2 = 0x32495441
	fourCCDXT5 = 0x35545844

	dxgiBC7UNorm     = 98
	dxgiBC7UNormSRGB = 99

	// MaxDimension bounds the width and height of a surface.
	MaxDimension = 1 << 16
)

// Format is the block compression scheme of the surface.
type Format int

const (
	DXT1 Format = iota
	DXT5
	BC5
	BC7
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case DXT1:
		return "DXT1"
	case DXT5:
		return "DXT5"
	case BC5:
		return "BC5"
	case BC7:
		return "BC7"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// BlockSize returns the byte size of one 4x4 block.
func (f Format) BlockSize() int {
	if f == DXT1 {
		return 8
	}
	return 16
}

// Texture is a parsed DDS surface. Data holds every mip level as stored.
type Texture struct {
	Width       int
	Height      int
	MipMapCount int
	Format      Format
	SRGB        bool
	Data        []byte
}

// HasMipMaps reports whether the surface carries more than one level.
func (t *Texture) HasMipMaps() bool {
	return t.MipMapCount > 1
}

// Parse reads a DDS file from raw bytes.
func Parse(data []byte) (*Texture, error) {
	if len(data) < magicSize+headerSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrTruncated, len(data), magicSize+headerSize)
	}

	if binary.LittleEndian.Uint32(data[0:]) != Magic {
		return nil, ErrInvalidMagic
	}

	size := binary.LittleEndian.Uint32(data[4:])
	if size != headerSize {
		return nil, fmt.Errorf("%w: header size %d, expected %d", ErrInvalidHeader, size, headerSize)
	}

	flags := binary.LittleEndian.Uint32(data[8:])
	if flags&requiredFlags != requiredFlags {
		return nil, fmt.Errorf("%w: required flags %#x not set (%#x)", ErrInvalidHeader, requiredFlags, flags)
	}

	tex := &Texture{
		Height:      int(binary.LittleEndian.Uint32(data[12:])),
		Width:       int(binary.LittleEndian.Uint32(data[16:])),
		MipMapCount: int(binary.LittleEndian.Uint32(data[28:])),
	}

	// 11 reserved DWORDs precede the pixel format block (size, flags, fourCC).
	fourCC := binary.LittleEndian.Uint32(data[84:])
	dataStart := magicSize + headerSize

	switch fourCC {
	case fourCCDXT1:
		tex.Format = DXT1
	case fourCCDXT5:
		tex.Format = DXT5
	case fourCCATI2:
		tex.Format = BC5
	case fourCCDX10:
		if len(data) < magicSize+headerDX10Size {
			return nil, fmt.Errorf("%w: missing DX10 header", ErrTruncated)
		}
		dxgi := binary.LittleEndian.Uint32(data[dataStart:])
		if dxgi != dxgiBC7UNorm && dxgi != dxgiBC7UNormSRGB {
			return nil, fmt.Errorf("%w: DXGI format %d is not BC7", ErrUnsupportedFormat, dxgi)
		}
		tex.Format = BC7
		tex.SRGB = dxgi == dxgiBC7UNormSRGB
		dataStart = magicSize + headerDX10Size
	default:
		return nil, fmt.Errorf("%w: fourCC %#08x", ErrUnsupportedFormat, fourCC)
	}

	if tex.Width <= 0 || tex.Height <= 0 || tex.Width > MaxDimension || tex.Height > MaxDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidHeader, tex.Width, tex.Height)
	}

	if need := LevelSize(tex.Format, tex.Width, tex.Height); len(data)-dataStart < need {
		return nil, fmt.Errorf("%w: %d payload bytes, top level needs %d", ErrTruncated, len(data)-dataStart, need)
	}

	tex.Data = data[dataStart:]
	return tex, nil
}

// LevelSize returns the byte size of one compressed level of w x h pixels.
// Sizes beyond MaxDimension report math.MaxInt so no payload satisfies them.
func LevelSize(f Format, w, h int) int {
	if w > MaxDimension || h > MaxDimension {
		return math.MaxInt
	}
	bw := (w + 3) / 4
	bh := (h + 3) / 4
	if bw < 1 {
		bw = 1
	}
	if bh < 1 {
		bh = 1
	}
	return bw * bh * f.BlockSize()
}
