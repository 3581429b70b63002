// Package tga decodes true-color Truevision TGA images.
//
// Uncompressed (type 2) and RLE (type 10) images with 24 or 32 bits per
// pixel are supported. TGA has no magic number, so callers pick this
// decoder by MIME type rather than through image.Decode.
package tga

import (
	"errors"
	"fmt"
	"image"
)

// Image types.
const (
	TypeUncompressed = 2
	TypeRLE          = 10
)

// HeaderSize is the fixed TGA header length.
const HeaderSize = 18

var (
	ErrInvalid     = errors.New("invalid TGA data")
	ErrUnsupported = errors.New("unsupported TGA format")
)

// Header is the decoded fixed header.
type Header struct {
	IDLength     int
	ColorMapType byte
	ImageType    byte
	Width        int
	Height       int
	BitsPerPixel int
	// TopToBottom is bit 5 of the descriptor; rows are stored bottom-up
	// when it is clear.
	TopToBottom bool
}

// ParseHeader reads and validates the fixed header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalid, len(data))
	}
	h := Header{
		IDLength:     int(data[0]),
		ColorMapType: data[1],
		ImageType:    data[2],
		Width:        int(data[12]) | int(data[13])<<8,
		Height:       int(data[14]) | int(data[15])<<8,
		BitsPerPixel: int(data[16]),
		TopToBottom:  data[17]&0x20 != 0,
	}
	if h.ColorMapType != 0 {
		return h, fmt.Errorf("%w: color-mapped image", ErrUnsupported)
	}
	if h.ImageType != TypeUncompressed && h.ImageType != TypeRLE {
		return h, fmt.Errorf("%w: image type %d", ErrUnsupported, h.ImageType)
	}
	if h.BitsPerPixel != 24 && h.BitsPerPixel != 32 {
		return h, fmt.Errorf("%w: %d bits per pixel", ErrUnsupported, h.BitsPerPixel)
	}
	if h.Width == 0 || h.Height == 0 {
		return h, fmt.Errorf("%w: size %dx%d", ErrInvalid, h.Width, h.Height)
	}
	return h, nil
}

// Decode decodes a TGA image to RGBA with the first row at the top.
func Decode(data []byte) (*image.RGBA, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	offset := HeaderSize + h.IDLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: image ID overruns data", ErrInvalid)
	}

	d := &decoder{
		img: image.NewRGBA(image.Rect(0, 0, h.Width, h.Height)),
		h:   h,
		bpp: h.BitsPerPixel / 8,
		src: data[offset:],
	}
	if h.ImageType == TypeUncompressed {
		err = d.raw()
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type decoder struct {
	img *image.RGBA
	h   Header
	bpp int
	src []byte
	pos int
	// n is the number of pixels written so far.
	n int
}

// put writes the BGR(A) pixel at src[p:] as the next pixel.
func (d *decoder) put(p int) {
	x, y := d.n%d.h.Width, d.n/d.h.Width
	if !d.h.TopToBottom {
		y = d.h.Height - 1 - y
	}
	i := d.img.PixOffset(x, y)
	d.img.Pix[i] = d.src[p+2]
	d.img.Pix[i+1] = d.src[p+1]
	d.img.Pix[i+2] = d.src[p]
	d.img.Pix[i+3] = 255
	if d.bpp == 4 {
		d.img.Pix[i+3] = d.src[p+3]
	}
	d.n++
}

func (d *decoder) raw() error {
	total := d.h.Width * d.h.Height
	if len(d.src) < total*d.bpp {
		return fmt.Errorf("%w: pixel data truncated", ErrInvalid)
	}
	for d.n < total {
		d.put(d.n * d.bpp)
	}
	return nil
}

func (d *decoder) rle() error {
	total := d.h.Width * d.h.Height
	for d.n < total {
		if d.pos >= len(d.src) {
			return fmt.Errorf("%w: RLE data ends after %d of %d pixels", ErrInvalid, d.n, total)
		}
		packet := d.src[d.pos]
		d.pos++
		count := min(int(packet&0x7F)+1, total-d.n)

		if packet&0x80 != 0 {
			if d.pos+d.bpp > len(d.src) {
				return fmt.Errorf("%w: RLE packet truncated", ErrInvalid)
			}
			for i := 0; i < count; i++ {
				d.put(d.pos)
			}
			d.pos += d.bpp
			continue
		}

		if d.pos+count*d.bpp > len(d.src) {
			return fmt.Errorf("%w: raw packet truncated", ErrInvalid)
		}
		for i := 0; i < count; i++ {
			d.put(d.pos)
			d.pos += d.bpp
		}
	}
	return nil
}
