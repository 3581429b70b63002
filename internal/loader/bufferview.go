package loader

import (
	"fmt"

	"github.com/Faultbox/glbloader/pkg/gltfdoc"
)

// BufferView is a byte range of the GLB binary chunk.
type BufferView struct {
	ByteOffset int
	ByteLength int
	// ByteStride is the distance between vertex elements; 0 means packed.
	ByteStride int
}

// Bytes returns the view's slice of bin.
func (v *BufferView) Bytes(bin []byte) []byte {
	return bin[v.ByteOffset : v.ByteOffset+v.ByteLength]
}

// BufferViews returns the parsed views. Defective entries are nil.
func (l *Loader) BufferViews() []*BufferView { return l.bufferViews }

func (l *Loader) parseBufferViews(cursor int) (int, error) {
	list, err := l.section("bufferViews")
	if err != nil {
		return 0, err
	}
	if cursor == 0 {
		l.bufferViews = make([]*BufferView, list.Len())
	}
	binLen := l.container.BinaryLength

	return l.forEach(cursor, list.Len(), func(i int) {
		v, err := parseBufferView(list.Index(i), binLen)
		if err != nil {
			l.defect("bufferView", i, err)
			return
		}
		l.bufferViews[i] = v
	}), nil
}

func parseBufferView(def gltfdoc.Value, binLen int) (*BufferView, error) {
	if !def.HasFields(gltfdoc.FieldSpec{Key: "byteLength", Kind: gltfdoc.Number}) {
		return nil, fmt.Errorf("%w: buffer view without byteLength", ErrDefectiveSubResource)
	}
	// Only the embedded binary chunk (buffer 0) is addressable.
	if buffer := def.OptInt("buffer", 0); buffer != 0 {
		return nil, fmt.Errorf("%w: external buffer %d", ErrUnresolvableReference, buffer)
	}
	v := &BufferView{
		ByteOffset: def.OptInt("byteOffset", 0),
		ByteLength: def.OptInt("byteLength", 0),
		ByteStride: def.OptInt("byteStride", 0),
	}
	if v.ByteOffset < 0 || v.ByteLength < 0 || v.ByteStride < 0 {
		return nil, fmt.Errorf("%w: negative offset, length or stride", ErrDefectiveSubResource)
	}
	if v.ByteOffset+v.ByteLength > binLen {
		return nil, fmt.Errorf("%w: bytes [%d, %d) exceed binary chunk of %d bytes",
			ErrUnresolvableReference, v.ByteOffset, v.ByteOffset+v.ByteLength, binLen)
	}
	return v, nil
}
