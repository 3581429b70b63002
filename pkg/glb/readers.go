package glb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a read would run past the end of the buffer.
var ErrOutOfRange = errors.New("read out of range")

func checkRange(data []byte, offset, lastByte int) error {
	if offset < 0 || lastByte > len(data) || lastByte < offset {
		return fmt.Errorf("%w: bytes [%d, %d) of %d", ErrOutOfRange, offset, lastByte, len(data))
	}
	return nil
}

// Uint16s reads n tightly packed u16 values starting at offset.
func Uint16s(data []byte, offset, n int) ([]uint16, error) {
	if err := checkRange(data, offset, offset+n*2); err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(data[offset+i*2:])
	}
	return out, nil
}

// Uint32s reads n tightly packed u32 values starting at offset.
func Uint32s(data []byte, offset, n int) ([]uint32, error) {
	if err := checkRange(data, offset, offset+n*4); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[offset+i*4:])
	}
	return out, nil
}

// Float32s reads n tightly packed f32 values starting at offset.
func Float32s(data []byte, offset, n int) ([]float32, error) {
	if err := checkRange(data, offset, offset+n*4); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset+i*4:]))
	}
	return out, nil
}

// stridedEnd returns the end of the last byte touched by n elements of
// elemSize bytes, advancing by stride.
func stridedEnd(offset, n, stride, elemSize int) int {
	if n == 0 {
		return offset
	}
	return offset + (n-1)*stride + elemSize
}

// StridedUint16s reads n u16 values, one every stride bytes.
func StridedUint16s(data []byte, offset, n, stride int) ([]uint16, error) {
	if err := checkRange(data, offset, stridedEnd(offset, n, stride, 2)); err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i, cursor := 0, offset; i < n; i, cursor = i+1, cursor+stride {
		out[i] = binary.LittleEndian.Uint16(data[cursor:])
	}
	return out, nil
}

// StridedUint32s reads n u32 values, one every stride bytes.
func StridedUint32s(data []byte, offset, n, stride int) ([]uint32, error) {
	if err := checkRange(data, offset, stridedEnd(offset, n, stride, 4)); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i, cursor := 0, offset; i < n; i, cursor = i+1, cursor+stride {
		out[i] = binary.LittleEndian.Uint32(data[cursor:])
	}
	return out, nil
}

// StridedFloat32s reads n elements of components floats each, the start of
// consecutive elements being stride bytes apart. The result is flat:
// len == n*components.
func StridedFloat32s(data []byte, offset, n, components, stride int) ([]float32, error) {
	elemSize := components * 4
	if err := checkRange(data, offset, stridedEnd(offset, n, stride, elemSize)); err != nil {
		return nil, err
	}
	out := make([]float32, n*components)
	for i, cursor := 0, offset; i < n; i, cursor = i+1, cursor+stride {
		for c := 0; c < components; c++ {
			out[i*components+c] = math.Float32frombits(binary.LittleEndian.Uint32(data[cursor+c*4:]))
		}
	}
	return out, nil
}
