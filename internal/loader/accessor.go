package loader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/pkg/glb"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
	"github.com/Faultbox/glbloader/pkg/math"
)

// ComponentType is the glTF numeric component encoding.
type ComponentType int

const (
	ComponentByte          ComponentType = 5120
	ComponentUnsignedByte  ComponentType = 5121
	ComponentShort         ComponentType = 5122
	ComponentUnsignedShort ComponentType = 5123
	ComponentUnsignedInt   ComponentType = 5125
	ComponentFloat         ComponentType = 5126
)

// Size returns the byte size of one component, or 0 if unknown.
func (c ComponentType) Size() int {
	switch c {
	case ComponentByte, ComponentUnsignedByte:
		return 1
	case ComponentShort, ComponentUnsignedShort:
		return 2
	case ComponentUnsignedInt, ComponentFloat:
		return 4
	}
	return 0
}

// String returns the component type name.
func (c ComponentType) String() string {
	switch c {
	case ComponentByte:
		return "i8"
	case ComponentUnsignedByte:
		return "u8"
	case ComponentShort:
		return "i16"
	case ComponentUnsignedShort:
		return "u16"
	case ComponentUnsignedInt:
		return "u32"
	case ComponentFloat:
		return "f32"
	}
	return fmt.Sprintf("ComponentType(%d)", int(c))
}

// ElementType is the shape of one accessor element.
type ElementType int

const (
	ElementUnknown ElementType = iota
	ElementScalar
	ElementVec2
	ElementVec3
	ElementVec4
	ElementMat4
)

var elementTypes = map[string]ElementType{
	"SCALAR": ElementScalar,
	"VEC2":   ElementVec2,
	"VEC3":   ElementVec3,
	"VEC4":   ElementVec4,
	"MAT4":   ElementMat4,
}

// ParseElementType maps a glTF type string. Unsupported types (including
// MAT2 and MAT3) map to ElementUnknown.
func ParseElementType(s string) ElementType {
	return elementTypes[s]
}

// Components returns the number of components per element.
func (e ElementType) Components() int {
	switch e {
	case ElementScalar:
		return 1
	case ElementVec2:
		return 2
	case ElementVec3:
		return 3
	case ElementVec4:
		return 4
	case ElementMat4:
		return 16
	}
	return 0
}

// String returns the glTF type string.
func (e ElementType) String() string {
	for name, t := range elementTypes {
		if t == e {
			return name
		}
	}
	return "UNKNOWN"
}

// TypedArray is the decoded payload of an accessor. Exactly one of Floats,
// Uint16s and Uint32s is set, holding Count*Type.Components() values.
type TypedArray struct {
	Type          ElementType
	ComponentType ComponentType
	Count         int
	Floats        []float32
	Uint16s       []uint16
	Uint32s       []uint32
}

// Is reports whether the array holds elements of type t encoded as c.
func (a *TypedArray) Is(t ElementType, c ComponentType) bool {
	return a.Type == t && a.ComponentType == c
}

// IsIndexList reports whether the array can serve as triangle indices.
func (a *TypedArray) IsIndexList() bool {
	return a.Type == ElementScalar &&
		(a.ComponentType == ComponentUnsignedShort || a.ComponentType == ComponentUnsignedInt)
}

// Vec3s returns a float VEC3 array as triples, or nil.
func (a *TypedArray) Vec3s() [][3]float32 {
	if !a.Is(ElementVec3, ComponentFloat) {
		return nil
	}
	out := make([][3]float32, a.Count)
	for i := range out {
		out[i] = [3]float32{a.Floats[i*3], a.Floats[i*3+1], a.Floats[i*3+2]}
	}
	return out
}

// Indices returns an index list widened to 32 bits, or nil.
func (a *TypedArray) Indices() []uint32 {
	switch {
	case !a.IsIndexList():
		return nil
	case a.ComponentType == ComponentUnsignedInt:
		return append([]uint32(nil), a.Uint32s...)
	default:
		out := make([]uint32, len(a.Uint16s))
		for i, v := range a.Uint16s {
			out[i] = uint32(v)
		}
		return out
	}
}

// InvertTriangles reverses the winding of every complete triangle in place
// by swapping its second and third index. Trailing indices are untouched.
func InvertTriangles[T uint16 | uint32](indices []T) {
	for i := 0; i+2 < len(indices); i += 3 {
		indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
	}
}

// ResolveOptions are post-processing steps applied when an accessor is
// first decoded.
type ResolveOptions struct {
	// Rescale multiplies every float VEC3 element component-wise.
	Rescale *math.Vec3
	// InvertWinding reverses triangle winding of a scalar index list.
	InvertWinding bool
	// AlignTo3 truncates the element count to a multiple of 3.
	AlignTo3 bool
}

// Accessor is the metadata of a typed view over a buffer view. Its payload
// is decoded on first use and shared by every later consumer.
type Accessor struct {
	Name          string
	BufferView    int
	ByteOffset    int
	Count         int
	ComponentType ComponentType
	Type          ElementType

	resolved bool
	data     *TypedArray
	err      error
}

// Accessors returns the parsed accessors. Defective entries are nil.
func (l *Loader) Accessors() []*Accessor { return l.accessors }

func (l *Loader) parseAccessors(cursor int) (int, error) {
	list, err := l.section("accessors")
	if err != nil {
		return 0, err
	}
	if cursor == 0 {
		l.accessors = make([]*Accessor, list.Len())
	}
	return l.forEach(cursor, list.Len(), func(i int) {
		def := list.Index(i)
		if !def.HasFields(
			gltfdoc.FieldSpec{Key: "componentType", Kind: gltfdoc.Number},
			gltfdoc.FieldSpec{Key: "count", Kind: gltfdoc.Number},
			gltfdoc.FieldSpec{Key: "type", Kind: gltfdoc.String},
		) {
			l.defect("accessor", i, fmt.Errorf("%w: accessor needs componentType, count and type", ErrDefectiveSubResource))
			return
		}
		l.accessors[i] = &Accessor{
			Name:          def.OptString("name", ""),
			BufferView:    def.OptInt("bufferView", -1),
			ByteOffset:    def.OptInt("byteOffset", 0),
			Count:         def.OptInt("count", 0),
			ComponentType: ComponentType(def.OptInt("componentType", 0)),
			Type:          ParseElementType(def.OptString("type", "")),
		}
	}), nil
}

// ResolveAccessor decodes accessor index, applying opts on first use. Later
// calls return the same array whatever their options.
func (l *Loader) ResolveAccessor(index int, opts ResolveOptions) (*TypedArray, error) {
	if index < 0 || index >= len(l.accessors) || l.accessors[index] == nil {
		return nil, fmt.Errorf("%w: accessor %d", ErrUnresolvableReference, index)
	}
	acc := l.accessors[index]
	if !acc.resolved {
		acc.data, acc.err = l.decodeAccessor(index, acc, opts)
		acc.resolved = true
	}
	return acc.data, acc.err
}

func (l *Loader) decodeAccessor(index int, acc *Accessor, opts ResolveOptions) (*TypedArray, error) {
	if acc.BufferView < 0 || acc.BufferView >= len(l.bufferViews) || l.bufferViews[acc.BufferView] == nil {
		return nil, fmt.Errorf("%w: accessor %d buffer view %d", ErrUnresolvableReference, index, acc.BufferView)
	}
	view := l.bufferViews[acc.BufferView]

	comps := acc.Type.Components()
	if comps == 0 {
		return nil, fmt.Errorf("%w: accessor %d element type", ErrUnsupportedEncoding, index)
	}
	switch acc.ComponentType {
	case ComponentFloat, ComponentUnsignedShort, ComponentUnsignedInt:
	default:
		return nil, fmt.Errorf("%w %s on accessor %d", ErrUnsupportedComponentType, acc.ComponentType, index)
	}
	if acc.Count < 0 || acc.ByteOffset < 0 {
		return nil, fmt.Errorf("%w: accessor %d has negative count or offset", ErrDefectiveSubResource, index)
	}

	count := acc.Count
	if opts.AlignTo3 && count%3 != 0 {
		l.log.Warn("index count is not a multiple of 3",
			zap.Int("accessor", index),
			zap.Int("count", count),
			zap.Int("dropped", count%3))
		count -= count % 3
	}

	elemSize := comps * acc.ComponentType.Size()
	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if stride < elemSize {
		return nil, fmt.Errorf("%w: accessor %d stride %d below element size %d", ErrDefectiveSubResource, index, stride, elemSize)
	}

	n := min(count*elemSize, view.ByteLength) / elemSize
	avail := view.ByteLength - acc.ByteOffset
	maxN := 0
	if avail >= elemSize {
		maxN = (avail-elemSize)/stride + 1
	}
	n = min(n, maxN)
	if n < count {
		l.log.Warn("accessor truncated to its buffer view",
			zap.Int("accessor", index),
			zap.Int("count", count),
			zap.Int("read", n))
	}

	bin := l.binary()
	base := view.ByteOffset + acc.ByteOffset
	packed := stride == elemSize
	arr := &TypedArray{Type: acc.Type, ComponentType: acc.ComponentType, Count: n}

	var err error
	switch acc.ComponentType {
	case ComponentFloat:
		if packed {
			arr.Floats, err = glb.Float32s(bin, base, n*comps)
		} else {
			arr.Floats, err = glb.StridedFloat32s(bin, base, n, comps, stride)
		}
	case ComponentUnsignedShort:
		if !packed && comps == 1 {
			arr.Uint16s, err = glb.StridedUint16s(bin, base, n, stride)
		} else {
			arr.Uint16s, err = readElements(glb.Uint16s, bin, base, n, comps, stride, packed)
		}
	case ComponentUnsignedInt:
		if !packed && comps == 1 {
			arr.Uint32s, err = glb.StridedUint32s(bin, base, n, stride)
		} else {
			arr.Uint32s, err = readElements(glb.Uint32s, bin, base, n, comps, stride, packed)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: accessor %d: %v", ErrUnresolvableReference, index, err)
	}

	if opts.Rescale != nil && arr.Is(ElementVec3, ComponentFloat) {
		s := *opts.Rescale
		for i := 0; i+2 < len(arr.Floats); i += 3 {
			arr.Floats[i] *= s.X
			arr.Floats[i+1] *= s.Y
			arr.Floats[i+2] *= s.Z
		}
	}
	if opts.InvertWinding && comps == 1 {
		InvertTriangles(arr.Uint16s)
		InvertTriangles(arr.Uint32s)
	}
	return arr, nil
}

// readElements reads n elements of comps integer components each.
func readElements[T uint16 | uint32](read func([]byte, int, int) ([]T, error), data []byte, base, n, comps, stride int, packed bool) ([]T, error) {
	if packed {
		return read(data, base, n*comps)
	}
	out := make([]T, 0, n*comps)
	for i := 0; i < n; i++ {
		el, err := read(data, base+i*stride, comps)
		if err != nil {
			return nil, err
		}
		out = append(out, el...)
	}
	return out, nil
}
