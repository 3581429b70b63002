package loader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
	"github.com/Faultbox/glbloader/pkg/math"
)

// primitiveTriangles is the only primitive mode meshes are built from.
const primitiveTriangles = 4

// uvAttribute is a texture coordinate attribute name pattern and arity.
type uvAttribute struct {
	format     string
	components int
}

// Checked in order; the first present attribute fills the channel.
var uvAttributes = []uvAttribute{
	{"TEXCOORD_%d", 2},
	{"_TEXCOORD3D_%d", 3},
	{"_TEXCOORD4D_%d", 4},
}

// meshEntry is a built mesh with the material index of each submesh.
type meshEntry struct {
	mesh      *host.Mesh
	materials []int
}

// primitive is the decoded vertex data of one glTF primitive.
type primitive struct {
	positions [][3]float32
	normals   [][3]float32
	uvs       [host.MaxUVChannels]host.UVChannel
	indices   []uint32
	material  int
}

func (l *Loader) parseMeshes(cursor int) (int, error) {
	list, err := l.section("meshes")
	if err != nil {
		return 0, err
	}
	if cursor == 0 {
		l.meshes = make([]*meshEntry, list.Len())
	}
	return l.forEach(cursor, list.Len(), func(i int) {
		entry, err := l.buildMesh(i, list.Index(i))
		if err != nil {
			l.defect("mesh", i, err)
			return
		}
		l.meshes[i] = entry
		l.stats.Meshes++
		l.stats.Triangles += entry.mesh.TriangleCount()
	}), nil
}

// buildMesh combines the usable primitives of a mesh into one host mesh
// with a submesh per primitive.
func (l *Loader) buildMesh(index int, def gltfdoc.Value) (*meshEntry, error) {
	prims, ok := def.OptArray("primitives")
	if !ok {
		return nil, fmt.Errorf("%w: mesh has no primitives", ErrDefectiveSubResource)
	}
	var parts []primitive
	for p, pdef := range prims.Items() {
		part, err := l.readPrimitive(pdef)
		if err != nil {
			l.defect(fmt.Sprintf("mesh %d primitive", index), p, err)
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no usable primitive", ErrDefectiveSubResource)
	}

	name := def.OptString("name", fmt.Sprintf("mesh_%d", index))
	mesh, err := l.engine.NewMesh(l.combine(name, parts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDefectiveSubResource, err)
	}
	entry := &meshEntry{mesh: mesh, materials: make([]int, len(parts))}
	for i, part := range parts {
		entry.materials[i] = part.material
	}
	return entry, nil
}

func (l *Loader) readPrimitive(def gltfdoc.Value) (primitive, error) {
	if !def.HasFields(
		gltfdoc.FieldSpec{Key: "attributes", Kind: gltfdoc.Object},
		gltfdoc.FieldSpec{Key: "indices", Kind: gltfdoc.Number},
	) {
		return primitive{}, fmt.Errorf("%w: primitive needs attributes and indices", ErrDefectiveSubResource)
	}
	if mode := def.OptInt("mode", primitiveTriangles); mode != primitiveTriangles {
		return primitive{}, fmt.Errorf("%w: primitive mode %d", ErrUnsupportedEncoding, mode)
	}
	attrs := def.Field("attributes")
	posIdx, ok := attrs.Lookup("POSITION", gltfdoc.Number)
	if !ok {
		return primitive{}, fmt.Errorf("%w: primitive has no POSITION", ErrDefectiveSubResource)
	}

	rescale := math.MirrorScale(l.opts.FlipAxis)
	pos, err := l.ResolveAccessor(posIdx.Int(), ResolveOptions{Rescale: &rescale})
	if err != nil {
		return primitive{}, fmt.Errorf("POSITION: %w", err)
	}
	part := primitive{positions: pos.Vec3s(), material: def.OptInt("material", -1)}
	if part.positions == nil {
		return primitive{}, fmt.Errorf("%w: POSITION is %s %s, want f32 VEC3", ErrUnsupportedEncoding, pos.ComponentType, pos.Type)
	}
	if len(part.positions) == 0 {
		return primitive{}, fmt.Errorf("%w: primitive has no vertices", ErrDefectiveSubResource)
	}

	idx, err := l.ResolveAccessor(def.OptInt("indices", -1), ResolveOptions{InvertWinding: true, AlignTo3: true})
	if err != nil {
		return primitive{}, fmt.Errorf("indices: %w", err)
	}
	if !idx.IsIndexList() {
		return primitive{}, fmt.Errorf("%w: indices are %s %s", ErrUnsupportedEncoding, idx.ComponentType, idx.Type)
	}
	part.indices = idx.Indices()
	for _, v := range part.indices {
		if int(v) >= len(part.positions) {
			return primitive{}, fmt.Errorf("%w: index %d out of range for %d vertices", ErrDefectiveSubResource, v, len(part.positions))
		}
	}

	if n, ok := attrs.Lookup("NORMAL", gltfdoc.Number); ok {
		part.normals = l.readNormals(n.Int(), len(part.positions), &rescale)
	}
	for c := 0; c < host.MaxUVChannels; c++ {
		part.uvs[c] = l.readUVChannel(attrs, c, len(part.positions))
	}
	return part, nil
}

// readNormals returns the normals of a primitive, or nil when the accessor
// cannot serve as normals for nVerts vertices.
func (l *Loader) readNormals(index, nVerts int, rescale *math.Vec3) [][3]float32 {
	arr, err := l.ResolveAccessor(index, ResolveOptions{Rescale: rescale})
	if err != nil {
		l.log.Warn("ignoring unreadable normals", zap.Int("accessor", index), zap.Error(err))
		return nil
	}
	normals := arr.Vec3s()
	if len(normals) != nVerts {
		l.log.Warn("ignoring normals that do not match positions",
			zap.Int("accessor", index),
			zap.Int("normals", len(normals)),
			zap.Int("vertices", nVerts))
		return nil
	}
	return normals
}

// readUVChannel returns texture coordinate channel c, or an absent channel.
func (l *Loader) readUVChannel(attrs gltfdoc.Value, c, nVerts int) host.UVChannel {
	for _, uv := range uvAttributes {
		name := fmt.Sprintf(uv.format, c)
		a, ok := attrs.Lookup(name, gltfdoc.Number)
		if !ok {
			continue
		}
		arr, err := l.ResolveAccessor(a.Int(), ResolveOptions{})
		if err != nil {
			l.log.Warn("ignoring unreadable texture coordinates", zap.String("attribute", name), zap.Error(err))
			continue
		}
		if arr.ComponentType != ComponentFloat || arr.Type.Components() != uv.components || arr.Count != nVerts {
			l.log.Warn("ignoring mismatched texture coordinates",
				zap.String("attribute", name),
				zap.Stringer("type", arr.Type),
				zap.Stringer("componentType", arr.ComponentType),
				zap.Int("count", arr.Count))
			continue
		}
		return host.UVChannel{Components: uv.components, Data: arr.Floats}
	}
	return host.UVChannel{}
}

// combine concatenates primitives. Indices are offset to absolute vertex
// numbers; UV channels take the widest arity seen and are zero-filled for
// primitives that lack them.
func (l *Loader) combine(name string, parts []primitive) host.MeshData {
	total := 0
	for _, p := range parts {
		total += len(p.positions)
	}

	data := host.MeshData{
		Name:        name,
		Positions:   make([][3]float32, 0, total),
		Normals:     make([][3]float32, total),
		IndexFormat: host.IndexFormatFor(total),
	}
	for c := range data.UVs {
		comps := 0
		for _, p := range parts {
			comps = max(comps, p.uvs[c].Components)
		}
		if comps > 0 {
			data.UVs[c] = host.UVChannel{Components: comps, Data: make([]float32, total*comps)}
		}
	}

	base := 0
	for _, p := range parts {
		n := len(p.positions)
		data.Positions = append(data.Positions, p.positions...)
		copy(data.Normals[base:], p.normals)
		for c, uv := range p.uvs {
			dst := data.UVs[c]
			for v := 0; v < n && uv.Components > 0; v++ {
				copy(dst.Data[(base+v)*dst.Components:], uv.Data[v*uv.Components:(v+1)*uv.Components])
			}
		}

		sub := host.Submesh{
			IndexStart:       len(data.Indices),
			IndexCount:       len(p.indices),
			BaseVertex:       base,
			VertexCount:      n,
			RecomputeNormals: p.normals == nil && l.opts.RecomputeMissingNormals,
		}
		for _, idx := range p.indices {
			data.Indices = append(data.Indices, idx+uint32(base))
		}
		data.Submeshes = append(data.Submeshes, sub)
		base += n
	}
	return data
}
