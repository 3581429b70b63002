package host

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/glbloader/pkg/math"
)

// MaxUVChannels is the number of texture coordinate sets a mesh can carry.
const MaxUVChannels = 8

// MaxUInt16Vertices is the vertex count from which 32-bit indices are needed.
const MaxUInt16Vertices = 65535

// IndexFormat is the width of the index buffer uploaded to the GPU.
type IndexFormat int

const (
	IndexUInt16 IndexFormat = iota
	IndexUInt32
)

// String returns the format name.
func (f IndexFormat) String() string {
	if f == IndexUInt32 {
		return "UInt32"
	}
	return "UInt16"
}

// IndexFormatFor returns the narrowest index format that can address
// vertexCount vertices.
func IndexFormatFor(vertexCount int) IndexFormat {
	if vertexCount < MaxUInt16Vertices {
		return IndexUInt16
	}
	return IndexUInt32
}

// UVChannel is one texture coordinate set. Components is 2, 3 or 4; zero
// marks an absent channel. Data is flat: len == vertexCount*Components.
type UVChannel struct {
	Components int
	Data       []float32
}

// Submesh is one draw range of a combined mesh.
type Submesh struct {
	IndexStart  int
	IndexCount  int
	BaseVertex  int
	VertexCount int
	// RecomputeNormals asks the host to derive normals for this range.
	RecomputeNormals bool
}

// MeshData is the vertex and index payload handed to Engine.NewMesh.
// Indices are absolute (already offset by each submesh's BaseVertex).
type MeshData struct {
	Name        string
	Positions   [][3]float32
	Normals     [][3]float32
	UVs         [MaxUVChannels]UVChannel
	Indices     []uint32
	IndexFormat IndexFormat
	Submeshes   []Submesh
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the middle of the box.
func (b Bounds) Center() math.Vec3 {
	return math.Vec3{
		X: (b.Min[0] + b.Max[0]) / 2,
		Y: (b.Min[1] + b.Max[1]) / 2,
		Z: (b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the extent of the box on each axis.
func (b Bounds) Size() math.Vec3 {
	return math.Vec3{X: b.Max[0] - b.Min[0], Y: b.Max[1] - b.Min[1], Z: b.Max[2] - b.Min[2]}
}

// Mesh is a host mesh resource.
type Mesh struct {
	MeshData
	ID     int
	Bounds Bounds
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Positions) }

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Indices16 returns the index buffer narrowed to 16 bits. It returns nil
// when the mesh uses 32-bit indices.
func (m *Mesh) Indices16() []uint16 {
	if m.IndexFormat != IndexUInt16 {
		return nil
	}
	out := make([]uint16, len(m.Indices))
	for i, idx := range m.Indices {
		out[i] = uint16(idx)
	}
	return out
}

// SubmeshIndices returns the index range of submesh i.
func (m *Mesh) SubmeshIndices(i int) []uint32 {
	s := m.Submeshes[i]
	return m.Indices[s.IndexStart : s.IndexStart+s.IndexCount]
}

// buildMesh validates data and fills in derived vertex data.
func buildMesh(data MeshData) (*Mesh, error) {
	nVerts := len(data.Positions)
	if nVerts == 0 {
		return nil, fmt.Errorf("%w: %q has no vertices", ErrInvalidMesh, data.Name)
	}
	if data.Normals != nil && len(data.Normals) != nVerts {
		return nil, fmt.Errorf("%w: %q has %d normals for %d vertices", ErrInvalidMesh, data.Name, len(data.Normals), nVerts)
	}
	for c, uv := range data.UVs {
		if uv.Components == 0 {
			continue
		}
		if uv.Components < 2 || uv.Components > 4 || len(uv.Data) != nVerts*uv.Components {
			return nil, fmt.Errorf("%w: %q UV channel %d has %d values of arity %d", ErrInvalidMesh, data.Name, c, len(uv.Data), uv.Components)
		}
	}
	for i, idx := range data.Indices {
		if int(idx) >= nVerts {
			return nil, fmt.Errorf("%w: %q index %d references vertex %d of %d", ErrInvalidMesh, data.Name, i, idx, nVerts)
		}
	}
	if data.IndexFormat == IndexUInt16 && nVerts > MaxUInt16Vertices {
		return nil, fmt.Errorf("%w: %q has %d vertices for 16-bit indices", ErrInvalidMesh, data.Name, nVerts)
	}
	for i, s := range data.Submeshes {
		if s.IndexStart < 0 || s.IndexCount < 0 || s.IndexStart+s.IndexCount > len(data.Indices) {
			return nil, fmt.Errorf("%w: %q submesh %d index range out of bounds", ErrInvalidMesh, data.Name, i)
		}
		if s.BaseVertex < 0 || s.BaseVertex+s.VertexCount > nVerts {
			return nil, fmt.Errorf("%w: %q submesh %d vertex range out of bounds", ErrInvalidMesh, data.Name, i)
		}
	}

	mesh := &Mesh{MeshData: data}
	mesh.Submeshes = append([]Submesh(nil), data.Submeshes...)
	if len(mesh.Submeshes) == 0 {
		mesh.Submeshes = []Submesh{{IndexCount: len(data.Indices), VertexCount: nVerts}}
	}
	if mesh.Normals == nil {
		mesh.Normals = make([][3]float32, nVerts)
		for i := range mesh.Submeshes {
			mesh.Submeshes[i].RecomputeNormals = true
		}
	}
	for i, s := range mesh.Submeshes {
		if s.RecomputeNormals {
			RecomputeNormals(mesh.Positions, mesh.Normals, mesh.SubmeshIndices(i), s.BaseVertex, s.VertexCount)
		}
	}
	mesh.Bounds = ComputeBounds(mesh.Positions)
	return mesh, nil
}

// RecomputeNormals writes area-weighted vertex normals for the vertex range
// [base, base+count) from the triangles in indices. Vertices sharing a
// position inside the range get the same averaged normal.
func RecomputeNormals(positions, normals [][3]float32, indices []uint32, base, count int) {
	for v := base; v < base+count; v++ {
		normals[v] = [3]float32{}
	}

	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		v0, v1, v2 := positions[i0], positions[i1], positions[i2]
		e1 := [3]float32{v1[0] - v0[0], v1[1] - v0[1], v1[2] - v0[2]}
		e2 := [3]float32{v2[0] - v0[0], v2[1] - v0[1], v2[2] - v0[2]}
		n := cross(e1, e2)

		// Degenerate triangle
		if n[0]*n[0]+n[1]*n[1]+n[2]*n[2] < 1e-12 {
			continue
		}
		for _, idx := range [3]uint32{i0, i1, i2} {
			normals[idx][0] += n[0]
			normals[idx][1] += n[1]
			normals[idx][2] += n[2]
		}
	}

	smoothNormals(positions, normals, base, count)

	for v := base; v < base+count; v++ {
		normals[v] = normalize(normals[v])
	}
}

// smoothNormals sums normals at shared vertex positions.
func smoothNormals(positions, normals [][3]float32, base, count int) {
	const epsilon float32 = 0.0001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i := base; i < base+count; i++ {
		key := [3]int32{
			int32(positions[i][0] / epsilon),
			int32(positions[i][1] / epsilon),
			int32(positions[i][2] / epsilon),
		}
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		if len(idxs) < 2 {
			continue
		}

		var sum [3]float32
		for _, idx := range idxs {
			sum[0] += normals[idx][0]
			sum[1] += normals[idx][1]
			sum[2] += normals[idx][2]
		}
		for _, idx := range idxs {
			normals[idx] = sum
		}
	}
}

// ComputeBounds returns the bounding box of positions.
func ComputeBounds(positions [][3]float32) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}
	b := Bounds{
		Min: [3]float32{1e30, 1e30, 1e30},
		Max: [3]float32{-1e30, -1e30, -1e30},
	}
	for _, p := range positions {
		updateBounds(&b, p)
	}
	return b
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// normalize returns a unit vector, or +Y for a zero vector.
func normalize(v [3]float32) [3]float32 {
	l := float32(gomath.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l < 1e-12 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
