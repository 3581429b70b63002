package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/glbloader/pkg/math"
)

func triangle() MeshData {
	return MeshData{
		Name:      "tri",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2},
		Submeshes: []Submesh{{IndexCount: 3, VertexCount: 3}},
	}
}

func TestNewMesh_RecomputesMissingNormals(t *testing.T) {
	e := NewMemory()
	mesh, err := e.NewMesh(triangle())
	require.NoError(t, err)

	require.Len(t, mesh.Normals, 3)
	for _, n := range mesh.Normals {
		assert.InDelta(t, 1, n[2], 1e-6, "counter-clockwise triangle in XY faces +Z")
	}
	assert.True(t, mesh.Submeshes[0].RecomputeNormals)
	assert.Equal(t, [3]float32{1, 1, 0}, mesh.Bounds.Max)
	assert.Equal(t, 1, mesh.TriangleCount())
}

func TestNewMesh_RecomputesOnlyFlaggedSubmesh(t *testing.T) {
	data := MeshData{
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{0, 0, 5}, {0, 1, 5}, {1, 0, 5},
		},
		Normals: [][3]float32{
			{1, 0, 0}, {1, 0, 0}, {1, 0, 0},
			{}, {}, {},
		},
		Indices: []uint32{0, 1, 2, 3, 4, 5},
		Submeshes: []Submesh{
			{IndexStart: 0, IndexCount: 3, BaseVertex: 0, VertexCount: 3},
			{IndexStart: 3, IndexCount: 3, BaseVertex: 3, VertexCount: 3, RecomputeNormals: true},
		},
	}

	mesh, err := NewMemory().NewMesh(data)
	require.NoError(t, err)

	assert.Equal(t, [3]float32{1, 0, 0}, mesh.Normals[0], "supplied normals are kept")
	for _, n := range mesh.Normals[3:] {
		assert.InDelta(t, -1, n[2], 1e-6)
	}
}

func TestNewMesh_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MeshData)
	}{
		{"no vertices", func(d *MeshData) { d.Positions = nil }},
		{"index out of range", func(d *MeshData) { d.Indices = []uint32{0, 1, 3} }},
		{"normal count mismatch", func(d *MeshData) { d.Normals = [][3]float32{{0, 0, 1}} }},
		{"uv count mismatch", func(d *MeshData) { d.UVs[1] = UVChannel{Components: 2, Data: []float32{0, 0}} }},
		{"submesh out of range", func(d *MeshData) { d.Submeshes = []Submesh{{IndexStart: 1, IndexCount: 3}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := triangle()
			tt.mutate(&data)
			_, err := NewMemory().NewMesh(data)
			assert.ErrorIs(t, err, ErrInvalidMesh)
		})
	}
}

func TestIndexFormatFor(t *testing.T) {
	assert.Equal(t, IndexUInt16, IndexFormatFor(3))
	assert.Equal(t, IndexUInt16, IndexFormatFor(65534))
	assert.Equal(t, IndexUInt32, IndexFormatFor(65535))
}

func TestMemory_Hierarchy(t *testing.T) {
	e := NewMemory()
	a := e.SpawnNode(nil)
	b := e.SpawnNode(a)
	c := e.SpawnNode(b)
	assert.Equal(t, 3, e.NodeCount())
	assert.True(t, IsAncestor(a, c))

	// Reparenting a under its own descendant is ignored.
	a.SetParent(c)
	assert.Equal(t, e.Root(), a.Parent())

	c.SetParent(a)
	assert.Len(t, a.Children(), 2)
	assert.Empty(t, b.Children())

	e.DestroyNode(a)
	assert.Equal(t, 0, e.NodeCount())
	assert.Empty(t, e.Root().Children())
	assert.True(t, c.(*MemNode).Destroyed())
}

func TestMemory_DestroyRootKeepsRoot(t *testing.T) {
	e := NewMemory()
	e.SpawnNode(nil)
	e.SpawnNode(nil)
	e.DestroyNode(e.Root())
	assert.Equal(t, 0, e.NodeCount())
	assert.False(t, e.Root().(*MemNode).Destroyed())
}

func TestMemory_ReleaseKeepsLiveResources(t *testing.T) {
	e := NewMemory()
	live, err := e.NewMesh(triangle())
	require.NoError(t, err)
	stale, err := e.NewMesh(triangle())
	require.NoError(t, err)

	sampled, err := e.NewTexture(WhitePixel("sampled"), DefaultSampler)
	require.NoError(t, err)
	_, err = e.NewTexture(WhitePixel("orphan"), DefaultSampler)
	require.NoError(t, err)

	keep := e.NewMaterial("Standard")
	keep.SetTexture(PropMainTex, sampled)
	drop := e.NewMaterial("Standard")
	drop.SetTexture(PropMainTex, sampled)

	parent := e.SpawnNode(nil)
	e.SpawnNode(parent).SetMesh(live, []*Material{keep})
	gone := e.SpawnNode(nil)
	gone.SetMesh(stale, []*Material{drop})
	e.DestroyNode(gone)

	assert.Equal(t, 3, e.Release())
	assert.Equal(t, []*Mesh{live}, e.Meshes())
	assert.Equal(t, []*Material{keep}, e.Materials())
	assert.Equal(t, []*Texture{sampled}, e.Textures())

	e.DestroyNode(parent)
	assert.Equal(t, 3, e.Release())
	assert.Empty(t, e.Meshes())
	assert.Empty(t, e.Materials())
	assert.Empty(t, e.Textures())
}

func TestVisibleAndWorldMatrix(t *testing.T) {
	e := NewMemory()
	parent := e.SpawnNode(nil)
	child := e.SpawnNode(parent)
	parent.SetLocalTransform(math.Vec3{X: 1}, math.QuatIdentity(), math.Vec3{X: 2, Y: 2, Z: 2})
	child.SetLocalTransform(math.Vec3{Y: 1}, math.QuatIdentity(), math.Vec3One)

	p := WorldMatrix(child).TransformPoint([3]float32{0, 0, 0})
	assert.InDelta(t, 1, p[0], 1e-6)
	assert.InDelta(t, 2, p[1], 1e-6)

	assert.True(t, Visible(child))
	parent.SetActive(false)
	assert.False(t, Visible(child))
	assert.True(t, child.Active())
}

func TestMaterial_States(t *testing.T) {
	m := NewMemory().NewMaterial("Standard")
	assert.Equal(t, RenderOpaque, m.Mode)
	assert.Equal(t, QueueGeometry, m.RenderQueue)

	m.SetCutout(0.3)
	assert.Equal(t, "cutout", m.Mode.String())
	cutoff, ok := m.Float(PropCutoff)
	assert.True(t, ok)
	assert.Equal(t, float32(0.3), cutoff)
	assert.True(t, m.IsKeywordEnabled(KeywordAlphaTest))
	assert.Equal(t, QueueAlphaTest, m.RenderQueue)

	m.SetFade()
	assert.Equal(t, "blend", m.Mode.String())
	assert.False(t, m.IsKeywordEnabled(KeywordAlphaTest))
	assert.Equal(t, []string{KeywordAlphaBlend}, m.Keywords())
	assert.Equal(t, "Transparent", m.OverrideTag("RenderType"))
}

func TestNewTexture_Validation(t *testing.T) {
	e := NewMemory()

	_, err := e.NewTexture(WhitePixel("white"), DefaultSampler)
	require.NoError(t, err)

	tests := []struct {
		name string
		data TextureData
	}{
		{"zero size", TextureData{Width: 0, Height: 4, Pixels: make([]byte, 64)}},
		{"oversized rgba", TextureData{Width: 1 << 32, Height: 1 << 32, Format: FormatRGBA32, Pixels: make([]byte, 4)}},
		{"oversized dxt1", TextureData{Width: MaxTextureSide + 1, Height: 4, Format: FormatDXT1, Pixels: make([]byte, 64)}},
		{"short rgba", TextureData{Width: 2, Height: 2, Format: FormatRGBA32, Pixels: make([]byte, 15)}},
		{"short bc7", TextureData{Width: 4, Height: 4, Format: FormatBC7, Pixels: make([]byte, 15)}},
		{"unknown format", TextureData{Width: 1, Height: 1, Format: TextureFormat(42), Pixels: make([]byte, 64)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.NewTexture(tt.data, DefaultSampler)
			assert.ErrorIs(t, err, ErrInvalidTexture)
		})
	}

	tex, err := e.NewTexture(TextureData{Width: 4, Height: 4, Format: FormatDXT1, Pixels: make([]byte, 8)}, Sampler{Filter: FilterPoint})
	require.NoError(t, err)
	assert.Equal(t, FilterPoint, tex.Sampler.Filter)
	assert.Len(t, e.Textures(), 2)
}
