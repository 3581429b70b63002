package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeQuadGLB saves a two-node quad scene with an independent glTF writer.
func writeQuadGLB(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	doc.Materials = []*gltf.Material{{
		Name:        "leaf",
		AlphaMode:   gltf.AlphaMask,
		AlphaCutoff: gltf.Float(0.3),
		DoubleSided: true,
	}}

	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})
	doc.Meshes = []*gltf.Mesh{{
		Name: "quad",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: pos, gltf.NORMAL: nrm, gltf.TEXCOORD_0: uv},
			Indices:    gltf.Index(idx),
			Material:   gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "holder", Children: []int{1}},
		{Name: "quad", Mesh: gltf.Index(0)},
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	path := filepath.Join(t.TempDir(), "quad.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestLoad_ExternallyWrittenGLB(t *testing.T) {
	path := writeQuadGLB(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	env := newTestEnv(t, func(o *Options) { o.TickBudget = 0 })
	env.mustLoad(t, data)
	l := env.loader

	assert.Zero(t, l.Stats().Defects)
	assert.Equal(t, 2, l.TriangleCount())
	assert.Equal(t, 0, l.SelectedScene())

	nodes := l.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "holder", nodes[0].Name())
	assert.Same(t, nodes[0], nodes[1].Parent())

	m, mats := nodes[1].Mesh()
	require.NotNil(t, m)
	assert.Equal(t, "quad", m.Name)
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, 2, m.UVs[0].Components)
	assert.False(t, m.Submeshes[0].RecomputeNormals)
	require.Len(t, mats, 1)
	assert.Equal(t, "leaf", mats[0].Name)
	assert.Equal(t, "cutout", mats[0].Mode.String())

	// The reference reader agrees on the document shape.
	ref, err := gltf.Open(path)
	require.NoError(t, err)
	assert.Len(t, l.Meshes(), len(ref.Meshes))
	assert.Len(t, l.Materials(), len(ref.Materials))
	assert.Len(t, l.Scenes(), len(ref.Scenes))
	indexCount := int(ref.Accessors[*ref.Meshes[0].Primitives[0].Indices].Count)
	assert.Equal(t, indexCount/3, l.TriangleCount())
}
