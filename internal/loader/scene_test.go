package loader

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/math"
)

// twoScenes has top-level nodes 0, 1 and 3; node 2 is a child of 3.
// Scene 0 shows node 0, scene 1 shows nodes 1 and 3.
func twoScenes(t *testing.T, defaultScene any) []byte {
	b := newDoc()
	b.node(map[string]any{"name": "solo"})
	b.node(map[string]any{"name": "left"})
	b.node(map[string]any{"name": "leaf"})
	b.node(map[string]any{"name": "group", "children": []int{2}})
	b.add("scenes", map[string]any{"name": "first", "nodes": []int{0}})
	b.add("scenes", map[string]any{"name": "second", "nodes": []int{1, 3}})
	if defaultScene != nil {
		b.set("scene", defaultScene)
	}
	return b.glb(t)
}

func activeNames(l *Loader) []string {
	var names []string
	for _, n := range l.Nodes() {
		if host.Visible(n) {
			names = append(names, n.Name())
		}
	}
	return names
}

func TestScene_DefaultSceneShowsOnlyItsRoots(t *testing.T) {
	env := newTestEnv(t)
	env.mustLoad(t, twoScenes(t, 1))
	l := env.loader

	assert.Equal(t, []Scene{
		{Name: "first", Roots: []int{0}},
		{Name: "second", Roots: []int{1, 3}},
	}, l.Scenes())
	assert.Equal(t, 1, l.SelectedScene())
	assert.Equal(t, []string{"left", "leaf", "group"}, activeNames(l))
	assert.Equal(t, 2, l.Stats().Scenes)

	require.NoError(t, l.SelectScene(0))
	assert.Equal(t, 0, l.SelectedScene())
	assert.Equal(t, []string{"solo"}, activeNames(l))
	assert.True(t, l.Nodes()[2].Active(), "children keep their own flag")

	require.NoError(t, l.SelectScene(-1))
	assert.Equal(t, -1, l.SelectedScene())
	assert.Equal(t, []string{"solo", "left", "leaf", "group"}, activeNames(l))

	assert.ErrorIs(t, l.SelectScene(2), ErrUnresolvableReference)
	assert.ErrorIs(t, l.SelectScene(-2), ErrUnresolvableReference)
	assert.Equal(t, -1, l.SelectedScene())
}

func TestScene_DefaultSceneFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		scene   any
		defects int
	}{
		{"no default scene", nil, 0},
		{"out of range", 7, 1},
		{"negative", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.mustLoad(t, twoScenes(t, tt.scene))
			assert.Equal(t, -1, env.loader.SelectedScene())
			assert.Len(t, activeNames(env.loader), 4)
			assert.Equal(t, tt.defects, env.loader.Stats().Defects)
		})
	}
}

func TestScene_DanglingRootsDropped(t *testing.T) {
	b := newDoc()
	b.node(nil)
	b.add("scenes", map[string]any{"nodes": []any{0, 5, "x"}})
	b.set("scene", 0)

	env := newTestEnv(t)
	env.mustLoad(t, b.glb(t))
	assert.Equal(t, []Scene{{Name: "scene_0", Roots: []int{0}}}, env.loader.Scenes())
	assert.Equal(t, 2, env.loader.Stats().Defects)
}

func TestScene_ChildRootsRejected(t *testing.T) {
	b := newDoc()
	b.node(map[string]any{"name": "solo"})
	b.node(map[string]any{"name": "parent", "children": []int{2}})
	b.node(map[string]any{"name": "child"})
	b.add("scenes", map[string]any{"nodes": []int{0}})
	b.add("scenes", map[string]any{"nodes": []int{2, 1}})
	b.set("scene", 0)

	env := newTestEnv(t)
	env.mustLoad(t, b.glb(t))
	l := env.loader
	assert.Equal(t, []int{1}, l.Scenes()[1].Roots)

	errs := env.defectErrors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrDefectiveSubResource)

	require.NoError(t, l.SelectScene(1))
	assert.Equal(t, []string{"parent", "child"}, activeNames(l))
}

func TestNodes_Hierarchy(t *testing.T) {
	b := newDoc()
	b.node(map[string]any{"children": []int{1, 0, 9}}) // self and dangling child
	b.node(map[string]any{"children": []int{2}})
	b.node(map[string]any{"children": []int{0}}) // cycle back to 0
	b.node(map[string]any{"children": []int{1}}) // second parent for 1

	env := newTestEnv(t)
	env.mustLoad(t, b.glb(t))
	nodes := env.loader.Nodes()
	root := env.engine.Root()

	require.Len(t, nodes, 4)
	assert.Same(t, root, nodes[0].Parent())
	assert.Same(t, nodes[0], nodes[1].Parent())
	assert.Same(t, nodes[1], nodes[2].Parent())
	assert.Same(t, root, nodes[3].Parent())
	assert.Equal(t, "node_2", nodes[2].Name())
	assert.Equal(t, 4, env.loader.Stats().Defects)
	assert.Equal(t, 4, env.engine.NodeCount())
}

func TestNodes_TransformsMirrored(t *testing.T) {
	half := float32(gomath.Sqrt2 / 2)
	b := newDoc()
	b.node(map[string]any{
		"translation": []float32{1, 2, 3},
		"rotation":    []float32{0, half, 0, half},
		"scale":       []float32{2, 2, 2},
	})
	b.node(map[string]any{"matrix": []float32{
		2, 0, 0, 0,
		0, 3, 0, 0,
		0, 0, 4, 0,
		5, 6, 7, 1,
	}})
	b.node(map[string]any{"translation": []float32{1, 2}})

	env := newTestEnv(t)
	env.mustLoad(t, b.glb(t))
	nodes := env.loader.Nodes()

	pos, rot, scale := nodes[0].LocalTransform()
	assert.Equal(t, math.Vec3{X: -1, Y: 2, Z: 3}, pos)
	assert.True(t, rot.SameRotation(math.Quat{Y: -half, W: half}, 1e-5), "rotation about Y is reversed, got %+v", rot)
	assert.Equal(t, math.Vec3{X: 2, Y: 2, Z: 2}, scale, "scale is not mirrored")

	pos, rot, scale = nodes[1].LocalTransform()
	assert.Equal(t, math.Vec3{X: -5, Y: 6, Z: 7}, pos)
	assert.True(t, rot.SameRotation(math.QuatIdentity(), 1e-5))
	assert.InDelta(t, 2, scale.X, 1e-5)
	assert.InDelta(t, 3, scale.Y, 1e-5)
	assert.InDelta(t, 4, scale.Z, 1e-5)

	pos, _, _ = nodes[2].LocalTransform()
	assert.Equal(t, math.Vec3{}, pos, "malformed translation falls back to the origin")
}

func TestNodes_FlipAxisZ(t *testing.T) {
	b := newDoc()
	b.node(map[string]any{"translation": []float32{1, 2, 3}})

	env := newTestEnv(t, func(o *Options) { o.FlipAxis = math.AxisZ })
	env.mustLoad(t, b.glb(t))
	pos, _, _ := env.loader.Nodes()[0].LocalTransform()
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: -3}, pos)
}

func TestNodes_MeshAttachment(t *testing.T) {
	b := newDoc()
	b.add("materials", map[string]any{"name": "real"})
	mesh := b.add("meshes", map[string]any{"primitives": []any{b.triangle(0), b.triangle(4), b.triangle(-1)}})
	b.node(map[string]any{"mesh": mesh})
	b.node(map[string]any{"mesh": 3})

	env := newTestEnv(t)
	env.mustLoad(t, b.glb(t))
	nodes := env.loader.Nodes()

	m, mats := nodes[0].Mesh()
	require.NotNil(t, m)
	require.Len(t, mats, 3)
	assert.Equal(t, "real", mats[0].Name)
	assert.Equal(t, "fallback", mats[1].Name)
	assert.Same(t, mats[1], mats[2], "one fallback material per load")

	m, _ = nodes[1].Mesh()
	assert.Nil(t, m)
	// Material 4 and mesh 3.
	assert.Equal(t, 2, env.loader.Stats().Defects)
}
