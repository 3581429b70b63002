package renderer

import (
	"sort"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/math"
)

// floatsPerVertex is position(3) + normal(3) + uv0(2).
const floatsPerVertex = 8

// interleave packs the first UV channel with positions and normals.
// Missing UVs become zero.
func interleave(mesh *host.Mesh) []float32 {
	n := mesh.VertexCount()
	out := make([]float32, n*floatsPerVertex)
	uv := mesh.UVs[0]
	for i := 0; i < n; i++ {
		o := out[i*floatsPerVertex:]
		copy(o[0:3], mesh.Positions[i][:])
		if i < len(mesh.Normals) {
			copy(o[3:6], mesh.Normals[i][:])
		}
		if uv.Components >= 2 {
			o[6] = uv.Data[i*uv.Components]
			o[7] = uv.Data[i*uv.Components+1]
		}
	}
	return out
}

// drawItem is one submesh draw.
type drawItem struct {
	mesh     *host.Mesh
	submesh  int
	material *host.Material
	model    math.Mat4
	queue    int
}

// collect gathers the draws of every visible node. Inactive subtrees are
// skipped. Submeshes past the material list reuse the last material.
func collect(mem *host.Memory) []drawItem {
	var items []drawItem
	mem.Walk(func(n *host.MemNode, depth int) bool {
		if !n.Active() {
			return false
		}
		mesh, materials := n.Mesh()
		if mesh == nil {
			return true
		}
		model := host.WorldMatrix(n)
		for i := range mesh.Submeshes {
			var mat *host.Material
			if len(materials) > 0 {
				mat = materials[min(i, len(materials)-1)]
			}
			queue := host.QueueGeometry
			if mat != nil {
				queue = mat.RenderQueue
			}
			items = append(items, drawItem{mesh: mesh, submesh: i, material: mat, model: model, queue: queue})
		}
		return true
	})
	// Opaque first, transparent last, tree order within a queue.
	sort.SliceStable(items, func(a, b int) bool { return items[a].queue < items[b].queue })
	return items
}
