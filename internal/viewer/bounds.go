package viewer

import (
	gomath "math"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/internal/engine/picking"
	"github.com/Faultbox/glbloader/pkg/math"
)

// sceneBounds returns a bounding sphere of every visible mesh in world
// space. ok is false when nothing is visible.
func sceneBounds(mem *host.Memory) (center math.Vec3, radius float32, ok bool) {
	box := host.Bounds{
		Min: [3]float32{gomath.MaxFloat32, gomath.MaxFloat32, gomath.MaxFloat32},
		Max: [3]float32{-gomath.MaxFloat32, -gomath.MaxFloat32, -gomath.MaxFloat32},
	}
	mem.Walk(func(n *host.MemNode, depth int) bool {
		if !n.Active() {
			return false
		}
		mesh, _ := n.Mesh()
		if mesh == nil {
			return true
		}
		world := picking.WorldAABB(mesh.Bounds, host.WorldMatrix(n))
		for axis := 0; axis < 3; axis++ {
			box.Min[axis] = min(box.Min[axis], world.Min[axis])
			box.Max[axis] = max(box.Max[axis], world.Max[axis])
		}
		ok = true
		return true
	})
	if !ok {
		return math.Vec3{}, 0, false
	}
	return box.Center(), box.Size().Length() / 2, true
}
