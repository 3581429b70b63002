// Package picking provides ray casting against host scene nodes.
package picking

import (
	gomath "math"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    [3]float32
	Direction [3]float32 // Normalized direction
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	near := invViewProj.TransformPoint([3]float32{ndcX, ndcY, -1})
	far := invViewProj.TransformPoint([3]float32{ndcX, ndcY, 1})

	dir := math.Vec3From(far).Sub(math.Vec3From(near)).Normalize()
	return Ray{Origin: near, Direction: dir.Array()}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
		t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// WorldAABB returns the box enclosing the eight corners of local
// transformed by world.
func WorldAABB(local host.Bounds, world math.Mat4) AABB {
	box := AABB{
		Min: [3]float32{gomath.MaxFloat32, gomath.MaxFloat32, gomath.MaxFloat32},
		Max: [3]float32{-gomath.MaxFloat32, -gomath.MaxFloat32, -gomath.MaxFloat32},
	}
	for c := 0; c < 8; c++ {
		corner := local.Min
		for axis := 0; axis < 3; axis++ {
			if c&(1<<axis) != 0 {
				corner[axis] = local.Max[axis]
			}
		}
		p := world.TransformPoint(corner)
		for axis := 0; axis < 3; axis++ {
			box.Min[axis] = min(box.Min[axis], p[axis])
			box.Max[axis] = max(box.Max[axis], p[axis])
		}
	}
	return box
}

// Pick returns the visible mesh node whose world box the ray enters first.
func Pick(mem *host.Memory, r Ray) (*host.MemNode, bool) {
	var best *host.MemNode
	bestT := float32(gomath.MaxFloat32)
	mem.Walk(func(n *host.MemNode, depth int) bool {
		if !n.Active() {
			return false
		}
		mesh, _ := n.Mesh()
		if mesh == nil {
			return true
		}
		if t, hit := r.IntersectAABB(WorldAABB(mesh.Bounds, host.WorldMatrix(n))); hit && t < bestT {
			best, bestT = n, t
		}
		return true
	})
	return best, best != nil
}
