// Package host defines the engine-side objects the loader materializes a
// scene into: transform nodes, meshes, materials and textures.
//
// Memory is a complete in-process implementation used headless by glbinfo,
// by the viewer before GPU upload, and by tests.
package host

import (
	"errors"

	"github.com/Faultbox/glbloader/pkg/math"
)

// Resource creation errors.
var (
	ErrInvalidMesh    = errors.New("invalid mesh data")
	ErrInvalidTexture = errors.New("invalid texture data")
)

// Engine creates and destroys host objects. Every call returns a fresh
// instance; nothing is pooled.
type Engine interface {
	// Root is the parent of every node spawned by a load.
	Root() Node
	SpawnNode(parent Node) Node
	// DestroyNode removes n and its whole subtree.
	DestroyNode(n Node)
	NewMesh(data MeshData) (*Mesh, error)
	NewMaterial(template string) *Material
	NewTexture(data TextureData, sampler Sampler) (*Texture, error)
}

// Node is a transform node in the host scene graph.
type Node interface {
	Name() string
	SetName(name string)
	SetLocalTransform(pos math.Vec3, rot math.Quat, scale math.Vec3)
	LocalTransform() (math.Vec3, math.Quat, math.Vec3)
	Parent() Node
	// SetParent keeps the local transform.
	SetParent(parent Node)
	Children() []Node
	SetMesh(mesh *Mesh, materials []*Material)
	Mesh() (*Mesh, []*Material)
	SetActive(active bool)
	Active() bool
}

// IsAncestor reports whether a is n or one of n's ancestors.
func IsAncestor(a, n Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == a {
			return true
		}
	}
	return false
}

// Visible reports whether n and all of its ancestors are active.
func Visible(n Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if !cur.Active() {
			return false
		}
	}
	return true
}

// WorldMatrix composes the local transforms from the root down to n.
func WorldMatrix(n Node) math.Mat4 {
	m := math.Identity()
	for cur := n; cur != nil; cur = cur.Parent() {
		pos, rot, scale := cur.LocalTransform()
		m = math.Compose(pos, rot, scale).Mul(m)
	}
	return m
}
