package host

import (
	"slices"

	"github.com/Faultbox/glbloader/pkg/math"
)

// Memory is an in-process Engine. Resources are kept in creation order so
// callers (the viewer, tests) can enumerate them.
type Memory struct {
	root *MemNode

	nextID    int
	nodes     int
	meshes    []*Mesh
	materials []*Material
	textures  []*Texture
}

// NewMemory returns an empty engine with a root node named "root".
func NewMemory() *Memory {
	e := &Memory{}
	e.root = e.newNode()
	e.root.name = "root"
	return e
}

func (e *Memory) newNode() *MemNode {
	e.nextID++
	return &MemNode{
		id:     e.nextID,
		engine: e,
		rot:    math.QuatIdentity(),
		scale:  math.Vec3One,
		active: true,
	}
}

// Root returns the root node.
func (e *Memory) Root() Node { return e.root }

// SpawnNode creates an active identity-transform node under parent.
// A nil parent means the root.
func (e *Memory) SpawnNode(parent Node) Node {
	n := e.newNode()
	e.nodes++
	if parent == nil {
		parent = e.root
	}
	n.SetParent(parent)
	return n
}

// DestroyNode detaches n and releases its subtree. The root is never
// destroyed; its children are.
func (e *Memory) DestroyNode(n Node) {
	mn, ok := n.(*MemNode)
	if !ok || mn == nil || mn.destroyed {
		return
	}
	for _, c := range slices.Clone(mn.children) {
		e.DestroyNode(c)
	}
	if mn == e.root {
		return
	}
	mn.detach()
	mn.destroyed = true
	mn.mesh, mn.materials = nil, nil
	e.nodes--
}

// NewMesh validates data and returns a mesh with recomputed normals and
// bounds filled in.
func (e *Memory) NewMesh(data MeshData) (*Mesh, error) {
	mesh, err := buildMesh(data)
	if err != nil {
		return nil, err
	}
	e.nextID++
	mesh.ID = e.nextID
	e.meshes = append(e.meshes, mesh)
	return mesh, nil
}

// NewMaterial duplicates the named template.
func (e *Memory) NewMaterial(template string) *Material {
	m := NewMaterial(template)
	e.nextID++
	m.ID = e.nextID
	m.Name = template
	e.materials = append(e.materials, m)
	return m
}

// NewTexture validates data and creates a texture sampled with sampler.
func (e *Memory) NewTexture(data TextureData, sampler Sampler) (*Texture, error) {
	if err := validateTexture(data); err != nil {
		return nil, err
	}
	e.nextID++
	tex := &Texture{TextureData: data, ID: e.nextID, Sampler: sampler}
	e.textures = append(e.textures, tex)
	return tex, nil
}

// Release forgets every mesh and material no live node references, and
// every texture those materials do not sample. It returns the number of
// resources dropped.
func (e *Memory) Release() int {
	meshes := make(map[*Mesh]bool)
	materials := make(map[*Material]bool)
	textures := make(map[*Texture]bool)
	e.Walk(func(n *MemNode, _ int) bool {
		if n.mesh != nil {
			meshes[n.mesh] = true
		}
		for _, m := range n.materials {
			if m == nil || materials[m] {
				continue
			}
			materials[m] = true
			for _, name := range m.TextureNames() {
				if slot, ok := m.TextureSlot(name); ok && slot.Texture != nil {
					textures[slot.Texture] = true
				}
			}
		}
		return true
	})

	before := len(e.meshes) + len(e.materials) + len(e.textures)
	e.meshes = slices.DeleteFunc(e.meshes, func(m *Mesh) bool { return !meshes[m] })
	e.materials = slices.DeleteFunc(e.materials, func(m *Material) bool { return !materials[m] })
	e.textures = slices.DeleteFunc(e.textures, func(t *Texture) bool { return !textures[t] })
	return before - len(e.meshes) - len(e.materials) - len(e.textures)
}

// NodeCount returns the number of live spawned nodes, excluding the root.
func (e *Memory) NodeCount() int { return e.nodes }

// Meshes returns every mesh created so far.
func (e *Memory) Meshes() []*Mesh { return e.meshes }

// Materials returns every material created so far.
func (e *Memory) Materials() []*Material { return e.materials }

// Textures returns every texture created so far.
func (e *Memory) Textures() []*Texture { return e.textures }

// Walk visits the tree depth-first from the root, children in order.
// The root has depth 0. Returning false skips the node's children.
func (e *Memory) Walk(fn func(n *MemNode, depth int) bool) {
	var visit func(n *MemNode, depth int)
	visit = func(n *MemNode, depth int) {
		if !fn(n, depth) {
			return
		}
		for _, c := range n.children {
			visit(c, depth+1)
		}
	}
	visit(e.root, 0)
}

// MemNode is the Node implementation of Memory.
type MemNode struct {
	id        int
	engine    *Memory
	name      string
	pos       math.Vec3
	rot       math.Quat
	scale     math.Vec3
	parent    *MemNode
	children  []*MemNode
	mesh      *Mesh
	materials []*Material
	active    bool
	destroyed bool
}

// ID returns the engine-unique node id.
func (n *MemNode) ID() int { return n.id }

func (n *MemNode) Name() string        { return n.name }
func (n *MemNode) SetName(name string) { n.name = name }

func (n *MemNode) SetLocalTransform(pos math.Vec3, rot math.Quat, scale math.Vec3) {
	n.pos, n.rot, n.scale = pos, rot, scale
}

func (n *MemNode) LocalTransform() (math.Vec3, math.Quat, math.Vec3) {
	return n.pos, n.rot, n.scale
}

// Parent returns the parent node, or nil for the root.
func (n *MemNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// SetParent moves n under parent. Nodes of another engine and moves that
// would create a cycle are ignored.
func (n *MemNode) SetParent(parent Node) {
	p, ok := parent.(*MemNode)
	if !ok || p == nil || p.engine != n.engine || p == n.parent {
		return
	}
	if IsAncestor(n, p) {
		return
	}
	n.detach()
	n.parent = p
	p.children = append(p.children, n)
}

func (n *MemNode) detach() {
	if n.parent == nil {
		return
	}
	siblings := n.parent.children
	if i := slices.Index(siblings, n); i >= 0 {
		n.parent.children = slices.Delete(siblings, i, i+1)
	}
	n.parent = nil
}

// Children returns the direct children in attachment order.
func (n *MemNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *MemNode) SetMesh(mesh *Mesh, materials []*Material) {
	n.mesh, n.materials = mesh, materials
}

func (n *MemNode) Mesh() (*Mesh, []*Material) { return n.mesh, n.materials }

func (n *MemNode) SetActive(active bool) { n.active = active }
func (n *MemNode) Active() bool          { return n.active }

// Destroyed reports whether the node was released by DestroyNode.
func (n *MemNode) Destroyed() bool { return n.destroyed }
