package loader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
	"github.com/Faultbox/glbloader/pkg/math"
)

// Scene is a named set of root nodes.
type Scene struct {
	Name  string
	Roots []int
}

// Scenes returns the document's scenes.
func (l *Loader) Scenes() []Scene { return l.scenes }

// SelectedScene returns the active scene index, or -1 when every node is
// shown.
func (l *Loader) SelectedScene() int { return l.selectedScene }

// SelectScene shows scene i and hides the other top-level nodes. -1 shows
// every node.
func (l *Loader) SelectScene(i int) error {
	if i < -1 || i >= len(l.scenes) {
		return fmt.Errorf("%w: scene %d of %d", ErrUnresolvableReference, i, len(l.scenes))
	}
	l.applyScene(i)
	return nil
}

// spawnNodes creates one host node per glTF node, all under the engine
// root. Parenting happens in setupNodes once every node exists.
func (l *Loader) spawnNodes(cursor int) (int, error) {
	list, err := l.section("nodes")
	if err != nil {
		return 0, err
	}
	if cursor == 0 {
		l.nodes = make([]host.Node, list.Len())
		l.parentOf = make([]int, list.Len())
		for i := range l.parentOf {
			l.parentOf[i] = -1
		}
	}
	root := l.engine.Root()
	return l.forEach(cursor, list.Len(), func(i int) {
		l.nodes[i] = l.engine.SpawnNode(root)
		l.stats.Nodes++
	}), nil
}

func (l *Loader) setupNodes(cursor int) (int, error) {
	list, err := l.section("nodes")
	if err != nil {
		return 0, err
	}
	return l.forEach(cursor, list.Len(), func(i int) {
		l.setupNode(i, list.Index(i))
	}), nil
}

func (l *Loader) setupNode(i int, def gltfdoc.Value) {
	node := l.nodes[i]
	node.SetName(def.OptString("name", fmt.Sprintf("node_%d", i)))
	if !def.Is(gltfdoc.Object) {
		l.defect("node", i, fmt.Errorf("%w: node is %s", ErrDefectiveSubResource, def.Kind()))
		return
	}

	pos, rot, scale := nodeTransform(def)
	axis := l.opts.FlipAxis
	node.SetLocalTransform(pos.Mirror(axis), rot.Mirror(axis), scale)

	if def.Has("mesh") {
		l.attachMesh(i, def.OptInt("mesh", -1))
	}
	for _, c := range def.OptIntList("children") {
		l.attachChild(i, c)
	}
}

// nodeTransform returns the local TRS of a node, decomposing matrix when
// one is given.
func nodeTransform(def gltfdoc.Value) (math.Vec3, math.Quat, math.Vec3) {
	if def.Has("matrix") {
		return def.OptMat4("matrix", math.Identity()).Decompose()
	}
	return def.OptVec3("translation", math.Vec3{}),
		def.OptQuat("rotation", math.QuatIdentity()),
		def.OptVec3("scale", math.Vec3One)
}

func (l *Loader) attachMesh(i, m int) {
	if m < 0 || m >= len(l.meshes) || l.meshes[m] == nil {
		l.defect("node", i, fmt.Errorf("%w: mesh %d", ErrUnresolvableReference, m))
		return
	}
	entry := l.meshes[m]
	mats := make([]*host.Material, len(entry.materials))
	for k, mi := range entry.materials {
		if mi >= 0 && mi < len(l.materials) && l.materials[mi] != nil {
			mats[k] = l.materials[mi]
			continue
		}
		if mi >= 0 {
			l.defect("node", i, fmt.Errorf("%w: material %d", ErrUnresolvableReference, mi))
		}
		mats[k] = l.fallbackMaterial()
	}
	l.nodes[i].SetMesh(entry.mesh, mats)
}

// attachChild parents node c under node p unless that would give c a
// second parent or close a cycle.
func (l *Loader) attachChild(p, c int) {
	var err error
	switch {
	case c < 0 || c >= len(l.nodes):
		err = fmt.Errorf("%w: child %d", ErrUnresolvableReference, c)
	case c == p:
		err = fmt.Errorf("%w: node lists itself as child", ErrDefectiveSubResource)
	case l.parentOf[c] >= 0:
		err = fmt.Errorf("%w: child %d already has parent %d", ErrDefectiveSubResource, c, l.parentOf[c])
	case host.IsAncestor(l.nodes[c], l.nodes[p]):
		err = fmt.Errorf("%w: child %d is an ancestor", ErrDefectiveSubResource, c)
	}
	if err != nil {
		l.defect("node", p, err)
		return
	}
	l.nodes[c].SetParent(l.nodes[p])
	l.parentOf[c] = p
}

func (l *Loader) setupScenes(cursor int) (int, error) {
	list, err := l.section("scenes")
	if err != nil {
		return 0, err
	}
	if cursor == 0 {
		l.scenes = make([]Scene, list.Len())
	}
	return l.forEach(cursor, list.Len(), func(i int) {
		def := list.Index(i)
		scene := Scene{Name: def.OptString("name", fmt.Sprintf("scene_%d", i))}
		for _, r := range def.OptIntList("nodes") {
			if r < 0 || r >= len(l.nodes) {
				l.defect("scene", i, fmt.Errorf("%w: root node %d", ErrUnresolvableReference, r))
				continue
			}
			// A parented root would stay hidden under an inactive ancestor.
			if p := l.parentOf[r]; p >= 0 {
				l.defect("scene", i, fmt.Errorf("%w: root node %d is a child of %d", ErrDefectiveSubResource, r, p))
				continue
			}
			scene.Roots = append(scene.Roots, r)
		}
		l.scenes[i] = scene
		l.stats.Scenes++
	}), nil
}

// selectDefaultScene applies the document's default scene, or shows every
// node when none is declared.
func (l *Loader) selectDefaultScene(int) (int, error) {
	s := -1
	if l.doc.Has("scene") {
		s = l.doc.OptInt("scene", -1)
		if s < 0 || s >= len(l.scenes) {
			l.defect("scene", s, fmt.Errorf("%w: default scene %d of %d", ErrUnresolvableReference, s, len(l.scenes)))
			s = -1
		}
	}
	l.applyScene(s)
	return sectionComplete, nil
}

func (l *Loader) applyScene(s int) {
	l.selectedScene = s
	if s < 0 {
		for i, n := range l.nodes {
			if l.parentOf[i] < 0 {
				n.SetActive(true)
			}
		}
		return
	}

	roots := l.scenes[s].Roots
	selected := make(map[int]bool, len(roots))
	for _, r := range roots {
		selected[r] = true
	}
	for i, n := range l.nodes {
		if l.parentOf[i] < 0 && !selected[i] {
			n.SetActive(false)
		}
	}
	for _, r := range roots {
		l.nodes[r].SetActive(true)
	}
	l.log.Debug("scene selected", zap.Int("scene", s), zap.String("name", l.scenes[s].Name), zap.Int("roots", len(roots)))
}
