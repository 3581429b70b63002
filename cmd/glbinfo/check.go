package main

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/glbloader/internal/loader"
)

// crossCheck opens path with qmuntal/gltf and reports every count on which
// it disagrees with the finished load l.
func crossCheck(l *loader.Loader, path string) ([]string, error) {
	ref, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}

	var problems []string
	compare := func(what string, got, want int) {
		if got != want {
			problems = append(problems, fmt.Sprintf("%s: loaded %d, reference has %d", what, got, want))
		}
	}
	compare("nodes", len(l.Nodes()), len(ref.Nodes))
	compare("meshes", len(l.Meshes()), len(ref.Meshes))
	compare("materials", len(l.Materials()), len(ref.Materials))
	compare("textures", len(l.Textures()), len(ref.Textures))
	compare("images", len(l.Images()), len(ref.Images))
	compare("scenes", len(l.Scenes()), len(ref.Scenes))
	compare("triangles", l.TriangleCount(), referenceTriangles(ref))
	return problems, nil
}

// referenceTriangles counts the indexed triangles of every triangle-list
// primitive.
func referenceTriangles(doc *gltf.Document) int {
	n := 0
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			if p.Mode != gltf.PrimitiveTriangles || p.Indices == nil {
				continue
			}
			if int(*p.Indices) < len(doc.Accessors) {
				n += int(doc.Accessors[*p.Indices].Count) / 3
			}
		}
	}
	return n
}
