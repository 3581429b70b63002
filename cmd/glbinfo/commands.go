package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/glbloader/internal/config"
	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/internal/loader"
)

func cmdInfo(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: glbinfo info <file.glb>")
		return 1
	}

	l, _, err := loadFile(cfg, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	asset := l.Asset()
	stats := l.Stats()
	fmt.Printf("File:       %s\n", args[0])
	fmt.Printf("Version:    %s\n", asset.Version)
	if asset.Generator != "" {
		fmt.Printf("Generator:  %s\n", asset.Generator)
	}
	if asset.Copyright != "" {
		fmt.Printf("Copyright:  %s\n", asset.Copyright)
	}
	fmt.Println()
	fmt.Printf("Nodes:      %d\n", stats.Nodes)
	fmt.Printf("Meshes:     %d\n", stats.Meshes)
	fmt.Printf("Triangles:  %d\n", stats.Triangles)
	fmt.Printf("Materials:  %d\n", stats.Materials)
	fmt.Printf("Textures:   %d\n", stats.Textures)
	fmt.Printf("Images:     %d\n", stats.Images)
	fmt.Printf("Samplers:   %d\n", stats.Samplers)
	fmt.Printf("Scenes:     %d\n", stats.Scenes)
	fmt.Printf("Defects:    %d\n", stats.Defects)

	if scenes := l.Scenes(); len(scenes) > 0 {
		fmt.Println()
		fmt.Println("Scenes:")
		for i, s := range scenes {
			marker := " "
			if i == l.SelectedScene() {
				marker = "*"
			}
			fmt.Printf(" %s %d %-20s %d roots\n", marker, i, s.Name, len(s.Roots))
		}
	}
	return 0
}

func cmdTree(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("tree", flag.ExitOnError)
	all := fs.Bool("all", false, "Include nodes hidden by the selected scene")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: glbinfo tree [-all] <file.glb>")
		return 1
	}

	_, engine, err := loadFile(cfg, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	engine.Walk(func(n *host.MemNode, depth int) bool {
		if depth == 0 {
			return true
		}
		if !n.Active() && !*all {
			return false
		}
		fmt.Println(describeNode(n, depth))
		return true
	})
	return 0
}

// describeNode formats one tree line.
func describeNode(n *host.MemNode, depth int) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", depth-1))
	sb.WriteString(n.Name())
	if mesh, mats := n.Mesh(); mesh != nil {
		names := make([]string, len(mats))
		for i, m := range mats {
			names[i] = m.Name
		}
		fmt.Fprintf(&sb, " [mesh %s: %d verts, %d tris, %s]",
			mesh.Name, mesh.VertexCount(), mesh.TriangleCount(), strings.Join(names, ", "))
	}
	if !n.Active() {
		sb.WriteString(" (hidden)")
	}
	return sb.String()
}

func cmdStats(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: glbinfo stats <file.glb>")
		return 1
	}

	l, _, err := loadFile(cfg, args[0])
	if l == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	stats := l.Stats()
	fmt.Printf("Budget:  %v per tick\n", cfg.Loader.TickBudget)
	fmt.Printf("Ticks:   %d\n", stats.Ticks)
	fmt.Printf("Status:  %s\n", l.Status())
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tCALLS")
	for s := loader.StageParseContainer; s < loader.StageDone; s++ {
		fmt.Fprintf(w, "%s\t%d\n", s, stats.StageCalls[s])
	}
	w.Flush()

	if err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed at %s: %v\n", l.State().Stage, err)
		return 1
	}
	return 0
}

func cmdCheck(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: glbinfo check <file.glb>")
		return 1
	}

	l, _, err := loadFile(cfg, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	problems, err := crossCheck(l, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reference reader: %v\n", err)
		return 1
	}

	if defects := l.Stats().Defects; defects > 0 {
		problems = append(problems, fmt.Sprintf("%d defective elements skipped (see log)", defects))
	}
	if len(problems) == 0 {
		fmt.Println("OK")
		return 0
	}
	for _, p := range problems {
		fmt.Println(p)
	}
	return 1
}

func cmdConfig(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	save := fs.String("save", "", "write the effective config to this path ('-' for the user config dir)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	switch *save {
	case "":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	case "-":
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Saved to %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	default:
		if err := cfg.SaveTo(*save); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Saved to %s\n", *save)
	}
	return 0
}
