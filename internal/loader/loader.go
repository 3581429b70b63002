// Package loader builds a host scene from a GLB file incrementally.
//
// A load is split into stages (container, JSON, buffer views, accessors,
// images, samplers, textures, materials, meshes, nodes, scenes). Each call
// to Tick runs stages until the tick budget is used up and remembers where
// it stopped, so a large file can be materialized across many frames
// without stalling the caller.
//
// Defective elements are logged and skipped; only a malformed container or
// document aborts the load.
package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/config"
	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/internal/logger"
	"github.com/Faultbox/glbloader/pkg/glb"
	"github.com/Faultbox/glbloader/pkg/gltfdoc"
	"github.com/Faultbox/glbloader/pkg/math"
)

// Templates names the host material templates new materials start from.
type Templates struct {
	Lit              string
	Unlit            string
	UnlitCutout      string
	UnlitTransparent string
	MToon            string
	ShaderMotion     string
}

// Options configures a Loader.
type Options struct {
	// TickBudget is the work window per tick.
	TickBudget time.Duration
	// FlipAxis is mirrored to convert glTF right-handed data.
	FlipAxis math.Axis
	// RecomputeMissingNormals asks the host to derive normals for
	// primitives that carry none.
	RecomputeMissingNormals bool
	// MaxTextureSize bounds the larger side of decoded bitmaps; 0 keeps
	// images at their stored size.
	MaxTextureSize int
	Templates      Templates
	// Extensions are the material extension handlers, in dispatch order.
	// Nil means DefaultExtensions().
	Extensions []MaterialExtension
	Clock      Clock
	Logger     *zap.Logger
}

// DefaultOptions returns the options of config.Default().
func DefaultOptions() Options {
	opts, _ := OptionsFromConfig(config.Default())
	return opts
}

// OptionsFromConfig maps the loader and template sections of cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	axis, err := cfg.Loader.Axis()
	if err != nil {
		return Options{}, err
	}
	t := cfg.Templates
	return Options{
		TickBudget:              cfg.Loader.TickBudget,
		FlipAxis:                axis,
		RecomputeMissingNormals: cfg.Loader.RecomputeMissingNormals,
		MaxTextureSize:          cfg.Loader.MaxTextureSize,
		Templates: Templates{
			Lit:              t.Lit,
			Unlit:            t.Unlit,
			UnlitCutout:      t.UnlitCutout,
			UnlitTransparent: t.UnlitTransparent,
			MToon:            t.MToon,
			ShaderMotion:     t.ShaderMotion,
		},
	}, nil
}

// Stats counts what a load produced.
type Stats struct {
	Triangles int
	Images    int
	Samplers  int
	Textures  int
	Materials int
	Meshes    int
	Nodes     int
	Scenes    int
	// Defects is the number of skipped or degraded elements.
	Defects int
	Ticks   int
	// StageCalls is the number of dispatches per stage.
	StageCalls [StageDone]int
}

// Loader drives one GLB load at a time into a host.Engine.
type Loader struct {
	engine     host.Engine
	opts       Options
	log        *zap.Logger
	budget     *Budget
	stages     [StageDone]stageFunc
	extensions []MaterialExtension
	observers  []Observer

	enabled bool
	state   BuildState
	status  Status
	lastErr error
	stats   Stats

	// Per-load data, dropped by Clear.
	data          []byte
	container     *glb.Container
	doc           gltfdoc.Value
	asset         AssetInfo
	bufferViews   []*BufferView
	accessors     []*Accessor
	images        []*host.TextureData
	samplers      []*host.Sampler
	textures      []*host.Texture
	materials     []*host.Material
	meshes        []*meshEntry
	nodes         []host.Node
	parentOf      []int
	scenes        []Scene
	selectedScene int
	fallback      *host.Material
	placeholder   *host.Texture
}

// New creates an idle loader targeting engine.
func New(engine host.Engine, opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = logger.Named("loader")
	}
	if opts.Templates.Lit == "" {
		opts.Templates = DefaultOptions().Templates
	}
	if opts.Extensions == nil {
		opts.Extensions = DefaultExtensions()
	}

	l := &Loader{
		engine:        engine,
		opts:          opts,
		log:           opts.Logger,
		budget:        NewBudget(opts.TickBudget, opts.Clock),
		selectedScene: -1,
	}
	for _, ext := range opts.Extensions {
		l.RegisterExtension(ext)
	}
	l.stages = [StageDone]stageFunc{
		StageParseContainer:     l.parseContainer,
		StageParseJSON:          l.parseJSON,
		StageParseAssetMetadata: l.parseAssetMetadata,
		StageParseBufferViews:   l.parseBufferViews,
		StageParseAccessors:     l.parseAccessors,
		StageParseImages:        l.parseImages,
		StageParseSamplers:      l.parseSamplers,
		StageParseTextures:      l.parseTextures,
		StageParseMaterials:     l.parseMaterials,
		StageParseMeshes:        l.parseMeshes,
		StageSpawnNodes:         l.spawnNodes,
		StageSetupNodes:         l.setupNodes,
		StageSetupScenes:        l.setupScenes,
		StageSelectScene:        l.selectDefaultScene,
	}
	return l
}

// StartParsing clears the previous scene and starts building data. The
// loader keeps a reference to data until the next Clear.
func (l *Loader) StartParsing(data []byte) {
	l.Clear()
	l.data = data
	l.enabled = true
	l.status = StatusLoading
	l.log.Info("load started", zap.Int("bytes", len(data)), zap.Duration("budget", l.budget.Limit()))
	l.notify(EventSceneLoading)
}

// Clear destroys every node of the current scene and drops all per-load
// state. Host resources (meshes, materials, textures) are left to the host.
func (l *Loader) Clear() {
	root := l.engine.Root()
	for i := len(l.nodes) - 1; i >= 0; i-- {
		n := l.nodes[i]
		if n != nil && n.Parent() == root {
			l.engine.DestroyNode(n)
		}
	}
	l.reset()
	l.notify(EventSceneCleared)
}

func (l *Loader) reset() {
	l.enabled = false
	l.state = BuildState{}
	l.status = StatusIdle
	l.lastErr = nil
	l.stats = Stats{}

	l.data = nil
	l.container = nil
	l.doc = gltfdoc.Value{}
	l.asset = AssetInfo{}
	l.bufferViews = nil
	l.accessors = nil
	l.images = nil
	l.samplers = nil
	l.textures = nil
	l.materials = nil
	l.meshes = nil
	l.nodes = nil
	l.parentOf = nil
	l.scenes = nil
	l.selectedScene = -1
	l.fallback = nil
	l.placeholder = nil
}

// Tick advances the build by at most one budget window. It does nothing
// when the loader is not enabled.
func (l *Loader) Tick() {
	if !l.enabled {
		return
	}
	l.stats.Ticks++
	l.budget.Refresh()

	for {
		stage := l.state.Stage
		l.stats.StageCalls[stage]++
		next, err := l.stages[stage](l.state.Cursor)
		if err != nil {
			l.fail(err)
			return
		}
		if next != sectionComplete {
			l.state.Cursor = next
			return
		}

		l.log.Debug("stage complete", zap.Stringer("stage", stage), zap.Int("calls", l.stats.StageCalls[stage]))
		l.state.Stage++
		l.state.Cursor = 0
		if l.state.Stage == StageDone {
			l.finish()
			return
		}
		if !l.budget.StillHaveTime() {
			return
		}
	}
}

// Run ticks until the load finishes or ctx is done. It returns the fatal
// load error, if any.
func (l *Loader) Run(ctx context.Context) error {
	for l.enabled {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Tick()
	}
	return l.lastErr
}

// Load starts parsing data and runs the load to completion.
func (l *Loader) Load(ctx context.Context, data []byte) error {
	l.StartParsing(data)
	return l.Run(ctx)
}

func (l *Loader) fail(err error) {
	l.lastErr = err
	l.state.Err = true
	l.enabled = false
	l.status = StatusFailed
	l.log.Error("load failed",
		zap.Stringer("stage", l.state.Stage),
		zap.Int("cursor", l.state.Cursor),
		zap.Error(err))
	l.notify(EventParseError)
}

func (l *Loader) finish() {
	l.state.Done = true
	l.enabled = false
	l.status = StatusLoaded
	l.log.Info("scene loaded",
		zap.Int("ticks", l.stats.Ticks),
		zap.Int("nodes", l.stats.Nodes),
		zap.Int("meshes", l.stats.Meshes),
		zap.Int("triangles", l.stats.Triangles),
		zap.Int("materials", l.stats.Materials),
		zap.Int("images", l.stats.Images),
		zap.Int("defects", l.stats.Defects))
	l.notify(EventSceneLoaded)
}

// defect logs a skipped or degraded element of the current stage.
func (l *Loader) defect(element string, index int, err error) {
	l.stats.Defects++
	l.log.Warn("defective element",
		zap.Stringer("stage", l.state.Stage),
		zap.String("element", element),
		zap.Int("index", index),
		zap.Error(err))
}

// forEach calls fn for elements [start, n) while the budget lasts. At least
// one element is processed per call so every dispatch makes progress.
func (l *Loader) forEach(start, n int, fn func(i int)) int {
	for i := start; i < n; i++ {
		if i != start && !l.budget.StillHaveTime() {
			return i
		}
		fn(i)
	}
	return sectionComplete
}

// section returns the top-level array key. A missing key is an empty
// section; any other kind is fatal.
func (l *Loader) section(key string) (gltfdoc.Value, error) {
	v, ok := l.doc.Get(key)
	if !ok {
		return gltfdoc.NewArray(), nil
	}
	if !v.Is(gltfdoc.Array) {
		return gltfdoc.Value{}, fmt.Errorf("%w: %q is %s, want Array", ErrInvalidDocument, key, v.Kind())
	}
	return v, nil
}

// binary returns the BIN chunk payload.
func (l *Loader) binary() []byte {
	if l.container == nil {
		return nil
	}
	return l.data[l.container.BinaryBase : l.container.BinaryBase+l.container.BinaryLength]
}

// Enabled reports whether a load is in progress.
func (l *Loader) Enabled() bool { return l.enabled }

// State returns the scheduler position.
func (l *Loader) State() BuildState { return l.state }

// Status returns the coarse load status.
func (l *Loader) Status() Status { return l.status }

// LastError returns the error that aborted the last load.
func (l *Loader) LastError() error { return l.lastErr }

// Stats returns the counters of the current load.
func (l *Loader) Stats() Stats { return l.stats }

// TriangleCount returns the number of triangles in all built meshes.
func (l *Loader) TriangleCount() int { return l.stats.Triangles }

// ImageCount returns the number of decoded images.
func (l *Loader) ImageCount() int { return l.stats.Images }

// MaterialCount returns the number of materials built from the document.
func (l *Loader) MaterialCount() int { return l.stats.Materials }

// Progress returns the fraction of stages completed, 0 to 1.
func (l *Loader) Progress() float32 {
	return float32(l.state.Stage) / float32(StageDone)
}

// Engine returns the target engine.
func (l *Loader) Engine() host.Engine { return l.engine }

// Nodes returns the spawned nodes, indexed like the document's nodes.
func (l *Loader) Nodes() []host.Node { return l.nodes }

// Materials returns the built materials, indexed like the document's
// materials. Defective entries are nil.
func (l *Loader) Materials() []*host.Material { return l.materials }

// Textures returns the built textures, indexed like the document's textures.
func (l *Loader) Textures() []*host.Texture { return l.textures }

// Meshes returns the built meshes, indexed like the document's meshes.
// Meshes without a usable primitive are nil.
func (l *Loader) Meshes() []*host.Mesh {
	out := make([]*host.Mesh, len(l.meshes))
	for i, m := range l.meshes {
		if m != nil {
			out[i] = m.mesh
		}
	}
	return out
}
