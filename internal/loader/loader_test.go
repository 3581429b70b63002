package loader

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/glbloader/internal/config"
	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/glb"
	"github.com/Faultbox/glbloader/pkg/math"
)

func TestLoad_Triangle(t *testing.T) {
	b := newDoc()
	mesh := b.triangleMesh(-1)
	b.node(map[string]any{"mesh": mesh, "name": "tri"})

	env := newTestEnv(t)
	env.mustLoad(t, b.glb(t))

	assert.Equal(t, 1, env.engine.NodeCount())
	nodes := env.loader.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "tri", nodes[0].Name())

	m, mats := nodes[0].Mesh()
	require.NotNil(t, m)
	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, []uint32{0, 2, 1}, m.Indices)
	assert.Equal(t, host.IndexUInt16, m.IndexFormat)
	// glTF +X becomes -X after the handedness flip.
	assert.Equal(t, [3]float32{-1, 0, 0}, m.Positions[0])

	require.Len(t, mats, 1)
	assert.Equal(t, "fallback", mats[0].Name, "a primitive without material gets the fallback")
	assert.Equal(t, 1, env.loader.TriangleCount())
	assert.Equal(t, 0, env.loader.Stats().Defects)

	assert.Equal(t, []Event{EventSceneCleared, EventSceneLoading, EventSceneLoaded}, env.events)
	assert.False(t, env.loader.Enabled())
	assert.True(t, env.loader.State().Done)
	assert.Equal(t, float32(1), env.loader.Progress())
	assert.Equal(t, "fixture", env.loader.Asset().Generator)
}

func TestLoad_FatalErrors(t *testing.T) {
	valid := newDoc().glb(t)

	badMagic := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badMagic, 0x12345678)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"bad magic", badMagic, glb.ErrMalformedContainer},
		{"truncated", valid[:20], glb.ErrMalformedContainer},
		{"invalid json", glb.Encode([]byte(`{"asset":`), nil), ErrInvalidDocument},
		{"json array", glb.Encode([]byte(`[1,2]`), nil), ErrInvalidDocument},
		{"version 3", glb.Encode([]byte(`{"asset":{"version":"3.0"}}`), nil), ErrInvalidDocument},
		{"min version 1", glb.Encode([]byte(`{"asset":{"version":"2.0","minVersion":"1.0"}}`), nil), ErrInvalidDocument},
		{"meshes not array", glb.Encode([]byte(`{"asset":{"version":"2.0"},"meshes":{}}`), nil), ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			err := env.load(t, tt.data)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsFatal(err))
			assert.Equal(t, StatusFailed, env.loader.Status())
			assert.True(t, env.loader.State().Err)
			assert.False(t, env.loader.Enabled())
			assert.Equal(t, []Event{EventSceneCleared, EventSceneLoading, EventParseError}, env.events)
			assert.Equal(t, 0, env.engine.NodeCount())
		})
	}
}

func TestLoad_MissingAssetTolerated(t *testing.T) {
	env := newTestEnv(t)
	env.mustLoad(t, glb.Encode([]byte(`{"nodes":[{}]}`), nil))
	assert.Equal(t, 1, env.engine.NodeCount())
	assert.Equal(t, 1, env.logs.FilterMessage("document has no asset metadata").Len())
}

func TestLoad_LocalErrorsDoNotAbort(t *testing.T) {
	b := newDoc()
	good := b.triangleMesh(-1)
	bad := b.add("meshes", map[string]any{"primitives": []any{
		map[string]any{"attributes": map[string]any{"POSITION": 99}, "indices": 0},
	}})
	b.node(map[string]any{"mesh": good})
	b.node(map[string]any{"mesh": bad})

	env := newTestEnv(t)
	env.mustLoad(t, b.glb(t))

	meshes := env.loader.Meshes()
	require.Len(t, meshes, 2)
	assert.NotNil(t, meshes[good])
	assert.Nil(t, meshes[bad])
	assert.Equal(t, 2, env.engine.NodeCount())

	m, _ := env.loader.Nodes()[1].Mesh()
	assert.Nil(t, m)
	assert.Positive(t, env.loader.Stats().Defects)
	assert.Contains(t, env.events, EventSceneLoaded)
	assert.NotContains(t, env.events, EventParseError)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(glb.ErrMalformedContainer))
	assert.True(t, IsFatal(ErrInvalidDocument))
	assert.False(t, IsFatal(ErrUnresolvableReference))
	assert.False(t, IsFatal(ErrUnsupportedComponentType))
	assert.False(t, IsFatal(ErrDefectiveSubResource))
	assert.ErrorIs(t, ErrUnsupportedComponentType, ErrUnsupportedEncoding)
	assert.ErrorIs(t, ErrUnsupportedPixelFormat, ErrUnsupportedEncoding)
}

// sceneFixture builds a document with several elements in every section.
func sceneFixture(t *testing.T) []byte {
	b := newDoc()
	for i := 0; i < 4; i++ {
		b.add("materials", map[string]any{"name": "m"})
	}
	for i := 0; i < 5; i++ {
		b.triangleMesh(i % 4)
	}
	for i := 0; i < 6; i++ {
		b.node(map[string]any{"mesh": i % 5})
	}
	b.node(map[string]any{"children": []any{0, 1, 2}})
	b.add("scenes", map[string]any{"nodes": []any{3, 4, 5, 6}})
	b.set("scene", 0)
	return b.glb(t)
}

func TestScheduler_ZeroBudgetVisitsEveryElementOnce(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Millisecond}
	env := newTestEnv(t, func(o *Options) {
		o.TickBudget = 0
		o.Clock = clock.Now
	})
	env.loader.StartParsing(sceneFixture(t))

	for i := 0; i < 1000 && env.loader.Enabled(); i++ {
		env.loader.Tick()
	}
	require.Equal(t, StatusLoaded, env.loader.Status())

	stats := env.loader.Stats()
	want := map[Stage]int{
		StageParseContainer:     1,
		StageParseJSON:          1,
		StageParseAssetMetadata: 1,
		StageParseBufferViews:   10,
		StageParseAccessors:     10,
		StageParseImages:        1,
		StageParseSamplers:      1,
		StageParseTextures:      1,
		StageParseMaterials:     4,
		StageParseMeshes:        5,
		StageSpawnNodes:         7,
		StageSetupNodes:         7,
		StageSetupScenes:        1,
		StageSelectScene:        1,
	}
	total := 0
	for stage, calls := range want {
		assert.Equal(t, calls, stats.StageCalls[stage], "stage %s", stage)
		total += calls
	}
	assert.Equal(t, total, stats.Ticks, "a zero budget runs one element per tick")

	assert.Len(t, env.engine.Meshes(), 5)
	assert.Len(t, env.engine.Materials(), 4)
	assert.Equal(t, 7, env.engine.NodeCount())
	assert.Equal(t, 5, env.loader.TriangleCount())
	assert.Equal(t, 4, env.loader.MaterialCount())
	assert.Equal(t, 0, stats.Defects)
}

func TestScheduler_SameResultWithAnyBudget(t *testing.T) {
	data := sceneFixture(t)

	full := newTestEnv(t)
	full.mustLoad(t, data)
	assert.Equal(t, 1, full.loader.Stats().Ticks)

	clock := &fakeClock{now: time.Unix(0, 0), step: time.Millisecond}
	sliced := newTestEnv(t, func(o *Options) {
		o.TickBudget = 3 * time.Millisecond
		o.Clock = clock.Now
	})
	sliced.mustLoad(t, data)
	assert.Greater(t, sliced.loader.Stats().Ticks, 1)

	assert.Equal(t, full.engine.NodeCount(), sliced.engine.NodeCount())
	assert.Equal(t, len(full.engine.Meshes()), len(sliced.engine.Meshes()))
	assert.Equal(t, len(full.engine.Materials()), len(sliced.engine.Materials()))
	assert.Equal(t, full.loader.TriangleCount(), sliced.loader.TriangleCount())
	for i, n := range full.loader.Nodes() {
		assert.Equal(t, host.Visible(n), host.Visible(sliced.loader.Nodes()[i]), "node %d", i)
	}
}

func TestTick_DisabledIsNoop(t *testing.T) {
	env := newTestEnv(t)
	env.loader.Tick()
	assert.Equal(t, StatusIdle, env.loader.Status())
	assert.Equal(t, 0, env.loader.Stats().Ticks)
	assert.Empty(t, env.events)
}

func TestRun_ContextCanceled(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Millisecond}
	env := newTestEnv(t, func(o *Options) {
		o.TickBudget = 0
		o.Clock = clock.Now
	})
	env.loader.StartParsing(sceneFixture(t))
	env.loader.Tick()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, env.loader.Run(ctx), context.Canceled)
	assert.True(t, env.loader.Enabled(), "a canceled run leaves the load resumable")
	assert.Equal(t, StatusLoading, env.loader.Status())
}

func TestClear_DestroysScene(t *testing.T) {
	env := newTestEnv(t)
	env.mustLoad(t, sceneFixture(t))
	require.Equal(t, 7, env.engine.NodeCount())

	env.events = nil
	env.loader.Clear()
	assert.Equal(t, 0, env.engine.NodeCount())
	assert.Empty(t, env.engine.Root().Children())
	assert.Nil(t, env.loader.Nodes())
	assert.Equal(t, StatusIdle, env.loader.Status())
	assert.Equal(t, []Event{EventSceneCleared}, env.events)

	// A second load starts from a clean slate.
	env.mustLoad(t, sceneFixture(t))
	assert.Equal(t, 7, env.engine.NodeCount())
	assert.Equal(t, 5, env.loader.TriangleCount())
}

func TestBudget_RefreshOnlyWhenExhausted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := NewBudget(10*time.Millisecond, clock.Now)

	assert.False(t, b.StillHaveTime(), "a new budget has no open window")
	b.Refresh()
	assert.True(t, b.StillHaveTime())

	clock.now = clock.now.Add(4 * time.Millisecond)
	b.Refresh()
	clock.now = clock.now.Add(4 * time.Millisecond)
	assert.True(t, b.StillHaveTime(), "refresh inside the window keeps the old deadline")

	clock.now = clock.now.Add(4 * time.Millisecond)
	assert.False(t, b.StillHaveTime())
	b.Refresh()
	assert.True(t, b.StillHaveTime())
	assert.Equal(t, 10*time.Millisecond, b.Limit())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Loader.FlipAxis = "z"
	cfg.Loader.TickBudget = 5 * time.Millisecond
	cfg.Templates.MToon = "Toon"

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, math.AxisZ, opts.FlipAxis)
	assert.Equal(t, 5*time.Millisecond, opts.TickBudget)
	assert.Equal(t, "Toon", opts.Templates.MToon)
	assert.True(t, opts.RecomputeMissingNormals)

	cfg.Loader.FlipAxis = "w"
	_, err = OptionsFromConfig(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "ParseContainer", StageParseContainer.String())
	assert.Equal(t, "ParseJson", StageParseJSON.String())
	assert.Equal(t, "Done", StageDone.String())
	assert.Equal(t, "Stage(99)", Stage(99).String())
	assert.Equal(t, "loaded", StatusLoaded.String())
}
