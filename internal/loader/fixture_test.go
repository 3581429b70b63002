package loader

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	gomath "math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/pkg/glb"
)

// docBuilder assembles a glTF document and its binary chunk.
type docBuilder struct {
	doc map[string]any
	bin []byte
}

func newDoc() *docBuilder {
	return &docBuilder{doc: map[string]any{
		"asset": map[string]any{"version": "2.0", "generator": "fixture"},
	}}
}

// add appends v to the top-level array key and returns its index.
func (b *docBuilder) add(key string, v any) int {
	list, _ := b.doc[key].([]any)
	b.doc[key] = append(list, v)
	return len(list)
}

func (b *docBuilder) set(key string, v any) *docBuilder {
	b.doc[key] = v
	return b
}

func (b *docBuilder) view(data []byte, stride int) int {
	for len(b.bin)%4 != 0 {
		b.bin = append(b.bin, 0)
	}
	v := map[string]any{"buffer": 0, "byteOffset": len(b.bin), "byteLength": len(data)}
	if stride > 0 {
		v["byteStride"] = stride
	}
	b.bin = append(b.bin, data...)
	return b.add("bufferViews", v)
}

func (b *docBuilder) accessor(view, componentType, count int, typ string) int {
	return b.add("accessors", map[string]any{
		"bufferView":    view,
		"componentType": componentType,
		"count":         count,
		"type":          typ,
	})
}

var typeComponents = map[string]int{"SCALAR": 1, "VEC2": 2, "VEC3": 3, "VEC4": 4}

func (b *docBuilder) floats(typ string, vals ...float32) int {
	view := b.view(f32Bytes(vals...), 0)
	return b.accessor(view, int(ComponentFloat), len(vals)/typeComponents[typ], typ)
}

func (b *docBuilder) indices16(vals ...uint16) int {
	var data []byte
	for _, v := range vals {
		data = binary.LittleEndian.AppendUint16(data, v)
	}
	return b.accessor(b.view(data, 0), int(ComponentUnsignedShort), len(vals), "SCALAR")
}

func (b *docBuilder) indices32(vals ...uint32) int {
	var data []byte
	for _, v := range vals {
		data = binary.LittleEndian.AppendUint32(data, v)
	}
	return b.accessor(b.view(data, 0), int(ComponentUnsignedInt), len(vals), "SCALAR")
}

// triangle adds a one-triangle primitive definition.
func (b *docBuilder) triangle(material int) map[string]any {
	pos := b.floats("VEC3", 1, 0, 0, 0, 1, 0, 0, 0, 1)
	idx := b.indices16(0, 1, 2)
	prim := map[string]any{"attributes": map[string]any{"POSITION": pos}, "indices": idx}
	if material >= 0 {
		prim["material"] = material
	}
	return prim
}

// triangleMesh adds a mesh with one triangle primitive.
func (b *docBuilder) triangleMesh(material int) int {
	return b.add("meshes", map[string]any{"primitives": []any{b.triangle(material)}})
}

func (b *docBuilder) node(fields map[string]any) int {
	if fields == nil {
		fields = map[string]any{}
	}
	return b.add("nodes", fields)
}

// pngImage embeds a w x h gradient PNG and returns its image index.
func (b *docBuilder) pngImage(t *testing.T, w, h int) int {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / max(1, w-1)), G: uint8(y * 255 / max(1, h-1)), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return b.add("images", map[string]any{"bufferView": b.view(buf.Bytes(), 0), "mimeType": "image/png"})
}

// texture adds a texture sampling image source.
func (b *docBuilder) texture(source int) int {
	return b.add("textures", map[string]any{"source": source})
}

func (b *docBuilder) glb(t *testing.T) []byte {
	t.Helper()
	if len(b.bin) > 0 {
		b.doc["buffers"] = []any{map[string]any{"byteLength": len(b.bin)}}
	}
	js, err := json.Marshal(b.doc)
	require.NoError(t, err)
	return glb.Encode(js, b.bin)
}

func f32Bytes(vals ...float32) []byte {
	var out []byte
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, gomath.Float32bits(v))
	}
	return out
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

type testEnv struct {
	loader *Loader
	engine *host.Memory
	logs   *observer.ObservedLogs
	events []Event
}

// newTestEnv returns a loader with an unbounded budget so a load completes
// in one tick, unless mutate changes it.
func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	opts := DefaultOptions()
	opts.TickBudget = time.Hour
	opts.Logger = zap.New(core)
	for _, m := range mutate {
		m(&opts)
	}
	env := &testEnv{engine: host.NewMemory(), logs: logs}
	env.loader = New(env.engine, opts)
	env.loader.AddObserver(ObserverFunc(func(ev Event) { env.events = append(env.events, ev) }))
	return env
}

func (env *testEnv) load(t *testing.T, data []byte) error {
	t.Helper()
	return env.loader.Load(context.Background(), data)
}

// mustLoad loads data and fails the test on a fatal error.
func (env *testEnv) mustLoad(t *testing.T, data []byte) {
	t.Helper()
	require.NoError(t, env.load(t, data))
	require.Equal(t, StatusLoaded, env.loader.Status())
}

// defectErrors returns the errors of the logged defects, in order.
func (env *testEnv) defectErrors() []error {
	var errs []error
	for _, entry := range env.logs.FilterMessage("defective element").All() {
		for _, f := range entry.Context {
			if err, ok := f.Interface.(error); ok && f.Key == "error" {
				errs = append(errs, err)
			}
		}
	}
	return errs
}
