// Package viewer implements the glbview frame loop: it ticks an
// incremental load once per frame and draws whatever has been built so far.
package viewer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/config"
	"github.com/Faultbox/glbloader/internal/engine/camera"
	"github.com/Faultbox/glbloader/internal/engine/debug"
	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/internal/engine/input"
	"github.com/Faultbox/glbloader/internal/engine/lighting"
	"github.com/Faultbox/glbloader/internal/engine/picking"
	"github.com/Faultbox/glbloader/internal/engine/renderer"
	"github.com/Faultbox/glbloader/internal/engine/window"
	"github.com/Faultbox/glbloader/internal/loader"
	"github.com/Faultbox/glbloader/internal/logger"
)

// Viewer is one glbview instance.
type Viewer struct {
	path     string
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	engine   *host.Memory
	loader   *loader.Loader
	shots    *debug.ScreenshotCapture
	capture  bool
	loadedAt time.Time
}

// New opens a window and starts loading path.
func New(cfg *config.Config, path string) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.String("file", path),
		zap.Int("width", cfg.Viewer.Width),
		zap.Int("height", cfg.Viewer.Height),
	)

	opts, err := loader.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		path:   path,
		input:  input.New(),
		camera: camera.NewOrbitCamera(),
		engine: host.NewMemory(),
		shots:  debug.NewScreenshotCapture(cfg.Viewer.ScreenshotDir, "glbview"),
	}

	// Create window (this also creates OpenGL context)
	v.window, err = window.New("glbview", cfg.Viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	v.renderer, err = renderer.New()
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.renderer.LightDir = lighting.LightDirection(cfg.Viewer.LightAzimuth, cfg.Viewer.LightElevation)

	v.loader = loader.New(v.engine, opts)
	v.loader.AddObserver(loader.ObserverFunc(v.onLoaderEvent))
	if err := v.reload(); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

// reload reads the file again and restarts the load.
func (v *Viewer) reload() error {
	data, err := os.ReadFile(v.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", v.path, err)
	}
	v.loader.StartParsing(data)
	v.renderer.Reset()
	v.loadedAt = time.Now()
	return nil
}

func (v *Viewer) onLoaderEvent(ev loader.Event) {
	switch ev {
	case loader.EventSceneCleared:
		if n := v.engine.Release(); n > 0 {
			logger.Debug("released scene resources", zap.Int("count", n))
		}
	case loader.EventSceneLoaded:
		stats := v.loader.Stats()
		logger.Info("scene ready",
			zap.Duration("elapsed", time.Since(v.loadedAt)),
			zap.Int("ticks", stats.Ticks),
			zap.Int("triangles", stats.Triangles),
			zap.Int("defects", stats.Defects),
		)
		v.fitCamera()
	case loader.EventParseError:
		logger.Error("cannot display file", zap.String("file", v.path), zap.Error(v.loader.LastError()))
	}
}

func (v *Viewer) fitCamera() {
	if center, radius, ok := sceneBounds(v.engine); ok {
		v.camera.Fit(center, radius)
	}
}

// Run starts the frame loop.
func (v *Viewer) Run() error {
	v.running = true

	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting frame loop")

	for v.running {
		if v.input.Update() {
			v.running = false
			break
		}
		if err := v.handleEvents(); err != nil {
			return err
		}

		// Advances the build by one budget window; a no-op once loaded.
		v.loader.Tick()

		width, height := v.window.Size()
		v.renderer.Viewport(width, height)
		aspect := float32(width) / float32(max(height, 1))
		v.renderer.Draw(v.engine, v.camera.ViewMatrix(), v.camera.ProjectionMatrix(aspect))
		if v.capture {
			v.capture = false
			v.screenshot(width, height)
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(v.title(frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() error {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventDrag:
			v.camera.HandleDrag(event.DX, event.DY)
		case input.EventWheel:
			v.camera.HandleZoom(event.DY)
		case input.EventClick:
			v.pick(event.X, event.Y)
		case input.EventKeyDown:
			switch event.Key {
			case sdl.K_ESCAPE:
				v.running = false
			case sdl.K_r:
				if err := v.reload(); err != nil {
					return err
				}
			case sdl.K_f:
				v.fitCamera()
			case sdl.K_a:
				v.selectScene(-1)
			case sdl.K_TAB:
				v.selectScene(nextScene(v.loader.SelectedScene(), len(v.loader.Scenes())))
			case sdl.K_F12:
				v.capture = true
			}
		}
	}
	return nil
}

// pick logs the mesh node under the cursor.
func (v *Viewer) pick(x, y int) {
	width, height := v.window.Size()
	aspect := float32(width) / float32(max(height, 1))
	viewProj := v.camera.ProjectionMatrix(aspect).Mul(v.camera.ViewMatrix())
	ray := picking.ScreenToRay(float32(x), float32(y), float32(width), float32(height), viewProj.Inverse())

	n, ok := picking.Pick(v.engine, ray)
	if !ok {
		logger.Debug("nothing picked", zap.Int("x", x), zap.Int("y", y))
		return
	}
	mesh, materials := n.Mesh()
	names := make([]string, len(materials))
	for i, m := range materials {
		if m != nil {
			names[i] = m.Name
		}
	}
	logger.Info("node picked",
		zap.String("node", n.Name()),
		zap.String("mesh", mesh.Name),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Strings("materials", names),
	)
}

// screenshot saves the frame just drawn, before it is presented.
func (v *Viewer) screenshot(width, height int) {
	name, err := v.shots.CaptureFromPixels(v.renderer.ReadPixels(width, height), width, height)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("file", name))
}

func (v *Viewer) selectScene(i int) {
	if err := v.loader.SelectScene(i); err != nil {
		logger.Warn("scene not selectable", zap.Int("scene", i), zap.Error(err))
		return
	}
	logger.Info("scene selected", zap.Int("scene", i))
	v.fitCamera()
}

// nextScene cycles through the scenes and wraps back to showing all.
func nextScene(current, count int) int {
	if count == 0 {
		return -1
	}
	if current+1 >= count {
		return -1
	}
	return current + 1
}

func (v *Viewer) title(fps int) string {
	name := filepath.Base(v.path)
	switch v.loader.Status() {
	case loader.StatusLoading:
		return fmt.Sprintf("glbview - %s - loading %.0f%% (%s)", name, v.loader.Progress()*100, v.loader.State().Stage)
	case loader.StatusFailed:
		return fmt.Sprintf("glbview - %s - failed", name)
	}
	scene := "all"
	if s := v.loader.SelectedScene(); s >= 0 {
		scene = fmt.Sprintf("%d/%d", s+1, len(v.loader.Scenes()))
	}
	return fmt.Sprintf("glbview - %s - scene %s - %d tris - %d fps", name, scene, v.loader.TriangleCount(), fps)
}

// Close releases the renderer and window.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
