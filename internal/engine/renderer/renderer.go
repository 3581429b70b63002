// Package renderer draws a host.Memory scene with OpenGL. Meshes and
// textures are uploaded lazily the first time a draw needs them, so a scene
// that is still loading can be drawn every frame.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/internal/engine/shader"
	"github.com/Faultbox/glbloader/internal/logger"
	"github.com/Faultbox/glbloader/pkg/math"
)

type gpuMesh struct {
	vao, vbo, ebo uint32
}

// Renderer caches GPU resources keyed by host resource ID.
type Renderer struct {
	program  *shader.Program
	meshes   map[int]*gpuMesh
	textures map[int]uint32
	white    uint32

	// LightDir is the direction light travels in world space.
	LightDir [3]float32
}

// New creates a renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.FRAMEBUFFER_SRGB)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	program, err := shader.Compile(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	r := &Renderer{
		program:  program,
		meshes:   make(map[int]*gpuMesh),
		textures: make(map[int]uint32),
		LightDir: [3]float32{-0.4, -1, -0.6},
	}
	white := host.WhitePixel("white")
	r.white = uploadRGBA(white.Width, white.Height, gl.RGBA, white.Pixels, host.DefaultSampler, true)
	return r, nil
}

// Close releases every GPU resource.
func (r *Renderer) Close() {
	logger.Info("closing renderer", zap.Int("meshes", len(r.meshes)), zap.Int("textures", len(r.textures)))
	r.Reset()
	gl.DeleteTextures(1, &r.white)
	r.program.Delete()
}

// Reset drops cached uploads, for when the scene is replaced.
func (r *Renderer) Reset() {
	for _, m := range r.meshes {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
	}
	for _, id := range r.textures {
		if id != r.white {
			gl.DeleteTextures(1, &id)
		}
	}
	r.meshes = make(map[int]*gpuMesh)
	r.textures = make(map[int]uint32)
}

// ReadPixels returns the bottom-up RGBA contents of the framebuffer.
func (r *Renderer) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels
}

// Viewport sets the GL viewport size.
func (r *Renderer) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Draw renders every visible node of mem.
func (r *Renderer) Draw(mem *host.Memory, view, projection math.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.program.Use()
	r.program.SetMat4("uView", view)
	r.program.SetMat4("uProjection", projection)
	r.program.SetVec3("uLightDir", math.Vec3From(r.LightDir).Normalize().Array())
	r.program.SetInt("uTexture", 0)
	gl.ActiveTexture(gl.TEXTURE0)

	for _, item := range collect(mem) {
		gm := r.mesh(item.mesh)
		r.applyMaterial(item.material)
		r.program.SetMat4("uModel", item.model)

		s := item.mesh.Submeshes[item.submesh]
		gl.BindVertexArray(gm.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, int32(s.IndexCount), gl.UNSIGNED_INT, uintptr(s.IndexStart*4))
	}
	gl.BindVertexArray(0)
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
}

func (r *Renderer) applyMaterial(mat *host.Material) {
	color := [4]float32{1, 1, 1, 1}
	var emission [3]float32
	var cutoff float32
	cull, zwrite := true, true
	blend := false
	lit := int32(1)
	tex := r.white
	st := [4]float32{1, 1, 0, 0}

	if mat != nil {
		if c, ok := mat.Color(host.PropColor); ok {
			color = c
		}
		if e, ok := mat.Color(host.PropEmissionColor); ok && mat.IsKeywordEnabled(host.KeywordEmission) {
			emission = [3]float32{e[0], e[1], e[2]}
		}
		if slot, ok := mat.TextureSlot(host.PropMainTex); ok && slot.Texture != nil {
			tex = r.texture(slot.Texture)
			st = [4]float32{slot.Scale[0], slot.Scale[1], slot.Offset[0], slot.Offset[1]}
		}
		if v, ok := mat.Float(host.PropCull); ok && v == host.CullOff {
			cull = false
		}
		switch mat.Mode {
		case host.RenderCutout:
			cutoff, _ = mat.Float(host.PropCutoff)
		case host.RenderBlend:
			blend = true
		}
		if v, ok := mat.Float(host.PropZWrite); ok && v == 0 {
			zwrite = false
		}
		if mat.Shader != "Standard" {
			lit = 0
		}
	}

	r.program.SetVec4("uColor", color)
	r.program.SetVec3("uEmission", emission)
	r.program.SetFloat("uCutoff", cutoff)
	r.program.SetVec4("uTexST", st)
	r.program.SetInt("uLit", lit)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	if cull {
		gl.Enable(gl.CULL_FACE)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
	if blend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.Disable(gl.BLEND)
	}
	gl.DepthMask(zwrite)
}

// mesh returns the GPU buffers of m, uploading them on first use.
func (r *Renderer) mesh(m *host.Mesh) *gpuMesh {
	if gm, ok := r.meshes[m.ID]; ok {
		return gm
	}

	vertices := interleave(m)
	gm := &gpuMesh{}
	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	const stride = floatsPerVertex * 4
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	if len(m.Indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)
	r.meshes[m.ID] = gm
	logger.Debug("mesh uploaded", zap.String("name", m.Name), zap.Int("vertices", m.VertexCount()))
	return gm
}

// texture returns the GL name of t, uploading it on first use.
// Block-compressed payloads are drawn white.
func (r *Renderer) texture(t *host.Texture) uint32 {
	if id, ok := r.textures[t.ID]; ok {
		return id
	}

	id := r.white
	switch t.Format {
	case host.FormatRGBA32:
		id = uploadRGBA(t.Width, t.Height, gl.RGBA, t.Pixels, t.Sampler, t.Linear)
	case host.FormatBGRA32:
		id = uploadRGBA(t.Width, t.Height, gl.BGRA, t.Pixels, t.Sampler, t.Linear)
	default:
		logger.Warn("compressed texture not uploaded",
			zap.String("name", t.Name),
			zap.Stringer("format", t.Format),
		)
	}
	r.textures[t.ID] = id
	return id
}

func uploadRGBA(width, height int, format uint32, pixels []byte, sampler host.Sampler, linear bool) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	internal := int32(gl.SRGB8_ALPHA8)
	if linear {
		internal = gl.RGBA8
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(width), int32(height), 0,
		format, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))

	minFilter, magFilter := glFilter(sampler.Filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(sampler.WrapU))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(sampler.WrapV))
	if sampler.Filter != host.FilterPoint {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	return id
}

func glFilter(f host.FilterMode) (minFilter, magFilter int32) {
	switch f {
	case host.FilterPoint:
		return gl.NEAREST, gl.NEAREST
	case host.FilterTrilinear:
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	default:
		return gl.LINEAR_MIPMAP_NEAREST, gl.LINEAR
	}
}

func glWrap(w host.WrapMode) int32 {
	switch w {
	case host.WrapClamp:
		return gl.CLAMP_TO_EDGE
	case host.WrapMirror:
		return gl.MIRRORED_REPEAT
	default:
		return gl.REPEAT
	}
}
