// Package renderer draws garment models with OpenGL.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"unsafe"

	"github.com/anthonynsimon/bild/clone"
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/garment-paint/internal/engine/model"
	"github.com/Faultbox/garment-paint/internal/engine/texture"
	"github.com/Faultbox/garment-paint/internal/logger"
	"github.com/Faultbox/garment-paint/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	Background color.NRGBA
}

type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
	indexed       bool
}

type gpuTexture struct {
	id      uint32
	version uint64
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config
	log    *zap.Logger

	program                     uint32
	uMVP, uModel, uColor        int32
	uUseTexture, uLit, uTexture int32
	uFlipV                      int32
	uLightDir, uFillDir         int32

	meshes   map[*model.Surface]*gpuMesh
	textures map[image.Image]*gpuTexture

	// live is the layer set whose composite changes between frames.
	live *texture.Layers
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:   cfg,
		log:      logger.Named("renderer"),
		meshes:   make(map[*model.Surface]*gpuMesh),
		textures: make(map[image.Image]*gpuTexture),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)
	bg := cfg.Background
	gl.ClearColor(float32(bg.R)/255, float32(bg.G)/255, float32(bg.B)/255, 1)

	var err error
	r.program, err = compileProgram(surfaceVertexShader, surfaceFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.uMVP = uniform(r.program, "uMVP")
	r.uModel = uniform(r.program, "uModel")
	r.uColor = uniform(r.program, "uColor")
	r.uUseTexture = uniform(r.program, "uUseTexture")
	r.uFlipV = uniform(r.program, "uFlipV")
	r.uLit = uniform(r.program, "uLit")
	r.uTexture = uniform(r.program, "uTexture")
	r.uLightDir = uniform(r.program, "uLightDir")
	r.uFillDir = uniform(r.program, "uFillDir")

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	r.ReleaseModel()
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Resize handles framebuffer resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// SetLiveLayers registers the layers being painted. Their composite is
// re-uploaded whenever its version changes. The previous composite's
// texture is freed.
func (r *Renderer) SetLiveLayers(l *texture.Layers) {
	if r.live == l {
		return
	}
	if r.live != nil {
		r.releaseTexture(r.live.Composite)
	}
	r.live = l
}

func (r *Renderer) releaseTexture(img image.Image) {
	if t, ok := r.textures[img]; ok {
		gl.DeleteTextures(1, &t.id)
		delete(r.textures, img)
	}
}

// ReleaseModel frees GPU resources of the previous model.
func (r *Renderer) ReleaseModel() {
	for s, m := range r.meshes {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		if m.ebo != 0 {
			gl.DeleteBuffers(1, &m.ebo)
		}
		delete(r.meshes, s)
	}
	for img := range r.textures {
		r.releaseTexture(img)
	}
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// DrawModel draws every visible surface of m.
func (r *Renderer) DrawModel(m *model.Model, viewProj math.Mat4) {
	if m == nil {
		return
	}
	gl.UseProgram(r.program)
	gl.Uniform1i(r.uTexture, 0)
	gl.Uniform3f(r.uLightDir, 5, 5, 5)
	gl.Uniform3f(r.uFillDir, -5, 0, -5)

	for _, s := range m.Surfaces() {
		mat := s.Material
		if mat == nil || !mat.Visible || s.VertexCount() == 0 {
			continue
		}
		mesh := r.mesh(s)

		world := s.World()
		mvp := viewProj.Mul(world)
		gl.UniformMatrix4fv(r.uMVP, 1, false, mvp.Ptr())
		gl.UniformMatrix4fv(r.uModel, 1, false, world.Ptr())

		opacity := mat.Opacity
		if !mat.Transparent {
			opacity = 1
		}
		gl.Uniform4f(r.uColor,
			float32(mat.Color.R)/255, float32(mat.Color.G)/255, float32(mat.Color.B)/255, opacity)

		tex := r.texture(mat.Map)
		useTexture := tex != nil && s.HasUV && !mat.Wireframe
		gl.Uniform1i(r.uUseTexture, boolInt(useTexture))
		gl.Uniform1i(r.uFlipV, boolInt(sampleFlipped(mat.Map, r.live)))
		gl.Uniform1i(r.uLit, boolInt(!mat.Wireframe))
		if useTexture {
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, tex.id)
		}

		if mat.Transparent {
			gl.Enable(gl.BLEND)
			gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		}
		if mat.Wireframe {
			gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		}

		gl.BindVertexArray(mesh.vao)
		if mesh.indexed {
			gl.DrawElements(gl.TRIANGLES, mesh.count, gl.UNSIGNED_INT, nil)
		} else {
			gl.DrawArrays(gl.TRIANGLES, 0, mesh.count)
		}
		gl.BindVertexArray(0)

		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
		gl.Disable(gl.BLEND)
	}
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.UseProgram(0)
}

// ReadPixels reads back the framebuffer as RGBA rows, bottom row first.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}

// mesh uploads s on first use. Vertices are interleaved position + UV.
func (r *Renderer) mesh(s *model.Surface) *gpuMesh {
	if m, ok := r.meshes[s]; ok {
		return m
	}

	const stride = 5
	verts := make([]float32, 0, s.VertexCount()*stride)
	for i, p := range s.Positions {
		var uv math.Vec2
		if s.HasUV {
			uv = s.UVs[i]
		}
		verts = append(verts, p.X, p.Y, p.Z, uv.X, uv.Y)
	}

	m := &gpuMesh{}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride*4, 3*4)
	gl.EnableVertexAttribArray(1)

	if len(s.Indices) > 0 {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(s.Indices)*4, gl.Ptr(s.Indices), gl.STATIC_DRAW)
		m.indexed = true
		m.count = int32(len(s.Indices))
	} else {
		m.count = int32(s.VertexCount())
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.meshes[s] = m
	r.log.Debug("surface uploaded",
		zap.String("surface", s.Name),
		zap.Uint32("vao", m.vao),
		zap.Int32("count", m.count),
	)
	return m
}

// texture returns the GPU texture for img, uploading it on first use and
// refreshing the live composite when it changed.
func (r *Renderer) texture(img image.Image) *gpuTexture {
	if img == nil {
		return nil
	}
	if t, ok := r.textures[img]; ok {
		if r.live != nil && img == image.Image(r.live.Composite) && t.version != r.live.Version() {
			gl.BindTexture(gl.TEXTURE_2D, t.id)
			c := r.live.Composite
			gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(c.Rect.Dx()), int32(c.Rect.Dy()),
				gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(c.Pix))
			t.version = r.live.Version()
		}
		return t
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*rgba.Rect.Dx() {
		rgba = clone.AsRGBA(img)
	}
	b := rgba.Bounds()

	t := &gpuTexture{}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	if r.live != nil && img == image.Image(r.live.Composite) {
		t.version = r.live.Version()
	}

	r.textures[img] = t
	r.log.Debug("texture uploaded",
		zap.Uint32("id", t.id),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
	)
	return t
}

// sampleFlipped reports whether img is the painted composite, whose rows
// run from v=1 down to v=0.
func sampleFlipped(img image.Image, live *texture.Layers) bool {
	return img != nil && live != nil && img == image.Image(live.Composite)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
