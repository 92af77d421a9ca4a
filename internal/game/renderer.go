package game

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// MaxSprites caps the sprites uploaded per draw call.
const MaxSprites = 8192

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

type Renderer struct {
	// Line program.
	lineProg uint32
	lineVAO  uint32
	lineVBO  uint32

	lnUCamera     int32
	lnUZoom       int32
	lnUResolution int32

	// Car program, shares the sprite VAO.
	carProg        uint32
	carUCamera     int32
	carUZoom       int32
	carUResolution int32
	carUAspect     int32

	// Glow (radial light) program, additive blend only.
	glowProg        uint32
	glowUCamera     int32
	glowUZoom       int32
	glowUResolution int32

	spriteVAO uint32
	spriteVBO uint32
}

func NewRenderer() (*Renderer, error) {
	lineProg, err := linkProgram(lineVertSrc, lineFragSrc)
	if err != nil {
		return nil, fmt.Errorf("line program: %w", err)
	}
	carProg, err := linkProgram(spriteVertSrc, carFragSrc)
	if err != nil {
		gl.DeleteProgram(lineProg)
		return nil, fmt.Errorf("car program: %w", err)
	}
	glowProg, err := linkProgram(spriteVertSrc, glowFragSrc)
	if err != nil {
		gl.DeleteProgram(lineProg)
		gl.DeleteProgram(carProg)
		return nil, fmt.Errorf("glow program: %w", err)
	}

	r := &Renderer{
		lineProg: lineProg,
		carProg:  carProg,
		glowProg: glowProg,
	}

	// Line VAO/VBO: streaming buffer of (x, y, r, g, b, a) vertices.
	var lVAO, lVBO uint32
	gl.GenVertexArrays(1, &lVAO)
	gl.GenBuffers(1, &lVBO)
	gl.BindVertexArray(lVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, lVBO)
	lstride := int32(6 * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, lstride, glOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, lstride, glOffset(2*4))
	r.lineVAO = lVAO
	r.lineVBO = lVBO

	gl.UseProgram(lineProg)
	r.lnUCamera = gl.GetUniformLocation(lineProg, gl.Str("uCamera\x00"))
	r.lnUZoom = gl.GetUniformLocation(lineProg, gl.Str("uZoom\x00"))
	r.lnUResolution = gl.GetUniformLocation(lineProg, gl.Str("uResolution\x00"))

	// Sprite VAO/VBO: streaming buffer for point sprites.
	// Each sprite: 8 floats (x, y, size, r, g, b, a, rotation).
	var sVAO, sVBO uint32
	gl.GenVertexArrays(1, &sVAO)
	gl.GenBuffers(1, &sVBO)
	gl.BindVertexArray(sVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, sVBO)

	stride := int32(8 * 4)
	gl.BufferData(gl.ARRAY_BUFFER, MaxSprites*int(stride), nil, gl.STREAM_DRAW)
	// aWorldPos (vec2)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, glOffset(0))
	// aSize (float)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 1, gl.FLOAT, false, stride, glOffset(2*4))
	// aColor (vec4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, glOffset(3*4))
	// aRotation (float)
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 1, gl.FLOAT, false, stride, glOffset(7*4))
	r.spriteVAO = sVAO
	r.spriteVBO = sVBO

	gl.UseProgram(carProg)
	r.carUCamera = gl.GetUniformLocation(carProg, gl.Str("uCamera\x00"))
	r.carUZoom = gl.GetUniformLocation(carProg, gl.Str("uZoom\x00"))
	r.carUResolution = gl.GetUniformLocation(carProg, gl.Str("uResolution\x00"))
	r.carUAspect = gl.GetUniformLocation(carProg, gl.Str("uAspect\x00"))
	gl.Uniform1f(r.carUAspect, CarAspect)

	gl.UseProgram(glowProg)
	r.glowUCamera = gl.GetUniformLocation(glowProg, gl.Str("uCamera\x00"))
	r.glowUZoom = gl.GetUniformLocation(glowProg, gl.Str("uZoom\x00"))
	r.glowUResolution = gl.GetUniformLocation(glowProg, gl.Str("uResolution\x00"))

	gl.BindVertexArray(0)
	return r, nil
}

func (r *Renderer) Destroy() {
	for _, id := range []uint32{r.lineVBO, r.spriteVBO} {
		if id != 0 {
			gl.DeleteBuffers(1, &id)
		}
	}
	for _, id := range []uint32{r.lineVAO, r.spriteVAO} {
		if id != 0 {
			gl.DeleteVertexArrays(1, &id)
		}
	}
	for _, id := range []uint32{r.lineProg, r.carProg, r.glowProg} {
		if id != 0 {
			gl.DeleteProgram(id)
		}
	}
}

func (r *Renderer) BeginFrame(fbW, fbH int) {
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// DrawLines renders GL_LINES. buf format: [x, y, r, g, b, a] per vertex,
// two vertices per line.
func (r *Renderer) DrawLines(buf []float32, width float32, cam Camera, fbW, fbH int) {
	if len(buf) < 12 {
		return
	}
	count := len(buf) / 6
	gl.UseProgram(r.lineProg)
	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)

	cx, cy := cam.EffectivePos()
	gl.Uniform2f(r.lnUCamera, float32(cx), float32(cy))
	gl.Uniform1f(r.lnUZoom, float32(cam.Zoom))
	gl.Uniform2f(r.lnUResolution, float32(fbW), float32(fbH))

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.LineWidth(width)
	gl.BufferData(gl.ARRAY_BUFFER, count*6*4, gl.Ptr(buf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.LINES, 0, int32(count))
	gl.Disable(gl.BLEND)
}

// DrawCars renders cars as rotated point sprites.
// buf format: [x, y, size, r, g, b, a, rotation] * N (8 floats per sprite).
func (r *Renderer) DrawCars(buf []float32, cam Camera, fbW, fbH int) {
	r.drawSprites(r.carProg, r.carUCamera, r.carUZoom, r.carUResolution, buf, cam, fbW, fbH, false)
}

// DrawGlowSprites renders light sprites with additive blending and radial falloff.
// RGB values should be pre-multiplied by desired brightness.
func (r *Renderer) DrawGlowSprites(buf []float32, cam Camera, fbW, fbH int) {
	r.drawSprites(r.glowProg, r.glowUCamera, r.glowUZoom, r.glowUResolution, buf, cam, fbW, fbH, true)
}

func (r *Renderer) drawSprites(prog uint32, uCam, uZoom, uRes int32, buf []float32, cam Camera, fbW, fbH int, additive bool) {
	if len(buf) == 0 {
		return
	}
	count := len(buf) / 8
	if count > MaxSprites {
		count = MaxSprites
	}

	gl.UseProgram(prog)
	gl.BindVertexArray(r.spriteVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.spriteVBO)

	cx, cy := cam.EffectivePos()
	gl.Uniform2f(uCam, float32(cx), float32(cy))
	gl.Uniform1f(uZoom, float32(cam.Zoom))
	gl.Uniform2f(uRes, float32(fbW), float32(fbH))

	gl.Enable(gl.BLEND)
	if additive {
		gl.BlendFunc(gl.ONE, gl.ONE)
	} else {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
	gl.BufferData(gl.ARRAY_BUFFER, count*8*4, gl.Ptr(buf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.POINTS, 0, int32(count))
	gl.Disable(gl.BLEND)
}
