package game

import (
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type Input struct {
	prevKeys map[glfw.Key]bool
}

func NewInput() *Input {
	return &Input{prevKeys: make(map[glfw.Key]bool)}
}

func (in *Input) JustPressed(window *glfw.Window, key glfw.Key) bool {
	down := window.GetKey(key) == glfw.Press
	jp := down && !in.prevKeys[key]
	in.prevKeys[key] = down
	return jp
}

func axis(window *glfw.Window, neg, pos glfw.Key) float64 {
	v := 0.0
	if window.GetKey(neg) == glfw.Press {
		v--
	}
	if window.GetKey(pos) == glfw.Press {
		v++
	}
	return v
}

// DriveInput reads W/S (or arrows) as throttle and A/D as steering.
// Positive steer turns right.
func DriveInput(window *glfw.Window) (throttle, steer float64) {
	throttle = clampF(axis(window, glfw.KeyS, glfw.KeyW)+axis(window, glfw.KeyDown, glfw.KeyUp), -1, 1)
	steer = clampF(axis(window, glfw.KeyA, glfw.KeyD)+axis(window, glfw.KeyLeft, glfw.KeyRight), -1, 1)
	return throttle, steer
}

// UpdateCameraZoom handles Q/E zoom.
func UpdateCameraZoom(cam *Camera, window *glfw.Window, dt float64) {
	zoomRate := 1.4
	if window.GetKey(glfw.KeyE) == glfw.Press {
		cam.Zoom *= math.Exp(zoomRate * dt)
	}
	if window.GetKey(glfw.KeyQ) == glfw.Press {
		cam.Zoom *= math.Exp(-zoomRate * dt)
	}
	cam.ClampZoom()
}
