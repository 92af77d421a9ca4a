package game

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"taxitraffic/internal/config"
	"taxitraffic/internal/road"
	"taxitraffic/internal/sim"
	"taxitraffic/internal/traffic"
)

const (
	DefaultZoom = 5.0
	followRate  = 6.0
	titleEvery  = 0.5
)

// Options selects the files the viewer runs on. Empty fields fall back to
// the config and then to built-in defaults.
type Options struct {
	ConfigPath string
	RoadsPath  string
	Seed       uint64
}

// LoadNetwork reads the road file at path. A missing file yields the sample
// block grid so the viewer always has something to drive on.
func LoadNetwork(path string, logger *log.Logger) (*road.Network, error) {
	net, err := road.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Printf("[road] %s not found, using sample blocks", path)
		return sim.SampleNetwork(3, 3, 100, 40), nil
	}
	if err != nil {
		return nil, err
	}
	return net, nil
}

func RunDesktop(opts Options) error {
	runtime.LockOSThread()
	logger := log.Default()

	watched, err := config.Watch(opts.ConfigPath, logger)
	if err != nil {
		return err
	}
	_, gen := config.Current()
	c := *watched
	cfg := &c
	roadsPath := cfg.Roads
	if opts.RoadsPath != "" {
		roadsPath = opts.RoadsPath
	}
	if opts.Seed != 0 {
		cfg.Traffic.Seed = opts.Seed
	}
	net, err := LoadNetwork(roadsPath, logger)
	if err != nil {
		return fmt.Errorf("load roads: %w", err)
	}

	window, err := initWindow(cfg.Viewer.Width, cfg.Viewer.Height, "Taxi Traffic", cfg.Viewer.VSync)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}

	if cfg.Viewer.Audio {
		if err := InitAudio(); err != nil {
			logger.Printf("[game] audio init failed (continuing without sound): %v", err)
		}
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.ClearColor(0.16, 0.22, 0.14, 1.0)

	rend, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer rend.Destroy()

	scene := sim.NewScene(cfg, net, logger)
	var frame Frame
	frame.BuildRoads(scene.Net)

	cam := Camera{Zoom: DefaultZoom}
	p := scene.Player.Position()
	cam.Follow(p.X, p.Z, 0, 0)

	scene.Events.Subscribe(traffic.EventHandoffStarted, func(e traffic.Event) {
		t := scene.Traffic.Config()
		strength := clampF(e.Data/(t.ImpactForce*t.MaxImpactSpeed), 0, 1)
		cam.AddShake(0.3+0.9*strength, 0.35)
		frame.AddFlash(e.Pos.X, e.Pos.Z, strength)
		PlayCrash(strength)
	})
	scene.Events.Subscribe(traffic.EventGraphBuilt, func(traffic.Event) {
		frame.BuildRoads(scene.Net)
	})

	input := NewInput()
	autopilot := sim.NewAutopilot(scene.Net, scene.Traffic, cfg.Traffic.Seed)
	auto := false
	var recBuf []float32
	titleTimer := 0.0

	last := glfw.GetTime()
	for !window.ShouldClose() {
		now := glfw.GetTime()
		dt := now - last
		last = now
		if dt > 0.1 {
			dt = 0.1
		}

		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
			continue
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			continue
		}

		if next, g := config.Current(); g != gen {
			gen = g
			scene.Reconfigure(next)
			PlaySound(SoundReload)
		}

		switch {
		case input.JustPressed(window, glfw.KeyC):
			scene.Rebuild()
			PlaySound(SoundBlip)
		case input.JustPressed(window, glfw.KeyR):
			scene.ToggleRecording()
			if scene.Recorder.Recording() {
				PlaySound(SoundRecordStart)
			} else {
				PlaySound(SoundRecordStop)
			}
		case input.JustPressed(window, glfw.KeyF5):
			if err := scene.Save(roadsPath); err != nil {
				logger.Printf("[game] %v", err)
			} else {
				PlaySound(SoundBlip)
			}
		case input.JustPressed(window, glfw.KeyP):
			auto = !auto
			logger.Printf("[game] autopilot %v", auto)
		}

		throttle, steer := DriveInput(window)
		if auto && throttle == 0 && steer == 0 {
			throttle, steer = autopilot.Steer(scene.Player, dt)
		}
		scene.Player.Drive(throttle, steer, dt)
		scene.Step(dt)

		p := scene.Player.Position()
		cam.Follow(p.X, p.Z, followRate, dt)
		UpdateCameraZoom(&cam, window, dt)
		cam.UpdateShake(dt, cfg.Traffic.Seed^uint64(now*1000))
		frame.UpdateFlashes(dt)

		titleTimer -= dt
		if titleTimer <= 0 {
			titleTimer = titleEvery
			window.SetTitle(fmt.Sprintf("Taxi Traffic | %s | %.0f km/h | impacts %d",
				scene.Stats(), math.Abs(scene.Player.Speed())*3.6, scene.Impacts()))
		}

		rend.BeginFrame(fbW, fbH)
		rend.DrawLines(frame.roads, 3, cam, fbW, fbH)
		rend.DrawLines(frame.links, 1, cam, fbW, fbH)
		recBuf = frame.Recording(scene.Recorder, recBuf)
		rend.DrawLines(recBuf, 3, cam, fbW, fbH)
		frame.BuildCars(scene)
		rend.DrawCars(frame.cars, cam, fbW, fbH)
		rend.DrawGlowSprites(frame.glow, cam, fbW, fbH)

		window.SwapBuffers()
	}
	return nil
}
