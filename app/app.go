// Package app hosts the window, the frame loop, and the wiring between
// input, solver, post-effects, and telemetry.
package app

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/calder-gfx/inkflow/config"
	"github.com/calder-gfx/inkflow/fluid"
	"github.com/calder-gfx/inkflow/gfx"
	"github.com/calder-gfx/inkflow/input"
	"github.com/calder-gfx/inkflow/telemetry"
)

// mousePointerID is the pointer record shared by all mouse buttons.
const mousePointerID int64 = 0

// Options holds the CLI-level knobs.
type Options struct {
	Seed      int64
	OutputDir string
	MaxFrames int
}

// App owns the window and drives one frame per loop iteration.
type App struct {
	win     *glfw.Window
	ctx     *gfx.Context
	sim     *fluid.Simulator
	adapter *input.Adapter
	screen  *gfx.FBO

	perf     *telemetry.PerfCollector
	out      *telemetry.OutputManager
	lmSource *input.WSLandmarkSource

	opts      Options
	rng       *rand.Rand
	lastFrame time.Time
	frame     int64
}

// New creates the window, the GL context, and every component. Must be
// called from the main OS thread.
func New(opts Options) (*App, error) {
	cfg := config.Cfg()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("app: initializing glfw: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(cfg.Screen.Width, cfg.Screen.Height, cfg.Screen.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("app: creating window: %w", err)
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(1)

	ctx, err := gfx.NewContext(cfg.Sim.ForceManualFilter)
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	fbW, fbH := win.GetFramebufferSize()

	sim, err := fluid.NewSimulator(ctx, int32(fbW), int32(fbH), rng)
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}

	var lmSource *input.WSLandmarkSource
	var source input.LandmarkSource
	if url := cfg.Input.LandmarkURL; url != "" {
		lmSource, err = input.DialLandmarkSource(url)
		if err != nil {
			// The solver is usable without hands; keep going on mouse input.
			slog.Warn("landmark source unavailable", "url", url, "error", err)
		} else {
			source = lmSource
			slog.Info("landmark stream connected", "url", url)
		}
	}

	out, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := out.WriteConfig(cfg); err != nil {
		slog.Warn("failed to snapshot config", "error", err)
	}

	a := &App{
		win:      win,
		ctx:      ctx,
		sim:      sim,
		adapter:  input.NewAdapter(sim.Pointers, rng, source, int32(fbW), int32(fbH)),
		screen:   gfx.NewScreen(int32(fbW), int32(fbH)),
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		out:      out,
		lmSource: lmSource,
		opts:     opts,
		rng:      rng,
	}
	a.installCallbacks()
	return a, nil
}

func (a *App) installCallbacks() {
	a.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		px, py := a.surfacePixels(x, y)
		a.adapter.HandleEvent(input.PointerMove{ID: mousePointerID, X: px, Y: py})
	})

	a.win.SetMouseButtonCallback(func(_ *glfw.Window, _ glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		x, y := a.win.GetCursorPos()
		px, py := a.surfacePixels(x, y)
		switch action {
		case glfw.Press:
			a.adapter.HandleEvent(input.PointerDown{ID: mousePointerID, X: px, Y: py})
		case glfw.Release:
			a.adapter.HandleEvent(input.PointerUp{ID: mousePointerID})
		}
	})

	a.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyP:
			a.adapter.HandleEvent(input.Key{Code: "P"})
		case glfw.KeySpace:
			a.adapter.HandleEvent(input.Key{Code: "SPACE"})
		}
	})
}

// surfacePixels converts window coordinates to framebuffer pixels,
// honoring the device pixel ratio.
func (a *App) surfacePixels(x, y float64) (float32, float32) {
	winW, winH := a.win.GetSize()
	fbW, fbH := a.win.GetFramebufferSize()
	if winW == 0 || winH == 0 {
		return float32(x), float32(y)
	}
	return float32(x * float64(fbW) / float64(winW)),
		float32(y * float64(fbH) / float64(winH))
}

// Run drives the frame loop until the window closes or MaxFrames elapse.
func (a *App) Run() {
	a.lastFrame = time.Now()
	for !a.win.ShouldClose() {
		glfw.PollEvents()
		a.frameOnce()
		a.win.SwapBuffers()

		if a.opts.MaxFrames > 0 && a.frame >= int64(a.opts.MaxFrames) {
			slog.Info("max frames reached", "frame", a.frame)
			return
		}
	}
}

func (a *App) frameOnce() {
	cfg := config.Cfg()
	a.perf.StartFrame()

	now := time.Now()
	dt := fluid.ClampDT(now.Sub(a.lastFrame).Seconds())
	a.lastFrame = now

	a.perf.StartPhase(telemetry.PhaseInput)
	if !a.applyResize() {
		// Allocation failed mid-resize; skip this frame and retry on the next.
		a.perf.EndFrame()
		return
	}
	a.sim.UpdateColors(dt)

	a.perf.StartPhase(telemetry.PhaseSplats)
	a.adapter.Apply(a.sim)

	a.perf.StartPhase(telemetry.PhaseStep)
	if !cfg.Sim.Paused {
		a.step(dt)
	}

	a.perf.StartPhase(telemetry.PhaseRender)
	a.sim.Render(a.screen)

	a.perf.StartPhase(telemetry.PhaseDiagnostics)
	a.diagnostics()

	a.perf.EndFrame()
	a.frame++

	if window := int64(cfg.Telemetry.PerfWindow); window > 0 && a.frame%window == 0 {
		stats := a.perf.Stats()
		slog.Info("perf", "stats", stats)
		if err := a.out.WritePerf(stats, a.frame); err != nil {
			slog.Warn("perf output failed", "error", err)
		}
	}
}

// step advances the solver, converting a pass failure into a pause instead
// of crashing the loop.
func (a *App) step(dt float32) {
	defer func() {
		if r := recover(); r != nil {
			config.Cfg().Sim.Paused = true
			slog.Error("simulation step failed, pausing", "panic", r)
		}
	}()
	a.sim.Step(dt)
}

// applyResize reallocates every field when the framebuffer size changed.
// All handles are replaced in one step before any pass runs.
func (a *App) applyResize() bool {
	fbW, fbH := a.win.GetFramebufferSize()
	w, h := int32(fbW), int32(fbH)
	if w == a.screen.Width && h == a.screen.Height {
		return true
	}
	if w == 0 || h == 0 {
		// Minimized; nothing to draw into.
		return false
	}

	if err := a.sim.Resize(w, h); err != nil {
		slog.Error("resize allocation failed, skipping frame", "error", err)
		return false
	}
	a.screen = gfx.NewScreen(w, h)
	a.adapter.SetSurfaceSize(w, h)
	slog.Info("surface resized", "width", w, "height", h)
	return true
}

// diagnostics reads the divergence and dye fields back at the configured
// interval and records field statistics.
func (a *App) diagnostics() {
	cfg := config.Cfg()
	if !cfg.Diagnostics.Enabled || cfg.Diagnostics.Interval <= 0 {
		return
	}
	if a.frame%int64(cfg.Diagnostics.Interval) != 0 {
		return
	}

	div := a.sim.DivergenceFBO()
	div.Bind()
	divSamples := gfx.ReadPixelsR(div.Width, div.Height)

	dye := a.sim.Dye()
	dye.Bind()
	dyeSamples := gfx.ReadPixelsRGBA(dye.Width, dye.Height)

	maxB, meanB := telemetry.DyeStats(dyeSamples)
	stats := telemetry.FieldStats{
		Frame:        a.frame,
		DivergenceL2: telemetry.DivergenceL2(divSamples),
		DyeMax:       maxB,
		DyeMean:      meanB,
		NaNs:         telemetry.CountNaNs(divSamples) + telemetry.CountNaNs(dyeSamples),
	}
	if stats.NaNs > 0 {
		slog.Warn("NaNs detected in solver fields", "count", stats.NaNs, "frame", a.frame)
	}
	if err := a.out.WriteFieldStats(stats); err != nil {
		slog.Warn("diagnostics output failed", "error", err)
	}
}

// Close releases every resource in reverse dependency order.
func (a *App) Close() {
	if a.lmSource != nil {
		a.lmSource.Close()
	}
	if err := a.out.Close(); err != nil {
		slog.Warn("closing output", "error", err)
	}
	a.sim.Delete()
	a.ctx.Quad.Delete()
	a.win.Destroy()
	glfw.Terminate()
}
