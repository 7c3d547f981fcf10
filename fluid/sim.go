package fluid

import (
	"log/slog"
	"math/rand"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/calder-gfx/inkflow/config"
	"github.com/calder-gfx/inkflow/gfx"
)

// Simulator owns every GPU field and advances the solver one frame at a
// time. Other components borrow texture handles only for the duration of a
// draw call; ownership never leaves the simulator.
type Simulator struct {
	ctx  *gfx.Context
	pipe *Pipeline

	width, height int32 // surface pixels

	dye        *gfx.DoubleFBO
	velocity   *gfx.DoubleFBO
	divergence *gfx.FBO
	curl       *gfx.FBO
	pressure   *gfx.DoubleFBO

	bloom       *gfx.FBO
	bloomChain  []*gfx.FBO
	sunrays     *gfx.FBO
	sunraysTemp *gfx.FBO

	dither           uint32
	ditherW, ditherH int32
	bloomDisabled    bool

	Pointers *PointerRegistry

	skipLogged bool
}

// NewSimulator compiles the pipeline, allocates all fields for a w x h
// surface, and loads the optional dithering texture.
func NewSimulator(ctx *gfx.Context, w, h int32, rng *rand.Rand) (*Simulator, error) {
	s := &Simulator{
		ctx:      ctx,
		width:    w,
		height:   h,
		Pointers: NewPointerRegistry(rng),
	}

	s.loadDither()

	pipe, err := NewPipeline(ctx, s.displayFlags())
	if err != nil {
		return nil, err
	}
	s.pipe = pipe

	if err := s.initFramebuffers(); err != nil {
		pipe.Delete()
		return nil, err
	}
	return s, nil
}

// loadDither uploads the bloom dithering pattern. No configured path gets a
// neutral 1x1 texture (near-zero noise term); a failing load disables bloom.
func (s *Simulator) loadDither() {
	path := config.Cfg().Bloom.DitherPath
	if path == "" {
		s.dither, s.ditherW, s.ditherH = neutralDither()
		return
	}

	tex, w, h, err := gfx.LoadTexturePNG(path)
	if err != nil {
		slog.Warn("dithering texture unavailable, disabling bloom", "path", path, "error", err)
		s.bloomDisabled = true
		s.dither, s.ditherW, s.ditherH = neutralDither()
		return
	}
	s.dither, s.ditherW, s.ditherH = tex, w, h
}

func neutralDither() (uint32, int32, int32) {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	mid := []uint8{128, 128, 128, 255}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(mid))
	return tex, 1, 1
}

// Resize re-derives both grids for a new surface size and reallocates every
// field in one step; the frame driver calls this before any pass runs, so
// no half-resized state is ever observable.
func (s *Simulator) Resize(w, h int32) error {
	if w == s.width && h == s.height {
		return nil
	}
	prevW, prevH := s.width, s.height
	s.width = w
	s.height = h
	if err := s.initFramebuffers(); err != nil {
		// Keep the old size so the next call retries the allocation.
		s.width, s.height = prevW, prevH
		return err
	}
	return nil
}

// Size returns the surface dimensions the grids are derived from.
func (s *Simulator) Size() (int32, int32) {
	return s.width, s.height
}

func (s *Simulator) initFramebuffers() error {
	cfg := config.Cfg()

	simW, simH := Resolution(cfg.Sim.SimResolution, s.width, s.height)
	dyeW, dyeH := Resolution(cfg.Sim.DyeResolution, s.width, s.height)

	texType := s.ctx.HalfFloatType
	rgba := s.ctx.Formats.RGBA
	rg := s.ctx.Formats.RG
	r := s.ctx.Formats.R
	filter := s.ctx.Filter()

	gl.Disable(gl.BLEND)

	var err error
	if s.dye == nil {
		if s.dye, err = gfx.NewDoubleFBO(dyeW, dyeH, rgba, texType, filter); err != nil {
			return err
		}
	} else if err = s.dye.Resize(dyeW, dyeH, s.pipe.Copy, s.ctx.Quad); err != nil {
		return err
	}

	if s.velocity == nil {
		if s.velocity, err = gfx.NewDoubleFBO(simW, simH, rg, texType, filter); err != nil {
			return err
		}
	} else if err = s.velocity.Resize(simW, simH, s.pipe.Copy, s.ctx.Quad); err != nil {
		return err
	}

	// Divergence and curl are transient within a frame, and the pressure
	// warm start is dropped on resize; recreate all three blank.
	if s.divergence != nil {
		s.divergence.Delete()
	}
	if s.divergence, err = gfx.NewFBO(simW, simH, r, texType, gl.NEAREST); err != nil {
		return err
	}
	if s.curl != nil {
		s.curl.Delete()
	}
	if s.curl, err = gfx.NewFBO(simW, simH, r, texType, gl.NEAREST); err != nil {
		return err
	}
	if s.pressure != nil {
		s.pressure.Delete()
	}
	if s.pressure, err = gfx.NewDoubleFBO(simW, simH, r, texType, gl.NEAREST); err != nil {
		return err
	}

	if err := s.initBloomFramebuffers(); err != nil {
		return err
	}
	return s.initSunraysFramebuffers()
}

func (s *Simulator) initBloomFramebuffers() error {
	cfg := config.Cfg()
	w, h := Resolution(cfg.Bloom.Resolution, s.width, s.height)

	texType := s.ctx.HalfFloatType
	rgba := s.ctx.Formats.RGBA
	filter := s.ctx.Filter()

	if s.bloom != nil {
		s.bloom.Delete()
	}
	var err error
	if s.bloom, err = gfx.NewFBO(w, h, rgba, texType, filter); err != nil {
		return err
	}

	for _, fbo := range s.bloomChain {
		fbo.Delete()
	}
	s.bloomChain = s.bloomChain[:0]

	for i := 0; i < cfg.Bloom.Iterations; i++ {
		cw := w >> (i + 1)
		ch := h >> (i + 1)
		if cw < 2 || ch < 2 {
			break
		}
		fbo, err := gfx.NewFBO(cw, ch, rgba, texType, filter)
		if err != nil {
			return err
		}
		s.bloomChain = append(s.bloomChain, fbo)
	}
	return nil
}

func (s *Simulator) initSunraysFramebuffers() error {
	cfg := config.Cfg()
	w, h := Resolution(cfg.Sunrays.Resolution, s.width, s.height)

	texType := s.ctx.HalfFloatType
	r := s.ctx.Formats.R
	filter := s.ctx.Filter()

	if s.sunrays != nil {
		s.sunrays.Delete()
	}
	var err error
	if s.sunrays, err = gfx.NewFBO(w, h, r, texType, filter); err != nil {
		return err
	}

	if s.sunraysTemp != nil {
		s.sunraysTemp.Delete()
	}
	if s.sunraysTemp, err = gfx.NewFBO(w, h, r, texType, filter); err != nil {
		return err
	}
	return nil
}

// ready reports whether every field the step needs exists. Allocation
// failures leave gaps that the next resize repairs; until then the step is
// skipped and logged once.
func (s *Simulator) ready() bool {
	ok := s.dye != nil && s.velocity != nil && s.divergence != nil &&
		s.curl != nil && s.pressure != nil
	if !ok && !s.skipLogged {
		slog.Warn("simulation fields missing, skipping step until next resize")
		s.skipLogged = true
	}
	return ok
}

// Step advances velocity and dye by dt seconds. Sub-pass order: curl,
// vorticity confinement, divergence, pressure fade, Jacobi pressure solve,
// gradient subtract, velocity self-advection, dye advection.
func (s *Simulator) Step(dt float32) {
	if !s.ready() {
		return
	}
	s.skipLogged = false

	cfg := config.Cfg()
	gl.Disable(gl.BLEND)

	velTexelX := s.velocity.TexelSizeX()
	velTexelY := s.velocity.TexelSizeY()

	s.pipe.Curl.Bind()
	s.pipe.Curl.SetVec2("texelSize", velTexelX, velTexelY)
	s.pipe.Curl.SetInt("uVelocity", s.velocity.Read().Attach(0))
	s.ctx.Quad.Blit(s.curl, false)

	s.pipe.Vorticity.Bind()
	s.pipe.Vorticity.SetVec2("texelSize", velTexelX, velTexelY)
	s.pipe.Vorticity.SetInt("uVelocity", s.velocity.Read().Attach(0))
	s.pipe.Vorticity.SetInt("uCurl", s.curl.Attach(1))
	s.pipe.Vorticity.SetFloat("curl", cfg.Sim.Curl)
	s.pipe.Vorticity.SetFloat("dt", dt)
	s.ctx.Quad.Blit(s.velocity.Write(), false)
	s.velocity.Swap()

	s.pipe.Divergence.Bind()
	s.pipe.Divergence.SetVec2("texelSize", velTexelX, velTexelY)
	s.pipe.Divergence.SetInt("uVelocity", s.velocity.Read().Attach(0))
	s.ctx.Quad.Blit(s.divergence, false)

	// Decayed previous pressure warm-starts the solve.
	s.pipe.Clear.Bind()
	s.pipe.Clear.SetInt("uTexture", s.pressure.Read().Attach(0))
	s.pipe.Clear.SetFloat("value", cfg.Sim.Pressure)
	s.ctx.Quad.Blit(s.pressure.Write(), false)
	s.pressure.Swap()

	s.pipe.Pressure.Bind()
	s.pipe.Pressure.SetVec2("texelSize", velTexelX, velTexelY)
	s.pipe.Pressure.SetInt("uDivergence", s.divergence.Attach(0))
	for i := 0; i < cfg.Sim.PressureIterations; i++ {
		s.pipe.Pressure.SetInt("uPressure", s.pressure.Read().Attach(1))
		s.ctx.Quad.Blit(s.pressure.Write(), false)
		s.pressure.Swap()
	}

	s.pipe.GradientSubtract.Bind()
	s.pipe.GradientSubtract.SetVec2("texelSize", velTexelX, velTexelY)
	s.pipe.GradientSubtract.SetInt("uPressure", s.pressure.Read().Attach(0))
	s.pipe.GradientSubtract.SetInt("uVelocity", s.velocity.Read().Attach(1))
	s.ctx.Quad.Blit(s.velocity.Write(), false)
	s.velocity.Swap()

	s.pipe.Advection.Bind()
	s.pipe.Advection.SetVec2("texelSize", velTexelX, velTexelY)
	if !s.ctx.SupportLinearFiltering {
		s.pipe.Advection.SetVec2("dyeTexelSize", velTexelX, velTexelY)
	}
	velocityID := s.velocity.Read().Attach(0)
	s.pipe.Advection.SetInt("uVelocity", velocityID)
	s.pipe.Advection.SetInt("uSource", velocityID)
	s.pipe.Advection.SetFloat("dt", dt)
	s.pipe.Advection.SetFloat("dissipation", cfg.Sim.VelocityDissipation)
	s.ctx.Quad.Blit(s.velocity.Write(), false)
	s.velocity.Swap()

	if !s.ctx.SupportLinearFiltering {
		s.pipe.Advection.SetVec2("dyeTexelSize", s.dye.TexelSizeX(), s.dye.TexelSizeY())
	}
	s.pipe.Advection.SetInt("uVelocity", s.velocity.Read().Attach(0))
	s.pipe.Advection.SetInt("uSource", s.dye.Read().Attach(1))
	s.pipe.Advection.SetFloat("dissipation", cfg.Sim.DensityDissipation)
	s.ctx.Quad.Blit(s.dye.Write(), false)
	s.dye.Swap()
}

// UpdateColors refreshes pointer colors when the colorful mode is on.
func (s *Simulator) UpdateColors(dt float32) {
	cfg := config.Cfg()
	if !cfg.Input.Colorful {
		return
	}
	s.Pointers.UpdateColors(dt, cfg.Input.ColorUpdateSpeed)
}

// Dye exposes the current dye read texture for diagnostics readback.
func (s *Simulator) Dye() *gfx.FBO { return s.dye.Read() }

// DivergenceFBO exposes the divergence field for diagnostics readback.
func (s *Simulator) DivergenceFBO() *gfx.FBO { return s.divergence }

// Delete releases every GPU resource the simulator owns.
func (s *Simulator) Delete() {
	if s.dye != nil {
		s.dye.Delete()
	}
	if s.velocity != nil {
		s.velocity.Delete()
	}
	if s.divergence != nil {
		s.divergence.Delete()
	}
	if s.curl != nil {
		s.curl.Delete()
	}
	if s.pressure != nil {
		s.pressure.Delete()
	}
	if s.bloom != nil {
		s.bloom.Delete()
	}
	for _, fbo := range s.bloomChain {
		fbo.Delete()
	}
	if s.sunrays != nil {
		s.sunrays.Delete()
	}
	if s.sunraysTemp != nil {
		s.sunraysTemp.Delete()
	}
	if s.dither != 0 {
		gl.DeleteTextures(1, &s.dither)
	}
	if s.pipe != nil {
		s.pipe.Delete()
	}
}
