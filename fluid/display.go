package fluid

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/calder-gfx/inkflow/config"
	"github.com/calder-gfx/inkflow/gfx"
)

// displayFlags derives the compositor variant from the current config; a
// failed dithering-texture load vetoes bloom.
func (s *Simulator) displayFlags() DisplayFlags {
	cfg := config.Cfg()
	var flags DisplayFlags
	if cfg.Display.Shading {
		flags |= FlagShading
	}
	if cfg.Bloom.Enabled && !s.bloomDisabled {
		flags |= FlagBloom
	}
	if cfg.Sunrays.Enabled {
		flags |= FlagSunrays
	}
	return flags
}

// Render runs the enabled post-effects and composites the dye field into
// the target, normally the window framebuffer.
func (s *Simulator) Render(target *gfx.FBO) {
	if !s.ready() {
		return
	}

	cfg := config.Cfg()
	flags := s.displayFlags()
	s.pipe.SetDisplayFlags(flags)
	active := s.pipe.DisplayFlags()

	if active&FlagBloom != 0 {
		s.applyBloom(s.dye.Read(), s.bloom)
	}
	if active&FlagSunrays != 0 {
		s.applySunrays(s.dye.Read(), s.dye.Write(), s.sunrays)
		s.blur(s.sunrays, s.sunraysTemp, 1)
	}

	// The dye layer carries max(r,g,b) as alpha, so it composites over the
	// backdrop with premultiplied blending.
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.BLEND)

	if cfg.Display.Transparent {
		s.drawCheckerboard(target)
	} else {
		s.drawColor(target, cfg.Display.BackColor)
	}
	s.drawDisplay(target, active)
}

func (s *Simulator) drawColor(target *gfx.FBO, rgb [3]float32) {
	s.pipe.Color.Bind()
	s.pipe.Color.SetVec4("color", rgb[0], rgb[1], rgb[2], 1)
	s.ctx.Quad.Blit(target, false)
}

func (s *Simulator) drawCheckerboard(target *gfx.FBO) {
	s.pipe.Checkerboard.Bind()
	s.pipe.Checkerboard.SetFloat("aspectRatio", float32(target.Width)/float32(target.Height))
	s.ctx.Quad.Blit(target, false)
}

func (s *Simulator) drawDisplay(target *gfx.FBO, flags DisplayFlags) {
	display := s.pipe.Display()
	display.Bind()

	if flags&FlagShading != 0 {
		display.SetVec2("texelSize", 1/float32(target.Width), 1/float32(target.Height))
	}
	display.SetInt("uTexture", s.dye.Read().Attach(0))

	if flags&FlagBloom != 0 {
		display.SetInt("uBloom", s.bloom.Attach(1))
		gl.ActiveTexture(gl.TEXTURE2)
		gl.BindTexture(gl.TEXTURE_2D, s.dither)
		display.SetInt("uDithering", 2)
		display.SetVec2("ditherScale",
			float32(target.Width)/float32(s.ditherW),
			float32(target.Height)/float32(s.ditherH))
	}
	if flags&FlagSunrays != 0 {
		display.SetInt("uSunrays", s.sunrays.Attach(3))
	}

	s.ctx.Quad.Blit(target, false)
}
