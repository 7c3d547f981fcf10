package fluid

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/calder-gfx/inkflow/config"
	"github.com/calder-gfx/inkflow/gfx"
)

// applyBloom runs the prefilter, the halving box-blur downsample chain, the
// additive upsample walk, and the final intensity scale. The dye field is
// only read; the result lands in the bloom framebuffer.
func (s *Simulator) applyBloom(source, destination *gfx.FBO) {
	if len(s.bloomChain) < 2 {
		return
	}

	cfg := config.Cfg()
	last := destination

	gl.Disable(gl.BLEND)
	s.pipe.BloomPrefilter.Bind()
	x, y, z := BloomCurve(cfg.Bloom.Threshold, cfg.Bloom.SoftKnee)
	s.pipe.BloomPrefilter.SetVec3("curve", x, y, z)
	s.pipe.BloomPrefilter.SetFloat("threshold", cfg.Bloom.Threshold)
	s.pipe.BloomPrefilter.SetInt("uTexture", source.Attach(0))
	s.ctx.Quad.Blit(last, false)

	s.pipe.BloomBlur.Bind()
	for _, dest := range s.bloomChain {
		s.pipe.BloomBlur.SetVec2("texelSize", last.TexelSizeX, last.TexelSizeY)
		s.pipe.BloomBlur.SetInt("uTexture", last.Attach(0))
		s.ctx.Quad.Blit(dest, false)
		last = dest
	}

	gl.BlendFunc(gl.ONE, gl.ONE)
	gl.Enable(gl.BLEND)
	for i := len(s.bloomChain) - 2; i >= 0; i-- {
		baseTex := s.bloomChain[i]
		s.pipe.BloomBlur.SetVec2("texelSize", last.TexelSizeX, last.TexelSizeY)
		s.pipe.BloomBlur.SetInt("uTexture", last.Attach(0))
		s.ctx.Quad.Blit(baseTex, false)
		last = baseTex
	}
	gl.Disable(gl.BLEND)

	s.pipe.BloomFinal.Bind()
	s.pipe.BloomFinal.SetVec2("texelSize", last.TexelSizeX, last.TexelSizeY)
	s.pipe.BloomFinal.SetInt("uTexture", last.Attach(0))
	s.pipe.BloomFinal.SetFloat("intensity", cfg.Bloom.Intensity)
	s.ctx.Quad.Blit(destination, false)
}

// applySunrays masks the bright regions of the scene and marches 16 samples
// toward the center light. The mask is scratch work in the dye write buffer,
// which is never swapped in afterwards.
func (s *Simulator) applySunrays(source, mask, destination *gfx.FBO) {
	cfg := config.Cfg()

	gl.Disable(gl.BLEND)
	s.pipe.SunraysMask.Bind()
	s.pipe.SunraysMask.SetInt("uTexture", source.Attach(0))
	s.ctx.Quad.Blit(mask, false)

	s.pipe.Sunrays.Bind()
	s.pipe.Sunrays.SetFloat("weight", cfg.Sunrays.Weight)
	s.pipe.Sunrays.SetInt("uTexture", mask.Attach(0))
	s.ctx.Quad.Blit(destination, false)
}

// blur runs a separable blur over target, ping-ponging through temp.
func (s *Simulator) blur(target, temp *gfx.FBO, iterations int) {
	s.pipe.Blur.Bind()
	for i := 0; i < iterations; i++ {
		s.pipe.Blur.SetVec2("texelSize", target.TexelSizeX, 0)
		s.pipe.Blur.SetInt("uTexture", target.Attach(0))
		s.ctx.Quad.Blit(temp, false)

		s.pipe.Blur.SetVec2("texelSize", 0, target.TexelSizeY)
		s.pipe.Blur.SetInt("uTexture", temp.Attach(0))
		s.ctx.Quad.Blit(target, false)
	}
}
