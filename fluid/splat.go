package fluid

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/calder-gfx/inkflow/config"
)

// Splat injects momentum and dye at a normalized position: a Gaussian
// falloff of the configured radius adds (dx, dy) to the velocity field and
// the color to the dye field. radiusScale modulates the radius for one-shot
// taps. Aspect correction happens inside the shader; the radius uniform is
// passed uncorrected.
func (s *Simulator) Splat(x, y, dx, dy float32, color [3]float32, radiusScale float32) {
	if !s.ready() {
		return
	}

	cfg := config.Cfg()
	radius := cfg.Splat.Radius / 100 * radiusScale
	aspect := float32(s.width) / float32(s.height)

	gl.Disable(gl.BLEND)

	s.pipe.Splat.Bind()
	s.pipe.Splat.SetInt("uTarget", s.velocity.Read().Attach(0))
	s.pipe.Splat.SetFloat("aspectRatio", aspect)
	s.pipe.Splat.SetVec2("point", x, y)
	s.pipe.Splat.SetVec3("color", dx, dy, 0)
	s.pipe.Splat.SetFloat("radius", radius)
	s.ctx.Quad.Blit(s.velocity.Write(), false)
	s.velocity.Swap()

	s.pipe.Splat.SetInt("uTarget", s.dye.Read().Attach(0))
	s.pipe.Splat.SetVec3("color", color[0], color[1], color[2])
	s.ctx.Quad.Blit(s.dye.Write(), false)
	s.dye.Swap()
}
