package fluid

import (
	"embed"
	"fmt"
	"log/slog"

	"github.com/calder-gfx/inkflow/gfx"
)

//go:embed shaders/*.vert shaders/*.frag
var shaderFS embed.FS

func shaderSource(name string) string {
	data, err := shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		// Embedded files are fixed at build time; a miss is a programmer error.
		panic("fluid: missing embedded shader " + name)
	}
	return string(data)
}

// DisplayFlags is the bitmask key for display shader variants.
type DisplayFlags uint8

const (
	FlagShading DisplayFlags = 1 << iota
	FlagBloom
	FlagSunrays
)

// Keywords expands the bitmask into shader preprocessor keywords.
func (f DisplayFlags) Keywords() []string {
	var kw []string
	if f&FlagShading != 0 {
		kw = append(kw, "SHADING")
	}
	if f&FlagBloom != 0 {
		kw = append(kw, "BLOOM")
	}
	if f&FlagSunrays != 0 {
		kw = append(kw, "SUNRAYS")
	}
	return kw
}

// Pipeline owns every shader program the solver and compositor use.
// Display variants are compiled on demand and cached by bitmask.
type Pipeline struct {
	Copy             *gfx.Program
	Clear            *gfx.Program
	Color            *gfx.Program
	Checkerboard     *gfx.Program
	Splat            *gfx.Program
	Advection        *gfx.Program
	Divergence       *gfx.Program
	Curl             *gfx.Program
	Vorticity        *gfx.Program
	Pressure         *gfx.Program
	GradientSubtract *gfx.Program
	Blur             *gfx.Program
	BloomPrefilter   *gfx.Program
	BloomBlur        *gfx.Program
	BloomFinal       *gfx.Program
	SunraysMask      *gfx.Program
	Sunrays          *gfx.Program

	display       *gfx.Program
	displayFlags  DisplayFlags
	displayCache  map[DisplayFlags]*gfx.Program
	rebuildWarned bool
}

// NewPipeline compiles every fixed program plus the initial display variant.
func NewPipeline(ctx *gfx.Context, initial DisplayFlags) (*Pipeline, error) {
	baseVS := shaderSource("base.vert")
	blurVS := shaderSource("blur.vert")

	p := &Pipeline{displayCache: make(map[DisplayFlags]*gfx.Program)}

	var advKeywords []string
	if !ctx.SupportLinearFiltering {
		advKeywords = []string{"MANUAL_FILTERING"}
	}

	specs := []struct {
		dst      **gfx.Program
		vs       string
		frag     string
		keywords []string
	}{
		{&p.Copy, baseVS, "copy.frag", nil},
		{&p.Clear, baseVS, "clear.frag", nil},
		{&p.Color, baseVS, "color.frag", nil},
		{&p.Checkerboard, baseVS, "checkerboard.frag", nil},
		{&p.Splat, baseVS, "splat.frag", nil},
		{&p.Advection, baseVS, "advection.frag", advKeywords},
		{&p.Divergence, baseVS, "divergence.frag", nil},
		{&p.Curl, baseVS, "curl.frag", nil},
		{&p.Vorticity, baseVS, "vorticity.frag", nil},
		{&p.Pressure, baseVS, "pressure.frag", nil},
		{&p.GradientSubtract, baseVS, "gradient_subtract.frag", nil},
		{&p.Blur, blurVS, "blur.frag", nil},
		{&p.BloomPrefilter, baseVS, "bloom_prefilter.frag", nil},
		{&p.BloomBlur, baseVS, "bloom_blur.frag", nil},
		{&p.BloomFinal, baseVS, "bloom_final.frag", nil},
		{&p.SunraysMask, baseVS, "sunrays_mask.frag", nil},
		{&p.Sunrays, baseVS, "sunrays.frag", nil},
	}

	for _, spec := range specs {
		prog, err := gfx.NewProgram(spec.vs, shaderSource(spec.frag), spec.keywords)
		if err != nil {
			p.Delete()
			return nil, err
		}
		*spec.dst = prog
	}

	display, err := gfx.NewProgram(baseVS, shaderSource("display.frag"), initial.Keywords())
	if err != nil {
		p.Delete()
		return nil, err
	}
	p.display = display
	p.displayFlags = initial
	p.displayCache[initial] = display

	return p, nil
}

// Display returns the active display variant.
func (p *Pipeline) Display() *gfx.Program { return p.display }

// DisplayFlags returns the bitmask the active display variant was built with.
func (p *Pipeline) DisplayFlags() DisplayFlags { return p.displayFlags }

// SetDisplayFlags swaps in the display variant for the given flags,
// compiling and caching it on first use. A failed compile keeps the current
// variant active and logs once; any later call asking for a variant other
// than the active one tries the compile again.
func (p *Pipeline) SetDisplayFlags(flags DisplayFlags) {
	if flags == p.displayFlags {
		return
	}

	prog, ok := p.displayCache[flags]
	if !ok {
		var err error
		prog, err = gfx.NewProgram(shaderSource("base.vert"), shaderSource("display.frag"), flags.Keywords())
		if err != nil {
			if !p.rebuildWarned {
				slog.Error("display variant rebuild failed, keeping previous", "flags", flags, "error", err)
				p.rebuildWarned = true
			}
			return
		}
		p.displayCache[flags] = prog
	}

	p.display = prog
	p.displayFlags = flags
	p.rebuildWarned = false
}

// VerifyShaders compiles the full pipeline, every display variant, and the
// manual-filtering advection variant against the live context, returning
// the first failure. Used by cmd/shadercheck.
func VerifyShaders(ctx *gfx.Context) error {
	p, err := NewPipeline(ctx, 0)
	if err != nil {
		return err
	}
	defer p.Delete()

	base := shaderSource("base.vert")
	display := shaderSource("display.frag")
	for flags := DisplayFlags(1); flags <= FlagShading|FlagBloom|FlagSunrays; flags++ {
		prog, err := gfx.NewProgram(base, display, flags.Keywords())
		if err != nil {
			return fmt.Errorf("display variant %03b: %w", flags, err)
		}
		prog.Delete()
	}

	prog, err := gfx.NewProgram(base, shaderSource("advection.frag"), []string{"MANUAL_FILTERING"})
	if err != nil {
		return fmt.Errorf("manual filtering advection: %w", err)
	}
	prog.Delete()
	return nil
}

// Delete releases every compiled program.
func (p *Pipeline) Delete() {
	progs := []*gfx.Program{
		p.Copy, p.Clear, p.Color, p.Checkerboard, p.Splat, p.Advection,
		p.Divergence, p.Curl, p.Vorticity, p.Pressure, p.GradientSubtract,
		p.Blur, p.BloomPrefilter, p.BloomBlur, p.BloomFinal,
		p.SunraysMask, p.Sunrays,
	}
	for _, prog := range progs {
		if prog != nil {
			prog.Delete()
		}
	}
	for _, prog := range p.displayCache {
		prog.Delete()
	}
	p.displayCache = nil
	p.display = nil
}
