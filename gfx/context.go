package gfx

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"github.com/go-gl/gl/v3.3-core/gl"
)

// Formats holds the probed color-renderable half-float formats, one per
// channel count the solver allocates.
type Formats struct {
	RGBA TexFormat
	RG   TexFormat
	R    TexFormat
}

// Context owns the GL function pointers, probed capabilities, and the
// shared quad geometry. All textures and programs are created through it.
type Context struct {
	Formats                Formats
	HalfFloatType          uint32
	SupportLinearFiltering bool
	Quad                   *Quad
}

// NewContext initializes GL on the calling thread (a GL context must be
// current) and probes for renderable half-float formats.
//
// GL 3.3 core guarantees linear filtering of half-float textures, so the
// capability holds on any context that got this far; forceManualFilter
// drops it anyway so the in-shader bilinear path stays exercised and usable
// on drivers that lie about filtering quality.
func NewContext(forceManualFilter bool) (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gfx: initializing GL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	renderer := gl.GoStr(gl.GetString(gl.RENDERER))
	slog.Info("gl context ready", "version", version, "renderer", renderer)

	c := &Context{
		HalfFloatType:          gl.HALF_FLOAT,
		SupportLinearFiltering: !forceManualFilter,
	}

	formats, err := probeFormats()
	if err != nil {
		return nil, err
	}
	c.Formats = formats

	c.Quad = NewQuad()
	return c, nil
}

// probeFormats verifies each half-float format by rendering into a 4x4 test
// texture, widening on failure. RGBA failing is fatal.
func probeFormats() (Formats, error) {
	var f Formats
	var ok bool

	if f.RGBA, ok = supportedFormat(TexFormat{gl.RGBA16F, gl.RGBA}); !ok {
		return f, ErrUnsupportedGPU
	}
	f.RG, _ = supportedFormat(TexFormat{gl.RG16F, gl.RG})
	f.R, _ = supportedFormat(TexFormat{gl.R16F, gl.RED})
	return f, nil
}

// supportedFormat returns the requested format if it is color-renderable,
// otherwise the next wider format that is. The widening order mirrors the
// allocation fallback R -> RG -> RGBA.
func supportedFormat(want TexFormat) (TexFormat, bool) {
	if renderable(want) {
		return want, true
	}
	next, ok := WiderFormat(want)
	if !ok {
		return TexFormat{}, false
	}
	return supportedFormat(next)
}

// WiderFormat maps a half-float format to the next wider candidate:
// R16F -> RG16F -> RGBA16F. RGBA16F has no fallback.
func WiderFormat(f TexFormat) (TexFormat, bool) {
	switch f.Internal {
	case gl.R16F:
		return TexFormat{gl.RG16F, gl.RG}, true
	case gl.RG16F:
		return TexFormat{gl.RGBA16F, gl.RGBA}, true
	default:
		return TexFormat{}, false
	}
}

// renderable attaches a 4x4 texture of the format to a framebuffer and
// checks completeness.
func renderable(f TexFormat) bool {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, f.Internal, 4, 4, 0, f.Format, gl.HALF_FLOAT, nil)

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.DeleteFramebuffers(1, &fbo)
	gl.DeleteTextures(1, &tex)

	return status == gl.FRAMEBUFFER_COMPLETE
}

// Filter returns the texture filter matching the linear-filtering capability.
func (c *Context) Filter() int32 {
	if c.SupportLinearFiltering {
		return gl.LINEAR
	}
	return gl.NEAREST
}

// LoadTexturePNG decodes a PNG from disk and uploads it as an RGBA8 texture
// with repeat wrapping, for use as the bloom dithering pattern. Returns the
// texture id and its dimensions.
func LoadTexturePNG(path string) (uint32, int32, int32, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", ErrAssetLoad, err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: decoding %s: %v", ErrAssetLoad, path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}

	w, h := int32(bounds.Dx()), int32(bounds.Dy())
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))

	return tex, w, h, nil
}

// ReadPixelsR reads back the red channel of the currently bound framebuffer
// as float32, for the divergence-residual diagnostics.
func ReadPixelsR(w, h int32) []float32 {
	buf := make([]float32, w*h)
	gl.ReadPixels(0, 0, w, h, gl.RED, gl.FLOAT, gl.Ptr(buf))
	return buf
}

// ReadPixelsRGBA reads back the currently bound framebuffer as float32 RGBA.
func ReadPixelsRGBA(w, h int32) []float32 {
	buf := make([]float32, w*h*4)
	gl.ReadPixels(0, 0, w, h, gl.RGBA, gl.FLOAT, gl.Ptr(buf))
	return buf
}
