package gfx

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
)

// TexFormat pairs a sized internal format with its pixel transfer format.
type TexFormat struct {
	Internal int32
	Format   uint32
}

// FBO bundles one color texture and one framebuffer object. A zero fbo id
// with a zero texture denotes the default framebuffer (see NewScreen).
type FBO struct {
	Texture uint32
	fbo     uint32

	Width, Height int32
	TexelSizeX    float32
	TexelSizeY    float32

	format TexFormat
	xtype  uint32
	filter int32
}

// NewFBO allocates a texture of the given size and format, attaches it to a
// fresh framebuffer, and clears it to transparent black.
func NewFBO(w, h int32, format TexFormat, xtype uint32, filter int32) (*FBO, error) {
	f := &FBO{
		Width:      w,
		Height:     h,
		TexelSizeX: 1 / float32(w),
		TexelSizeY: 1 / float32(h),
		format:     format,
		xtype:      xtype,
		filter:     filter,
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.GenTextures(1, &f.Texture)
	gl.BindTexture(gl.TEXTURE_2D, f.Texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, format.Internal, w, h, 0, format.Format, xtype, nil)

	gl.GenFramebuffers(1, &f.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, f.Texture, 0)

	if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		f.Delete()
		return nil, fmt.Errorf("%w: %dx%d internal format 0x%x", ErrResourceAlloc, w, h, format.Internal)
	}

	gl.Viewport(0, 0, w, h)
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	return f, nil
}

// NewScreen wraps the default framebuffer as an FBO. Bind targets
// framebuffer zero; Attach is a no-op.
func NewScreen(w, h int32) *FBO {
	return &FBO{
		Width:      w,
		Height:     h,
		TexelSizeX: 1 / float32(w),
		TexelSizeY: 1 / float32(h),
	}
}

// Bind binds the framebuffer and sets the viewport to its dimensions.
func (f *FBO) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	gl.Viewport(0, 0, f.Width, f.Height)
}

// Attach binds the texture to the given unit and returns the unit, for use
// directly as a sampler uniform value.
func (f *FBO) Attach(unit uint32) int32 {
	if f.Texture != 0 {
		gl.ActiveTexture(gl.TEXTURE0 + unit)
		gl.BindTexture(gl.TEXTURE_2D, f.Texture)
	}
	return int32(unit)
}

// Delete releases the texture and framebuffer objects.
func (f *FBO) Delete() {
	if f.Texture != 0 {
		gl.DeleteTextures(1, &f.Texture)
		f.Texture = 0
	}
	if f.fbo != 0 {
		gl.DeleteFramebuffers(1, &f.fbo)
		f.fbo = 0
	}
}

// Resize reallocates the FBO at the new size, preserving the current
// contents by re-sampling them through the copy program. Resizing to the
// current size is a no-op.
func (f *FBO) Resize(w, h int32, copyProgram *Program, quad *Quad) error {
	if w == f.Width && h == f.Height {
		return nil
	}

	next, err := NewFBO(w, h, f.format, f.xtype, f.filter)
	if err != nil {
		return err
	}

	copyProgram.Bind()
	copyProgram.SetInt("uTexture", f.Attach(0))
	quad.Blit(next, true)

	f.Delete()
	*f = *next
	return nil
}

// DoubleFBO is a ping-pong pair of identically sized FBOs. Rendering always
// targets Write and samples only Read; Swap exchanges the roles.
type DoubleFBO struct {
	a, b *FBO
}

// NewDoubleFBO allocates both halves of a ping-pong pair.
func NewDoubleFBO(w, h int32, format TexFormat, xtype uint32, filter int32) (*DoubleFBO, error) {
	a, err := NewFBO(w, h, format, xtype, filter)
	if err != nil {
		return nil, err
	}
	b, err := NewFBO(w, h, format, xtype, filter)
	if err != nil {
		a.Delete()
		return nil, err
	}
	return &DoubleFBO{a: a, b: b}, nil
}

// Read returns the half holding the current state.
func (d *DoubleFBO) Read() *FBO { return d.a }

// Write returns the half to render the next state into.
func (d *DoubleFBO) Write() *FBO { return d.b }

// Swap exchanges the read and write roles.
func (d *DoubleFBO) Swap() {
	d.a, d.b = d.b, d.a
}

// Width returns the pair's texel width.
func (d *DoubleFBO) Width() int32 { return d.a.Width }

// Height returns the pair's texel height.
func (d *DoubleFBO) Height() int32 { return d.a.Height }

// TexelSizeX returns 1/width.
func (d *DoubleFBO) TexelSizeX() float32 { return d.a.TexelSizeX }

// TexelSizeY returns 1/height.
func (d *DoubleFBO) TexelSizeY() float32 { return d.a.TexelSizeY }

// Resize resizes the read half with contents preserved and replaces the
// write half with a fresh buffer. Copying the stale back buffer would waste
// a pass; its contents are undefined until the next draw.
func (d *DoubleFBO) Resize(w, h int32, copyProgram *Program, quad *Quad) error {
	if w == d.a.Width && h == d.a.Height {
		return nil
	}
	if err := d.a.Resize(w, h, copyProgram, quad); err != nil {
		return err
	}
	next, err := NewFBO(w, h, d.b.format, d.b.xtype, d.b.filter)
	if err != nil {
		return err
	}
	d.b.Delete()
	d.b = next
	return nil
}

// Delete releases both halves.
func (d *DoubleFBO) Delete() {
	d.a.Delete()
	d.b.Delete()
}
