package gfx

import "github.com/go-gl/gl/v3.3-core/gl"

// Quad owns the shared screen-aligned quad geometry used by every pass:
// four clip-space positions and a six-index triangle list.
type Quad struct {
	vao uint32
	vbo uint32
	ebo uint32
}

// NewQuad uploads the shared vertex and index buffers once.
func NewQuad() *Quad {
	vertices := []float32{-1, -1, -1, 1, 1, 1, 1, -1}
	indices := []uint16{0, 1, 2, 0, 2, 3}

	q := &Quad{}
	gl.GenVertexArrays(1, &q.vao)
	gl.BindVertexArray(q.vao)

	gl.GenBuffers(1, &q.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &q.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, q.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*2, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))

	gl.BindVertexArray(0)
	return q
}

// Blit draws the quad into the target framebuffer with whatever program and
// uniforms the caller has bound. When clear is set the target is cleared to
// transparent black first.
func (q *Quad) Blit(target *FBO, clear bool) {
	target.Bind()
	if clear {
		gl.ClearColor(0, 0, 0, 0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
	}
	gl.BindVertexArray(q.vao)
	gl.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_SHORT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

// Delete releases the quad geometry.
func (q *Quad) Delete() {
	gl.DeleteBuffers(1, &q.vbo)
	gl.DeleteBuffers(1, &q.ebo)
	gl.DeleteVertexArrays(1, &q.vao)
}
