package gfx

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
)

// Program is a linked shader program with its active uniforms resolved by
// name. Immutable after linking.
type Program struct {
	id       uint32
	uniforms map[string]int32
}

// NewProgram compiles the vertex and fragment sources, injects the given
// preprocessor keywords into the fragment stage, links, and enumerates the
// active uniforms.
func NewProgram(vertexSrc, fragmentSrc string, keywords []string) (*Program, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, vertexSrc)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(gl.FRAGMENT_SHADER, AddKeywords(fragmentSrc, keywords))
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(infoLog))
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("%w: %s", ErrProgramLink, strings.TrimRight(infoLog, "\x00"))
	}

	return &Program{id: id, uniforms: activeUniforms(id)}, nil
}

// AddKeywords inserts one #define per keyword into the shader source,
// directly after the #version directive when present.
func AddKeywords(source string, keywords []string) string {
	if len(keywords) == 0 {
		return source
	}
	var defines strings.Builder
	for _, kw := range keywords {
		defines.WriteString("#define ")
		defines.WriteString(kw)
		defines.WriteString("\n")
	}
	if idx := strings.Index(source, "\n"); idx >= 0 && strings.HasPrefix(source, "#version") {
		return source[:idx+1] + defines.String() + source[idx+1:]
	}
	return defines.String() + source
}

// activeUniforms resolves every active uniform to its location, keyed by
// name with any trailing array subscript stripped.
func activeUniforms(id uint32) map[string]int32 {
	var count int32
	gl.GetProgramiv(id, gl.ACTIVE_UNIFORMS, &count)

	uniforms := make(map[string]int32, count)
	buf := make([]uint8, 256)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(id, uint32(i), int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := StripSubscript(string(buf[:length]))
		uniforms[name] = gl.GetUniformLocation(id, gl.Str(name+"\x00"))
	}
	return uniforms
}

// StripSubscript removes a trailing array subscript from a uniform name,
// e.g. "uWeights[0]" becomes "uWeights".
func StripSubscript(name string) string {
	if idx := strings.IndexByte(name, '['); idx >= 0 {
		return name[:idx]
	}
	return name
}

// Bind makes the program current.
func (p *Program) Bind() {
	gl.UseProgram(p.id)
}

// Uniform returns the location of a named uniform and whether the active
// variant exposes it.
func (p *Program) Uniform(name string) (int32, bool) {
	loc, ok := p.uniforms[name]
	return loc, ok
}

// SetInt sets an int uniform. Uniforms the variant optimized out are skipped.
func (p *Program) SetInt(name string, v int32) {
	if loc, ok := p.uniforms[name]; ok {
		gl.Uniform1i(loc, v)
	}
}

// SetFloat sets a float uniform.
func (p *Program) SetFloat(name string, v float32) {
	if loc, ok := p.uniforms[name]; ok {
		gl.Uniform1f(loc, v)
	}
}

// SetVec2 sets a vec2 uniform.
func (p *Program) SetVec2(name string, x, y float32) {
	if loc, ok := p.uniforms[name]; ok {
		gl.Uniform2f(loc, x, y)
	}
}

// SetVec3 sets a vec3 uniform.
func (p *Program) SetVec3(name string, x, y, z float32) {
	if loc, ok := p.uniforms[name]; ok {
		gl.Uniform3f(loc, x, y, z)
	}
}

// SetVec4 sets a vec4 uniform.
func (p *Program) SetVec4(name string, x, y, z, w float32) {
	if loc, ok := p.uniforms[name]; ok {
		gl.Uniform4f(loc, x, y, z, w)
	}
}

// Delete releases the program object.
func (p *Program) Delete() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

func compileShader(shaderType uint32, source string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(infoLog))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: %s", ErrShaderCompile, strings.TrimRight(infoLog, "\x00"))
	}
	return shader, nil
}
