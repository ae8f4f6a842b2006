//go:build !js

package opengl

import (
	"fmt"
	"strings"

	"github.com/gekko3d/gpuparticles"
	"github.com/gekko3d/gpuparticles/shaders"
	"github.com/go-gl/gl/v3.3-core/gl"
)

type program struct {
	id       uint32
	uniforms map[string]int32
	units    map[string]int32 // sampler name to texture unit
	attribs  map[string]int32
}

// attrib returns the location of an input of p, -1 when the program has none.
func (p *program) attrib(name string) int32 {
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	loc := gl.GetAttribLocation(p.id, gl.Str(name+"\x00"))
	p.attribs[name] = loc
	return loc
}

// nulTerminated returns names with the terminator gl.Strs expects.
func nulTerminated(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + "\x00"
	}
	return out
}

func (d *Device) CreateProgram(name string, desc gpuparticles.ProgramDesc) (gpuparticles.ProgramHandle, error) {
	vs, fs, ok := shaders.Sources(name)
	if !ok {
		return 0, fmt.Errorf("no shader sources for program %q", name)
	}
	id, err := buildProgram(
		shaders.Compose(shaders.DesktopHeader, desc.Defines, vs),
		shaders.Compose(shaders.DesktopHeader, desc.Defines, fs),
		desc.CapturedOutputs,
	)
	if err != nil {
		d.logger.Errorf("program %s: %v", name, err)
		return 0, fmt.Errorf("program %s: %w", name, err)
	}

	p := &program{
		id:       id,
		uniforms: make(map[string]int32, len(desc.Uniforms)),
		units:    make(map[string]int32, len(desc.Samplers)),
		attribs:  make(map[string]int32, len(desc.Inputs)),
	}
	for _, u := range desc.Uniforms {
		p.uniforms[u] = gl.GetUniformLocation(id, gl.Str(u+"\x00"))
	}
	for _, in := range desc.Inputs {
		p.attrib(in)
	}
	gl.UseProgram(id)
	var unit int32
	for _, s := range desc.Samplers {
		loc := gl.GetUniformLocation(id, gl.Str(s+"\x00"))
		if loc < 0 {
			continue
		}
		gl.Uniform1i(loc, unit)
		p.units[s] = unit
		unit++
	}
	d.current = id

	h := gpuparticles.ProgramHandle(d.alloc())
	d.programs[h] = p
	d.logger.Debugf("program %s linked: %d captured outputs, %d samplers", name, len(desc.CapturedOutputs), unit)
	return h, nil
}

func buildProgram(vertexSource, fragmentSource string, captured []string) (uint32, error) {
	vertexShader, err := compileShader(gl.VERTEX_SHADER, vertexSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(gl.FRAGMENT_SHADER, fragmentSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	id := gl.CreateProgram()
	gl.AttachShader(id, vertexShader)
	gl.AttachShader(id, fragmentShader)
	if len(captured) > 0 {
		varyings, free := gl.Strs(nulTerminated(captured)...)
		gl.TransformFeedbackVaryings(id, int32(len(captured)), varyings, gl.INTERLEAVED_ATTRIBS)
		free()
	}
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return 0, fmt.Errorf("link error: %s", log)
	}
	return id, nil
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
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile error: %s", log)
	}
	return shader, nil
}

// Desktop GL links synchronously.
func (d *Device) IsProgramReady(p gpuparticles.ProgramHandle) bool {
	_, ok := d.programs[p]
	return ok
}

func (d *Device) UseProgram(p gpuparticles.ProgramHandle) {
	if prog, ok := d.programs[p]; ok {
		d.use(prog.id)
	}
}

func (d *Device) use(id uint32) {
	if d.current != id {
		gl.UseProgram(id)
		d.current = id
	}
}

func (d *Device) SetUniform(p gpuparticles.ProgramHandle, name string, values ...float32) {
	prog, ok := d.programs[p]
	if !ok {
		return
	}
	loc, ok := prog.uniforms[name]
	if !ok {
		loc = gl.GetUniformLocation(prog.id, gl.Str(name+"\x00"))
		prog.uniforms[name] = loc
	}
	if loc < 0 {
		return
	}
	d.use(prog.id)
	switch len(values) {
	case 1:
		gl.Uniform1f(loc, values[0])
	case 2:
		gl.Uniform2f(loc, values[0], values[1])
	case 3:
		gl.Uniform3f(loc, values[0], values[1], values[2])
	case 4:
		gl.Uniform4f(loc, values[0], values[1], values[2], values[3])
	case 16:
		gl.UniformMatrix4fv(loc, 1, false, &values[0])
	default:
		d.logger.Warnf("uniform %s: unsupported width %d", name, len(values))
	}
}

func (d *Device) SetTexture(p gpuparticles.ProgramHandle, sampler string, t gpuparticles.TextureHandle) {
	prog, ok := d.programs[p]
	if !ok {
		return
	}
	unit, ok := prog.units[sampler]
	if !ok {
		return
	}
	tex, ok := d.textures[t]
	if !ok {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, tex)
}

func (d *Device) ReleaseProgram(p gpuparticles.ProgramHandle) {
	prog, ok := d.programs[p]
	if !ok {
		return
	}
	if d.current == prog.id {
		gl.UseProgram(0)
		d.current = 0
	}
	gl.DeleteProgram(prog.id)
	delete(d.programs, p)
}
