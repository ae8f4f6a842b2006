//go:build js && wasm

package webgl

import (
	"fmt"
	"syscall/js"

	"github.com/gekko3d/gpuparticles"
	"github.com/gekko3d/gpuparticles/shaders"
)

func (p *program) attrib(gl js.Value, name string) int {
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	loc := jsInt(gl.Call("getAttribLocation", p.value, name), -1)
	if loc >= 0 {
		p.attribs[name] = loc
	}
	return loc
}

func (d *Device) compileShader(shaderType int, source string) js.Value {
	shader := d.gl.Call("createShader", shaderType)
	d.gl.Call("shaderSource", shader, source)
	d.gl.Call("compileShader", shader)
	return shader
}

// CreateProgram starts compiling and linking the named program. With parallel
// compilation the link result is collected by IsProgramReady.
func (d *Device) CreateProgram(name string, desc gpuparticles.ProgramDesc) (gpuparticles.ProgramHandle, error) {
	vs, fs, ok := shaders.Sources(name)
	if !ok {
		return 0, fmt.Errorf("no shader sources for program %q", name)
	}
	if err := d.errIfLost("program " + name); err != nil {
		return 0, err
	}
	vertexShader := d.compileShader(d.consts.vertexShader, shaders.Compose(shaders.ESHeader, desc.Defines, vs))
	fragmentShader := d.compileShader(d.consts.fragmentShader, shaders.Compose(shaders.ESHeader, desc.Defines, fs))

	value := d.gl.Call("createProgram")
	d.gl.Call("attachShader", value, vertexShader)
	d.gl.Call("attachShader", value, fragmentShader)
	if len(desc.CapturedOutputs) > 0 {
		varyings := make([]any, len(desc.CapturedOutputs))
		for i, v := range desc.CapturedOutputs {
			varyings[i] = v
		}
		d.gl.Call("transformFeedbackVaryings", value, js.ValueOf(varyings), d.consts.interleavedAttribs)
	}
	d.gl.Call("linkProgram", value)
	// shaders stay alive on the program until it is deleted
	d.gl.Call("deleteShader", vertexShader)
	d.gl.Call("deleteShader", fragmentShader)

	p := &program{
		value:    value,
		desc:     desc,
		uniforms: make(map[string]js.Value, len(desc.Uniforms)),
		units:    make(map[string]int, len(desc.Samplers)),
		attribs:  make(map[string]int, len(desc.Inputs)),
	}
	h := gpuparticles.ProgramHandle(d.alloc())
	d.programs[h] = p
	if !d.parallel {
		if err := d.finishLink(name, p); err != nil {
			d.ReleaseProgram(h)
			return 0, err
		}
	}
	return h, nil
}

// finishLink checks the link result and resolves the program interface.
func (d *Device) finishLink(name string, p *program) error {
	if !d.gl.Call("getProgramParameter", p.value, d.consts.linkStatus).Truthy() {
		log := jsString(d.gl.Call("getProgramInfoLog", p.value))
		d.logger.Errorf("program %s: link error: %s", name, log)
		return fmt.Errorf("program %s: link error: %s", name, log)
	}
	for _, u := range p.desc.Uniforms {
		p.uniforms[u] = d.gl.Call("getUniformLocation", p.value, u)
	}
	for _, in := range p.desc.Inputs {
		p.attrib(d.gl, in)
	}
	d.gl.Call("useProgram", p.value)
	unit := 0
	for _, s := range p.desc.Samplers {
		loc := d.gl.Call("getUniformLocation", p.value, s)
		if !loc.Truthy() {
			continue
		}
		d.gl.Call("uniform1i", loc, unit)
		p.units[s] = unit
		unit++
	}
	d.current = 0
	p.linked = true
	return nil
}

func (d *Device) IsProgramReady(h gpuparticles.ProgramHandle) bool {
	p, ok := d.programs[h]
	if !ok {
		return false
	}
	if d.IsContextLost() {
		return false
	}
	if p.linked {
		return true
	}
	if !d.gl.Call("getProgramParameter", p.value, completionStatusKHR).Truthy() {
		return false
	}
	if err := d.finishLink(fmt.Sprint(h), p); err != nil {
		// a failed link never becomes ready
		d.gl.Call("deleteProgram", p.value)
		delete(d.programs, h)
		return false
	}
	return true
}

func (d *Device) UseProgram(h gpuparticles.ProgramHandle) {
	p, ok := d.programs[h]
	if !ok || !p.linked || d.current == h {
		return
	}
	d.gl.Call("useProgram", p.value)
	d.current = h
}

func (d *Device) SetUniform(h gpuparticles.ProgramHandle, name string, values ...float32) {
	p, ok := d.programs[h]
	if !ok || !p.linked {
		return
	}
	loc, ok := p.uniforms[name]
	if !ok {
		loc = d.gl.Call("getUniformLocation", p.value, name)
		p.uniforms[name] = loc
	}
	if !loc.Truthy() {
		return
	}
	d.UseProgram(h)
	switch len(values) {
	case 1:
		d.gl.Call("uniform1f", loc, values[0])
	case 2:
		d.gl.Call("uniform2f", loc, values[0], values[1])
	case 3:
		d.gl.Call("uniform3f", loc, values[0], values[1], values[2])
	case 4:
		d.gl.Call("uniform4f", loc, values[0], values[1], values[2], values[3])
	case 16:
		d.gl.Call("uniformMatrix4fv", loc, false, float32Array(float32Bytes(values)))
	default:
		d.logger.Warnf("uniform %s: unsupported width %d", name, len(values))
	}
}

func (d *Device) SetTexture(h gpuparticles.ProgramHandle, sampler string, t gpuparticles.TextureHandle) {
	p, ok := d.programs[h]
	if !ok {
		return
	}
	unit, ok := p.units[sampler]
	if !ok {
		return
	}
	tex, ok := d.textures[t]
	if !ok {
		return
	}
	d.gl.Call("activeTexture", d.consts.texture0+unit)
	d.gl.Call("bindTexture", d.consts.texture2D, tex)
}

func (d *Device) ReleaseProgram(h gpuparticles.ProgramHandle) {
	p, ok := d.programs[h]
	if !ok {
		return
	}
	if d.current == h {
		d.gl.Call("useProgram", js.Null())
		d.current = 0
	}
	d.gl.Call("deleteProgram", p.value)
	delete(d.programs, h)
}

// linkedProgram returns the program of h, waiting for a pending link to finish.
func (d *Device) linkedProgram(h gpuparticles.ProgramHandle) (*program, bool) {
	p, ok := d.programs[h]
	if !ok {
		return nil, false
	}
	if !p.linked {
		if d.IsContextLost() {
			return nil, false
		}
		if err := d.finishLink(fmt.Sprint(h), p); err != nil {
			return nil, false
		}
	}
	return p, true
}
