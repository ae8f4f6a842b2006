//go:build !js

// Package opengl implements gpuparticles.Device on a desktop OpenGL 3.3 core
// context. All calls must come from the thread owning the context.
package opengl

import (
	"fmt"

	"github.com/gekko3d/gpuparticles"
	"github.com/go-gl/gl/v3.3-core/gl"
)

type vertexArray struct {
	id      uint32
	enabled []uint32
}

// Device owns the GL objects it creates and hands out opaque handles for them.
type Device struct {
	logger gpuparticles.Logger
	caps   gpuparticles.Capabilities

	next     uint64
	current  uint32
	scratch  uint32
	programs map[gpuparticles.ProgramHandle]*program
	buffers  map[gpuparticles.BufferHandle]uint32
	textures map[gpuparticles.TextureHandle]uint32
	arrays   map[gpuparticles.BindingHandle]*vertexArray
	enabled  []uint32 // attribute locations enabled on the scratch array
}

// New loads the GL entry points of the current context and probes it.
func New(logger gpuparticles.Logger) (*Device, error) {
	if logger == nil {
		logger = gpuparticles.NewNopLogger()
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	d := &Device{
		logger:   logger,
		programs: make(map[gpuparticles.ProgramHandle]*program),
		buffers:  make(map[gpuparticles.BufferHandle]uint32),
		textures: make(map[gpuparticles.TextureHandle]uint32),
		arrays:   make(map[gpuparticles.BindingHandle]*vertexArray),
	}
	d.caps = probe()
	gl.GenVertexArrays(1, &d.scratch)

	logger.Infof("OpenGL %s (%s), %d vertex attribs, %d capture components",
		gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)),
		d.caps.MaxVertexAttribs, d.caps.MaxCaptureComponents)
	return d, nil
}

func probe() gpuparticles.Capabilities {
	var attribs, texSize, components int32
	gl.GetIntegerv(gl.MAX_VERTEX_ATTRIBS, &attribs)
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &texSize)
	gl.GetIntegerv(gl.MAX_TRANSFORM_FEEDBACK_INTERLEAVED_COMPONENTS, &components)
	return gpuparticles.Capabilities{
		Backend:              string(gpuparticles.BackendOpenGL),
		TransformFeedback:    true,
		RasterizerControl:    true,
		MaxVertexAttribs:     int(attribs),
		MaxTextureSize:       int(texSize),
		FloatTextures:        true,
		MaxCaptureComponents: int(components),
	}
}

func (d *Device) alloc() uint64 {
	d.next++
	return d.next
}

func (d *Device) Capabilities() gpuparticles.Capabilities { return d.caps }

func (d *Device) CreateBuffer(data []float32) (gpuparticles.BufferHandle, error) {
	if len(data) == 0 {
		return gpuparticles.NoBuffer, fmt.Errorf("create buffer: empty data")
	}
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*gpuparticles.FloatSize, gl.Ptr(data), gl.DYNAMIC_COPY)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	h := gpuparticles.BufferHandle(d.alloc())
	d.buffers[h] = id
	return h, nil
}

func (d *Device) ReleaseBuffer(b gpuparticles.BufferHandle) {
	if id, ok := d.buffers[b]; ok {
		gl.DeleteBuffers(1, &id)
		delete(d.buffers, b)
	}
}

// textureFormat returns the internal format, pixel format and component type of f.
func textureFormat(f gpuparticles.TextureFormat) (internal int32, format, xtype uint32) {
	switch f {
	case gpuparticles.TextureRGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT
	case gpuparticles.TextureR32F:
		return gl.R32F, gl.RED, gl.FLOAT
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func samplerParams(desc gpuparticles.TextureDesc) (filter, wrap int32) {
	filter, wrap = gl.NEAREST, gl.CLAMP_TO_EDGE
	if desc.Linear {
		filter = gl.LINEAR
	}
	if desc.Repeat {
		wrap = gl.REPEAT
	}
	return filter, wrap
}

func (d *Device) CreateTexture(desc gpuparticles.TextureDesc) (gpuparticles.TextureHandle, error) {
	if want := desc.Width * desc.Height * desc.Format.BytesPerTexel(); len(desc.Data) != want {
		return 0, fmt.Errorf("texture %s: %d bytes of data, want %d", desc.Label, len(desc.Data), want)
	}
	internal, format, xtype := textureFormat(desc.Format)
	filter, wrap := samplerParams(desc)

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, xtype, gl.Ptr(desc.Data))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	h := gpuparticles.TextureHandle(d.alloc())
	d.textures[h] = id
	d.logger.Debugf("texture %s: %dx%d", desc.Label, desc.Width, desc.Height)
	return h, nil
}

func (d *Device) ReleaseTexture(t gpuparticles.TextureHandle) {
	if id, ok := d.textures[t]; ok {
		gl.DeleteTextures(1, &id)
		delete(d.textures, t)
	}
}

// pointAttribs sets up the inputs of program on the bound vertex array and returns
// the enabled locations. Inputs the program does not declare are skipped.
func (d *Device) pointAttribs(inputs map[string]gpuparticles.VertexInput, indexBuffer gpuparticles.BufferHandle, p *program) []uint32 {
	var enabled []uint32
	for name, in := range inputs {
		loc := p.attrib(name)
		if loc < 0 {
			continue
		}
		id, ok := d.buffers[in.Buffer]
		if !ok {
			continue
		}
		gl.BindBuffer(gl.ARRAY_BUFFER, id)
		gl.EnableVertexAttribArray(uint32(loc))
		gl.VertexAttribPointerWithOffset(uint32(loc), int32(in.Components), gl.FLOAT, false, int32(in.Stride), uintptr(in.Offset))
		gl.VertexAttribDivisor(uint32(loc), uint32(in.Divisor))
		enabled = append(enabled, uint32(loc))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	if id, ok := d.buffers[indexBuffer]; ok {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, id)
	}
	return enabled
}

func (d *Device) CreateBindingObject(inputs map[string]gpuparticles.VertexInput, indexBuffer gpuparticles.BufferHandle, program gpuparticles.ProgramHandle) (gpuparticles.BindingHandle, error) {
	p, ok := d.programs[program]
	if !ok {
		return 0, fmt.Errorf("binding object: unknown program %d", program)
	}
	va := &vertexArray{}
	gl.GenVertexArrays(1, &va.id)
	gl.BindVertexArray(va.id)
	va.enabled = d.pointAttribs(inputs, indexBuffer, p)
	gl.BindVertexArray(0)

	h := gpuparticles.BindingHandle(d.alloc())
	d.arrays[h] = va
	return h, nil
}

func (d *Device) ReleaseBindingObject(b gpuparticles.BindingHandle) {
	if va, ok := d.arrays[b]; ok {
		gl.DeleteVertexArrays(1, &va.id)
		delete(d.arrays, b)
	}
}

func (d *Device) BindBindingObject(b gpuparticles.BindingHandle) {
	if va, ok := d.arrays[b]; ok {
		gl.BindVertexArray(va.id)
		return
	}
	gl.BindVertexArray(0)
}

func (d *Device) BindArrayBuffer(b gpuparticles.BufferHandle) {
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buffers[b])
}

// BindVertexInputs points the scratch vertex array at inputs. Core profiles have no
// default vertex array, so raw inputs always live on the scratch one.
func (d *Device) BindVertexInputs(inputs map[string]gpuparticles.VertexInput, indexBuffer gpuparticles.BufferHandle, program gpuparticles.ProgramHandle) {
	p, ok := d.programs[program]
	if !ok {
		return
	}
	gl.BindVertexArray(d.scratch)
	for _, loc := range d.enabled {
		gl.DisableVertexAttribArray(loc)
	}
	d.enabled = d.pointAttribs(inputs, indexBuffer, p)
}

func (d *Device) AttachCaptureTarget(b gpuparticles.BufferHandle) {
	gl.BindBufferBase(gl.TRANSFORM_FEEDBACK_BUFFER, 0, d.buffers[b])
}

func (d *Device) DetachCaptureTarget() {
	gl.BindBufferBase(gl.TRANSFORM_FEEDBACK_BUFFER, 0, 0)
}

func (d *Device) BeginCapture() { gl.BeginTransformFeedback(gl.POINTS) }
func (d *Device) EndCapture()   { gl.EndTransformFeedback() }

func (d *Device) SetRasterizerEnabled(enabled bool) {
	if enabled {
		gl.Disable(gl.RASTERIZER_DISCARD)
		return
	}
	gl.Enable(gl.RASTERIZER_DISCARD)
}

func (d *Device) DrawPoints(count int) {
	gl.DrawArrays(gl.POINTS, 0, int32(count))
}

// Close deletes every object the device still owns.
func (d *Device) Close() error {
	for h := range d.arrays {
		d.ReleaseBindingObject(h)
	}
	for h := range d.textures {
		d.ReleaseTexture(h)
	}
	for h := range d.buffers {
		d.ReleaseBuffer(h)
	}
	for h := range d.programs {
		d.ReleaseProgram(h)
	}
	gl.DeleteVertexArrays(1, &d.scratch)
	d.scratch = 0
	return nil
}
