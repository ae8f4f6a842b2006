//go:build js && wasm

// Package webgl implements gpuparticles.Device on a WebGL2 canvas context.
package webgl

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"syscall/js"

	"github.com/gekko3d/gpuparticles"
)

type program struct {
	value    js.Value
	desc     gpuparticles.ProgramDesc
	linked   bool
	uniforms map[string]js.Value
	units    map[string]int
	attribs  map[string]int
}

type vertexArray struct {
	value js.Value
}

// Device wraps a WebGL2 rendering context. Handles map to the JS objects it created.
type Device struct {
	gl       js.Value
	consts   glConsts
	logger   gpuparticles.Logger
	caps     gpuparticles.Capabilities
	parallel bool

	next     uint64
	current  gpuparticles.ProgramHandle
	feedback js.Value
	scratch  js.Value
	enabled  []int
	programs map[gpuparticles.ProgramHandle]*program
	buffers  map[gpuparticles.BufferHandle]js.Value
	textures map[gpuparticles.TextureHandle]js.Value
	arrays   map[gpuparticles.BindingHandle]*vertexArray

	mu          sync.Mutex
	contextLost bool
	lost        map[int]func()
	nextLost    int
	onLost      js.Func
	onRestored  js.Func
	canvas      js.Value
}

// New creates a device on the "webgl2" context of canvas.
func New(canvas js.Value, logger gpuparticles.Logger) (*Device, error) {
	if logger == nil {
		logger = gpuparticles.NewNopLogger()
	}
	if canvas.IsUndefined() || canvas.IsNull() {
		return nil, fmt.Errorf("webgl: no canvas")
	}
	gl := canvas.Call("getContext", "webgl2")
	if gl.IsUndefined() || gl.IsNull() {
		return nil, fmt.Errorf("webgl: webgl2 context is required")
	}
	d := &Device{
		gl:       gl,
		consts:   loadConsts(gl),
		logger:   logger,
		canvas:   canvas,
		programs: make(map[gpuparticles.ProgramHandle]*program),
		buffers:  make(map[gpuparticles.BufferHandle]js.Value),
		textures: make(map[gpuparticles.TextureHandle]js.Value),
		arrays:   make(map[gpuparticles.BindingHandle]*vertexArray),
	}
	d.initContext()
	d.caps = d.probe()

	d.onLost = js.FuncOf(d.handleContextLost)
	d.onRestored = js.FuncOf(d.handleContextRestored)
	canvas.Call("addEventListener", "webglcontextlost", d.onLost)
	canvas.Call("addEventListener", "webglcontextrestored", d.onRestored)

	logger.Infof("WebGL2 %s, parallel compile %v, %d capture components",
		jsString(gl.Call("getParameter", gl.Get("VERSION"))), d.parallel, d.caps.MaxCaptureComponents)
	return d, nil
}

// initContext creates the per-context objects every step needs.
func (d *Device) initContext() {
	d.parallel = d.gl.Call("getExtension", "KHR_parallel_shader_compile").Truthy()
	d.feedback = d.gl.Call("createTransformFeedback")
	d.scratch = d.gl.Call("createVertexArray")
	d.current = 0
	d.enabled = nil
}

// jsString returns the string held by v, "" for null or undefined.
func jsString(v js.Value) string {
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

// jsInt returns the number held by v, or def when the query produced none, as
// every query does on a lost context.
func jsInt(v js.Value, def int) int {
	if v.Type() != js.TypeNumber {
		return def
	}
	return v.Int()
}

func (d *Device) probe() gpuparticles.Capabilities {
	param := func(name int) int { return jsInt(d.gl.Call("getParameter", name), 0) }
	return gpuparticles.Capabilities{
		Backend:              string(gpuparticles.BackendWebGL2),
		TransformFeedback:    true,
		RasterizerControl:    true,
		AsyncCompile:         d.parallel,
		MaxVertexAttribs:     param(d.consts.maxVertexAttribs),
		MaxTextureSize:       param(d.consts.maxTextureSize),
		FloatTextures:        d.gl.Call("getExtension", "EXT_color_buffer_float").Truthy(),
		MaxCaptureComponents: param(d.consts.maxInterleavedComponents),
	}
}

func (d *Device) handleContextLost(this js.Value, args []js.Value) any {
	if len(args) > 0 {
		// allows the browser to restore the context later
		args[0].Call("preventDefault")
	}
	d.mu.Lock()
	d.contextLost = true
	fns := make([]func(), 0, len(d.lost))
	for _, fn := range d.lost {
		fns = append(fns, fn)
	}
	d.mu.Unlock()
	d.logger.Warnf("webgl context lost")
	for _, fn := range fns {
		fn()
	}
	return nil
}

// handleContextRestored forgets every object of the lost context and recreates the
// per-context ones. Owners rebuild their objects once IsContextLost reports false.
func (d *Device) handleContextRestored(this js.Value, args []js.Value) any {
	d.programs = make(map[gpuparticles.ProgramHandle]*program)
	d.buffers = make(map[gpuparticles.BufferHandle]js.Value)
	d.textures = make(map[gpuparticles.TextureHandle]js.Value)
	d.arrays = make(map[gpuparticles.BindingHandle]*vertexArray)
	d.initContext()

	d.mu.Lock()
	d.contextLost = false
	d.mu.Unlock()
	d.logger.Infof("webgl context restored")
	return nil
}

// OnContextLost registers fn to run when the browser drops the context. The returned
// func unregisters it.
func (d *Device) OnContextLost(fn func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost == nil {
		d.lost = make(map[int]func())
	}
	id := d.nextLost
	d.nextLost++
	d.lost[id] = fn
	return func() {
		d.mu.Lock()
		delete(d.lost, id)
		d.mu.Unlock()
	}
}

// IsContextLost reports true from a webglcontextlost event until the matching
// webglcontextrestored event.
func (d *Device) IsContextLost() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contextLost
}

// errIfLost fails object creation on a lost context, where every create call
// returns null.
func (d *Device) errIfLost(op string) error {
	if d.IsContextLost() {
		return fmt.Errorf("%s: %w", op, gpuparticles.ErrDeviceLost)
	}
	return nil
}

func (d *Device) alloc() uint64 {
	d.next++
	return d.next
}

func (d *Device) Capabilities() gpuparticles.Capabilities { return d.caps }

func float32Bytes(data []float32) []byte {
	b := make([]byte, len(data)*gpuparticles.FloatSize)
	for i, v := range data {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func uint8Array(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

func float32Array(b []byte) js.Value {
	return js.Global().Get("Float32Array").New(uint8Array(b).Get("buffer"))
}

func (d *Device) CreateBuffer(data []float32) (gpuparticles.BufferHandle, error) {
	if len(data) == 0 {
		return gpuparticles.NoBuffer, fmt.Errorf("create buffer: empty data")
	}
	if err := d.errIfLost("create buffer"); err != nil {
		return gpuparticles.NoBuffer, err
	}
	buf := d.gl.Call("createBuffer")
	d.gl.Call("bindBuffer", d.consts.arrayBuffer, buf)
	d.gl.Call("bufferData", d.consts.arrayBuffer, float32Array(float32Bytes(data)), d.consts.dynamicCopy)
	d.gl.Call("bindBuffer", d.consts.arrayBuffer, js.Null())

	h := gpuparticles.BufferHandle(d.alloc())
	d.buffers[h] = buf
	return h, nil
}

func (d *Device) ReleaseBuffer(b gpuparticles.BufferHandle) {
	if buf, ok := d.buffers[b]; ok {
		d.gl.Call("deleteBuffer", buf)
		delete(d.buffers, b)
	}
}

func (d *Device) buffer(b gpuparticles.BufferHandle) js.Value {
	if buf, ok := d.buffers[b]; ok {
		return buf
	}
	return js.Null()
}

func (d *Device) CreateTexture(desc gpuparticles.TextureDesc) (gpuparticles.TextureHandle, error) {
	if want := desc.Width * desc.Height * desc.Format.BytesPerTexel(); len(desc.Data) != want {
		return 0, fmt.Errorf("texture %s: %d bytes of data, want %d", desc.Label, len(desc.Data), want)
	}
	if err := d.errIfLost("texture " + desc.Label); err != nil {
		return 0, err
	}
	c := d.consts
	internal, format, xtype, pixels := c.rgba8, c.rgba, c.unsignedByte, uint8Array(desc.Data)
	switch desc.Format {
	case gpuparticles.TextureRGBA32F:
		internal, xtype, pixels = c.rgba32f, c.floatType, float32Array(desc.Data)
	case gpuparticles.TextureR32F:
		internal, format, xtype, pixels = c.r32f, c.red, c.floatType, float32Array(desc.Data)
	}
	filter, wrap := c.nearest, c.clampToEdge
	if desc.Linear && desc.Format == gpuparticles.TextureRGBA8 {
		filter = c.linear
	}
	if desc.Repeat {
		wrap = c.repeat
	}

	tex := d.gl.Call("createTexture")
	d.gl.Call("bindTexture", c.texture2D, tex)
	d.gl.Call("pixelStorei", c.unpackAlignment, 1)
	d.gl.Call("texImage2D", c.texture2D, 0, internal, desc.Width, desc.Height, 0, format, xtype, pixels)
	d.gl.Call("texParameteri", c.texture2D, c.textureMinFilter, filter)
	d.gl.Call("texParameteri", c.texture2D, c.textureMagFilter, filter)
	d.gl.Call("texParameteri", c.texture2D, c.textureWrapS, wrap)
	d.gl.Call("texParameteri", c.texture2D, c.textureWrapT, wrap)
	d.gl.Call("bindTexture", c.texture2D, js.Null())

	h := gpuparticles.TextureHandle(d.alloc())
	d.textures[h] = tex
	return h, nil
}

func (d *Device) ReleaseTexture(t gpuparticles.TextureHandle) {
	if tex, ok := d.textures[t]; ok {
		d.gl.Call("deleteTexture", tex)
		delete(d.textures, t)
	}
}

func (d *Device) pointAttribs(inputs map[string]gpuparticles.VertexInput, indexBuffer gpuparticles.BufferHandle, p *program) []int {
	var enabled []int
	for name, in := range inputs {
		loc := p.attrib(d.gl, name)
		buf, ok := d.buffers[in.Buffer]
		if loc < 0 || !ok {
			continue
		}
		d.gl.Call("bindBuffer", d.consts.arrayBuffer, buf)
		d.gl.Call("enableVertexAttribArray", loc)
		d.gl.Call("vertexAttribPointer", loc, in.Components, d.consts.floatType, false, in.Stride, in.Offset)
		d.gl.Call("vertexAttribDivisor", loc, in.Divisor)
		enabled = append(enabled, loc)
	}
	d.gl.Call("bindBuffer", d.consts.arrayBuffer, js.Null())
	if buf, ok := d.buffers[indexBuffer]; ok {
		d.gl.Call("bindBuffer", d.consts.elementArrayBuffer, buf)
	}
	return enabled
}

func (d *Device) CreateBindingObject(inputs map[string]gpuparticles.VertexInput, indexBuffer gpuparticles.BufferHandle, program gpuparticles.ProgramHandle) (gpuparticles.BindingHandle, error) {
	if err := d.errIfLost("binding object"); err != nil {
		return 0, err
	}
	p, ok := d.linkedProgram(program)
	if !ok {
		return 0, fmt.Errorf("binding object: program %d not linked", program)
	}
	va := &vertexArray{value: d.gl.Call("createVertexArray")}
	d.gl.Call("bindVertexArray", va.value)
	d.pointAttribs(inputs, indexBuffer, p)
	d.gl.Call("bindVertexArray", js.Null())

	h := gpuparticles.BindingHandle(d.alloc())
	d.arrays[h] = va
	return h, nil
}

func (d *Device) ReleaseBindingObject(b gpuparticles.BindingHandle) {
	if va, ok := d.arrays[b]; ok {
		d.gl.Call("deleteVertexArray", va.value)
		delete(d.arrays, b)
	}
}

func (d *Device) BindBindingObject(b gpuparticles.BindingHandle) {
	if va, ok := d.arrays[b]; ok {
		d.gl.Call("bindVertexArray", va.value)
		return
	}
	d.gl.Call("bindVertexArray", js.Null())
}

func (d *Device) BindArrayBuffer(b gpuparticles.BufferHandle) {
	d.gl.Call("bindBuffer", d.consts.arrayBuffer, d.buffer(b))
}

func (d *Device) BindVertexInputs(inputs map[string]gpuparticles.VertexInput, indexBuffer gpuparticles.BufferHandle, program gpuparticles.ProgramHandle) {
	p, ok := d.linkedProgram(program)
	if !ok {
		return
	}
	d.gl.Call("bindVertexArray", d.scratch)
	for _, loc := range d.enabled {
		d.gl.Call("disableVertexAttribArray", loc)
	}
	d.enabled = d.pointAttribs(inputs, indexBuffer, p)
}

func (d *Device) AttachCaptureTarget(b gpuparticles.BufferHandle) {
	d.gl.Call("bindTransformFeedback", d.consts.transformFeedback, d.feedback)
	d.gl.Call("bindBufferBase", d.consts.transformFeedbackBuffer, 0, d.buffer(b))
}

func (d *Device) DetachCaptureTarget() {
	d.gl.Call("bindBufferBase", d.consts.transformFeedbackBuffer, 0, js.Null())
	d.gl.Call("bindTransformFeedback", d.consts.transformFeedback, js.Null())
}

func (d *Device) BeginCapture() { d.gl.Call("beginTransformFeedback", d.consts.points) }
func (d *Device) EndCapture()   { d.gl.Call("endTransformFeedback") }

func (d *Device) SetRasterizerEnabled(enabled bool) {
	if enabled {
		d.gl.Call("disable", d.consts.rasterizerDiscard)
		return
	}
	d.gl.Call("enable", d.consts.rasterizerDiscard)
}

func (d *Device) DrawPoints(count int) {
	d.gl.Call("drawArrays", d.consts.points, 0, count)
}

// Close deletes every object the device still owns and stops listening for
// context events.
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
	d.gl.Call("deleteTransformFeedback", d.feedback)
	d.gl.Call("deleteVertexArray", d.scratch)
	d.canvas.Call("removeEventListener", "webglcontextlost", d.onLost)
	d.canvas.Call("removeEventListener", "webglcontextrestored", d.onRestored)
	d.onLost.Release()
	d.onRestored.Release()
	return nil
}
