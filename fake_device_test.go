package gpuparticles

import (
	"fmt"
	"strconv"
	"strings"
)

// fakeDevice records every command it receives. Handles are allocated from one
// counter so they never collide across object kinds.
type fakeDevice struct {
	caps   Capabilities
	next   uint64
	probes int
	calls  []string

	// programs report not ready until compile is called when async is set
	async    bool
	ready    map[ProgramHandle]bool
	programs map[ProgramHandle]ProgramDesc
	buffers  map[BufferHandle][]float32
	textures map[TextureHandle]TextureDesc
	bindings map[BindingHandle]map[string]VertexInput
	uniforms map[string][]float32
	samplers map[string]TextureHandle

	releasedBindings []BindingHandle
	releasedBuffers  []BufferHandle
	releasedTextures []TextureHandle
	releasedPrograms []ProgramHandle

	lostFns  map[int]func()
	nextLost int

	closed int

	// contextLost is reported through IsContextLost until restoreContext
	contextLost bool
}

func fullCapabilities() Capabilities {
	return Capabilities{
		Backend:              "fake",
		TransformFeedback:    true,
		RasterizerControl:    true,
		MaxVertexAttribs:     16,
		MaxTextureSize:       64,
		FloatTextures:        true,
		MaxCaptureComponents: 64,
	}
}

func newFakeDevice() *fakeDevice {
	return newFakeDeviceWith(fullCapabilities())
}

func newFakeDeviceWith(caps Capabilities) *fakeDevice {
	return &fakeDevice{
		caps:     caps,
		ready:    make(map[ProgramHandle]bool),
		programs: make(map[ProgramHandle]ProgramDesc),
		buffers:  make(map[BufferHandle][]float32),
		textures: make(map[TextureHandle]TextureDesc),
		bindings: make(map[BindingHandle]map[string]VertexInput),
		uniforms: make(map[string][]float32),
		samplers: make(map[string]TextureHandle),
	}
}

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }

func (d *fakeDevice) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) alloc() uint64 {
	d.next++
	return d.next
}

// ops returns the recorded command names without arguments.
func (d *fakeDevice) ops() []string {
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = strings.SplitN(c, "(", 2)[0]
	}
	return out
}

// opsSince returns the command names recorded after mark.
func (d *fakeDevice) opsSince(mark int) []string {
	return d.ops()[mark:]
}

func (d *fakeDevice) count(op string) int {
	n := 0
	for _, o := range d.ops() {
		if o == op {
			n++
		}
	}
	return n
}

// compile finishes every pending asynchronous compilation.
func (d *fakeDevice) compile() {
	for p := range d.programs {
		d.ready[p] = true
	}
}

// loseContext fires the registered context-lost callbacks. The context is usable
// again right away.
func (d *fakeDevice) loseContext() {
	for _, fn := range d.lostFns {
		fn()
	}
}

// dropContext loses the context until restoreContext is called.
func (d *fakeDevice) dropContext() {
	d.contextLost = true
	d.loseContext()
}

func (d *fakeDevice) restoreContext() { d.contextLost = false }

func (d *fakeDevice) IsContextLost() bool { return d.contextLost }

func (d *fakeDevice) Close() error {
	d.closed++
	return nil
}

func (d *fakeDevice) OnContextLost(fn func()) func() {
	if d.lostFns == nil {
		d.lostFns = make(map[int]func())
	}
	id := d.nextLost
	d.nextLost++
	d.lostFns[id] = fn
	return func() { delete(d.lostFns, id) }
}

func (d *fakeDevice) Capabilities() Capabilities {
	d.probes++
	return d.caps
}

func (d *fakeDevice) CreateProgram(name string, desc ProgramDesc) (ProgramHandle, error) {
	p := ProgramHandle(d.alloc())
	d.record("CreateProgram(%s)", name)
	d.programs[p] = desc
	d.ready[p] = !d.async
	return p, nil
}

func (d *fakeDevice) IsProgramReady(p ProgramHandle) bool { return d.ready[p] }

func (d *fakeDevice) UseProgram(p ProgramHandle) { d.record("UseProgram(%d)", p) }

func (d *fakeDevice) SetUniform(p ProgramHandle, name string, values ...float32) {
	d.uniforms[name] = append([]float32(nil), values...)
}

func (d *fakeDevice) SetTexture(p ProgramHandle, sampler string, t TextureHandle) {
	d.record("SetTexture(%s)", sampler)
	d.samplers[sampler] = t
}

func (d *fakeDevice) ReleaseProgram(p ProgramHandle) {
	d.record("ReleaseProgram(%d)", p)
	d.releasedPrograms = append(d.releasedPrograms, p)
}

func (d *fakeDevice) CreateBuffer(data []float32) (BufferHandle, error) {
	b := BufferHandle(d.alloc())
	d.record("CreateBuffer(%d)", len(data))
	d.buffers[b] = append([]float32(nil), data...)
	return b, nil
}

func (d *fakeDevice) ReleaseBuffer(b BufferHandle) {
	d.record("ReleaseBuffer(%d)", b)
	d.releasedBuffers = append(d.releasedBuffers, b)
}

func (d *fakeDevice) CreateTexture(desc TextureDesc) (TextureHandle, error) {
	t := TextureHandle(d.alloc())
	d.record("CreateTexture(%s)", desc.Label)
	d.textures[t] = desc
	return t, nil
}

func (d *fakeDevice) ReleaseTexture(t TextureHandle) {
	d.record("ReleaseTexture(%d)", t)
	d.releasedTextures = append(d.releasedTextures, t)
}

func (d *fakeDevice) CreateBindingObject(inputs map[string]VertexInput, indexBuffer BufferHandle, program ProgramHandle) (BindingHandle, error) {
	h := BindingHandle(d.alloc())
	d.record("CreateBindingObject(%d)", len(inputs))
	d.bindings[h] = inputs
	return h, nil
}

func (d *fakeDevice) ReleaseBindingObject(b BindingHandle) {
	d.record("ReleaseBindingObject(%d)", b)
	d.releasedBindings = append(d.releasedBindings, b)
}

func (d *fakeDevice) BindBindingObject(b BindingHandle) { d.record("BindBindingObject(%d)", b) }

func (d *fakeDevice) BindArrayBuffer(b BufferHandle) { d.record("BindArrayBuffer(%d)", b) }

func (d *fakeDevice) BindVertexInputs(inputs map[string]VertexInput, indexBuffer BufferHandle, program ProgramHandle) {
	d.record("BindVertexInputs(%d)", indexBuffer)
}

func (d *fakeDevice) AttachCaptureTarget(b BufferHandle) { d.record("AttachCaptureTarget(%d)", b) }

func (d *fakeDevice) DetachCaptureTarget() { d.record("DetachCaptureTarget()") }

func (d *fakeDevice) BeginCapture() { d.record("BeginCapture()") }

func (d *fakeDevice) EndCapture() { d.record("EndCapture()") }

func (d *fakeDevice) SetRasterizerEnabled(enabled bool) {
	d.record("SetRasterizerEnabled(%t)", enabled)
}

func (d *fakeDevice) DrawPoints(count int) { d.record("DrawPoints(%d)", count) }
