package gpuparticles

// Opaque device object handles. Each backend keeps the mapping from handle to its
// native object; zero is never a valid handle.
type (
	ProgramHandle uint64
	BufferHandle  uint64
	TextureHandle uint64
	BindingHandle uint64
)

// NoBuffer clears a buffer binding point.
const NoBuffer BufferHandle = 0

// Capabilities is the probe result of a rendering context.
type Capabilities struct {
	// Backend is the registry name of the device implementation.
	Backend string

	// TransformFeedback reports vertex-stage output capture into buffers.
	TransformFeedback bool

	// RasterizerControl reports explicit rasterizer discard control. A "basic"
	// context without full pipeline state control reports false.
	RasterizerControl bool

	// AsyncCompile reports that program readiness must be polled.
	AsyncCompile bool

	MaxVertexAttribs int
	MaxTextureSize   int
	FloatTextures    bool

	// MaxCaptureComponents is the float budget of one interleaved captured record.
	MaxCaptureComponents int
}

// SupportsGPUParticles reports whether the context can run the simulation.
func (c Capabilities) SupportsGPUParticles() bool {
	return c.TransformFeedback && c.RasterizerControl
}

// missing names the first capability the simulation lacks, or "".
func (c Capabilities) missing() string {
	switch {
	case !c.TransformFeedback:
		return "transform feedback"
	case !c.RasterizerControl:
		return "rasterizer control"
	default:
		return ""
	}
}

// ProgramDesc is the interface of a program to compile.
type ProgramDesc struct {
	Inputs          []string
	Uniforms        []string
	Samplers        []string
	CapturedOutputs []string
	Defines         string
}

// VertexInput is a strided float view into a buffer.
type VertexInput struct {
	Buffer     BufferHandle
	Components int
	Offset     int // bytes
	Stride     int // bytes
	Divisor    int // 0 per vertex, 1 per instance
}

// TextureFormat selects the texel layout of TextureDesc.Data.
type TextureFormat uint8

const (
	TextureRGBA8 TextureFormat = iota
	TextureRGBA32F
	TextureR32F
)

// BytesPerTexel returns the texel size of f.
func (f TextureFormat) BytesPerTexel() int {
	switch f {
	case TextureRGBA32F:
		return 16
	case TextureR32F:
		return 4
	default:
		return 4
	}
}

// TextureDesc describes a 2D texture and its initial texels.
type TextureDesc struct {
	Label  string
	Width  int
	Height int
	Format TextureFormat
	Linear bool // linear filtering, nearest otherwise
	Repeat bool // repeat wrapping, clamp otherwise
	Data   []byte
}

// Device is the slice of a rendering engine the particle driver consumes. Calls are
// queued on the device command stream and never wait for GPU completion.
type Device interface {
	Capabilities() Capabilities

	CreateProgram(name string, desc ProgramDesc) (ProgramHandle, error)
	IsProgramReady(p ProgramHandle) bool
	UseProgram(p ProgramHandle)
	SetUniform(p ProgramHandle, name string, values ...float32)
	SetTexture(p ProgramHandle, sampler string, t TextureHandle)
	ReleaseProgram(p ProgramHandle)

	CreateBuffer(data []float32) (BufferHandle, error)
	ReleaseBuffer(b BufferHandle)

	CreateTexture(desc TextureDesc) (TextureHandle, error)
	ReleaseTexture(t TextureHandle)

	CreateBindingObject(inputs map[string]VertexInput, indexBuffer BufferHandle, program ProgramHandle) (BindingHandle, error)
	ReleaseBindingObject(b BindingHandle)
	BindBindingObject(b BindingHandle)
	BindArrayBuffer(b BufferHandle)
	BindVertexInputs(inputs map[string]VertexInput, indexBuffer BufferHandle, program ProgramHandle)

	AttachCaptureTarget(b BufferHandle)
	DetachCaptureTarget()
	BeginCapture()
	EndCapture()
	SetRasterizerEnabled(enabled bool)
	DrawPoints(count int)
}

// ContextLossNotifier is implemented by devices that observe context loss
// asynchronously (browser events, driver resets). The callback may run on any
// goroutine; receivers must only queue a signal from it. The returned func removes
// the callback.
type ContextLossNotifier interface {
	OnContextLost(fn func()) (cancel func())
}

// ContextWatcher is implemented by devices whose lost context can come back later.
// While IsContextLost reports true no object can be created on the device.
type ContextWatcher interface {
	IsContextLost() bool
}
