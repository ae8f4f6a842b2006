package gpuparticles

import (
	"fmt"
	"strings"
)

// DriverState is the lifecycle state of a Driver.
type DriverState int

const (
	StateUninitialized DriverState = iota
	StateProgramBuilding
	StateProgramReady
	StateStepping
	StateDisposed
)

func (s DriverState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateProgramBuilding:
		return "ProgramBuilding"
	case StateProgramReady:
		return "ProgramReady"
	case StateStepping:
		return "Stepping"
	case StateDisposed:
		return "Disposed"
	default:
		return fmt.Sprintf("DriverState(%d)", int(s))
	}
}

// Option configures a Driver or a System.
type Option func(*options)

type options struct {
	logger Logger
}

// WithLogger routes diagnostics to l.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

func collectOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	o.logger = orNop(o.logger)
	return o
}

// TextureSet maps update program sampler names to textures. Missing or zero entries
// are left unbound.
type TextureSet map[string]TextureHandle

// Driver runs the transform feedback simulation on a Device. It is driven from the
// render thread only; NotifyContextLost is the one call allowed from elsewhere.
type Driver struct {
	device Device
	caps   Capabilities
	logger Logger
	binder *Binder

	state   DriverState
	program ProgramHandle
	flags   FeatureFlags
	schema  AttributeSchema

	// compiled update programs keyed by defines and capture list
	programs map[string]ProgramHandle

	slotBuffers [SlotCount]BufferHandle

	lost        chan struct{}
	unsubscribe func()
}

// NewDriver probes device once and returns an Uninitialized driver.
func NewDriver(device Device, opts ...Option) *Driver {
	o := collectOptions(opts)
	d := &Driver{
		device:   device,
		caps:     device.Capabilities(),
		logger:   o.logger,
		programs: make(map[string]ProgramHandle),
		lost:     make(chan struct{}, 1),
	}
	d.binder = NewBinder(device, o.logger)
	if n, ok := device.(ContextLossNotifier); ok {
		d.unsubscribe = n.OnContextLost(d.NotifyContextLost)
	}
	return d
}

// State returns the current state after handling any pending context-lost signal.
func (d *Driver) State() DriverState {
	d.processSignals()
	return d.state
}

// Capabilities returns the probe taken at construction.
func (d *Driver) Capabilities() Capabilities { return d.caps }

// Binder exposes the binding objects for the render pass.
func (d *Driver) Binder() *Binder { return d.binder }

// Schema returns the layout of the current program.
func (d *Driver) Schema() AttributeSchema { return d.schema }

// Flags returns the feature flags of the current program.
func (d *Driver) Flags() FeatureFlags { return d.flags }

// Program returns the current update program, zero when none exists.
func (d *Driver) Program() ProgramHandle { return d.program }

func programKey(desc ProgramDesc) string {
	return desc.Defines + "|" + strings.Join(desc.CapturedOutputs, ",")
}

// BuildProgram requests the update program for flags and defines and returns a
// writer for its uniforms. Compilation may finish later; poll with Poll or
// IsProgramReady. Bindings created for a different layout are released.
func (d *Driver) BuildProgram(flags FeatureFlags, defines string) (*UniformWriter, error) {
	d.processSignals()
	if d.state == StateDisposed {
		return nil, ErrDisposed
	}
	if !d.ContextReady() {
		return nil, fmt.Errorf("build update program: %w", ErrDeviceLost)
	}

	if n, limit := DeriveLayout(flags).FloatsPerParticle(), d.caps.MaxCaptureComponents; limit > 0 && n > limit {
		return nil, &ConfigurationError{Backend: d.caps.Backend, Missing: fmt.Sprintf("room for %d captured components (limit %d)", n, limit)}
	}

	desc := BuildUpdateProgram(flags, defines)
	key := programKey(desc)
	program, ok := d.programs[key]
	if !ok {
		p, err := d.device.CreateProgram(UpdateProgramName, desc)
		if err != nil {
			return nil, fmt.Errorf("build update program: %w", err)
		}
		d.programs[key] = p
		program = p
		d.logger.Debugf("update program %d compiled for %d captured outputs", p, len(desc.CapturedOutputs))
	}

	if program != d.program || flags != d.flags {
		d.binder.Release()
	}
	d.program = program
	d.flags = flags
	d.schema = DeriveLayout(flags)
	d.state = StateProgramBuilding
	d.Poll()
	return &UniformWriter{device: d.device, program: program}, nil
}

// IsProgramCreated reports whether an update program exists, ready or not.
func (d *Driver) IsProgramCreated() bool {
	d.processSignals()
	return d.program != 0
}

// IsProgramReady reports whether the update program finished compiling.
func (d *Driver) IsProgramReady() bool {
	d.processSignals()
	return d.program != 0 && d.device.IsProgramReady(d.program)
}

// Poll advances ProgramBuilding to ProgramReady once the device reports the program
// usable. It returns whether stepping is possible.
func (d *Driver) Poll() bool {
	d.processSignals()
	switch d.state {
	case StateProgramBuilding:
		if d.device.IsProgramReady(d.program) {
			d.state = StateProgramReady
			return true
		}
		return false
	case StateProgramReady, StateStepping:
		return true
	default:
		return false
	}
}

// ContextReady reports whether the device context accepts new objects. Devices
// that cannot lose their context are always ready.
func (d *Driver) ContextReady() bool {
	if w, ok := d.device.(ContextWatcher); ok {
		return !w.IsContextLost()
	}
	return true
}

func (d *Driver) checkCapabilities() error {
	if m := d.caps.missing(); m != "" {
		return &ConfigurationError{Backend: d.caps.Backend, Missing: m}
	}
	return nil
}

// SetSlotBuffer registers the packed buffer holding the source state of slot. The
// update-binding of the slot is built from it on first use.
func (d *Driver) SetSlotBuffer(slot int, buffer BufferHandle) error {
	d.processSignals()
	if d.state == StateDisposed {
		return ErrDisposed
	}
	if err := checkSlot(slot); err != nil {
		return err
	}
	if d.slotBuffers[slot] != buffer {
		if h, ok := d.binder.UpdateBinding(slot); ok {
			d.device.ReleaseBindingObject(h)
			_ = d.binder.SetUpdateBinding(slot, 0)
		}
	}
	d.slotBuffers[slot] = buffer
	return nil
}

// CreateVertexBuffers registers updateBuffer for slot and records the render-binding
// of renderInputs against renderProgram. The update-binding is recorded right away
// when a program exists, lazily on the first Step otherwise.
func (d *Driver) CreateVertexBuffers(slot int, updateBuffer BufferHandle, renderInputs map[string]VertexInput, renderProgram ProgramHandle) error {
	if err := d.SetSlotBuffer(slot, updateBuffer); err != nil {
		return err
	}
	if d.program != 0 {
		if _, err := d.ensureUpdateBinding(slot); err != nil {
			return err
		}
	}
	if renderProgram == 0 || renderInputs == nil {
		return nil
	}
	if old, ok := d.binder.RenderBinding(slot); ok {
		d.device.ReleaseBindingObject(old)
	}
	h, err := d.binder.CreateRenderBinding(renderInputs, renderProgram)
	if err != nil {
		return err
	}
	return d.binder.SetRenderBinding(slot, h, renderInputs)
}

func (d *Driver) ensureUpdateBinding(slot int) (BindingHandle, error) {
	if h, ok := d.binder.UpdateBinding(slot); ok {
		return h, nil
	}
	src := d.slotBuffers[slot]
	if src == NoBuffer {
		return 0, fmt.Errorf("slot %d: %w", slot, ErrNoSlotBuffer)
	}
	h, err := d.binder.CreateUpdateBinding(src, d.schema, d.program)
	if err != nil {
		return 0, err
	}
	if err := d.binder.SetUpdateBinding(slot, h); err != nil {
		return 0, err
	}
	return h, nil
}

// PreUpdate makes the update program current so uniforms can be written for the
// coming Step. A context without transform feedback fails here, before any device
// command is issued.
func (d *Driver) PreUpdate() error {
	if d.processSignals() {
		return ErrDeviceLost
	}
	if d.state == StateDisposed {
		return ErrDisposed
	}
	if err := d.checkCapabilities(); err != nil {
		return err
	}
	if !d.Poll() {
		return ErrProgramNotReady
	}
	d.device.UseProgram(d.program)
	return nil
}

// Step advances activeCount particles: the state held by the buffer of slot is read
// through its update-binding and the advanced state is captured into target. Buffer
// contents past activeCount are left untouched.
func (d *Driver) Step(slot int, target BufferHandle, activeCount int, textures TextureSet) error {
	if d.processSignals() {
		return ErrDeviceLost
	}
	if d.state == StateDisposed {
		return ErrDisposed
	}
	if err := d.checkCapabilities(); err != nil {
		return err
	}
	if err := checkSlot(slot); err != nil {
		return err
	}
	if !d.Poll() {
		return ErrProgramNotReady
	}
	binding, err := d.ensureUpdateBinding(slot)
	if err != nil {
		return err
	}

	for _, name := range updateSamplers {
		if t := textures[name]; t != 0 {
			d.device.SetTexture(d.program, name, t)
		}
	}

	d.device.BindBindingObject(binding)
	d.device.AttachCaptureTarget(target)
	d.device.SetRasterizerEnabled(false)
	d.device.BeginCapture()
	if activeCount > 0 {
		d.device.DrawPoints(activeCount)
	}
	d.device.EndCapture()
	d.device.DetachCaptureTarget()
	d.device.SetRasterizerEnabled(true)

	d.state = StateStepping
	return nil
}
