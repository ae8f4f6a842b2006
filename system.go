package gpuparticles

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// noiseTextureSize is the resampled edge length of noise images.
const noiseTextureSize = 256

// System is one GPU particle system. It owns the two packed particle buffers, the
// textures of the update program and the spawn accumulator, and drives a Driver
// once per frame. After each Update the render pass draws CurrentBuffer through
// RenderBinding.
type System struct {
	id      string
	cfg     Config
	emitter Emitter
	device  Device
	driver  *Driver
	logger  Logger
	rng     *rand.Rand

	worldMatrix mgl32.Mat4
	noise       image.Image
	flowMap     image.Image
	flowMapProj mgl32.Mat4

	renderProgram ProgramHandle
	sprite        BufferHandle

	// device objects of the current build
	built    bool
	flags    FeatureFlags
	uniforms *UniformWriter
	buffers  [SlotCount]BufferHandle
	textures TextureSet
	owned    []TextureHandle
	colorTex TextureHandle

	slot        int // slot read by the next update
	lastSlot    int // slot of the last completed update, -1 before the first
	activeCount int
	accumulated float32
	actualTime  float32
	stopped     bool
	disposed    bool
}

// NewSystem creates a system emitting from emitter on device. No device object is
// created before the first Update.
func NewSystem(device Device, cfg Config, emitter Emitter, opts ...Option) *System {
	o := collectOptions(opts)
	cfg = cfg.withDefaults()
	if emitter == nil {
		emitter = NewPointEmitter()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &System{
		id:          uuid.NewString(),
		cfg:         cfg,
		emitter:     emitter,
		device:      device,
		driver:      NewDriver(device, WithLogger(o.logger)),
		logger:      o.logger,
		rng:         rand.New(rand.NewSource(seed)),
		worldMatrix: mgl32.Ident4(),
		flowMapProj: mgl32.Ident4(),
		lastSlot:    -1,
	}
	s.logger.Debugf("system %s: capacity %d, %s emitter", s.id, cfg.Capacity, emitter.Kind())
	return s
}

func (s *System) ID() string          { return s.id }
func (s *System) Config() Config      { return s.cfg }
func (s *System) Emitter() Emitter    { return s.emitter }
func (s *System) Driver() *Driver     { return s.driver }
func (s *System) ActiveCount() int    { return s.activeCount }
func (s *System) IsStopped() bool     { return s.stopped }
func (s *System) IsDisposed() bool    { return s.disposed }
func (s *System) Flags() FeatureFlags { return s.featureFlags() }

// SetConfig replaces the simulation properties. Layout relevant changes rebuild the
// buffers at the next Update.
func (s *System) SetConfig(cfg Config) {
	cfg = cfg.withDefaults()
	if cfg.Capacity != s.cfg.Capacity || cfg.Seed != s.cfg.Seed || !sameGradients(cfg, s.cfg) || !sameCellRange(cfg, s.cfg) {
		s.built = false
	}
	s.cfg = cfg
}

// SetEmitter replaces the emission shape.
func (s *System) SetEmitter(e Emitter) {
	if e == nil {
		e = NewPointEmitter()
	}
	if e.Kind() == EmitterCustom || s.emitter.Kind() == EmitterCustom {
		s.built = false
	}
	s.emitter = e
}

// SetWorldMatrix places the emitter in the world.
func (s *System) SetWorldMatrix(m mgl32.Mat4) { s.worldMatrix = m }

// SetNoiseTexture enables noise driven turbulence sampled from img. nil disables it.
func (s *System) SetNoiseTexture(img image.Image) {
	s.noise = img
	s.built = false
}

// SetFlowMap enables a flow map sampled from img through projection. nil disables it.
func (s *System) SetFlowMap(img image.Image, projection mgl32.Mat4) {
	s.flowMap = img
	s.flowMapProj = projection
	s.built = false
}

// SetRenderProgram makes the system record render-bindings for program, reading
// sprite corners from sprite.
func (s *System) SetRenderProgram(program ProgramHandle, sprite BufferHandle) {
	s.renderProgram = program
	s.sprite = sprite
	s.built = false
}

// Start resumes emission.
func (s *System) Start() {
	s.stopped = false
	s.actualTime = 0
}

// Stop ends emission; living particles finish their life.
func (s *System) Stop() { s.stopped = true }

// Reset kills every particle. Buffers are regenerated at the next Update.
func (s *System) Reset() {
	s.built = false
	s.stopped = false
	s.actualTime = 0
}

func (s *System) featureFlags() FeatureFlags {
	return FeatureFlags{
		Emitter:                   s.emitter.Kind(),
		ColorGradientBound:        len(s.cfg.ColorGradients) > 0,
		Billboard:                 s.cfg.Billboard,
		NoiseBound:                s.noise != nil,
		AngularSpeedGradientBound: len(s.cfg.AngularSpeedGradients) > 0,
		AnimationSheet:            s.cfg.AnimationSheet.Enabled,
		RandomStartCell:           s.cfg.AnimationSheet.Enabled && s.cfg.AnimationSheet.RandomStartCell,
	}
}

// defines adds the switches that change the update code but not the layout.
func (s *System) defines(f FeatureFlags) DefineSet {
	d := f.Defines()
	if len(s.cfg.SizeGradients) > 0 {
		d = d.With("SIZEGRADIENTS")
	}
	if len(s.cfg.VelocityGradients) > 0 {
		d = d.With("VELOCITYGRADIENTS")
	}
	if len(s.cfg.LimitVelocityGradients) > 0 {
		d = d.With("LIMITVELOCITYGRADIENTS")
	}
	if len(s.cfg.DragGradients) > 0 {
		d = d.With("DRAGGRADIENTS")
	}
	if s.flowMap != nil {
		d = d.With("FLOWMAP")
	}
	return d
}

// Update advances the simulation by dt of wall time. It returns ErrDeviceLost for the
// frame in which a context loss was observed; the first Update after the device
// context is usable again rebuilds everything. While the context stays lost or the
// update program compiles Update does nothing and returns nil.
func (s *System) Update(dt time.Duration) error {
	if s.disposed {
		return ErrDisposed
	}
	if s.built && s.driver.State() == StateUninitialized {
		s.dropDeviceObjects()
		return ErrDeviceLost
	}
	flags := s.featureFlags()
	if !s.built || flags != s.flags {
		if !s.driver.ContextReady() {
			return nil
		}
		if err := s.build(flags); err != nil {
			return err
		}
	}

	if err := s.driver.PreUpdate(); err != nil {
		return s.stepError(err)
	}

	timeDelta := float32(dt.Seconds()) * s.cfg.UpdateSpeed
	s.advance(timeDelta)
	s.applyUniforms(timeDelta)

	slot := s.slot
	if err := s.driver.Step(slot, s.buffers[1-slot], s.activeCount, s.textures); err != nil {
		return s.stepError(err)
	}
	s.lastSlot = slot
	s.slot = 1 - slot
	return nil
}

func (s *System) stepError(err error) error {
	switch {
	case errors.Is(err, ErrDeviceLost):
		s.dropDeviceObjects()
		return err
	case errors.Is(err, ErrProgramNotReady) && s.driver.IsProgramCreated():
		return nil
	default:
		return fmt.Errorf("system %s: %w", s.id, err)
	}
}

// advance runs the emission clock: the accumulator turns emit rate into whole new
// particles and the active count never exceeds the capacity.
func (s *System) advance(timeDelta float32) {
	if s.stopped {
		return
	}
	s.accumulated += s.cfg.EmitRate * timeDelta
	if s.accumulated >= 1 {
		whole := int(s.accumulated)
		s.accumulated -= float32(whole)
		s.activeCount += whole
		if s.activeCount > s.cfg.Capacity {
			s.activeCount = s.cfg.Capacity
		}
	}
	if s.cfg.TargetStopDuration > 0 {
		s.actualTime += timeDelta
		if s.actualTime >= s.cfg.TargetStopDuration {
			s.logger.Debugf("system %s: target stop duration reached", s.id)
			s.Stop()
		}
	}
}

func (s *System) stopFactor() float32 {
	if s.stopped {
		return 0
	}
	return 1
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func (s *System) applyUniforms(timeDelta float32) {
	w, c := s.uniforms, s.cfg
	w.SetFloat(UniformCurrentCount, float32(s.activeCount))
	w.SetFloat(UniformTimeDelta, timeDelta)
	w.SetMatrix(UniformEmitterWM, s.worldMatrix)
	w.SetFloat2(UniformLifeTime, c.MinLifeTime, c.MaxLifeTime)
	w.SetVec4(UniformColor1, c.Color1)
	w.SetVec4(UniformColor2, c.Color2)
	w.SetFloat2(UniformSizeRange, c.MinSize, c.MaxSize)
	w.SetFloat4(UniformScaleRange, c.MinScaleX, c.MaxScaleX, c.MinScaleY, c.MaxScaleY)
	w.SetVec3(UniformGravity, c.Gravity)
	w.SetFloat2(UniformEmitPower, c.MinEmitPower, c.MaxEmitPower)
	w.SetFloat(UniformStopFactor, s.stopFactor())
	w.SetFloat4(UniformAngleRange, c.MinAngularSpeed, c.MaxAngularSpeed, c.MinInitialRotation, c.MaxInitialRotation)
	if c.AnimationSheet.Enabled {
		a := c.AnimationSheet
		w.SetFloat4(UniformCellInfos, a.StartCell, a.EndCell, a.CellChangeSpeed, boolFloat(a.Loop))
	}
	if s.noise != nil {
		w.SetVec3(UniformNoiseStrength, c.NoiseStrength)
	}
	if len(c.LimitVelocityGradients) > 0 {
		w.SetFloat(UniformLimitVelocityDamping, c.LimitVelocityDamping)
	}
	if s.flowMap != nil {
		w.SetMatrix(UniformFlowMapProjection, s.flowMapProj)
		w.SetFloat(UniformFlowMapStrength, c.FlowMapStrength)
	}
	s.emitter.Apply(w)
}

// build (re)creates program, textures and buffers for flags. Particles restart dead.
func (s *System) build(flags FeatureFlags) error {
	w, err := s.driver.BuildProgram(flags, s.defines(flags).String())
	if err != nil {
		return fmt.Errorf("system %s: %w", s.id, err)
	}
	s.releaseDeviceObjects()
	s.uniforms = w
	s.flags = flags

	if err := s.createTextures(); err != nil {
		s.releaseDeviceObjects()
		return fmt.Errorf("system %s: %w", s.id, err)
	}

	schema := s.driver.Schema()
	data := s.initialData(schema)
	for i := range s.buffers {
		b, err := s.device.CreateBuffer(data)
		if err != nil {
			s.releaseDeviceObjects()
			return fmt.Errorf("system %s: create particle buffer: %w", s.id, err)
		}
		s.buffers[i] = b
	}
	for slot := 0; slot < SlotCount; slot++ {
		var inputs map[string]VertexInput
		if s.renderProgram != 0 {
			// slot i renders what its update wrote
			inputs = RenderInputs(schema, s.buffers[1-slot], s.sprite)
		}
		if err := s.driver.CreateVertexBuffers(slot, s.buffers[slot], inputs, s.renderProgram); err != nil {
			s.releaseDeviceObjects()
			return fmt.Errorf("system %s: %w", s.id, err)
		}
	}

	s.slot, s.lastSlot = 0, -1
	s.activeCount, s.accumulated = 0, 0
	s.built = true
	s.logger.Debugf("system %s: built %d particles, stride %d", s.id, s.cfg.Capacity, schema.Stride())
	return nil
}

func (s *System) createTexture(desc TextureDesc) (TextureHandle, error) {
	t, err := s.device.CreateTexture(desc)
	if err != nil {
		return 0, fmt.Errorf("create texture %s: %w", desc.Label, err)
	}
	s.owned = append(s.owned, t)
	return t, nil
}

func (s *System) createTextures() error {
	s.textures = make(TextureSet)
	width := randomTextureWidth(s.driver.Capabilities())
	for _, sampler := range []string{SamplerRandom, SamplerRandom2} {
		t, err := s.createTexture(randomTexture(sampler, width, s.rng))
		if err != nil {
			return err
		}
		s.textures[sampler] = t
	}

	factors := []struct {
		sampler string
		stops   []FactorGradient
	}{
		{SamplerSizeGradient, s.cfg.SizeGradients},
		{SamplerAngularSpeedGradient, s.cfg.AngularSpeedGradients},
		{SamplerVelocityGradient, s.cfg.VelocityGradients},
		{SamplerLimitVelocityGradient, s.cfg.LimitVelocityGradients},
		{SamplerDragGradient, s.cfg.DragGradients},
	}
	for _, f := range factors {
		if len(f.stops) == 0 {
			continue
		}
		t, err := s.createTexture(factorGradientTexture(f.sampler, f.stops))
		if err != nil {
			return err
		}
		s.textures[f.sampler] = t
	}

	if s.noise != nil {
		t, err := s.createTexture(ImageTexture(SamplerNoise, s.noise, noiseTextureSize, noiseTextureSize, true))
		if err != nil {
			return err
		}
		s.textures[SamplerNoise] = t
	}
	if s.flowMap != nil {
		b := s.flowMap.Bounds()
		t, err := s.createTexture(ImageTexture(SamplerFlowMap, s.flowMap, b.Dx(), b.Dy(), false))
		if err != nil {
			return err
		}
		s.textures[SamplerFlowMap] = t
	}
	if len(s.cfg.ColorGradients) > 0 {
		t, err := s.createTexture(colorGradientTexture("colorGradientSampler", s.cfg.ColorGradients))
		if err != nil {
			return err
		}
		s.colorTex = t
	}
	return nil
}

// initialData returns capacity dead particles laid out by schema. Seeds and noise
// coordinates are random; a custom emitter bakes its positions and directions in.
func (s *System) initialData(schema AttributeSchema) []float32 {
	floats := schema.FloatsPerParticle()
	data := make([]float32, s.cfg.Capacity*floats)
	custom, _ := s.emitter.(*CustomEmitter)
	cells := s.cfg.AnimationSheet.EndCell - s.cfg.AnimationSheet.StartCell
	for i := 0; i < s.cfg.Capacity; i++ {
		rec := data[i*floats : (i+1)*floats]
		for _, a := range schema.attrs {
			first := a.Offset / FloatSize
			v := rec[first : first+a.Components]
			switch a.Name {
			case AttrSeed, AttrNoiseCoordinates1, AttrNoiseCoordinates2:
				for k := range v {
					v[k] = s.rng.Float32()
				}
			case AttrCellStartOffset:
				v[0] = float32(int(s.rng.Float32() * (cells + 1)))
			case AttrInitialPosition:
				if custom != nil {
					p := custom.position(i)
					copy(v, p[:])
				}
			case AttrDirection, AttrInitialDirection:
				if custom != nil {
					d := custom.direction(i)
					copy(v, d[:])
				}
			}
		}
	}
	return data
}

// CurrentBuffer returns the buffer written by the last Update, NoBuffer before it.
func (s *System) CurrentBuffer() BufferHandle {
	if s.lastSlot < 0 {
		return NoBuffer
	}
	return s.buffers[1-s.lastSlot]
}

// RenderBinding returns the render-binding reading CurrentBuffer.
func (s *System) RenderBinding() (BindingHandle, bool) {
	if s.lastSlot < 0 {
		return 0, false
	}
	return s.driver.Binder().RenderBinding(s.lastSlot)
}

// BindDrawBuffers binds CurrentBuffer for the render pass, through the raw render
// inputs when indexBuffer is set.
func (s *System) BindDrawBuffers(indexBuffer BufferHandle) error {
	if s.lastSlot < 0 {
		return fmt.Errorf("system %s: nothing simulated yet: %w", s.id, ErrNoSlotBuffer)
	}
	return s.driver.Binder().BindDrawBuffers(s.lastSlot, s.renderProgram, indexBuffer)
}

// ColorGradientTexture returns the baked color ramp for the render pass, if any.
func (s *System) ColorGradientTexture() (TextureHandle, bool) {
	return s.colorTex, s.colorTex != 0
}

func (s *System) releaseDeviceObjects() {
	for i, b := range s.buffers {
		if b != NoBuffer {
			s.device.ReleaseBuffer(b)
			s.buffers[i] = NoBuffer
		}
	}
	for _, t := range s.owned {
		s.device.ReleaseTexture(t)
	}
	s.owned = nil
	s.textures = nil
	s.colorTex = 0
}

// dropDeviceObjects forgets device objects of a lost context without device calls.
func (s *System) dropDeviceObjects() {
	s.logger.Warnf("system %s: context lost, %d particles discarded", s.id, s.activeCount)
	s.buffers = [SlotCount]BufferHandle{}
	s.owned = nil
	s.textures = nil
	s.colorTex = 0
	s.uniforms = nil
	s.built = false
	s.lastSlot = -1
	s.activeCount = 0
	s.accumulated = 0
}

// Dispose releases every device object. The system is unusable afterwards.
func (s *System) Dispose() {
	if s.disposed {
		return
	}
	if s.built && s.driver.State() == StateUninitialized {
		s.dropDeviceObjects()
	} else {
		s.releaseDeviceObjects()
	}
	s.driver.Dispose()
	s.disposed = true
	s.built = false
}

// sameCellRange reports whether the cell start offsets baked at build time still
// apply.
func sameCellRange(a, b Config) bool {
	x, y := a.AnimationSheet, b.AnimationSheet
	return x.Enabled == y.Enabled && x.RandomStartCell == y.RandomStartCell &&
		x.StartCell == y.StartCell && x.EndCell == y.EndCell
}

func sameGradients(a, b Config) bool {
	return slices.Equal(a.ColorGradients, b.ColorGradients) &&
		slices.Equal(a.SizeGradients, b.SizeGradients) &&
		slices.Equal(a.AngularSpeedGradients, b.AngularSpeedGradients) &&
		slices.Equal(a.VelocityGradients, b.VelocityGradients) &&
		slices.Equal(a.LimitVelocityGradients, b.LimitVelocityGradients) &&
		slices.Equal(a.DragGradients, b.DragGradients)
}

// RenderProgramDesc returns the sprite program interface matching the records the
// system currently produces.
func (s *System) RenderProgramDesc() ProgramDesc {
	f := s.featureFlags()
	return BuildRenderProgram(f, s.defines(f).String())
}
