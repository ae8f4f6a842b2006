package gpuparticles

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{Capacity: 8, EmitRate: 5, Seed: 1, Billboard: true}
}

func TestSystem_FirstUpdateBuildsAndSteps(t *testing.T) {
	dev := newFakeDevice()
	s := NewSystem(dev, testConfig(), nil)
	assert.Empty(t, dev.calls)
	assert.Equal(t, NoBuffer, s.CurrentBuffer())
	_, ok := s.RenderBinding()
	assert.False(t, ok)

	require.NoError(t, s.Update(time.Second))

	assert.Equal(t, 1, dev.count("CreateProgram"))
	assert.Equal(t, 2, dev.count("CreateBuffer"))
	assert.Equal(t, 2, dev.count("CreateTexture"), "two random textures")
	assert.Equal(t, 1, dev.count("DrawPoints"))
	assert.Equal(t, 5, s.ActiveCount())
	assert.Equal(t, []float32{5}, dev.uniforms[UniformCurrentCount])
	assert.Equal(t, []float32{1}, dev.uniforms[UniformStopFactor])
	assert.Len(t, dev.uniforms[UniformEmitterWM], 16)
	assert.Equal(t, []float32{0, 1, 0}, dev.uniforms[UniformDirection1])
	assert.Equal(t, StateStepping, s.Driver().State())

	// every record starts dead
	data := dev.buffers[s.buffers[0]]
	floats := DeriveLayout(s.Flags()).FloatsPerParticle()
	require.Len(t, data, 8*floats)
	for i := 0; i < 8; i++ {
		assert.Zero(t, data[i*floats+3], "age")
		assert.Zero(t, data[i*floats+7], "life")
	}
}

func TestSystem_PingPong(t *testing.T) {
	dev := newFakeDevice()
	s := NewSystem(dev, testConfig(), nil)
	s.SetRenderProgram(ProgramHandle(500), BufferHandle(600))

	require.NoError(t, s.Update(time.Second))
	a, b := s.buffers[0], s.buffers[1]
	assert.Equal(t, b, s.CurrentBuffer())
	assert.Contains(t, dev.calls, "AttachCaptureTarget("+itoa(uint64(b))+")")

	h, ok := s.RenderBinding()
	require.True(t, ok)
	assert.Equal(t, s.CurrentBuffer(), dev.bindings[h][AttrPosition].Buffer, "render-binding reads what the update wrote")
	assert.Equal(t, BufferHandle(600), dev.bindings[h][RenderAttrOffset].Buffer)

	mark := len(dev.calls)
	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, a, s.CurrentBuffer())
	assert.Contains(t, dev.calls[mark:], "AttachCaptureTarget("+itoa(uint64(a))+")")
	h, ok = s.RenderBinding()
	require.True(t, ok)
	assert.Equal(t, a, dev.bindings[h][AttrPosition].Buffer)

	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, b, s.CurrentBuffer())
	h, ok = s.RenderBinding()
	require.True(t, ok)

	require.NoError(t, s.BindDrawBuffers(NoBuffer))
	assert.Equal(t, "BindBindingObject("+itoa(uint64(h))+")", dev.calls[len(dev.calls)-1])
}

func TestSystem_ActiveCountCappedAtCapacity(t *testing.T) {
	dev := newFakeDevice()
	s := NewSystem(dev, testConfig(), nil)

	require.NoError(t, s.Update(time.Second))
	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, 8, s.ActiveCount())
	assert.Equal(t, "DrawPoints(8)", lastOf(dev, "DrawPoints"))
}

func TestSystem_FractionalEmission(t *testing.T) {
	dev := newFakeDevice()
	cfg := testConfig()
	cfg.EmitRate = 2
	s := NewSystem(dev, cfg, nil)

	require.NoError(t, s.Update(250*time.Millisecond))
	assert.Equal(t, 0, s.ActiveCount())
	require.NoError(t, s.Update(250*time.Millisecond))
	assert.Equal(t, 1, s.ActiveCount())
	assert.Equal(t, 1, dev.count("DrawPoints"))
}

func TestSystem_TargetStopDuration(t *testing.T) {
	dev := newFakeDevice()
	cfg := testConfig()
	cfg.TargetStopDuration = 1.5
	s := NewSystem(dev, cfg, nil)

	require.NoError(t, s.Update(time.Second))
	assert.False(t, s.IsStopped())
	require.NoError(t, s.Update(time.Second))
	assert.True(t, s.IsStopped())
	assert.Equal(t, []float32{0}, dev.uniforms[UniformStopFactor])

	count := s.ActiveCount()
	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, count, s.ActiveCount(), "a stopped system emits nothing")

	s.Start()
	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, []float32{1}, dev.uniforms[UniformStopFactor])
}

func TestSystem_DeviceLostRebuilds(t *testing.T) {
	dev := newFakeDevice()
	s := NewSystem(dev, testConfig(), nil)
	require.NoError(t, s.Update(time.Second))

	mark := len(dev.calls)
	dev.loseContext()
	assert.ErrorIs(t, s.Update(time.Second), ErrDeviceLost)
	assert.Equal(t, mark, len(dev.calls))
	assert.Equal(t, 0, s.ActiveCount())
	assert.Equal(t, NoBuffer, s.CurrentBuffer())
	assert.Empty(t, dev.releasedBuffers)

	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, 2, dev.count("CreateProgram"))
	assert.Equal(t, 4, dev.count("CreateBuffer"))
	assert.Equal(t, 5, s.ActiveCount())
}

func TestSystem_WaitsForAsyncCompile(t *testing.T) {
	dev := newFakeDevice()
	dev.async = true
	s := NewSystem(dev, testConfig(), nil)

	require.NoError(t, s.Update(time.Second))
	assert.Zero(t, dev.count("DrawPoints"))
	assert.Zero(t, s.ActiveCount())

	dev.compile()
	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, 1, dev.count("DrawPoints"))
}

func TestSystem_ConfigurationError(t *testing.T) {
	caps := fullCapabilities()
	caps.TransformFeedback = false
	s := NewSystem(newFakeDeviceWith(caps), testConfig(), nil)

	err := s.Update(time.Second)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestSystem_NoiseRebuildsLayout(t *testing.T) {
	dev := newFakeDevice()
	s := NewSystem(dev, testConfig(), nil)
	require.NoError(t, s.Update(time.Second))
	old := s.buffers

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	s.SetNoiseTexture(img)
	require.NoError(t, s.Update(time.Second))

	assert.True(t, s.Flags().NoiseBound)
	assert.ElementsMatch(t, old[:], dev.releasedBuffers)
	data := dev.buffers[s.buffers[0]]
	assert.Len(t, data, 8*DeriveLayout(s.Flags()).FloatsPerParticle())
	assert.NotZero(t, dev.samplers[SamplerNoise])
	assert.Len(t, dev.uniforms[UniformNoiseStrength], 3)
	assert.Contains(t, dev.programs[s.Driver().Program()].Defines, "#define NOISE\n")
}

func TestSystem_GradientTextures(t *testing.T) {
	dev := newFakeDevice()
	cfg := testConfig()
	cfg.SizeGradients = []FactorGradient{{0, 1}, {1, 0}}
	cfg.ColorGradients = []ColorGradient{{0, mgl32.Vec4{1, 0, 0, 1}}, {1, mgl32.Vec4{0, 0, 1, 0}}}
	s := NewSystem(dev, cfg, nil)
	require.NoError(t, s.Update(time.Second))

	assert.NotZero(t, dev.samplers[SamplerSizeGradient])
	tex, ok := s.ColorGradientTexture()
	require.True(t, ok)
	assert.Equal(t, TextureRGBA8, dev.textures[tex].Format)
	assert.True(t, s.Flags().ColorGradientBound)
	assert.Contains(t, dev.programs[s.Driver().Program()].Defines, "#define SIZEGRADIENTS\n")
	_, hasColor := s.Driver().Schema().Lookup(AttrColor)
	assert.False(t, hasColor)
}

func TestSystem_CustomEmitterBakesPositions(t *testing.T) {
	dev := newFakeDevice()
	cfg := testConfig()
	cfg.Billboard = false
	custom := &CustomEmitter{
		Position:  func(i int) mgl32.Vec3 { return mgl32.Vec3{float32(i), 2, 3} },
		Direction: func(i int) mgl32.Vec3 { return mgl32.Vec3{0, 0, -1} },
	}
	s := NewSystem(dev, cfg, custom)
	require.NoError(t, s.Update(time.Second))

	schema := s.Driver().Schema()
	pos, ok := schema.Lookup(AttrInitialPosition)
	require.True(t, ok)
	dir, ok := schema.Lookup(AttrInitialDirection)
	require.True(t, ok)

	data := dev.buffers[s.buffers[0]]
	floats := schema.FloatsPerParticle()
	for i := 0; i < 8; i++ {
		rec := data[i*floats:]
		assert.Equal(t, float32(i), rec[pos.Offset/FloatSize])
		assert.Equal(t, float32(-1), rec[dir.Offset/FloatSize+2])
	}
	assert.Contains(t, dev.programs[s.Driver().Program()].CapturedOutputs, "outInitialPosition")
}

func TestSystem_CustomBillboardSeedsDirection(t *testing.T) {
	dev := newFakeDevice()
	custom := &CustomEmitter{
		Position:  func(i int) mgl32.Vec3 { return mgl32.Vec3{1, 2, 3} },
		Direction: func(i int) mgl32.Vec3 { return mgl32.Vec3{0, 0, -1} },
	}
	s := NewSystem(dev, testConfig(), custom)
	require.NoError(t, s.Update(time.Second))

	schema := s.Driver().Schema()
	_, ok := schema.Lookup(AttrInitialDirection)
	assert.False(t, ok, "billboard records keep no initial direction")
	dir, ok := schema.Lookup(AttrDirection)
	require.True(t, ok)

	data := dev.buffers[s.buffers[0]]
	floats := schema.FloatsPerParticle()
	for i := 0; i < 8; i++ {
		rec := data[i*floats:]
		assert.Equal(t, []float32{0, 0, -1}, rec[dir.Offset/FloatSize:dir.Offset/FloatSize+3])
	}
	assert.NotContains(t, dev.programs[s.Driver().Program()].CapturedOutputs, "outInitialDirection")
}

func TestSystem_SeedsAreRandom(t *testing.T) {
	dev := newFakeDevice()
	s := NewSystem(dev, testConfig(), nil)
	require.NoError(t, s.Update(time.Second))

	seed, _ := s.Driver().Schema().Lookup(AttrSeed)
	data := dev.buffers[s.buffers[0]]
	floats := s.Driver().Schema().FloatsPerParticle()
	first := data[seed.Offset/FloatSize]
	second := data[floats+seed.Offset/FloatSize]
	assert.NotEqual(t, first, second)
	assert.GreaterOrEqual(t, first, float32(0))
	assert.Less(t, first, float32(1))
}

func TestSystem_Dispose(t *testing.T) {
	dev := newFakeDevice()
	s := NewSystem(dev, testConfig(), nil)
	require.NoError(t, s.Update(time.Second))

	s.Dispose()
	assert.True(t, s.IsDisposed())
	assert.Len(t, dev.releasedBuffers, 2)
	assert.Len(t, dev.releasedTextures, 2)
	assert.Len(t, dev.releasedPrograms, 1)
	assert.Equal(t, StateDisposed, s.Driver().State())
	assert.ErrorIs(t, s.Update(time.Second), ErrDisposed)

	s.Dispose()
	assert.Len(t, dev.releasedBuffers, 2)
}

func TestSystem_DisposeAfterLossSkipsDevice(t *testing.T) {
	dev := newFakeDevice()
	s := NewSystem(dev, testConfig(), nil)
	require.NoError(t, s.Update(time.Second))

	dev.loseContext()
	s.Dispose()
	assert.Empty(t, dev.releasedBuffers)
	assert.Empty(t, dev.releasedTextures)
}

func TestConfig_Defaults(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 1000, c.Capacity)
	assert.Equal(t, float32(1), c.UpdateSpeed)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, c.Color1)

	kept := Config{Capacity: 3, EmitRate: 7}.withDefaults()
	assert.Equal(t, 3, kept.Capacity)
	assert.Equal(t, float32(7), kept.EmitRate)
}

func lastOf(dev *fakeDevice, op string) string {
	for i := len(dev.calls) - 1; i >= 0; i-- {
		if dev.ops()[i] == op {
			return dev.calls[i]
		}
	}
	return ""
}

func TestSystem_RebuildWaitsForRestoredContext(t *testing.T) {
	dev := newFakeDevice()
	s := NewSystem(dev, testConfig(), nil)
	require.NoError(t, s.Update(time.Second))

	dev.dropContext()
	assert.ErrorIs(t, s.Update(time.Second), ErrDeviceLost)

	mark := len(dev.calls)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Update(time.Second))
	}
	assert.Equal(t, mark, len(dev.calls))
	assert.Equal(t, 0, s.ActiveCount())

	dev.restoreContext()
	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, 2, dev.count("CreateProgram"))
	assert.Equal(t, 4, dev.count("CreateBuffer"))
	assert.Equal(t, StateStepping, s.Driver().State())
}

func TestSystem_DisposeDetachesLossCallback(t *testing.T) {
	dev := newFakeDevice()
	for i := 0; i < 5; i++ {
		s := NewSystem(dev, testConfig(), nil)
		require.NoError(t, s.Update(time.Second))
		s.Dispose()
	}
	assert.Empty(t, dev.lostFns)

	live := NewSystem(dev, testConfig(), nil)
	require.NoError(t, live.Update(time.Second))
	assert.Len(t, dev.lostFns, 1)
	dev.loseContext()
	assert.Equal(t, StateUninitialized, live.Driver().State())
}

func TestSystem_CellRangeChangeRebuilds(t *testing.T) {
	dev := newFakeDevice()
	cfg := testConfig()
	cfg.AnimationSheet = AnimationSheet{Enabled: true, RandomStartCell: true, StartCell: 0, EndCell: 3, CellChangeSpeed: 1}
	s := NewSystem(dev, cfg, nil)
	require.NoError(t, s.Update(time.Second))
	old := s.buffers

	cfg.AnimationSheet.CellChangeSpeed = 2
	s.SetConfig(cfg)
	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, 2, dev.count("CreateBuffer"))

	cfg.AnimationSheet.EndCell = 15
	s.SetConfig(cfg)
	require.NoError(t, s.Update(time.Second))
	assert.Equal(t, 4, dev.count("CreateBuffer"))
	assert.ElementsMatch(t, old[:], dev.releasedBuffers)

	schema := DeriveLayout(s.Flags())
	attr, ok := schema.Lookup(AttrCellStartOffset)
	require.True(t, ok)
	data := dev.buffers[s.buffers[0]]
	for i := 0; i < cfg.Capacity; i++ {
		v := data[i*schema.FloatsPerParticle()+attr.Offset/FloatSize]
		if v < 0 || v > 15 {
			t.Errorf("Expected cell start offset within [0, 15], got %v", v)
		}
	}
}
