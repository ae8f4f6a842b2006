package gpuparticles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetSaveLoad(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = mgl32.Vec3{0, -9.81, 0}
	cfg.SizeGradients = []FactorGradient{{0, 1}, {1, 0.25}}
	cfg.AnimationSheet = AnimationSheet{Enabled: true, StartCell: 0, EndCell: 15, CellChangeSpeed: 1, Loop: true}
	cone := NewConeEmitter(2, 0.8)
	cone.DirectionRandomizer = 0.1
	s := NewSystem(newFakeDevice(), cfg, cone)

	p, err := PresetOf("sparks", s)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "sparks.json")
	require.NoError(t, SavePreset(p, file))

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind": "cone"`)

	loaded, err := LoadPreset(file)
	require.NoError(t, err)
	assert.Equal(t, "sparks", loaded.Name)
	assert.Equal(t, s.Config(), loaded.Config)

	other := NewSystem(newFakeDevice(), Config{}, nil)
	require.NoError(t, loaded.Apply(other))
	assert.Equal(t, s.Config(), other.Config())
	em, ok := other.Emitter().(*ConeEmitter)
	require.True(t, ok)
	assert.Equal(t, *cone, *em)
}

func TestPresetEmitters(t *testing.T) {
	emitters := []Emitter{
		NewPointEmitter(),
		NewBoxEmitter(),
		NewSphereEmitter(1),
		NewHemisphereEmitter(2),
		NewCylinderEmitter(1, 3),
		NewConeEmitter(1, 1),
	}
	for _, e := range emitters {
		d, err := EmitterDataOf(e)
		require.NoError(t, err)
		back, err := d.Emitter()
		require.NoError(t, err)
		assert.Equal(t, e, back, e.Kind().String())
	}
}

func TestPresetRejectsCustomEmitter(t *testing.T) {
	s := NewSystem(newFakeDevice(), testConfig(), &CustomEmitter{})
	_, err := PresetOf("custom", s)
	assert.ErrorIs(t, err, ErrCustomEmitterPreset)

	_, err = EmitterData{Kind: "spiral"}.Emitter()
	assert.Error(t, err)
}

func TestLoadPreset_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadPreset(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = LoadPreset(bad)
	assert.Error(t, err)
}
