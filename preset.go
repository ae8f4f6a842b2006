package gpuparticles

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrCustomEmitterPreset is returned when saving a system driven by a CustomEmitter,
// whose functions cannot be persisted.
var ErrCustomEmitterPreset = errors.New("gpuparticles: custom emitters cannot be saved in presets")

// EmitterData is the persisted form of an Emitter.
type EmitterData struct {
	Kind                string     `json:"kind"`
	Direction1          mgl32.Vec3 `json:"direction1,omitempty"`
	Direction2          mgl32.Vec3 `json:"direction2,omitempty"`
	MinEmitBox          mgl32.Vec3 `json:"min_emit_box,omitempty"`
	MaxEmitBox          mgl32.Vec3 `json:"max_emit_box,omitempty"`
	Radius              float32    `json:"radius,omitempty"`
	RadiusRange         float32    `json:"radius_range,omitempty"`
	Height              float32    `json:"height,omitempty"`
	Angle               float32    `json:"angle,omitempty"`
	DirectionRandomizer float32    `json:"direction_randomizer,omitempty"`
}

// PresetData is a named, reusable system setup.
type PresetData struct {
	Name    string      `json:"name"`
	Config  Config      `json:"config"`
	Emitter EmitterData `json:"emitter"`
}

// EmitterDataOf captures e for persistence.
func EmitterDataOf(e Emitter) (EmitterData, error) {
	d := EmitterData{Kind: e.Kind().String()}
	switch em := e.(type) {
	case *PointEmitter:
		d.Direction1, d.Direction2 = em.Direction1, em.Direction2
	case *BoxEmitter:
		d.Direction1, d.Direction2 = em.Direction1, em.Direction2
		d.MinEmitBox, d.MaxEmitBox = em.MinEmitBox, em.MaxEmitBox
	case *SphereEmitter:
		d.Radius, d.RadiusRange, d.DirectionRandomizer = em.Radius, em.RadiusRange, em.DirectionRandomizer
	case *HemisphereEmitter:
		d.Radius, d.RadiusRange, d.DirectionRandomizer = em.Radius, em.RadiusRange, em.DirectionRandomizer
	case *CylinderEmitter:
		d.Radius, d.Height = em.Radius, em.Height
		d.RadiusRange, d.DirectionRandomizer = em.RadiusRange, em.DirectionRandomizer
	case *ConeEmitter:
		d.Radius, d.Angle = em.Radius, em.Angle
		d.RadiusRange, d.DirectionRandomizer = em.RadiusRange, em.DirectionRandomizer
	case *CustomEmitter:
		return EmitterData{}, ErrCustomEmitterPreset
	default:
		return EmitterData{}, fmt.Errorf("unknown emitter type %T", e)
	}
	return d, nil
}

// Emitter rebuilds the persisted emitter.
func (d EmitterData) Emitter() (Emitter, error) {
	switch d.Kind {
	case EmitterPoint.String(), "":
		return &PointEmitter{Direction1: d.Direction1, Direction2: d.Direction2}, nil
	case EmitterBox.String():
		return &BoxEmitter{Direction1: d.Direction1, Direction2: d.Direction2, MinEmitBox: d.MinEmitBox, MaxEmitBox: d.MaxEmitBox}, nil
	case EmitterSphere.String():
		return &SphereEmitter{Radius: d.Radius, RadiusRange: d.RadiusRange, DirectionRandomizer: d.DirectionRandomizer}, nil
	case EmitterHemisphere.String():
		return &HemisphereEmitter{Radius: d.Radius, RadiusRange: d.RadiusRange, DirectionRandomizer: d.DirectionRandomizer}, nil
	case EmitterCylinder.String():
		return &CylinderEmitter{Radius: d.Radius, Height: d.Height, RadiusRange: d.RadiusRange, DirectionRandomizer: d.DirectionRandomizer}, nil
	case EmitterCone.String():
		return &ConeEmitter{Radius: d.Radius, Angle: d.Angle, RadiusRange: d.RadiusRange, DirectionRandomizer: d.DirectionRandomizer}, nil
	default:
		return nil, fmt.Errorf("unknown emitter kind %q", d.Kind)
	}
}

// PresetOf captures the properties of s under name.
func PresetOf(name string, s *System) (PresetData, error) {
	em, err := EmitterDataOf(s.Emitter())
	if err != nil {
		return PresetData{}, err
	}
	return PresetData{Name: name, Config: s.Config(), Emitter: em}, nil
}

// Apply configures s from the preset.
func (p PresetData) Apply(s *System) error {
	em, err := p.Emitter.Emitter()
	if err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	s.SetConfig(p.Config)
	s.SetEmitter(em)
	return nil
}

// SavePreset writes p to filename as indented JSON.
func SavePreset(p PresetData, filename string) error {
	bytes, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bytes, 0644)
}

// LoadPreset reads a preset written by SavePreset.
func LoadPreset(filename string) (PresetData, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return PresetData{}, err
	}
	var p PresetData
	if err := json.Unmarshal(bytes, &p); err != nil {
		return PresetData{}, fmt.Errorf("preset %s: %w", filename, err)
	}
	return p, nil
}
