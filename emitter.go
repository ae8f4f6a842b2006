package gpuparticles

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Emitter is the emission shape of a particle system. Kind is the tag the layout
// and the program builders switch on; Apply writes the shape's uniforms.
type Emitter interface {
	Kind() EmitterKind
	Apply(w *UniformWriter)
}

// PointEmitter emits from the emitter origin in a direction between Direction1 and
// Direction2.
type PointEmitter struct {
	Direction1 mgl32.Vec3
	Direction2 mgl32.Vec3
}

func NewPointEmitter() *PointEmitter {
	return &PointEmitter{Direction1: mgl32.Vec3{0, 1, 0}, Direction2: mgl32.Vec3{0, 1, 0}}
}

func (e *PointEmitter) Kind() EmitterKind { return EmitterPoint }

func (e *PointEmitter) Apply(w *UniformWriter) {
	w.SetVec3(UniformDirection1, e.Direction1)
	w.SetVec3(UniformDirection2, e.Direction2)
}

// BoxEmitter emits inside the box [MinEmitBox, MaxEmitBox].
type BoxEmitter struct {
	Direction1 mgl32.Vec3
	Direction2 mgl32.Vec3
	MinEmitBox mgl32.Vec3
	MaxEmitBox mgl32.Vec3
}

func NewBoxEmitter() *BoxEmitter {
	return &BoxEmitter{
		Direction1: mgl32.Vec3{0, 1, 0},
		Direction2: mgl32.Vec3{0, 1, 0},
		MinEmitBox: mgl32.Vec3{-0.5, -0.5, -0.5},
		MaxEmitBox: mgl32.Vec3{0.5, 0.5, 0.5},
	}
}

func (e *BoxEmitter) Kind() EmitterKind { return EmitterBox }

func (e *BoxEmitter) Apply(w *UniformWriter) {
	w.SetVec3(UniformDirection1, e.Direction1)
	w.SetVec3(UniformDirection2, e.Direction2)
	w.SetVec3(UniformMinEmitBox, e.MinEmitBox)
	w.SetVec3(UniformMaxEmitBox, e.MaxEmitBox)
}

// SphereEmitter emits from a sphere shell. RadiusRange 0 emits on the surface only,
// 1 through the whole volume.
type SphereEmitter struct {
	Radius              float32
	RadiusRange         float32
	DirectionRandomizer float32
}

func NewSphereEmitter(radius float32) *SphereEmitter {
	return &SphereEmitter{Radius: radius, RadiusRange: 1}
}

func (e *SphereEmitter) Kind() EmitterKind { return EmitterSphere }

func (e *SphereEmitter) Apply(w *UniformWriter) {
	w.SetFloat(UniformRadius, e.Radius)
	w.SetFloat(UniformRadiusRange, e.RadiusRange)
	w.SetFloat(UniformDirectionRandomizer, e.DirectionRandomizer)
}

// HemisphereEmitter is the upper half of a SphereEmitter.
type HemisphereEmitter struct {
	Radius              float32
	RadiusRange         float32
	DirectionRandomizer float32
}

func NewHemisphereEmitter(radius float32) *HemisphereEmitter {
	return &HemisphereEmitter{Radius: radius, RadiusRange: 1}
}

func (e *HemisphereEmitter) Kind() EmitterKind { return EmitterHemisphere }

func (e *HemisphereEmitter) Apply(w *UniformWriter) {
	w.SetFloat(UniformRadius, e.Radius)
	w.SetFloat(UniformRadiusRange, e.RadiusRange)
	w.SetFloat(UniformDirectionRandomizer, e.DirectionRandomizer)
}

// CylinderEmitter emits from a Y-aligned cylinder centred on the emitter.
type CylinderEmitter struct {
	Radius              float32
	Height              float32
	RadiusRange         float32
	DirectionRandomizer float32
}

func NewCylinderEmitter(radius, height float32) *CylinderEmitter {
	return &CylinderEmitter{Radius: radius, Height: height, RadiusRange: 1}
}

func (e *CylinderEmitter) Kind() EmitterKind { return EmitterCylinder }

func (e *CylinderEmitter) Apply(w *UniformWriter) {
	w.SetFloat(UniformRadius, e.Radius)
	w.SetFloat(UniformHeight, e.Height)
	w.SetFloat(UniformRadiusRange, e.RadiusRange)
	w.SetFloat(UniformDirectionRandomizer, e.DirectionRandomizer)
}

// ConeEmitter emits from the base of a cone opening along +Y. Angle is the full
// opening angle in radians.
type ConeEmitter struct {
	Radius              float32
	Angle               float32
	RadiusRange         float32
	DirectionRandomizer float32
}

func NewConeEmitter(radius, angle float32) *ConeEmitter {
	return &ConeEmitter{Radius: radius, Angle: angle, RadiusRange: 1}
}

func (e *ConeEmitter) Kind() EmitterKind { return EmitterCone }

// coneHeight is the apex distance for the base radius and opening angle.
func (e *ConeEmitter) coneHeight() float32 {
	half := float64(e.Angle) / 2
	if half <= 0 {
		return 1
	}
	t := math.Tan(half)
	if t == 0 {
		return 1
	}
	return float32(float64(e.Radius) / t)
}

func (e *ConeEmitter) Apply(w *UniformWriter) {
	w.SetFloat(UniformRadius, e.Radius)
	w.SetFloat(UniformConeAngle, e.Angle)
	w.SetFloat(UniformHeight, e.coneHeight())
	w.SetFloat(UniformRadiusRange, e.RadiusRange)
	w.SetFloat(UniformDirectionRandomizer, e.DirectionRandomizer)
}

// CustomEmitter places particles with caller functions. On the GPU path the
// generated positions and directions are baked into the initialPosition and
// initialDirection attributes when buffers are (re)created, and respawned particles
// restart from them. Billboard systems carry no initialDirection: the baked direction
// only seeds the first life, and a respawn emits along the normalized direction the
// dying particle ended with.
type CustomEmitter struct {
	// Position returns the local emission position of particle index.
	Position func(index int) mgl32.Vec3
	// Direction returns the initial direction of particle index.
	Direction func(index int) mgl32.Vec3
}

func (e *CustomEmitter) Kind() EmitterKind { return EmitterCustom }

func (e *CustomEmitter) Apply(w *UniformWriter) {}

func (e *CustomEmitter) position(i int) mgl32.Vec3 {
	if e.Position == nil {
		return mgl32.Vec3{}
	}
	return e.Position(i)
}

func (e *CustomEmitter) direction(i int) mgl32.Vec3 {
	if e.Direction == nil {
		return mgl32.Vec3{0, 1, 0}
	}
	return e.Direction(i)
}
