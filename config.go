package gpuparticles

import "github.com/go-gl/mathgl/mgl32"

// AnimationSheet configures sprite sheet animation. Cells are counted row-major.
type AnimationSheet struct {
	Enabled         bool    `json:"enabled"`
	RandomStartCell bool    `json:"random_start_cell,omitempty"`
	StartCell       float32 `json:"start_cell"`
	EndCell         float32 `json:"end_cell"`
	CellChangeSpeed float32 `json:"cell_change_speed"`
	Loop            bool    `json:"loop,omitempty"`
}

// Config holds the simulation properties of a System. Zero numeric fields are
// replaced by their defaults; see DefaultConfig.
type Config struct {
	Capacity int `json:"capacity"`

	// EmitRate is the number of particles emitted per second of simulated time.
	EmitRate float32 `json:"emit_rate"`
	// UpdateSpeed scales wall time into simulated time.
	UpdateSpeed float32 `json:"update_speed"`
	// TargetStopDuration stops the system after this much simulated time. 0 runs
	// forever.
	TargetStopDuration float32 `json:"target_stop_duration,omitempty"`

	MinLifeTime float32 `json:"min_life_time"`
	MaxLifeTime float32 `json:"max_life_time"`

	MinSize   float32 `json:"min_size"`
	MaxSize   float32 `json:"max_size"`
	MinScaleX float32 `json:"min_scale_x"`
	MaxScaleX float32 `json:"max_scale_x"`
	MinScaleY float32 `json:"min_scale_y"`
	MaxScaleY float32 `json:"max_scale_y"`

	MinInitialRotation float32 `json:"min_initial_rotation,omitempty"`
	MaxInitialRotation float32 `json:"max_initial_rotation,omitempty"`
	MinAngularSpeed    float32 `json:"min_angular_speed,omitempty"`
	MaxAngularSpeed    float32 `json:"max_angular_speed,omitempty"`

	MinEmitPower float32 `json:"min_emit_power"`
	MaxEmitPower float32 `json:"max_emit_power"`

	Color1  mgl32.Vec4 `json:"color1"`
	Color2  mgl32.Vec4 `json:"color2"`
	Gravity mgl32.Vec3 `json:"gravity"`

	Billboard      bool           `json:"billboard"`
	AnimationSheet AnimationSheet `json:"animation_sheet"`

	NoiseStrength        mgl32.Vec3 `json:"noise_strength"`
	LimitVelocityDamping float32    `json:"limit_velocity_damping"`
	FlowMapStrength      float32    `json:"flow_map_strength"`

	ColorGradients         []ColorGradient  `json:"color_gradients,omitempty"`
	SizeGradients          []FactorGradient `json:"size_gradients,omitempty"`
	AngularSpeedGradients  []FactorGradient `json:"angular_speed_gradients,omitempty"`
	VelocityGradients      []FactorGradient `json:"velocity_gradients,omitempty"`
	LimitVelocityGradients []FactorGradient `json:"limit_velocity_gradients,omitempty"`
	DragGradients          []FactorGradient `json:"drag_gradients,omitempty"`

	// Seed feeds the particle seeds and random textures. 0 picks a time based seed.
	Seed int64 `json:"seed,omitempty"`
}

// DefaultConfig returns a running configuration of 1000 white particles living one
// second.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 1000
	}
	if c.EmitRate == 0 {
		c.EmitRate = 100
	}
	if c.UpdateSpeed == 0 {
		c.UpdateSpeed = 1
	}
	if c.MinLifeTime == 0 && c.MaxLifeTime == 0 {
		c.MinLifeTime, c.MaxLifeTime = 1, 1
	}
	if c.MinSize == 0 && c.MaxSize == 0 {
		c.MinSize, c.MaxSize = 1, 1
	}
	if c.MinScaleX == 0 && c.MaxScaleX == 0 {
		c.MinScaleX, c.MaxScaleX = 1, 1
	}
	if c.MinScaleY == 0 && c.MaxScaleY == 0 {
		c.MinScaleY, c.MaxScaleY = 1, 1
	}
	if c.MinEmitPower == 0 && c.MaxEmitPower == 0 {
		c.MinEmitPower, c.MaxEmitPower = 1, 1
	}
	if c.Color1 == (mgl32.Vec4{}) {
		c.Color1 = mgl32.Vec4{1, 1, 1, 1}
	}
	if c.Color2 == (mgl32.Vec4{}) {
		c.Color2 = mgl32.Vec4{1, 1, 1, 1}
	}
	if c.NoiseStrength == (mgl32.Vec3{}) {
		c.NoiseStrength = mgl32.Vec3{10, 10, 10}
	}
	if c.LimitVelocityDamping == 0 {
		c.LimitVelocityDamping = 0.4
	}
	if c.FlowMapStrength == 0 {
		c.FlowMapStrength = 1
	}
	return c
}
