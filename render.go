package gpuparticles

// Sprite quad inputs of the render pass.
const (
	RenderAttrOffset = "offset"
	RenderAttrUV     = "uv"
)

// SpriteQuad is an interleaved offset(2) uv(2) triangle strip covering a unit quad
// centred on the particle.
var SpriteQuad = []float32{
	-0.5, -0.5, 0, 1,
	0.5, -0.5, 1, 1,
	-0.5, 0.5, 0, 0,
	0.5, 0.5, 1, 0,
}

// SpriteQuadVertices is the vertex count of SpriteQuad.
const SpriteQuadVertices = 4

const spriteStride = 4 * FloatSize

// RenderInputs maps the particle records of particles onto per-instance inputs of the
// render program, one instance per particle. When sprite is set its quad corners are
// added as per-vertex inputs.
func RenderInputs(schema AttributeSchema, particles, sprite BufferHandle) map[string]VertexInput {
	inputs := UpdateVertexInputs(particles, schema)
	for name, in := range inputs {
		in.Divisor = 1
		inputs[name] = in
	}
	if sprite != NoBuffer {
		inputs[RenderAttrOffset] = VertexInput{Buffer: sprite, Components: 2, Offset: 0, Stride: spriteStride}
		inputs[RenderAttrUV] = VertexInput{Buffer: sprite, Components: 2, Offset: 2 * FloatSize, Stride: spriteStride}
	}
	return inputs
}

// RenderProgramName is the shader name of the sprite program.
const RenderProgramName = "gpuRenderParticles"

// Render pass uniforms.
const (
	UniformView       = "view"
	UniformProjection = "projection"
)

// SamplerColorGradient is the baked color ramp read by the render pass.
const SamplerColorGradient = "colorGradientSampler"

// BuildRenderProgram assembles the interface of the sprite program drawing the
// records of f. Compile it with the defines of the system it draws.
func BuildRenderProgram(f FeatureFlags, defines string) ProgramDesc {
	inputs := []string{AttrPosition, AttrAge, AttrLife, AttrSize, AttrAngle, RenderAttrOffset, RenderAttrUV}
	var samplers []string
	if f.ColorGradientBound {
		samplers = append(samplers, SamplerColorGradient)
	} else {
		inputs = append(inputs, AttrColor)
	}
	return ProgramDesc{
		Inputs:   inputs,
		Uniforms: []string{UniformView, UniformProjection},
		Samplers: samplers,
		Defines:  defines,
	}
}
