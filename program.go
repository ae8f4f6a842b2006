package gpuparticles

import "strings"

// UpdateProgramName is the shader name of the simulation program.
const UpdateProgramName = "gpuUpdateParticles"

// updateInputs are declared on every update program variant whether or not the
// flags make them present, so one program exists per defines string rather than
// per flag combination.
var updateInputs = []string{
	AttrPosition,
	AttrInitialPosition,
	AttrAge,
	AttrLife,
	AttrSeed,
	AttrSize,
	AttrColor,
	AttrDirection,
	AttrInitialDirection,
	AttrAngle,
	AttrCellIndex,
	AttrCellStartOffset,
	AttrNoiseCoordinates1,
	AttrNoiseCoordinates2,
}

// Uniform names of the update program.
const (
	UniformCurrentCount         = "currentCount"
	UniformTimeDelta            = "timeDelta"
	UniformEmitterWM            = "emitterWM"
	UniformLifeTime             = "lifeTime"
	UniformColor1               = "color1"
	UniformColor2               = "color2"
	UniformSizeRange            = "sizeRange"
	UniformScaleRange           = "scaleRange"
	UniformGravity              = "gravity"
	UniformEmitPower            = "emitPower"
	UniformDirection1           = "direction1"
	UniformDirection2           = "direction2"
	UniformMinEmitBox           = "minEmitBox"
	UniformMaxEmitBox           = "maxEmitBox"
	UniformRadius               = "radius"
	UniformDirectionRandomizer  = "directionRandomizer"
	UniformHeight               = "height"
	UniformConeAngle            = "coneAngle"
	UniformStopFactor           = "stopFactor"
	UniformAngleRange           = "angleRange"
	UniformRadiusRange          = "radiusRange"
	UniformCellInfos            = "cellInfos"
	UniformNoiseStrength        = "noiseStrength"
	UniformLimitVelocityDamping = "limitVelocityDamping"
	UniformFlowMapProjection    = "flowMapProjection"
	UniformFlowMapStrength      = "flowMapStrength"
)

var updateUniforms = []string{
	UniformCurrentCount,
	UniformTimeDelta,
	UniformEmitterWM,
	UniformLifeTime,
	UniformColor1,
	UniformColor2,
	UniformSizeRange,
	UniformScaleRange,
	UniformGravity,
	UniformEmitPower,
	UniformDirection1,
	UniformDirection2,
	UniformMinEmitBox,
	UniformMaxEmitBox,
	UniformRadius,
	UniformDirectionRandomizer,
	UniformHeight,
	UniformConeAngle,
	UniformStopFactor,
	UniformAngleRange,
	UniformRadiusRange,
	UniformCellInfos,
	UniformNoiseStrength,
	UniformLimitVelocityDamping,
	UniformFlowMapProjection,
	UniformFlowMapStrength,
}

// Sampler names of the update program. Every slot except the two random textures is
// optional and only bound when the system owns the texture.
const (
	SamplerRandom                = "randomSampler"
	SamplerRandom2               = "randomSampler2"
	SamplerSizeGradient          = "sizeGradientSampler"
	SamplerAngularSpeedGradient  = "angularSpeedGradientSampler"
	SamplerVelocityGradient      = "velocityGradientSampler"
	SamplerLimitVelocityGradient = "limitVelocityGradientSampler"
	SamplerNoise                 = "noiseSampler"
	SamplerDragGradient          = "dragGradientSampler"
	SamplerFlowMap               = "flowMapSampler"
)

var updateSamplers = []string{
	SamplerRandom,
	SamplerRandom2,
	SamplerSizeGradient,
	SamplerAngularSpeedGradient,
	SamplerVelocityGradient,
	SamplerLimitVelocityGradient,
	SamplerNoise,
	SamplerDragGradient,
	SamplerFlowMap,
}

// UpdateInputs returns the declared vertex inputs of the update program.
func UpdateInputs() []string { return append([]string(nil), updateInputs...) }

// UpdateUniforms returns the uniform interface of the update program.
func UpdateUniforms() []string { return append([]string(nil), updateUniforms...) }

// UpdateSamplers returns the sampler interface of the update program.
func UpdateSamplers() []string { return append([]string(nil), updateSamplers...) }

// OutputName maps an attribute name to its captured output variable, e.g.
// "noiseCoordinates1" -> "outNoiseCoordinates1".
func OutputName(attr string) string {
	if attr == "" {
		return "out"
	}
	return "out" + strings.ToUpper(attr[:1]) + attr[1:]
}

// CaptureList returns the transform feedback outputs for f. It is derived from
// DeriveLayout so the captured record and the packed buffer can never disagree; the
// angle output is always captured, only its width depends on the flags.
func CaptureList(f FeatureFlags) []string {
	schema := DeriveLayout(f)
	out := make([]string, 0, schema.Len())
	for _, a := range schema.attrs {
		out = append(out, OutputName(a.Name))
	}
	return out
}

// BuildUpdateProgram assembles the interface of the simulation program for f. The
// returned descriptor is compiled by the device; a distinct defines string always
// needs a distinct program.
func BuildUpdateProgram(f FeatureFlags, defines string) ProgramDesc {
	return ProgramDesc{
		Inputs:          UpdateInputs(),
		Uniforms:        UpdateUniforms(),
		Samplers:        UpdateSamplers(),
		CapturedOutputs: CaptureList(f),
		Defines:         defines,
	}
}
