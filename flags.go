package gpuparticles

import (
	"fmt"
	"sort"
	"strings"
)

// EmitterKind tags the emission shape of a particle system. Layout and program
// building switch on the tag, never on the concrete Emitter type.
type EmitterKind uint8

const (
	EmitterPoint EmitterKind = iota
	EmitterBox
	EmitterSphere
	EmitterHemisphere
	EmitterCylinder
	EmitterCone
	EmitterCustom
)

func (k EmitterKind) String() string {
	switch k {
	case EmitterPoint:
		return "point"
	case EmitterBox:
		return "box"
	case EmitterSphere:
		return "sphere"
	case EmitterHemisphere:
		return "hemisphere"
	case EmitterCylinder:
		return "cylinder"
	case EmitterCone:
		return "cone"
	case EmitterCustom:
		return "custom"
	default:
		return fmt.Sprintf("EmitterKind(%d)", uint8(k))
	}
}

// define returns the shader define selecting the emission code path.
func (k EmitterKind) define() string {
	switch k {
	case EmitterBox:
		return "BOXEMITTER"
	case EmitterSphere:
		return "SPHEREEMITTER"
	case EmitterHemisphere:
		return "HEMISPHERICEMITTER"
	case EmitterCylinder:
		return "CYLINDEREMITTER"
	case EmitterCone:
		return "CONEEMITTER"
	case EmitterCustom:
		return "CUSTOMEMITTER"
	default:
		return "POINTEMITTER"
	}
}

// FeatureFlags is the single input that decides the packed attribute layout, the
// capture list of the update program and the binding layout. Planning and binding
// must be done with the same value; mixing values is a programming error.
type FeatureFlags struct {
	Emitter                   EmitterKind
	ColorGradientBound        bool
	Billboard                 bool
	NoiseBound                bool
	AngularSpeedGradientBound bool
	AnimationSheet            bool
	RandomStartCell           bool
}

// Defines returns the layout-relevant shader defines for f.
func (f FeatureFlags) Defines() DefineSet {
	d := DefineSet{f.Emitter.define()}
	if f.ColorGradientBound {
		d = append(d, "COLORGRADIENTS")
	}
	if f.Billboard {
		d = append(d, "BILLBOARD")
	}
	if f.NoiseBound {
		d = append(d, "NOISE")
	}
	if f.AngularSpeedGradientBound {
		d = append(d, "ANGULARSPEEDGRADIENTS")
	}
	if f.AnimationSheet {
		d = append(d, "ANIMATESHEET")
		if f.RandomStartCell {
			d = append(d, "ANIMATESHEETRANDOMSTART")
		}
	}
	return d
}

// DefineSet is a list of preprocessor symbols. Its String form is the compile-time
// key of an update program variant.
type DefineSet []string

// String renders the set as "#define X\n" lines, sorted and deduplicated so that
// equal sets always produce the same program key.
func (d DefineSet) String() string {
	if len(d) == 0 {
		return ""
	}
	names := append([]string(nil), d...)
	sort.Strings(names)
	var sb strings.Builder
	prev := ""
	for _, n := range names {
		if n == "" || n == prev {
			continue
		}
		sb.WriteString("#define ")
		sb.WriteString(n)
		sb.WriteByte('\n')
		prev = n
	}
	return sb.String()
}

// With returns a copy of d extended by names.
func (d DefineSet) With(names ...string) DefineSet {
	out := make(DefineSet, 0, len(d)+len(names))
	out = append(out, d...)
	return append(out, names...)
}
