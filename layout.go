package gpuparticles

// FloatSize is the byte width of one attribute component.
const FloatSize = 4

// Attribute names shared by the packed buffer, the update program inputs and the
// render pass.
const (
	AttrPosition          = "position"
	AttrAge               = "age"
	AttrSize              = "size"
	AttrLife              = "life"
	AttrSeed              = "seed"
	AttrDirection         = "direction"
	AttrInitialPosition   = "initialPosition"
	AttrColor             = "color"
	AttrInitialDirection  = "initialDirection"
	AttrNoiseCoordinates1 = "noiseCoordinates1"
	AttrNoiseCoordinates2 = "noiseCoordinates2"
	AttrAngle             = "angle"
	AttrCellIndex         = "cellIndex"
	AttrCellStartOffset   = "cellStartOffset"
)

// Attribute is one per-particle field of the packed buffer.
type Attribute struct {
	Name       string
	Components int // 1..4 floats
	Offset     int // bytes from the start of the particle record
}

// Size returns the attribute width in bytes.
func (a Attribute) Size() int { return a.Components * FloatSize }

// AttributeSchema is the ordered attribute list of one particle record.
type AttributeSchema struct {
	attrs []Attribute
}

// Attributes returns a copy of the ordered attribute list.
func (s AttributeSchema) Attributes() []Attribute {
	return append([]Attribute(nil), s.attrs...)
}

// Len returns the number of attributes.
func (s AttributeSchema) Len() int { return len(s.attrs) }

// Names returns the attribute names in layout order.
func (s AttributeSchema) Names() []string {
	names := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		names[i] = a.Name
	}
	return names
}

// Lookup returns the attribute called name.
func (s AttributeSchema) Lookup(name string) (Attribute, bool) {
	for _, a := range s.attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Stride is the byte size of one particle record.
func (s AttributeSchema) Stride() int {
	if len(s.attrs) == 0 {
		return 0
	}
	last := s.attrs[len(s.attrs)-1]
	return last.Offset + last.Size()
}

// FloatsPerParticle is Stride expressed in float components.
func (s AttributeSchema) FloatsPerParticle() int { return s.Stride() / FloatSize }

type field struct {
	name       string
	components int
}

// fieldsFor lists the present attributes for f in their fixed declaration order.
func fieldsFor(f FeatureFlags) []field {
	fields := []field{
		{AttrPosition, 3},
		{AttrAge, 1},
		{AttrSize, 3},
		{AttrLife, 1},
		{AttrSeed, 4},
		{AttrDirection, 3},
	}
	if f.Emitter == EmitterCustom {
		fields = append(fields, field{AttrInitialPosition, 3})
	}
	if !f.ColorGradientBound {
		fields = append(fields, field{AttrColor, 4})
	}
	if !f.Billboard {
		fields = append(fields, field{AttrInitialDirection, 3})
	}
	if f.NoiseBound {
		fields = append(fields, field{AttrNoiseCoordinates1, 3}, field{AttrNoiseCoordinates2, 3})
	}
	if f.AngularSpeedGradientBound {
		fields = append(fields, field{AttrAngle, 1})
	} else {
		// angle plus angular velocity
		fields = append(fields, field{AttrAngle, 2})
	}
	if f.AnimationSheet {
		fields = append(fields, field{AttrCellIndex, 1})
		if f.RandomStartCell {
			fields = append(fields, field{AttrCellStartOffset, 1})
		}
	}
	return fields
}

// DeriveLayout computes the packed particle layout for f. It is pure: the same flags
// always yield the same schema, which is what keeps the update pass and the render
// pass reading identical byte ranges.
func DeriveLayout(f FeatureFlags) AttributeSchema {
	fields := fieldsFor(f)
	attrs := make([]Attribute, len(fields))
	offset := 0
	for i, fd := range fields {
		attrs[i] = Attribute{Name: fd.name, Components: fd.components, Offset: offset}
		offset += fd.components * FloatSize
	}
	return AttributeSchema{attrs: attrs}
}
