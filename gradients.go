package gpuparticles

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// GradientTextureWidth is the texel count of a baked gradient ramp.
const GradientTextureWidth = 256

// ColorGradient is a color stop at Gradient (0 at birth, 1 at death).
type ColorGradient struct {
	Gradient float32    `json:"gradient"`
	Color    mgl32.Vec4 `json:"color"`
}

// FactorGradient is a scalar stop at Gradient (0 at birth, 1 at death).
type FactorGradient struct {
	Gradient float32 `json:"gradient"`
	Factor   float32 `json:"factor"`
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sampleFactor returns the piecewise linear value of sorted stops at t.
func sampleFactor(stops []FactorGradient, t float32) float32 {
	if len(stops) == 0 {
		return 0
	}
	if t <= stops[0].Gradient {
		return stops[0].Factor
	}
	for i := 1; i < len(stops); i++ {
		prev, next := stops[i-1], stops[i]
		if t <= next.Gradient {
			span := next.Gradient - prev.Gradient
			if span <= 0 {
				return next.Factor
			}
			s := (t - prev.Gradient) / span
			return prev.Factor + (next.Factor-prev.Factor)*s
		}
	}
	return stops[len(stops)-1].Factor
}

func sampleColor(stops []ColorGradient, t float32) mgl32.Vec4 {
	if len(stops) == 0 {
		return mgl32.Vec4{}
	}
	if t <= stops[0].Gradient {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		prev, next := stops[i-1], stops[i]
		if t <= next.Gradient {
			span := next.Gradient - prev.Gradient
			if span <= 0 {
				return next.Color
			}
			s := (t - prev.Gradient) / span
			return prev.Color.Add(next.Color.Sub(prev.Color).Mul(s))
		}
	}
	return stops[len(stops)-1].Color
}

// BakeFactorGradient samples stops into width floats, one per texel.
func BakeFactorGradient(stops []FactorGradient, width int) []float32 {
	sorted := append([]FactorGradient(nil), stops...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Gradient < sorted[j].Gradient })
	out := make([]float32, width)
	for i := range out {
		out[i] = sampleFactor(sorted, texelRatio(i, width))
	}
	return out
}

// BakeColorGradient samples stops into width RGBA8 texels.
func BakeColorGradient(stops []ColorGradient, width int) []byte {
	sorted := append([]ColorGradient(nil), stops...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Gradient < sorted[j].Gradient })
	out := make([]byte, width*4)
	for i := 0; i < width; i++ {
		c := sampleColor(sorted, texelRatio(i, width))
		for k := 0; k < 4; k++ {
			out[i*4+k] = byte(clamp01(c[k])*255 + 0.5)
		}
	}
	return out
}

func texelRatio(i, width int) float32 {
	if width <= 1 {
		return 0
	}
	return float32(i) / float32(width-1)
}

func colorGradientTexture(label string, stops []ColorGradient) TextureDesc {
	return TextureDesc{
		Label:  label,
		Width:  GradientTextureWidth,
		Height: 1,
		Format: TextureRGBA8,
		Linear: true,
		Data:   BakeColorGradient(stops, GradientTextureWidth),
	}
}

func factorGradientTexture(label string, stops []FactorGradient) TextureDesc {
	return TextureDesc{
		Label:  label,
		Width:  GradientTextureWidth,
		Height: 1,
		Format: TextureR32F,
		Linear: true,
		Data:   float32Bytes(BakeFactorGradient(stops, GradientTextureWidth)),
	}
}
