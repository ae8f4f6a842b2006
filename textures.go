package gpuparticles

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/rand"
	"os"

	"golang.org/x/image/draw"
)

// MaxRandomTextureSize caps the width of the random textures.
const MaxRandomTextureSize = 4096

// float32Bytes packs floats little endian, the layout devices upload from.
func float32Bytes(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func randomTextureWidth(caps Capabilities) int {
	w := MaxRandomTextureSize
	if caps.MaxTextureSize > 0 && caps.MaxTextureSize < w {
		w = caps.MaxTextureSize
	}
	return w
}

// randomTexture returns a width x 1 RGBA32F texture of uniform [0,1) values.
func randomTexture(label string, width int, rng *rand.Rand) TextureDesc {
	values := make([]float32, width*4)
	for i := range values {
		values[i] = rng.Float32()
	}
	return TextureDesc{
		Label:  label,
		Width:  width,
		Height: 1,
		Format: TextureRGBA32F,
		Repeat: true,
		Data:   float32Bytes(values),
	}
}

// ImageTexture resamples img to width x height RGBA8 texels.
func ImageTexture(label string, img image.Image, width, height int, repeat bool) TextureDesc {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return TextureDesc{
		Label:  label,
		Width:  width,
		Height: height,
		Format: TextureRGBA8,
		Linear: true,
		Repeat: repeat,
		Data:   dst.Pix,
	}
}

// LoadImage decodes a PNG or JPEG file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}
