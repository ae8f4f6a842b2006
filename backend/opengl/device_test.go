//go:build !js

package opengl

import (
	"testing"

	"github.com/gekko3d/gpuparticles"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextureFormat(t *testing.T) {
	internal, format, xtype := textureFormat(gpuparticles.TextureRGBA32F)
	assert.Equal(t, int32(gl.RGBA32F), internal)
	assert.Equal(t, uint32(gl.RGBA), format)
	assert.Equal(t, uint32(gl.FLOAT), xtype)

	internal, format, _ = textureFormat(gpuparticles.TextureR32F)
	assert.Equal(t, int32(gl.R32F), internal)
	assert.Equal(t, uint32(gl.RED), format)

	internal, _, xtype = textureFormat(gpuparticles.TextureRGBA8)
	assert.Equal(t, int32(gl.RGBA8), internal)
	assert.Equal(t, uint32(gl.UNSIGNED_BYTE), xtype)
}

func TestSamplerParams(t *testing.T) {
	filter, wrap := samplerParams(gpuparticles.TextureDesc{Linear: true, Repeat: true})
	assert.Equal(t, int32(gl.LINEAR), filter)
	assert.Equal(t, int32(gl.REPEAT), wrap)

	filter, wrap = samplerParams(gpuparticles.TextureDesc{})
	assert.Equal(t, int32(gl.NEAREST), filter)
	assert.Equal(t, int32(gl.CLAMP_TO_EDGE), wrap)
}

func TestNulTerminated(t *testing.T) {
	names := []string{"outPosition", "outAge"}
	got := nulTerminated(names)
	assert.Equal(t, []string{"outPosition\x00", "outAge\x00"}, got)
	assert.Equal(t, "outPosition", names[0])
}

func TestRegister(t *testing.T) {
	r := gpuparticles.NewRegistry(nil)
	require.NoError(t, Register(r))
	assert.Equal(t, []gpuparticles.BackendName{gpuparticles.BackendOpenGL}, r.Names())
	assert.ErrorIs(t, Register(r), gpuparticles.ErrBackendExists)

	_, err := Open(42, nil)
	assert.Error(t, err)
}
