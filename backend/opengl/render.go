//go:build !js

package opengl

import (
	"github.com/gekko3d/gpuparticles"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Viewport sets the framebuffer area the sprites are drawn to.
func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) Clear(color mgl32.Vec4) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// SetBlending selects additive or alpha blending for the sprite pass.
func (d *Device) SetBlending(additive bool) {
	gl.Enable(gl.BLEND)
	if additive {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
		return
	}
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

// DrawSprites draws one quad per particle from the bound render-binding.
func (d *Device) DrawSprites(particles int) {
	if particles <= 0 {
		return
	}
	gl.DrawArraysInstanced(gl.TRIANGLE_STRIP, 0, gpuparticles.SpriteQuadVertices, int32(particles))
}
