//go:build js && wasm

package webgl

import (
	"github.com/gekko3d/gpuparticles"
	"github.com/go-gl/mathgl/mgl32"
)

func (d *Device) Viewport(width, height int) {
	d.gl.Call("viewport", 0, 0, width, height)
}

func (d *Device) Clear(color mgl32.Vec4) {
	d.gl.Call("clearColor", color[0], color[1], color[2], color[3])
	d.gl.Call("clear", d.consts.colorBufferBit|d.consts.depthBufferBit)
}

// SetBlending selects additive or alpha blending for the sprite pass.
func (d *Device) SetBlending(additive bool) {
	d.gl.Call("enable", d.consts.blend)
	if additive {
		d.gl.Call("blendFunc", d.consts.srcAlpha, d.consts.one)
		return
	}
	d.gl.Call("blendFunc", d.consts.srcAlpha, d.consts.oneMinusSrcAlpha)
}

// DrawSprites draws one quad per particle from the bound render-binding.
func (d *Device) DrawSprites(particles int) {
	if particles <= 0 {
		return
	}
	d.gl.Call("drawArraysInstanced", d.consts.triangleStrip, 0, gpuparticles.SpriteQuadVertices, particles)
}
