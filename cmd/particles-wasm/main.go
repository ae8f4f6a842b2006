//go:build js && wasm

// Command particles-wasm runs a GPU particle system on a WebGL2 canvas.
package main

import (
	"errors"
	"syscall/js"

	"github.com/gekko3d/gpuparticles"
	"github.com/gekko3d/gpuparticles/backend/webgl"
	"github.com/go-gl/mathgl/mgl32"
)

const canvasID = "particles"

type app struct {
	logger gpuparticles.Logger
	gl     *webgl.Device
	sys    *gpuparticles.System
	sprite gpuparticles.BufferHandle
	render gpuparticles.ProgramHandle
	clock  *gpuparticles.FrameClock
	frame  js.Func

	// render objects died with the context and wait for its restoration
	renderLost bool
}

func main() {
	logger := gpuparticles.NewDefaultLogger("particles", false)
	registry := gpuparticles.NewRegistry(logger)
	if err := webgl.Register(registry); err != nil {
		logger.Errorf("%v", err)
		return
	}
	dev, err := registry.OpenFirst(canvasID, gpuparticles.BackendWebGL2)
	if err != nil {
		logger.Errorf("open device: %v", err)
		return
	}

	cfg := gpuparticles.DefaultConfig()
	cfg.Capacity = 10000
	cfg.EmitRate = 3000
	cfg.MinLifeTime, cfg.MaxLifeTime = 1, 2.5
	cfg.MinSize, cfg.MaxSize = 0.04, 0.12
	cfg.MinEmitPower, cfg.MaxEmitPower = 1, 3
	cfg.Color1 = mgl32.Vec4{0.3, 0.6, 1, 1}
	cfg.Color2 = mgl32.Vec4{0.9, 0.3, 1, 1}

	a := &app{
		logger: logger,
		gl:     dev.(*webgl.Device),
		sys:    gpuparticles.NewSystem(dev, cfg, gpuparticles.NewSphereEmitter(1), gpuparticles.WithLogger(logger)),
		clock:  gpuparticles.NewFrameClock(),
	}
	if err := a.createRenderObjects(); err != nil {
		logger.Errorf("%v", err)
		return
	}
	a.gl.SetBlending(true)

	a.frame = js.FuncOf(a.onFrame)
	js.Global().Call("requestAnimationFrame", a.frame)
	select {}
}

func (a *app) createRenderObjects() error {
	sprite, err := a.gl.CreateBuffer(gpuparticles.SpriteQuad)
	if err != nil {
		return err
	}
	render, err := a.gl.CreateProgram(gpuparticles.RenderProgramName, a.sys.RenderProgramDesc())
	if err != nil {
		a.gl.ReleaseBuffer(sprite)
		return err
	}
	a.sprite, a.render = sprite, render
	a.sys.SetRenderProgram(render, sprite)
	return nil
}

func (a *app) onFrame(this js.Value, args []js.Value) any {
	if a.renderLost && !a.gl.IsContextLost() {
		if err := a.createRenderObjects(); err != nil {
			a.logger.Errorf("%v", err)
			return nil
		}
		a.renderLost = false
	}
	err := a.sys.Update(a.clock.Tick())
	switch {
	case errors.Is(err, gpuparticles.ErrDeviceLost):
		a.renderLost = true
	case err != nil:
		a.logger.Errorf("update: %v", err)
		return nil
	}

	canvas := js.Global().Get("document").Call("getElementById", canvasID)
	w, h := canvas.Get("width").Int(), canvas.Get("height").Int()
	a.gl.Viewport(w, h)
	a.gl.Clear(mgl32.Vec4{0, 0, 0, 1})
	a.draw(float32(w) / float32(max(h, 1)))

	js.Global().Call("requestAnimationFrame", a.frame)
	return nil
}

func (a *app) draw(aspect float32) {
	binding, ok := a.sys.RenderBinding()
	if !ok || !a.gl.IsProgramReady(a.render) {
		return
	}
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 6}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	projection := mgl32.Perspective(mgl32.DegToRad(60), aspect, 0.1, 100)

	a.gl.UseProgram(a.render)
	a.gl.SetUniform(a.render, gpuparticles.UniformView, view[:]...)
	a.gl.SetUniform(a.render, gpuparticles.UniformProjection, projection[:]...)
	if tex, ok := a.sys.ColorGradientTexture(); ok {
		a.gl.SetTexture(a.render, gpuparticles.SamplerColorGradient, tex)
	}
	a.gl.BindBindingObject(binding)
	a.gl.DrawSprites(a.sys.ActiveCount())
	a.gl.BindBindingObject(0)
}
