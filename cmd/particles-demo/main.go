//go:build !js

// Command particles-demo runs a GPU particle system in a desktop window.
package main

import (
	"errors"
	"flag"
	"log"
	"runtime"

	"github.com/gekko3d/gpuparticles"
	"github.com/gekko3d/gpuparticles/backend/opengl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	// GL calls must stay on the thread that created the context.
	runtime.LockOSThread()
}

func main() {
	var (
		width    = flag.Int("width", 1280, "window width")
		height   = flag.Int("height", 720, "window height")
		preset   = flag.String("preset", "", "preset file to load")
		save     = flag.String("save", "", "write the running setup as a preset and exit")
		capacity = flag.Int("capacity", 20000, "particle capacity")
		noise    = flag.String("noise", "", "noise texture image")
		debug    = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	logger := gpuparticles.NewDefaultLogger("particles", *debug)

	if err := glfw.Init(); err != nil {
		log.Fatalf("glfw init: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(*width, *height, "GPU particles", nil, nil)
	if err != nil {
		log.Fatalf("create window: %v", err)
	}
	defer window.Destroy()

	registry := gpuparticles.NewRegistry(logger)
	if err := opengl.Register(registry); err != nil {
		log.Fatalf("%v", err)
	}
	dev, err := registry.OpenFirst(window, gpuparticles.BackendOpenGL)
	if err != nil {
		log.Fatalf("open device: %v", err)
	}
	gl := dev.(*opengl.Device)
	defer gl.Close()
	glfw.SwapInterval(1)

	sys := gpuparticles.NewSystem(dev, defaultConfig(*capacity), gpuparticles.NewConeEmitter(0.5, 0.6), gpuparticles.WithLogger(logger))
	defer sys.Dispose()
	if *preset != "" {
		p, err := gpuparticles.LoadPreset(*preset)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := p.Apply(sys); err != nil {
			log.Fatalf("%v", err)
		}
		logger.Infof("preset %s loaded from %s", p.Name, *preset)
	}
	if *noise != "" {
		img, err := gpuparticles.LoadImage(*noise)
		if err != nil {
			log.Fatalf("%v", err)
		}
		sys.SetNoiseTexture(img)
	}
	if *save != "" {
		p, err := gpuparticles.PresetOf("demo", sys)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := gpuparticles.SavePreset(p, *save); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	sprite, err := dev.CreateBuffer(gpuparticles.SpriteQuad)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer dev.ReleaseBuffer(sprite)
	render, err := dev.CreateProgram(gpuparticles.RenderProgramName, sys.RenderProgramDesc())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer dev.ReleaseProgram(render)
	sys.SetRenderProgram(render, sprite)
	gl.SetBlending(true)

	clock := gpuparticles.NewFrameClock()
	for !window.ShouldClose() {
		dt := clock.Tick()
		if err := sys.Update(dt); err != nil && !errors.Is(err, gpuparticles.ErrDeviceLost) {
			log.Fatalf("update: %v", err)
		}

		w, h := window.GetFramebufferSize()
		gl.Viewport(w, h)
		gl.Clear(mgl32.Vec4{0.02, 0.02, 0.05, 1})
		drawParticles(gl, sys, render, float32(w)/float32(max(h, 1)))

		window.SwapBuffers()
		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
		}
	}
}

func defaultConfig(capacity int) gpuparticles.Config {
	cfg := gpuparticles.DefaultConfig()
	cfg.Capacity = capacity
	cfg.EmitRate = float32(capacity) / 3
	cfg.MinLifeTime, cfg.MaxLifeTime = 1.5, 3
	cfg.MinSize, cfg.MaxSize = 0.05, 0.15
	cfg.MinEmitPower, cfg.MaxEmitPower = 2, 4
	cfg.Gravity = mgl32.Vec3{0, -2, 0}
	cfg.ColorGradients = []gpuparticles.ColorGradient{
		{Gradient: 0, Color: mgl32.Vec4{1, 0.9, 0.4, 1}},
		{Gradient: 0.5, Color: mgl32.Vec4{1, 0.3, 0.1, 0.8}},
		{Gradient: 1, Color: mgl32.Vec4{0.2, 0.2, 0.2, 0}},
	}
	return cfg
}

func drawParticles(gl *opengl.Device, sys *gpuparticles.System, render gpuparticles.ProgramHandle, aspect float32) {
	binding, ok := sys.RenderBinding()
	if !ok {
		return
	}
	view := mgl32.LookAtV(mgl32.Vec3{0, 2, 8}, mgl32.Vec3{0, 1.5, 0}, mgl32.Vec3{0, 1, 0})
	projection := mgl32.Perspective(mgl32.DegToRad(60), aspect, 0.1, 100)

	gl.UseProgram(render)
	gl.SetUniform(render, gpuparticles.UniformView, view[:]...)
	gl.SetUniform(render, gpuparticles.UniformProjection, projection[:]...)
	if tex, ok := sys.ColorGradientTexture(); ok {
		gl.SetTexture(render, gpuparticles.SamplerColorGradient, tex)
	}
	gl.BindBindingObject(binding)
	gl.DrawSprites(sys.ActiveCount())
	gl.BindBindingObject(0)
}
