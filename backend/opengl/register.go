//go:build !js

package opengl

import (
	"fmt"

	"github.com/gekko3d/gpuparticles"
)

// ContextHost is a window whose GL context can be made current on the calling
// thread, such as a glfw window.
type ContextHost interface {
	MakeContextCurrent()
}

// Open creates a device on host. A nil host uses the context already current.
func Open(host any, logger gpuparticles.Logger) (gpuparticles.Device, error) {
	switch h := host.(type) {
	case nil:
	case ContextHost:
		h.MakeContextCurrent()
	default:
		return nil, fmt.Errorf("opengl: unsupported host %T", host)
	}
	return New(logger)
}

// Register adds the OpenGL backend to r.
func Register(r *gpuparticles.Registry) error {
	return r.Register(gpuparticles.BackendOpenGL, Open)
}
