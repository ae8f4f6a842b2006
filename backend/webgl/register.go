//go:build js && wasm

package webgl

import (
	"fmt"
	"syscall/js"

	"github.com/gekko3d/gpuparticles"
)

// Open creates a device on host, a canvas js.Value or the id of a canvas element.
func Open(host any, logger gpuparticles.Logger) (gpuparticles.Device, error) {
	switch h := host.(type) {
	case js.Value:
		return New(h, logger)
	case string:
		return New(js.Global().Get("document").Call("getElementById", h), logger)
	default:
		return nil, fmt.Errorf("webgl: unsupported host %T", host)
	}
}

// Register adds the WebGL2 backend to r.
func Register(r *gpuparticles.Registry) error {
	return r.Register(gpuparticles.BackendWebGL2, Open)
}
