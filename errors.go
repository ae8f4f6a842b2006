package gpuparticles

import (
	"errors"
	"fmt"
)

var (
	// ErrProgramNotReady is returned when a simulation step is requested before the
	// update program was built, while it is still compiling, or after a device loss.
	ErrProgramNotReady = errors.New("gpuparticles: update program not ready")

	// ErrDeviceLost reports that the rendering context was lost. All GPU objects were
	// dropped; particle state is regenerated on the next update.
	ErrDeviceLost = errors.New("gpuparticles: device lost")

	// ErrDisposed is returned by any operation on a disposed driver or system.
	ErrDisposed = errors.New("gpuparticles: disposed")

	// ErrInvalidSlot is returned for a ping-pong slot outside [0, SlotCount).
	ErrInvalidSlot = errors.New("gpuparticles: invalid buffer slot")

	// ErrNoSlotBuffer is returned when a slot has neither a binding nor a registered
	// source buffer to build one from.
	ErrNoSlotBuffer = errors.New("gpuparticles: no buffer registered for slot")

	// ErrBackendNotFound is returned by Registry.Open for an unknown backend name.
	ErrBackendNotFound = errors.New("gpuparticles: backend not registered")

	// ErrBackendExists is returned when registering a backend name twice.
	ErrBackendExists = errors.New("gpuparticles: backend already registered")
)

// ConfigurationError reports a host rendering context that lacks a capability the
// GPU simulation depends on. It is fatal: there is no CPU fallback in this package.
type ConfigurationError struct {
	Backend string
	Missing string
}

func (e *ConfigurationError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("gpuparticles: rendering context lacks %s; GPU particles require transform feedback and rasterizer control", e.Missing)
	}
	return fmt.Sprintf("gpuparticles: backend %q lacks %s; GPU particles require transform feedback and rasterizer control", e.Backend, e.Missing)
}

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
