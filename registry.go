package gpuparticles

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// BackendName identifies a device implementation by the capability it provides.
// Keep names aligned with Capabilities.Backend of the backend.
type BackendName string

const (
	BackendOpenGL BackendName = "gl33"
	BackendWebGL2 BackendName = "webgl2"
)

// BackendFactory opens a Device on a host context (a window, a canvas element).
type BackendFactory func(host any, logger Logger) (Device, error)

// Registry maps backend names to factories. Build one at process start, register the
// backends the binary links, and pass it to whoever opens devices.
type Registry struct {
	mu        sync.RWMutex
	id        string
	logger    Logger
	factories map[BackendName]BackendFactory
}

func NewRegistry(logger Logger) *Registry {
	return &Registry{
		id:        uuid.NewString(),
		logger:    orNop(logger),
		factories: make(map[BackendName]BackendFactory),
	}
}

// Register adds a factory under name. Registering a name twice is an error.
func (r *Registry) Register(name BackendName, factory BackendFactory) error {
	if factory == nil {
		return fmt.Errorf("register %s: nil factory", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("register %s: %w", name, ErrBackendExists)
	}
	r.factories[name] = factory
	r.logger.Debugf("registry %s: backend %s registered", r.id, name)
	return nil
}

// MustRegister is Register for startup code: a duplicate backend panics.
func (r *Registry) MustRegister(name BackendName, factory BackendFactory) *Registry {
	if err := r.Register(name, factory); err != nil {
		r.logger.Errorf("%v", err)
		panic(err)
	}
	return r
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []BackendName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]BackendName, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Open creates a device of the named backend on host.
func (r *Registry) Open(name BackendName, host any) (Device, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, ErrBackendNotFound)
	}
	dev, err := factory(host, named(r.logger, string(name)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	r.logger.Infof("Backend selected: %s", name)
	return dev, nil
}

// OpenFirst tries names in order and returns the first device whose context can run
// GPU particles. Devices that open but lack the capability are closed and skipped;
// if none qualifies, the last error is returned.
func (r *Registry) OpenFirst(host any, names ...BackendName) (Device, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	var lastErr error = ErrBackendNotFound
	for _, name := range names {
		dev, err := r.Open(name, host)
		if err != nil {
			lastErr = err
			continue
		}
		caps := dev.Capabilities()
		if m := caps.missing(); m != "" {
			lastErr = &ConfigurationError{Backend: string(name), Missing: m}
			r.logger.Warnf("backend %s skipped: %v", name, lastErr)
			if c, ok := dev.(io.Closer); ok {
				if err := c.Close(); err != nil {
					r.logger.Warnf("backend %s: close: %v", name, err)
				}
			}
			continue
		}
		return dev, nil
	}
	return nil, lastErr
}
