package gpuparticles

// NotifyContextLost queues a context-lost signal. It never blocks and may be called
// from any goroutine; the driver handles the transition at its next call.
func (d *Driver) NotifyContextLost() {
	select {
	case d.lost <- struct{}{}:
	default:
	}
}

// processSignals applies a queued context loss and reports whether one was handled.
func (d *Driver) processSignals() bool {
	select {
	case <-d.lost:
		d.OnContextLost()
		return true
	default:
		return false
	}
}

// OnContextLost drops every GPU object reference without talking to the device,
// whose context is already gone, and returns to Uninitialized. A new BuildProgram
// is required before stepping again.
func (d *Driver) OnContextLost() {
	if d.state == StateDisposed {
		return
	}
	update, render := d.binder.Tracked()
	d.logger.Infof("context lost: dropping program %d, %d update and %d render bindings", d.program, update, render)

	d.program = 0
	d.programs = make(map[string]ProgramHandle)
	d.slotBuffers = [SlotCount]BufferHandle{}
	d.binder.Drop()
	d.state = StateUninitialized
}

// ReleaseBindings releases every tracked binding object on the device and empties
// the tracking lists. Calling it again is a no-op.
func (d *Driver) ReleaseBindings() {
	d.processSignals()
	if d.state == StateDisposed {
		return
	}
	d.binder.Release()
}

// Dispose releases bindings and programs and stops listening for context loss. The
// driver is unusable afterwards.
func (d *Driver) Dispose() {
	d.processSignals()
	if d.state == StateDisposed {
		return
	}
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.binder.Release()
	for key, p := range d.programs {
		d.device.ReleaseProgram(p)
		delete(d.programs, key)
	}
	d.program = 0
	d.slotBuffers = [SlotCount]BufferHandle{}
	d.state = StateDisposed
}
