package gpuparticles

import "fmt"

// SlotCount is the number of ping-pong buffer slots.
const SlotCount = 2

// Binder owns the binding objects that connect packed particle buffers to program
// inputs: one update-binding and one render-binding per ping-pong slot.
type Binder struct {
	device Device
	logger Logger

	update [SlotCount]BindingHandle
	render [SlotCount]BindingHandle

	// raw render inputs per slot, used by the indexed draw path
	renderInputs [SlotCount]map[string]VertexInput
}

func NewBinder(device Device, logger Logger) *Binder {
	return &Binder{device: device, logger: orNop(logger)}
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= SlotCount {
		return fmt.Errorf("slot %d: %w", slot, ErrInvalidSlot)
	}
	return nil
}

// UpdateVertexInputs maps every attribute of schema onto a strided view of source.
func UpdateVertexInputs(source BufferHandle, schema AttributeSchema) map[string]VertexInput {
	stride := schema.Stride()
	inputs := make(map[string]VertexInput, schema.Len())
	for _, a := range schema.attrs {
		inputs[a.Name] = VertexInput{
			Buffer:     source,
			Components: a.Components,
			Offset:     a.Offset,
			Stride:     stride,
		}
	}
	return inputs
}

// CreateUpdateBinding records a binding object reading the particle records of
// source into the update program inputs. No buffer stays bound on return.
func (b *Binder) CreateUpdateBinding(source BufferHandle, schema AttributeSchema, program ProgramHandle) (BindingHandle, error) {
	inputs := UpdateVertexInputs(source, schema)
	h, err := b.device.CreateBindingObject(inputs, NoBuffer, program)
	b.device.BindArrayBuffer(NoBuffer)
	if err != nil {
		return 0, fmt.Errorf("create update binding: %w", err)
	}
	b.logger.Debugf("update binding %d: %d attributes, stride %d", h, schema.Len(), schema.Stride())
	return h, nil
}

// CreateRenderBinding records a binding object for an attribute map owned by the
// render pass. No buffer stays bound on return.
func (b *Binder) CreateRenderBinding(inputs map[string]VertexInput, program ProgramHandle) (BindingHandle, error) {
	h, err := b.device.CreateBindingObject(inputs, NoBuffer, program)
	b.device.BindArrayBuffer(NoBuffer)
	if err != nil {
		return 0, fmt.Errorf("create render binding: %w", err)
	}
	b.logger.Debugf("render binding %d: %d inputs", h, len(inputs))
	return h, nil
}

// SetUpdateBinding stores h as the update-binding of slot.
func (b *Binder) SetUpdateBinding(slot int, h BindingHandle) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	b.update[slot] = h
	return nil
}

// SetRenderBinding stores h and its source inputs as the render-binding of slot.
func (b *Binder) SetRenderBinding(slot int, h BindingHandle, inputs map[string]VertexInput) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	b.render[slot] = h
	b.renderInputs[slot] = inputs
	return nil
}

// UpdateBinding returns the update-binding of slot, if created.
func (b *Binder) UpdateBinding(slot int) (BindingHandle, bool) {
	if checkSlot(slot) != nil || b.update[slot] == 0 {
		return 0, false
	}
	return b.update[slot], true
}

// RenderBinding returns the render-binding of slot, if created.
func (b *Binder) RenderBinding(slot int) (BindingHandle, bool) {
	if checkSlot(slot) != nil || b.render[slot] == 0 {
		return 0, false
	}
	return b.render[slot], true
}

// Tracked returns the number of live binding objects.
func (b *Binder) Tracked() (update, render int) {
	for i := 0; i < SlotCount; i++ {
		if b.update[i] != 0 {
			update++
		}
		if b.render[i] != 0 {
			render++
		}
	}
	return update, render
}

// BindDrawBuffers prepares the render pass for slot. With an index buffer the raw
// render inputs are bound directly, otherwise the recorded render-binding is used.
func (b *Binder) BindDrawBuffers(slot int, program ProgramHandle, indexBuffer BufferHandle) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if indexBuffer != NoBuffer {
		if b.renderInputs[slot] == nil {
			return fmt.Errorf("bind draw buffers for slot %d: %w", slot, ErrNoSlotBuffer)
		}
		b.device.BindVertexInputs(b.renderInputs[slot], indexBuffer, program)
		return nil
	}
	h, ok := b.RenderBinding(slot)
	if !ok {
		return fmt.Errorf("bind draw buffers for slot %d: %w", slot, ErrNoSlotBuffer)
	}
	b.device.BindBindingObject(h)
	return nil
}

// Release issues a device release for every tracked binding object and forgets
// them. Safe to call with nothing tracked.
func (b *Binder) Release() {
	for i := 0; i < SlotCount; i++ {
		if b.update[i] != 0 {
			b.device.ReleaseBindingObject(b.update[i])
		}
		if b.render[i] != 0 {
			b.device.ReleaseBindingObject(b.render[i])
		}
	}
	b.Drop()
}

// Drop forgets every binding without device calls. Used when the context is gone.
func (b *Binder) Drop() {
	b.update = [SlotCount]BindingHandle{}
	b.render = [SlotCount]BindingHandle{}
	b.renderInputs = [SlotCount]map[string]VertexInput{}
}
