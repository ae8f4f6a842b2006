package gpuparticles

import "github.com/go-gl/mathgl/mgl32"

// UniformWriter sets uniforms of one program. It is returned by
// Driver.BuildProgram and stays valid until the program is dropped.
type UniformWriter struct {
	device  Device
	program ProgramHandle
}

// Program returns the program the writer targets.
func (w *UniformWriter) Program() ProgramHandle { return w.program }

func (w *UniformWriter) SetFloat(name string, v float32) {
	w.device.SetUniform(w.program, name, v)
}

func (w *UniformWriter) SetFloat2(name string, x, y float32) {
	w.device.SetUniform(w.program, name, x, y)
}

func (w *UniformWriter) SetFloat4(name string, x, y, z, a float32) {
	w.device.SetUniform(w.program, name, x, y, z, a)
}

func (w *UniformWriter) SetVec3(name string, v mgl32.Vec3) {
	w.device.SetUniform(w.program, name, v[0], v[1], v[2])
}

func (w *UniformWriter) SetVec4(name string, v mgl32.Vec4) {
	w.device.SetUniform(w.program, name, v[0], v[1], v[2], v[3])
}

// SetMatrix writes a column-major 4x4 matrix.
func (w *UniformWriter) SetMatrix(name string, m mgl32.Mat4) {
	w.device.SetUniform(w.program, name, m[:]...)
}
