//go:build js && wasm

package webgl

import (
	"syscall/js"
	"testing"
)

var mockConstNames = []string{
	"ARRAY_BUFFER", "BLEND", "CLAMP_TO_EDGE", "COLOR_BUFFER_BIT", "COMPILE_STATUS",
	"DEPTH_BUFFER_BIT", "DYNAMIC_COPY", "ELEMENT_ARRAY_BUFFER", "FLOAT", "FRAGMENT_SHADER",
	"INTERLEAVED_ATTRIBS", "LINEAR", "LINK_STATUS", "MAX_TEXTURE_SIZE",
	"MAX_TRANSFORM_FEEDBACK_INTERLEAVED_COMPONENTS", "MAX_VERTEX_ATTRIBS", "NEAREST", "ONE",
	"ONE_MINUS_SRC_ALPHA", "POINTS", "R32F", "RASTERIZER_DISCARD", "RED", "REPEAT", "RGBA",
	"RGBA32F", "RGBA8", "SRC_ALPHA", "TEXTURE0", "TEXTURE_2D", "TEXTURE_MAG_FILTER",
	"TEXTURE_MIN_FILTER", "TEXTURE_WRAP_S", "TEXTURE_WRAP_T", "TRANSFORM_FEEDBACK",
	"TRANSFORM_FEEDBACK_BUFFER", "TRIANGLE_STRIP", "UNPACK_ALIGNMENT", "UNSIGNED_BYTE",
	"VERTEX_SHADER", "VERSION",
}

// mockGL is a WebGL2 context in JS that records method names. On a lost context it
// answers the way browsers do: create calls and queries return null, locations -1,
// and COMPLETION_STATUS_KHR reports true.
type mockGL struct {
	gl        js.Value
	canvas    js.Value
	consts    map[string]int
	calls     []string
	attribs   map[string]int
	listeners map[string]js.Value
	funcs     []js.Func

	lost     bool
	parallel bool
	complete bool
	linkOK   bool
}

func newMockGL(t *testing.T, parallel bool) *mockGL {
	t.Helper()
	object := js.Global().Get("Object")
	m := &mockGL{
		gl:        object.New(),
		canvas:    object.New(),
		consts:    make(map[string]int),
		attribs:   make(map[string]int),
		listeners: make(map[string]js.Value),
		parallel:  parallel,
		linkOK:    true,
	}
	t.Cleanup(func() {
		for _, f := range m.funcs {
			f.Release()
		}
	})
	for i, name := range mockConstNames {
		m.consts[name] = i + 1
		m.gl.Set(name, i+1)
	}

	m.canvasMethod("getContext", func(args []js.Value) any { return m.gl })
	m.canvasMethod("addEventListener", func(args []js.Value) any {
		m.listeners[args[0].String()] = args[1]
		return nil
	})
	m.canvasMethod("removeEventListener", func(args []js.Value) any {
		delete(m.listeners, args[0].String())
		return nil
	})

	for _, name := range []string{
		"createBuffer", "createTexture", "createShader", "createProgram",
		"createTransformFeedback", "createVertexArray", "getUniformLocation",
	} {
		m.method(name, func(args []js.Value) any { return m.object() })
	}
	m.method("getExtension", func(args []js.Value) any {
		switch {
		case m.lost:
			return js.Null()
		case args[0].String() == "KHR_parallel_shader_compile" && !m.parallel:
			return js.Null()
		default:
			return js.Global().Get("Object").New()
		}
	})
	m.method("getParameter", func(args []js.Value) any {
		if m.lost || args[0].Type() != js.TypeNumber {
			return js.Null()
		}
		switch args[0].Int() {
		case m.consts["VERSION"]:
			return "WebGL 2.0 (mock)"
		case m.consts["MAX_TEXTURE_SIZE"]:
			return 64
		case m.consts["MAX_VERTEX_ATTRIBS"]:
			return 16
		default:
			return 64
		}
	})
	m.method("getProgramParameter", func(args []js.Value) any {
		pname := args[1].Int()
		switch {
		case pname == completionStatusKHR:
			return m.lost || m.complete
		case m.lost:
			return js.Null()
		case pname == m.consts["LINK_STATUS"]:
			return m.linkOK
		default:
			return js.Null()
		}
	})
	m.method("getProgramInfoLog", func(args []js.Value) any {
		if m.lost {
			return js.Null()
		}
		return "mock link failure"
	})
	m.method("getAttribLocation", func(args []js.Value) any {
		if m.lost {
			return -1
		}
		name := args[1].String()
		if _, ok := m.attribs[name]; !ok {
			m.attribs[name] = len(m.attribs)
		}
		return m.attribs[name]
	})

	for _, name := range []string{
		"activeTexture", "attachShader", "beginTransformFeedback", "bindBuffer", "bindBufferBase",
		"bindTexture", "bindTransformFeedback", "bindVertexArray", "blendFunc", "bufferData",
		"clear", "clearColor", "compileShader", "deleteBuffer", "deleteProgram", "deleteShader",
		"deleteTexture", "deleteTransformFeedback", "deleteVertexArray", "disable",
		"disableVertexAttribArray", "drawArrays", "drawArraysInstanced", "enable",
		"enableVertexAttribArray", "endTransformFeedback", "linkProgram", "pixelStorei",
		"shaderSource", "texImage2D", "texParameteri", "transformFeedbackVaryings", "uniform1f",
		"uniform1i", "uniform2f", "uniform3f", "uniform4f", "uniformMatrix4fv", "useProgram",
		"vertexAttribDivisor", "vertexAttribPointer", "viewport",
	} {
		m.method(name, func(args []js.Value) any { return nil })
	}
	return m
}

// object returns a fresh JS object, or null on a lost context.
func (m *mockGL) object() any {
	if m.lost {
		return js.Null()
	}
	return js.Global().Get("Object").New()
}

func (m *mockGL) method(name string, fn func(args []js.Value) any) {
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		call := name
		switch name {
		case "bindBufferBase", "bindTransformFeedback":
			if len(args) > 0 && args[len(args)-1].IsNull() {
				call += ":null"
			}
		}
		m.calls = append(m.calls, call)
		return fn(args)
	})
	m.funcs = append(m.funcs, f)
	m.gl.Set(name, f)
}

func (m *mockGL) canvasMethod(name string, fn func(args []js.Value) any) {
	f := js.FuncOf(func(this js.Value, args []js.Value) any { return fn(args) })
	m.funcs = append(m.funcs, f)
	m.canvas.Set(name, f)
}

func (m *mockGL) fire(event string) {
	listener, ok := m.listeners[event]
	if !ok {
		return
	}
	ev := js.Global().Get("Object").New()
	prevent := js.FuncOf(func(this js.Value, args []js.Value) any { return nil })
	defer prevent.Release()
	ev.Set("preventDefault", prevent)
	listener.Invoke(ev)
}

func (m *mockGL) loseContext() {
	m.lost = true
	m.fire("webglcontextlost")
}

func (m *mockGL) restoreContext() {
	m.lost = false
	m.fire("webglcontextrestored")
}

func (m *mockGL) count(call string) int {
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}
