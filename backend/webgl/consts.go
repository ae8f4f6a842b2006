//go:build js && wasm

package webgl

import "syscall/js"

// completionStatusKHR is COMPLETION_STATUS_KHR of KHR_parallel_shader_compile.
const completionStatusKHR = 0x91B1

type glConsts struct {
	arrayBuffer              int
	elementArrayBuffer       int
	transformFeedbackBuffer  int
	transformFeedback        int
	dynamicCopy              int
	floatType                int
	unsignedByte             int
	points                   int
	triangleStrip            int
	texture2D                int
	texture0                 int
	rgba                     int
	rgba8                    int
	rgba32f                  int
	red                      int
	r32f                     int
	textureMinFilter         int
	textureMagFilter         int
	textureWrapS             int
	textureWrapT             int
	linear                   int
	nearest                  int
	repeat                   int
	clampToEdge              int
	unpackAlignment          int
	rasterizerDiscard        int
	interleavedAttribs       int
	compileStatus            int
	linkStatus               int
	vertexShader             int
	fragmentShader           int
	maxVertexAttribs         int
	maxTextureSize           int
	maxInterleavedComponents int
	colorBufferBit           int
	depthBufferBit           int
	blend                    int
	srcAlpha                 int
	one                      int
	oneMinusSrcAlpha         int
}

func loadConsts(gl js.Value) glConsts {
	return glConsts{
		arrayBuffer:              gl.Get("ARRAY_BUFFER").Int(),
		elementArrayBuffer:       gl.Get("ELEMENT_ARRAY_BUFFER").Int(),
		transformFeedbackBuffer:  gl.Get("TRANSFORM_FEEDBACK_BUFFER").Int(),
		transformFeedback:        gl.Get("TRANSFORM_FEEDBACK").Int(),
		dynamicCopy:              gl.Get("DYNAMIC_COPY").Int(),
		floatType:                gl.Get("FLOAT").Int(),
		unsignedByte:             gl.Get("UNSIGNED_BYTE").Int(),
		points:                   gl.Get("POINTS").Int(),
		triangleStrip:            gl.Get("TRIANGLE_STRIP").Int(),
		texture2D:                gl.Get("TEXTURE_2D").Int(),
		texture0:                 gl.Get("TEXTURE0").Int(),
		rgba:                     gl.Get("RGBA").Int(),
		rgba8:                    gl.Get("RGBA8").Int(),
		rgba32f:                  gl.Get("RGBA32F").Int(),
		red:                      gl.Get("RED").Int(),
		r32f:                     gl.Get("R32F").Int(),
		textureMinFilter:         gl.Get("TEXTURE_MIN_FILTER").Int(),
		textureMagFilter:         gl.Get("TEXTURE_MAG_FILTER").Int(),
		textureWrapS:             gl.Get("TEXTURE_WRAP_S").Int(),
		textureWrapT:             gl.Get("TEXTURE_WRAP_T").Int(),
		linear:                   gl.Get("LINEAR").Int(),
		nearest:                  gl.Get("NEAREST").Int(),
		repeat:                   gl.Get("REPEAT").Int(),
		clampToEdge:              gl.Get("CLAMP_TO_EDGE").Int(),
		unpackAlignment:          gl.Get("UNPACK_ALIGNMENT").Int(),
		rasterizerDiscard:        gl.Get("RASTERIZER_DISCARD").Int(),
		interleavedAttribs:       gl.Get("INTERLEAVED_ATTRIBS").Int(),
		compileStatus:            gl.Get("COMPILE_STATUS").Int(),
		linkStatus:               gl.Get("LINK_STATUS").Int(),
		vertexShader:             gl.Get("VERTEX_SHADER").Int(),
		fragmentShader:           gl.Get("FRAGMENT_SHADER").Int(),
		maxVertexAttribs:         gl.Get("MAX_VERTEX_ATTRIBS").Int(),
		maxTextureSize:           gl.Get("MAX_TEXTURE_SIZE").Int(),
		maxInterleavedComponents: gl.Get("MAX_TRANSFORM_FEEDBACK_INTERLEAVED_COMPONENTS").Int(),
		colorBufferBit:           gl.Get("COLOR_BUFFER_BIT").Int(),
		depthBufferBit:           gl.Get("DEPTH_BUFFER_BIT").Int(),
		blend:                    gl.Get("BLEND").Int(),
		srcAlpha:                 gl.Get("SRC_ALPHA").Int(),
		one:                      gl.Get("ONE").Int(),
		oneMinusSrcAlpha:         gl.Get("ONE_MINUS_SRC_ALPHA").Int(),
	}
}
