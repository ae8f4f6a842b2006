package shaders

import (
	_ "embed"
	"strings"
)

//go:embed update.vertex.glsl
var UpdateVertexGLSL string

//go:embed update.fragment.glsl
var UpdateFragmentGLSL string

//go:embed render.vertex.glsl
var RenderVertexGLSL string

//go:embed render.fragment.glsl
var RenderFragmentGLSL string

// Version headers of the two GLSL dialects the backends compile.
const (
	DesktopHeader = "#version 330 core\n"
	ESHeader      = "#version 300 es\nprecision highp float;\nprecision highp int;\nprecision highp sampler2D;\n"
)

// Program names with embedded sources.
const (
	UpdateProgram = "gpuUpdateParticles"
	RenderProgram = "gpuRenderParticles"
)

// Sources returns the vertex and fragment body of a named program.
func Sources(name string) (vertex, fragment string, ok bool) {
	switch name {
	case UpdateProgram:
		return UpdateVertexGLSL, UpdateFragmentGLSL, true
	case RenderProgram:
		return RenderVertexGLSL, RenderFragmentGLSL, true
	default:
		return "", "", false
	}
}

// Compose prepends header and defines to body. The header must stay the first line
// of the result.
func Compose(header, defines, body string) string {
	var sb strings.Builder
	sb.Grow(len(header) + len(defines) + len(body) + 1)
	sb.WriteString(header)
	sb.WriteString(defines)
	if defines != "" && !strings.HasSuffix(defines, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString(body)
	return sb.String()
}
