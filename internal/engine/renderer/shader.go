package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

const surfaceVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aUV;

uniform mat4 uMVP;
uniform mat4 uModel;

out vec3 vWorldPos;
out vec2 vUV;

void main() {
	vec4 world = uModel * vec4(aPos, 1.0);
	vWorldPos = world.xyz;
	vUV = aUV;
	gl_Position = uMVP * vec4(aPos, 1.0);
}
`

// Flat shading from screen-space derivatives; surfaces carry no normals.
// The texture is premultiplied and drawn over the material color. Painted
// composites store v=1 in the top row and are sampled flipped; model
// textures follow the glTF top-left origin.
const surfaceFragmentShader = `
#version 410 core

in vec3 vWorldPos;
in vec2 vUV;

uniform vec4 uColor;
uniform bool uUseTexture;
uniform bool uFlipV;
uniform bool uLit;
uniform sampler2D uTexture;
uniform vec3 uLightDir;
uniform vec3 uFillDir;

out vec4 FragColor;

void main() {
	vec3 base = uColor.rgb;
	if (uUseTexture) {
		vec2 uv = uFlipV ? vec2(vUV.x, 1.0 - vUV.y) : vUV;
		vec4 tex = texture(uTexture, uv);
		base = tex.rgb + base * (1.0 - tex.a);
	}

	vec3 shade = base;
	if (uLit) {
		vec3 n = normalize(cross(dFdx(vWorldPos), dFdy(vWorldPos)));
		float key = abs(dot(n, normalize(uLightDir)));
		float fill = abs(dot(n, normalize(uFillDir)));
		shade = base * min(0.7 + key + 0.7 * fill, 1.6) / 1.6;
	}
	FragColor = vec4(shade, uColor.a);
}
`

// compileProgram compiles vertex and fragment shaders and links them.
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vert)

	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(frag)

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile: %s", string(log))
	}
	return shader, nil
}

func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
