package game

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Line vertex shader: world-space polylines (roads, connections).
const lineVertSrc = `#version 410 core

layout(location = 0) in vec2 aWorldPos;
layout(location = 1) in vec4 aColor;

uniform vec2 uCamera;
uniform float uZoom;
uniform vec2 uResolution;

out vec4 vColor;

void main() {
    vec2 screenPos = (aWorldPos - uCamera) * uZoom + uResolution * 0.5;
    vec2 ndc = (screenPos / uResolution) * 2.0 - 1.0;
    ndc.y = -ndc.y;
    gl_Position = vec4(ndc, 0.0, 1.0);
    vColor = aColor;
}
` + "\x00"

const lineFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    FragColor = vColor;
}
` + "\x00"

// Sprite vertex shader: point sprites with per-vertex pos/size/color/rotation.
const spriteVertSrc = `#version 410 core

layout(location = 0) in vec2 aWorldPos;
layout(location = 1) in float aSize;
layout(location = 2) in vec4 aColor;
layout(location = 3) in float aRotation;

uniform vec2 uCamera;
uniform float uZoom;
uniform vec2 uResolution;

out vec4 vColor;
out float vRotation;

void main() {
    vec2 screenPos = (aWorldPos - uCamera) * uZoom + uResolution * 0.5;
    vec2 ndc = (screenPos / uResolution) * 2.0 - 1.0;
    ndc.y = -ndc.y;
    gl_Position = vec4(ndc, 0.0, 1.0);
    float ps = floor(aSize * uZoom + 0.5);
    gl_PointSize = max(2.0, ps);
    vColor = aColor;
    vRotation = aRotation;
}
` + "\x00"

// Car fragment shader: rotated top-down car body with outline and windshield.
// The car's nose points to -y in sprite space before rotation.
const carFragSrc = `#version 410 core

uniform float uAspect; // width / length

in vec4 vColor;
in float vRotation;
out vec4 FragColor;

void main() {
    vec2 uv = gl_PointCoord - vec2(0.5);

    float c = cos(vRotation);
    float s = sin(vRotation);
    vec2 rot = vec2(c * uv.x - s * uv.y, s * uv.x + c * uv.y);

    float halfLen = 0.46;
    float halfW = halfLen * uAspect;
    float ax = abs(rot.x);
    float ay = abs(rot.y);
    if (ax > halfW || ay > halfLen) discard;

    vec3 col = vColor.rgb;
    if (ax > halfW - 0.05 || ay > halfLen - 0.05) {
        col = vec3(0.05, 0.05, 0.06);
    } else if (rot.y > -0.26 && rot.y < -0.12) {
        col = mix(col, vec3(0.55, 0.72, 0.88), 0.8);
    } else if (rot.y > 0.22 && rot.y < 0.30) {
        col = mix(col, vec3(0.30, 0.36, 0.42), 0.7);
    }
    FragColor = vec4(col, vColor.a);
}
` + "\x00"

// Glow fragment shader: additive radial falloff for impact flashes.
// vColor.rgb should be pre-multiplied by desired brightness.
const glowFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    float dist = length(gl_PointCoord - vec2(0.5)) * 2.0;
    float falloff = clamp(1.0 - dist, 0.0, 1.0);
    falloff = falloff * falloff;
    FragColor = vec4(vColor.rgb * falloff, 1.0);
}
` + "\x00"

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(buf))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader: %s", strings.TrimRight(buf, "\x00"))
	}
	return shader, nil
}

func linkProgram(vertSrc, fragSrc string) (uint32, error) {
	vs, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(buf))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(buf, "\x00"))
	}
	return program, nil
}
