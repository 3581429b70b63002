package renderer

const vertexShader = `#version 410 core
layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoord;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;
uniform vec4 uTexST;

out vec3 vNormal;
out vec2 vTexCoord;

void main() {
    gl_Position = uProjection * uView * uModel * vec4(aPosition, 1.0);
    vNormal = mat3(transpose(inverse(uModel))) * aNormal;
    vTexCoord = aTexCoord * uTexST.xy + uTexST.zw;
}
`

const fragmentShader = `#version 410 core
in vec3 vNormal;
in vec2 vTexCoord;

uniform sampler2D uTexture;
uniform vec4 uColor;
uniform vec3 uEmission;
uniform vec3 uLightDir;
uniform float uCutoff;
uniform int uLit;

out vec4 FragColor;

void main() {
    vec4 albedo = texture(uTexture, vTexCoord) * uColor;
    if (albedo.a < uCutoff) {
        discard;
    }
    vec3 color = albedo.rgb;
    if (uLit != 0) {
        float diffuse = max(dot(normalize(vNormal), -uLightDir), 0.0);
        color *= 0.35 + 0.65 * diffuse;
    }
    FragColor = vec4(color + uEmission, albedo.a);
}
`
