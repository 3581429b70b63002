package gltfdoc

import "github.com/Faultbox/glbloader/pkg/math"

// OptInt returns field key as an int, or def.
func (v Value) OptInt(key string, def int) int {
	f, ok := v.Lookup(key, Number)
	if !ok {
		return def
	}
	return f.Int()
}

// OptFloat returns field key as a float32, or def.
func (v Value) OptFloat(key string, def float32) float32 {
	f, ok := v.Lookup(key, Number)
	if !ok {
		return def
	}
	return float32(f.n)
}

// OptString returns field key as a string, or def.
func (v Value) OptString(key string, def string) string {
	f, ok := v.Lookup(key, String)
	if !ok {
		return def
	}
	return f.s
}

// OptBool returns field key as a bool, or def.
func (v Value) OptBool(key string, def bool) bool {
	f, ok := v.Lookup(key, Bool)
	if !ok {
		return def
	}
	return f.b
}

// OptObject returns field key when it is an Object.
func (v Value) OptObject(key string) (Value, bool) {
	return v.Lookup(key, Object)
}

// OptArray returns field key when it is an Array.
func (v Value) OptArray(key string) (Value, bool) {
	return v.Lookup(key, Array)
}

// optFloats returns the first n numbers of field key when the field is an
// Array of at least n elements that are all numbers.
func (v Value) optFloats(key string, n int) ([]float32, bool) {
	list, ok := v.Lookup(key, Array)
	if !ok || len(list.arr) < n || !list.IsNumberList() {
		return nil, false
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(list.arr[i].n)
	}
	return out, true
}

// OptVec2 returns field key as a 2-vector, or def.
func (v Value) OptVec2(key string, def [2]float32) [2]float32 {
	f, ok := v.optFloats(key, 2)
	if !ok {
		return def
	}
	return [2]float32{f[0], f[1]}
}

// OptVec3 returns field key as a Vec3, or def.
func (v Value) OptVec3(key string, def math.Vec3) math.Vec3 {
	f, ok := v.optFloats(key, 3)
	if !ok {
		return def
	}
	return math.Vec3{X: f[0], Y: f[1], Z: f[2]}
}

// OptVec4 returns field key as a 4-vector (RGBA colors), or def.
func (v Value) OptVec4(key string, def [4]float32) [4]float32 {
	f, ok := v.optFloats(key, 4)
	if !ok {
		return def
	}
	return [4]float32{f[0], f[1], f[2], f[3]}
}

// OptQuat returns field key as an XYZW quaternion, or def.
func (v Value) OptQuat(key string, def math.Quat) math.Quat {
	f, ok := v.optFloats(key, 4)
	if !ok {
		return def
	}
	return math.Quat{X: f[0], Y: f[1], Z: f[2], W: f[3]}
}

// OptMat4 returns field key as a column-major 4x4 matrix, or def.
func (v Value) OptMat4(key string, def math.Mat4) math.Mat4 {
	f, ok := v.optFloats(key, 16)
	if !ok {
		return def
	}
	var m math.Mat4
	copy(m[:], f)
	return m
}

// OptIntList returns field key as a list of ints. Elements that are not
// numbers become -1 so positions are preserved.
func (v Value) OptIntList(key string) []int {
	list, ok := v.Lookup(key, Array)
	if !ok {
		return nil
	}
	out := make([]int, len(list.arr))
	for i, item := range list.arr {
		if item.kind != Number {
			out[i] = -1
			continue
		}
		out[i] = item.Int()
	}
	return out
}

// IsNumberList reports whether v is an Array whose elements are all numbers.
func (v Value) IsNumberList() bool {
	return v.IsListOf(Number)
}

// IsListOf reports whether v is an Array whose elements all have kind k.
// An empty array qualifies.
func (v Value) IsListOf(k Kind) bool {
	if v.kind != Array {
		return false
	}
	for _, item := range v.arr {
		if item.kind != k {
			return false
		}
	}
	return true
}

// FieldSpec is a required key and the kind it must hold.
type FieldSpec struct {
	Key  string
	Kind Kind
}

// HasFields reports whether every field is present with the expected kind.
// A single missing or mistyped field fails the whole check.
func (v Value) HasFields(fields ...FieldSpec) bool {
	if v.kind != Object {
		return false
	}
	for _, want := range fields {
		f, ok := v.obj[want.Key]
		if !ok || f.kind != want.Kind {
			return false
		}
	}
	return true
}

// HasAnyField reports whether at least one field is present with the
// expected kind.
func (v Value) HasAnyField(fields ...FieldSpec) bool {
	if v.kind != Object {
		return false
	}
	for _, want := range fields {
		if f, ok := v.obj[want.Key]; ok && f.kind == want.Kind {
			return true
		}
	}
	return false
}
