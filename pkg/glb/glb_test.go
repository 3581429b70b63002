package glb

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// makeGLB assembles a GLB with explicit chunk types and no padding.
func makeGLB(jsonText string, jsonType, binType uint32, bin []byte) []byte {
	total := HeaderSize + ChunkHeaderSize + len(jsonText) + ChunkHeaderSize + len(bin)
	buf := make([]byte, 0, total)
	buf = binary.LittleEndian.AppendUint32(buf, Magic)
	buf = binary.LittleEndian.AppendUint32(buf, 2)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(total))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(jsonText)))
	buf = binary.LittleEndian.AppendUint32(buf, jsonType)
	buf = append(buf, jsonText...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(bin)))
	buf = binary.LittleEndian.AppendUint32(buf, binType)
	buf = append(buf, bin...)
	return buf
}

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		json string
		bin  []byte
	}{
		{"minimal", `{"asset":{"version":"2.0"}}`, []byte{1, 2, 3, 4}},
		{"empty bin", `{"asset":{"version":"2.0"},"nodes":[{}]}`, nil},
		{"odd json length", `{"a":1}   `, make([]byte, 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := makeGLB(tt.json, ChunkTypeJSON, ChunkTypeBIN, tt.bin)
			c, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if c.JSONText != tt.json {
				t.Errorf("JSONText = %q, want %q", c.JSONText, tt.json)
			}
			want := 12 + 8 + len(tt.json) + 8
			if c.BinaryBase != want {
				t.Errorf("BinaryBase = %d, want %d", c.BinaryBase, want)
			}
			if c.BinaryLength != len(tt.bin) {
				t.Errorf("BinaryLength = %d, want %d", c.BinaryLength, len(tt.bin))
			}
		})
	}
}

func TestParse_Encode(t *testing.T) {
	data := Encode([]byte(`{"x":1}`), []byte{9, 9})
	if len(data)%4 != 0 {
		t.Errorf("encoded length %d is not 4-byte aligned", len(data))
	}
	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.JSONText != `{"x":1} ` {
		t.Errorf("JSONText = %q", c.JSONText)
	}
	if data[c.BinaryBase] != 9 || data[c.BinaryBase+1] != 9 {
		t.Errorf("binary payload not found at BinaryBase %d", c.BinaryBase)
	}
}

func TestParse_Malformed(t *testing.T) {
	valid := makeGLB(`{"asset":{"version":"2.0"}}`, ChunkTypeJSON, ChunkTypeBIN, []byte{0, 0, 0, 0})

	badMagic := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badMagic, 0xDEADBEEF)

	oversized := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(oversized[8:], uint32(len(valid)+1))

	binOverrun := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(binOverrun[len(valid)-12:], 64)

	negative := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(negative[12:], 0xFFFFFFF0)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too short", valid[:31]},
		{"bad magic", badMagic},
		{"declared size too large", oversized},
		{"negative json length", negative},
		{"binary chunk overruns", binOverrun},
		{"first chunk not json", makeGLB(`{"asset":{"version":"2.0"}}`, ChunkTypeBIN, ChunkTypeBIN, nil)},
		{"second chunk not bin", makeGLB(`{"asset":{"version":"2.0"}}`, ChunkTypeJSON, ChunkTypeJSON, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedContainer) {
				t.Errorf("error %v is not ErrMalformedContainer", err)
			}
		})
	}
}

func TestReaders_Packed(t *testing.T) {
	var buf []byte
	for _, f := range []float32{1.5, -2, 3.25} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}

	floats, err := Float32s(buf, 0, 3)
	if err != nil {
		t.Fatalf("Float32s: %v", err)
	}
	if floats[0] != 1.5 || floats[1] != -2 || floats[2] != 3.25 {
		t.Errorf("Float32s = %v", floats)
	}

	u16, err := Uint16s([]byte{1, 0, 0xFF, 0xFF}, 0, 2)
	if err != nil {
		t.Fatalf("Uint16s: %v", err)
	}
	if u16[0] != 1 || u16[1] != 0xFFFF {
		t.Errorf("Uint16s = %v", u16)
	}

	u32, err := Uint32s([]byte{0, 0, 1, 0, 7, 0, 0, 0}, 0, 2)
	if err != nil {
		t.Fatalf("Uint32s: %v", err)
	}
	if u32[0] != 0x10000 || u32[1] != 7 {
		t.Errorf("Uint32s = %v", u32)
	}

	if _, err := Uint32s(buf, 8, 2); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestReaders_Strided(t *testing.T) {
	// Two VEC3 elements with 4 bytes of padding each (stride 16).
	var buf []byte
	for _, f := range []float32{1, 2, 3, 99, 4, 5, 6, 99} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}

	got, err := StridedFloat32s(buf, 0, 2, 3, 16)
	if err != nil {
		t.Fatalf("StridedFloat32s: %v", err)
	}
	want := []float32{1, 2, 3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("StridedFloat32s = %v, want %v", got, want)
		}
	}

	// The last element does not need the trailing padding.
	if _, err := StridedFloat32s(buf[:28], 0, 2, 3, 16); err != nil {
		t.Errorf("unexpected error without trailing padding: %v", err)
	}
	if _, err := StridedFloat32s(buf[:24], 0, 2, 3, 16); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}

	shorts, err := StridedUint16s([]byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0}, 0, 3, 4)
	if err != nil {
		t.Fatalf("StridedUint16s: %v", err)
	}
	if shorts[0] != 1 || shorts[1] != 2 || shorts[2] != 3 {
		t.Errorf("StridedUint16s = %v", shorts)
	}

	ints, err := StridedUint32s([]byte{5, 0, 0, 0, 0, 0, 0, 0, 6, 0, 0, 0}, 0, 2, 8)
	if err != nil {
		t.Fatalf("StridedUint32s: %v", err)
	}
	if ints[0] != 5 || ints[1] != 6 {
		t.Errorf("StridedUint32s = %v", ints)
	}
}
