// Package glb provides the binary glTF (GLB) container parser and the
// little-endian byte readers used to decode its binary payload.
package glb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// GLB container constants. All header fields are little-endian u32.
const (
	Magic         uint32 = 0x46546C67 // "glTF"
	ChunkTypeJSON uint32 = 0x4E4F534A // "JSON"
	ChunkTypeBIN  uint32 = 0x004E4942 // "BIN\0"

	HeaderSize      = 12
	ChunkHeaderSize = 8

	// MinSize is the smallest buffer accepted: header, two chunk headers
	// and at least 4 bytes of JSON.
	MinSize = 32
)

// ErrMalformedContainer is returned for any header or chunk layout violation.
var ErrMalformedContainer = errors.New("malformed GLB container")

// Container is a parsed GLB file. It is immutable once parsed.
type Container struct {
	Version uint32
	// Length is the total length declared in the header.
	Length uint32
	// JSONText is the UTF-8 payload of the JSON chunk.
	JSONText string
	// BinaryBase is the offset, within the original buffer, of the first
	// byte of the BIN chunk payload.
	BinaryBase int
	// BinaryLength is the declared length of the BIN chunk.
	BinaryLength int
}

// Parse validates the GLB header and splits the JSON and BIN chunks.
// The returned offsets refer to data; data is not copied.
func Parse(data []byte) (*Container, error) {
	if len(data) < MinSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedContainer, len(data), MinSize)
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != Magic {
		return nil, fmt.Errorf("%w: wrong magic, expected 0x%08X but got 0x%08X", ErrMalformedContainer, Magic, magic)
	}

	c := &Container{
		Version: binary.LittleEndian.Uint32(data[4:8]),
		Length:  binary.LittleEndian.Uint32(data[8:12]),
	}
	if uint64(len(data)) < uint64(c.Length) {
		return nil, fmt.Errorf("%w: declared size %d but only %d bytes available", ErrMalformedContainer, c.Length, len(data))
	}

	cursor := HeaderSize
	jsonLength := int32(binary.LittleEndian.Uint32(data[cursor:]))
	jsonType := binary.LittleEndian.Uint32(data[cursor+4:])
	cursor += ChunkHeaderSize

	if jsonLength < 0 {
		return nil, fmt.Errorf("%w: negative JSON chunk length %d", ErrMalformedContainer, jsonLength)
	}
	if jsonType != ChunkTypeJSON {
		return nil, fmt.Errorf("%w: expected a JSON chunk, got type 0x%08X", ErrMalformedContainer, jsonType)
	}
	if cursor+int(jsonLength)+ChunkHeaderSize > len(data) {
		return nil, fmt.Errorf("%w: JSON chunk of %d bytes overruns the buffer", ErrMalformedContainer, jsonLength)
	}
	c.JSONText = string(data[cursor : cursor+int(jsonLength)])
	cursor += int(jsonLength)

	binLength := int32(binary.LittleEndian.Uint32(data[cursor:]))
	binType := binary.LittleEndian.Uint32(data[cursor+4:])
	cursor += ChunkHeaderSize

	if binType != ChunkTypeBIN {
		return nil, fmt.Errorf("%w: expected a binary chunk, got type 0x%08X", ErrMalformedContainer, binType)
	}
	if binLength < 0 {
		return nil, fmt.Errorf("%w: negative binary chunk length %d", ErrMalformedContainer, binLength)
	}
	if cursor+int(binLength) > len(data) {
		return nil, fmt.Errorf("%w: binary chunk of %d bytes overruns the buffer", ErrMalformedContainer, binLength)
	}

	c.BinaryBase = cursor
	c.BinaryLength = int(binLength)
	return c, nil
}

// ParseFile reads and parses a GLB file from disk.
func ParseFile(path string) (*Container, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading GLB file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return c, data, nil
}

// Encode builds a GLB buffer from a JSON document and a binary payload.
// Both chunks are padded to 4 bytes (JSON with spaces, BIN with zeros).
func Encode(jsonText []byte, bin []byte) []byte {
	jsonPadded := pad4(jsonText, ' ')
	binPadded := pad4(bin, 0)

	total := HeaderSize + ChunkHeaderSize + len(jsonPadded) + ChunkHeaderSize + len(binPadded)
	out := make([]byte, 0, total)
	out = binary.LittleEndian.AppendUint32(out, Magic)
	out = binary.LittleEndian.AppendUint32(out, 2)
	out = binary.LittleEndian.AppendUint32(out, uint32(total))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(jsonPadded)))
	out = binary.LittleEndian.AppendUint32(out, ChunkTypeJSON)
	out = append(out, jsonPadded...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(binPadded)))
	out = binary.LittleEndian.AppendUint32(out, ChunkTypeBIN)
	out = append(out, binPadded...)
	return out
}

func pad4(b []byte, fill byte) []byte {
	out := append([]byte(nil), b...)
	for len(out)%4 != 0 {
		out = append(out, fill)
	}
	return out
}
