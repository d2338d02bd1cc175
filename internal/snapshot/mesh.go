package snapshot

import (
	"encoding/binary"
	"math"
)

const (
	meshHeaderSize = 80
	meshRecordSize = 50
)

// MeshHeader is written at the start of exported meshes.
const MeshHeader = "voro-editor binary triangle mesh"

// EncodeTriangleMesh writes the first count triangles of a packed xyz vertex
// array as a triangle soup: an 80-byte header, a uint32 triangle count, then
// per triangle a zero normal, three vertices and a zero uint16 attribute.
func EncodeTriangleMesh(positions []float32, count int) []byte {
	count = max(0, min(count, len(positions)/9))
	buf := make([]byte, meshHeaderSize, meshHeaderSize+4+count*meshRecordSize)
	copy(buf, MeshHeader)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(count))
	for t := 0; t < count; t++ {
		for i := 0; i < 3; i++ {
			buf = binary.LittleEndian.AppendUint32(buf, 0)
		}
		for _, f := range positions[t*9 : t*9+9] {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
		buf = binary.LittleEndian.AppendUint16(buf, 0)
	}
	return buf
}

// TriangleMeshCount returns the triangle count of an exported mesh, or false
// if data is not one.
func TriangleMeshCount(data []byte) (int, bool) {
	if len(data) < meshHeaderSize+4 {
		return 0, false
	}
	n := int(binary.LittleEndian.Uint32(data[meshHeaderSize:]))
	if len(data) != meshHeaderSize+4+n*meshRecordSize {
		return 0, false
	}
	return n, true
}
