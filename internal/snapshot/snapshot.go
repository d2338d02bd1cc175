// Package snapshot encodes the cell set and palette in a compact binary
// format and exports triangle meshes.
//
// Layout, little-endian:
//
//	int32      magic (0x60793B5D)
//	int32      version (1)
//	float32[3] bounding box min
//	float32[3] bounding box max
//	int32      type count
//	  int32    type
//	  int32    cell count
//	  float32[3] position, per cell
//	int32      palette size
//	  float32[3] rgb, per entry
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"voro-editor/pkg/colorutil"

	"golang.org/x/image/math/f32"
)

const (
	Magic   uint32 = 0x60793B5D
	Version int32  = 1
)

// Extension is the snapshot file suffix.
const Extension = ".voro"

var (
	ErrBadMagic           = errors.New("snapshot: bad magic")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	ErrTruncated          = errors.New("snapshot: truncated")
	ErrCorrupt            = errors.New("snapshot: corrupt")
)

// Cell is one stored cell. Ids are not part of the format.
type Cell struct {
	Pos  f32.Vec3
	Type int
}

// Snapshot is the decoded content of a file.
type Snapshot struct {
	Min, Max f32.Vec3
	Cells    []Cell
	Palette  []colorutil.RGB
}

// Encode serializes s. Cells are grouped by type in ascending order; within
// a type they keep their input order.
func Encode(s Snapshot) []byte {
	groups := make(map[int][]f32.Vec3)
	for _, c := range s.Cells {
		groups[c.Type] = append(groups[c.Type], c.Pos)
	}
	types := make([]int, 0, len(groups))
	for t := range groups {
		types = append(types, t)
	}
	slices.Sort(types)

	size := 4*2 + 12*2 + 4 + len(types)*8 + len(s.Cells)*12 + 4 + len(s.Palette)*12
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, Magic)
	buf = appendInt32(buf, Version)
	buf = appendVec(buf, s.Min)
	buf = appendVec(buf, s.Max)
	buf = appendInt32(buf, int32(len(types)))
	for _, t := range types {
		buf = appendInt32(buf, int32(t))
		buf = appendInt32(buf, int32(len(groups[t])))
		for _, p := range groups[t] {
			buf = appendVec(buf, p)
		}
	}
	buf = appendInt32(buf, int32(len(s.Palette)))
	for _, c := range s.Palette {
		buf = appendVec(buf, c)
	}
	return buf
}

// Decode parses and fully validates data. Nothing is returned unless the
// whole buffer is well formed.
func Decode(data []byte) (Snapshot, error) {
	r := reader{data: data}
	magic, err := r.uint32()
	if err != nil {
		return Snapshot{}, err
	}
	if magic != Magic {
		return Snapshot{}, fmt.Errorf("%w: %#x", ErrBadMagic, magic)
	}
	version, err := r.int32()
	if err != nil {
		return Snapshot{}, err
	}
	if version != Version {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var s Snapshot
	if s.Min, err = r.vec(); err != nil {
		return Snapshot{}, err
	}
	if s.Max, err = r.vec(); err != nil {
		return Snapshot{}, err
	}
	for i := 0; i < 3; i++ {
		if !finite(s.Min[i]) || !finite(s.Max[i]) || s.Min[i] >= s.Max[i] {
			return Snapshot{}, fmt.Errorf("%w: bounding box %v %v", ErrCorrupt, s.Min, s.Max)
		}
	}

	typeCount, err := r.count(8)
	if err != nil {
		return Snapshot{}, fmt.Errorf("type count: %w", err)
	}
	for i := 0; i < typeCount; i++ {
		typ, err := r.int32()
		if err != nil {
			return Snapshot{}, err
		}
		if typ < 0 {
			return Snapshot{}, fmt.Errorf("%w: negative type %d", ErrCorrupt, typ)
		}
		n, err := r.count(12)
		if err != nil {
			return Snapshot{}, fmt.Errorf("type %d cell count: %w", typ, err)
		}
		for j := 0; j < n; j++ {
			p, err := r.vec()
			if err != nil {
				return Snapshot{}, err
			}
			s.Cells = append(s.Cells, Cell{Pos: p, Type: int(typ)})
		}
	}

	paletteSize, err := r.count(12)
	if err != nil {
		return Snapshot{}, fmt.Errorf("palette size: %w", err)
	}
	for i := 0; i < paletteSize; i++ {
		c, err := r.vec()
		if err != nil {
			return Snapshot{}, err
		}
		s.Palette = append(s.Palette, c)
	}
	return s, nil
}

// CountsByType returns the number of cells of each type.
func (s Snapshot) CountsByType() map[int]int {
	out := make(map[int]int)
	for _, c := range s.Cells {
		out[c.Type]++
	}
	return out
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.data)-r.off < n {
		return nil, fmt.Errorf("%w at offset %d", ErrTruncated, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

func (r *reader) float32() (float32, error) {
	v, err := r.uint32()
	return math.Float32frombits(v), err
}

func (r *reader) vec() (f32.Vec3, error) {
	var v f32.Vec3
	for i := range v {
		f, err := r.float32()
		if err != nil {
			return f32.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

// count reads a non-negative element count and checks that at least
// minBytes per element remain.
func (r *reader) count(minBytes int) (int, error) {
	n, err := r.int32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative count %d", ErrCorrupt, n)
	}
	if int64(n)*int64(minBytes) > int64(len(r.data)-r.off) {
		return 0, fmt.Errorf("%w: %d elements at offset %d", ErrTruncated, n, r.off)
	}
	return int(n), nil
}

func appendInt32(b []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v))
}

func appendVec(b []byte, v f32.Vec3) []byte {
	for _, f := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
