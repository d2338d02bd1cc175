package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Triangle is three vertices in counter-clockwise order.
type Triangle [3]r3.Vec

// Normal returns the unit face normal, or the zero vector for a degenerate
// triangle.
func (t Triangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// Centroid returns the average of the three vertices.
func (t Triangle) Centroid() r3.Vec {
	return r3.Scale(1.0/3.0, r3.Add(r3.Add(t[0], t[1]), t[2]))
}

// cubeCorners are the unit cube corners, indexed by bit pattern zyx.
var cubeCorners = [8]r3.Vec{
	{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1},
}

// cubeFaces lists each quad face as two outward-facing triangles.
var cubeFaces = [12][3]int{
	{0, 2, 1}, {1, 2, 3}, // -z
	{4, 5, 6}, {5, 7, 6}, // +z
	{0, 1, 4}, {1, 5, 4}, // -y
	{2, 6, 3}, {3, 6, 7}, // +y
	{0, 4, 2}, {2, 4, 6}, // -x
	{1, 3, 5}, {3, 7, 5}, // +x
}

var cubeEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// CubeTriangleCount is the number of triangles emitted by CubeTriangles.
const CubeTriangleCount = len(cubeFaces)

// CubeEdgeCount is the number of segments emitted by CubeEdges.
const CubeEdgeCount = len(cubeEdges)

// CubeTriangles returns the surface of an axis-aligned cube.
func CubeTriangles(center r3.Vec, half float64) []Triangle {
	tris := make([]Triangle, 0, len(cubeFaces))
	for _, f := range cubeFaces {
		tris = append(tris, Triangle{
			r3.Add(center, r3.Scale(half, cubeCorners[f[0]])),
			r3.Add(center, r3.Scale(half, cubeCorners[f[1]])),
			r3.Add(center, r3.Scale(half, cubeCorners[f[2]])),
		})
	}
	return tris
}

// CubeEdges returns the wireframe of an axis-aligned cube as segment pairs.
func CubeEdges(center r3.Vec, half float64) [][2]r3.Vec {
	segs := make([][2]r3.Vec, 0, len(cubeEdges))
	for _, e := range cubeEdges {
		segs = append(segs, [2]r3.Vec{
			r3.Add(center, r3.Scale(half, cubeCorners[e[0]])),
			r3.Add(center, r3.Scale(half, cubeCorners[e[1]])),
		})
	}
	return segs
}
