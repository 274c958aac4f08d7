package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MeshData holds raw geometry buffers. Positions is a flat xyz list.
// A nil Indices means the geometry is not indexed.
type MeshData struct {
	Positions []float64
	Indices   []uint32
}

// VertexCount returns the number of complete xyz triples.
func (d MeshData) VertexCount() int { return len(d.Positions) / 3 }

// Vertex returns vertex i as a vector.
func (d MeshData) Vertex(i int) mgl64.Vec3 {
	return mgl64.Vec3{d.Positions[3*i], d.Positions[3*i+1], d.Positions[3*i+2]}
}

// Mesh is shared geometry. It is never mutated after construction by this
// package, but the buffers returned by Data are the mesh's own storage.
type Mesh struct {
	Name  string
	data  MeshData
	edges [][2]uint32
}

// NewMesh wraps the given buffers without copying them.
func NewMesh(name string, data MeshData) *Mesh {
	return &Mesh{Name: name, data: data}
}

// Data exposes the raw vertex and index buffers.
func (m *Mesh) Data() MeshData { return m.data }

// Edges returns the unique triangle edges, computed once. Non-indexed meshes
// are treated as a triangle list.
func (m *Mesh) Edges() [][2]uint32 {
	if m.edges != nil {
		return m.edges
	}
	idx := m.data.Indices
	if idx == nil {
		n := uint32(m.data.VertexCount())
		idx = make([]uint32, 0, n)
		for i := uint32(0); i < n; i++ {
			idx = append(idx, i)
		}
	}
	seen := make(map[[2]uint32]struct{}, len(idx))
	edges := make([][2]uint32, 0, len(idx))
	for t := 0; t+2 < len(idx); t += 3 {
		tri := [3]uint32{idx[t], idx[t+1], idx[t+2]}
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			e := [2]uint32{a, b}
			if _, ok := seen[e]; ok || a == b {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	m.edges = edges
	return edges
}

// Sphere builds a UV sphere centred on the origin.
func Sphere(radius float64, widthSegments, heightSegments int) *Mesh {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)

	var d MeshData
	grid := make([][]uint32, heightSegments+1)
	var n uint32
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		row := make([]uint32, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			d.Positions = append(d.Positions,
				-radius*math.Cos(u*2*math.Pi)*math.Sin(v*math.Pi),
				radius*math.Cos(v*math.Pi),
				radius*math.Sin(u*2*math.Pi)*math.Sin(v*math.Pi),
			)
			row[ix] = n
			n++
		}
		grid[iy] = row
	}
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			e := grid[iy+1][ix+1]
			if iy != 0 {
				d.Indices = append(d.Indices, a, b, e)
			}
			if iy != heightSegments-1 {
				d.Indices = append(d.Indices, b, c, e)
			}
		}
	}
	return NewMesh("sphere", d)
}

// Box builds an axis-aligned box with the given full width, height and depth.
func Box(width, height, depth float64) *Mesh {
	x, y, z := width/2, height/2, depth/2
	d := MeshData{
		Positions: []float64{
			-x, -y, -z, x, -y, -z, x, y, -z, -x, y, -z,
			-x, -y, z, x, -y, z, x, y, z, -x, y, z,
		},
		Indices: []uint32{
			0, 2, 1, 0, 3, 2, // back
			4, 5, 6, 4, 6, 7, // front
			0, 1, 5, 0, 5, 4, // bottom
			3, 7, 6, 3, 6, 2, // top
			0, 4, 7, 0, 7, 3, // left
			1, 2, 6, 1, 6, 5, // right
		},
	}
	return NewMesh("box", d)
}

// Cylinder builds a closed Y-aligned cylinder.
func Cylinder(radius, height float64, segments int) *Mesh {
	segments = max(segments, 3)
	h := height / 2

	var d MeshData
	d.Positions = append(d.Positions, 0, h, 0, 0, -h, 0)
	for i := 0; i < segments; i++ {
		a := float64(i) / float64(segments) * 2 * math.Pi
		x, z := radius*math.Sin(a), radius*math.Cos(a)
		d.Positions = append(d.Positions, x, h, z, x, -h, z)
	}
	top := func(i int) uint32 { return uint32(2 + 2*(i%segments)) }
	bottom := func(i int) uint32 { return top(i) + 1 }
	for i := 0; i < segments; i++ {
		d.Indices = append(d.Indices,
			0, top(i), top(i+1),
			1, bottom(i+1), bottom(i),
			top(i), bottom(i), bottom(i+1),
			top(i), bottom(i+1), top(i+1),
		)
	}
	return NewMesh("cylinder", d)
}

// Plane builds a grid in the XZ plane at y=0 with upward-facing triangles.
func Plane(width, depth float64, segX, segZ int) *Mesh {
	segX, segZ = max(segX, 1), max(segZ, 1)

	var d MeshData
	for iz := 0; iz <= segZ; iz++ {
		z := -depth/2 + depth*float64(iz)/float64(segZ)
		for ix := 0; ix <= segX; ix++ {
			x := -width/2 + width*float64(ix)/float64(segX)
			d.Positions = append(d.Positions, x, 0, z)
		}
	}
	stride := uint32(segX + 1)
	for iz := uint32(0); iz < uint32(segZ); iz++ {
		for ix := uint32(0); ix < uint32(segX); ix++ {
			a := iz*stride + ix
			b := a + 1
			c := a + stride
			e := c + 1
			d.Indices = append(d.Indices, a, c, b, b, c, e)
		}
	}
	return NewMesh("plane", d)
}
