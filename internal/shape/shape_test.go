package shape

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/dynamo"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMesh(t *testing.T) {
	d := render.Plane(2, 2, 1, 1).Data()
	s, err := FromMesh(d)
	require.NoError(t, err)

	assert.Equal(t, physics.Trimesh, s.Kind)
	assert.Len(t, s.Vertices, 4)
	assert.Equal(t, 2, s.Triangles())
	assert.NoError(t, s.Validate())
}

func TestFromMeshCopiesBuffers(t *testing.T) {
	mesh := render.Box(2, 2, 2)
	s, err := FromMesh(mesh.Data())
	require.NoError(t, err)

	d := mesh.Data()
	d.Positions[0] = 100
	d.Indices[0] = 7

	assert.Equal(t, mgl64.Vec3{-1, -1, -1}, s.Vertices[0])
	assert.Equal(t, uint32(0), s.Indices[0])
}

func TestFromMeshErrors(t *testing.T) {
	tests := []struct {
		name string
		data render.MeshData
		want error
	}{
		{"no indices", render.MeshData{Positions: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}}, dynamo.ErrMissingIndexData},
		{"empty indices", render.MeshData{Positions: []float64{0, 0, 0}, Indices: []uint32{}}, dynamo.ErrMissingIndexData},
		{"ragged positions", render.MeshData{Positions: []float64{0, 0}, Indices: []uint32{0, 0, 0}}, dynamo.ErrMalformedMesh},
		{"ragged indices", render.MeshData{Positions: []float64{0, 0, 0}, Indices: []uint32{0, 0}}, dynamo.ErrMalformedMesh},
		{"index out of range", render.MeshData{Positions: []float64{0, 0, 0}, Indices: []uint32{0, 0, 1}}, dynamo.ErrMalformedMesh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMesh(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFit(t *testing.T) {
	box := render.Box(2, 4, 6).Data()

	s, err := Fit(physics.Cuboid, box)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, s.HalfExtents)

	s, err = Fit(physics.Ball, render.Sphere(0.5, 12, 8).Data())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s.Radius, 1e-9)

	s, err = Fit(physics.Cylinder, render.Cylinder(0.3, 0.04, 16).Data())
	require.NoError(t, err)
	assert.InDelta(t, 0.3, s.Radius, 1e-9)
	assert.InDelta(t, 0.02, s.HalfHeight, 1e-12)

	s, err = Fit(physics.Trimesh, box)
	require.NoError(t, err)
	assert.Equal(t, 12, s.Triangles())
}

func TestFitRejectsDegenerateMeshes(t *testing.T) {
	_, err := Fit(physics.Ball, render.MeshData{})
	assert.ErrorIs(t, err, dynamo.ErrMalformedMesh)

	// a flat plane has no thickness along Y
	_, err = Fit(physics.Cuboid, render.Plane(1, 1, 1, 1).Data())
	assert.ErrorIs(t, err, dynamo.ErrInvalidShape)
}
