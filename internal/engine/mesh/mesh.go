// Package mesh extracts renderable surface geometry from chunk contents,
// culling faces hidden by same-opacity neighbors, including neighbors in
// adjacent chunks.
package mesh

import "github.com/go-gl/mathgl/mgl32"

// Mesh is one geometry buffer: parallel per-vertex arrays plus a triangle
// index list. Consumers keep a persistent handle per chunk and replace the
// buffers in place on later updates.
type Mesh struct {
	Positions []mgl32.Vec3
	Shades    []float32
	Colors    []mgl32.Vec4
	Indices   []uint32
}

// quad appends four vertices sharing one color and two triangles over them.
func (m *Mesh) quad(verts [4]mgl32.Vec3, shades [4]float32, color mgl32.Vec4) {
	base := uint32(len(m.Positions))
	m.Positions = append(m.Positions, verts[0], verts[1], verts[2], verts[3])
	m.Shades = append(m.Shades, shades[0], shades[1], shades[2], shades[3])
	m.Colors = append(m.Colors, color, color, color, color)
	m.Indices = append(m.Indices,
		base, base+1, base+2,
		base, base+2, base+3,
	)
}

// Empty reports whether the mesh received no geometry.
func (m *Mesh) Empty() bool { return len(m.Positions) == 0 }
