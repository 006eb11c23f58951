package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/engine/internal/engine/world"
	"github.com/voxelforge/engine/pkg/voxel"
	"github.com/voxelforge/engine/pkg/voxel/tree"
)

// faceCorners lists each face's quad corners on the unit cube, wound so the
// front side faces along the outward normal.
var faceCorners = [6][4]mgl32.Vec3{
	voxel.FaceTop:    {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	voxel.FaceBottom: {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	voxel.FaceLeft:   {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	voxel.FaceRight:  {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	voxel.FaceFront:  {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	voxel.FaceBack:   {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
}

// Builder turns chunk contents into geometry, resolving cross-boundary
// occlusion through the world index.
type Builder struct {
	ix *world.Index
}

// NewBuilder creates a builder reading neighbors from ix.
func NewBuilder(ix *world.Index) *Builder {
	return &Builder{ix: ix}
}

// Build extracts the chunk's geometry at its current viewing LOD. Opaque and
// transparent content accumulate into separate buffers; a buffer that
// received no vertices is returned as nil.
func (b *Builder) Build(c *world.Chunk) (opaque, transparent *Mesh) {
	op := &Mesh{}
	tr := &Mesh{}
	w := c.Width()
	p := c.Pos()
	origin := mgl32.Vec3{
		float32(p.X*w + w/2),
		float32(p.Y*w + w/2),
		float32(p.Z*w + w/2),
	}

	c.Voxels().ForEach(func(e tree.Element[voxel.Block]) bool {
		m := op
		if e.Value.Transparent() {
			m = tr
		}
		min := origin.Add(mgl32.Vec3{float32(e.X), float32(e.Y), float32(e.Z)})

		if e.Value.Shape == voxel.ShapeCross {
			cross(m, min, float32(e.Width), e.Value)
			return true
		}

		for _, f := range voxel.Faces {
			if !b.exposed(c, e, f) {
				continue
			}
			var verts [4]mgl32.Vec3
			for i, corner := range faceCorners[f] {
				verts[i] = min.Add(corner.Mul(float32(e.Width)))
			}
			s := e.Value.Shade.Get(f)
			m.quad(verts, [4]float32{s, s, s, s}, e.Value.Color)
		}
		return true
	})

	if op.Empty() {
		op = nil
	}
	if tr.Empty() {
		tr = nil
	}
	return op, tr
}

// exposed reports whether any cell adjacent to the region across face f
// fails to occlude it. The scan covers the full width x width adjacent
// plane so partially covered region faces still render.
func (b *Builder) exposed(c *world.Chunk, e tree.Element[voxel.Block], f voxel.Face) bool {
	dx, dy, dz := f.Offset()
	for i := 0; i < e.Width; i++ {
		for j := 0; j < e.Width; j++ {
			p := adjacentCell(e, dx, dy, dz, i, j)
			if !b.occludes(c, e.Value, p) {
				return true
			}
		}
	}
	return false
}

// adjacentCell picks the i,j-th cell of the plane one step past the region
// along the face direction.
func adjacentCell(e tree.Element[voxel.Block], dx, dy, dz, i, j int) tree.Point {
	past := func(min, d int) int {
		switch {
		case d > 0:
			return min + e.Width
		case d < 0:
			return min - 1
		default:
			return min
		}
	}
	p := tree.Pt(past(e.X, dx), past(e.Y, dy), past(e.Z, dz))
	switch {
	case dx != 0:
		p.Y += i
		p.Z += j
	case dy != 0:
		p.X += i
		p.Z += j
	default:
		p.X += i
		p.Y += j
	}
	return p
}

// occludes applies the visibility rule for one adjacent cell: empty cells
// never occlude, occupied cells occlude only same-opacity content, and a
// cell in an unloaded neighbor chunk occludes so no face is drawn against
// missing terrain.
func (b *Builder) occludes(c *world.Chunk, self voxel.Block, p tree.Point) bool {
	half := c.Width() / 2
	var nb voxel.Block
	var ok bool
	if p.X >= -half && p.X < half && p.Y >= -half && p.Y < half && p.Z >= -half && p.Z < half {
		nb, ok = c.Voxels().Get(p)
	} else {
		nc, lp, found := b.ix.ResolveLocal(c.Pos(), p)
		if !found {
			return true
		}
		nb, ok = nc.Voxels().Get(lp)
	}
	if !ok {
		return false
	}
	return (self.Solid() && nb.Solid()) || (self.Transparent() && nb.Transparent())
}

// cross emits the two intersecting diagonal quads used by plant-like
// blocks, each double-sided. Every quad carries one uniform shade blending
// the two side faces it leans between.
func cross(m *Mesh, min mgl32.Vec3, w float32, blk voxel.Block) {
	sa := (blk.Shade.Front + blk.Shade.Left) / 2
	sb := (blk.Shade.Front + blk.Shade.Right) / 2
	sc := (blk.Shade.Back + blk.Shade.Left) / 2
	sd := (blk.Shade.Back + blk.Shade.Right) / 2

	at := func(x, y, z float32) mgl32.Vec3 {
		return min.Add(mgl32.Vec3{x * w, y * w, z * w})
	}

	// Diagonal from (0,·,1) to (1,·,0), both sides.
	m.quad([4]mgl32.Vec3{at(0, 0, 1), at(0, 1, 1), at(1, 1, 0), at(1, 0, 0)},
		[4]float32{sb, sb, sb, sb}, blk.Color)
	m.quad([4]mgl32.Vec3{at(0, 1, 1), at(0, 0, 1), at(1, 0, 0), at(1, 1, 0)},
		[4]float32{sc, sc, sc, sc}, blk.Color)

	// Diagonal from (0,·,0) to (1,·,1), both sides.
	m.quad([4]mgl32.Vec3{at(0, 1, 0), at(0, 0, 0), at(1, 0, 1), at(1, 1, 1)},
		[4]float32{sd, sd, sd, sd}, blk.Color)
	m.quad([4]mgl32.Vec3{at(0, 0, 0), at(0, 1, 0), at(1, 1, 1), at(1, 0, 1)},
		[4]float32{sa, sa, sa, sa}, blk.Color)
}
