// Package world holds the chunk forest: chunk state, the spatial index used
// for neighbor lookups, and the per-world update queue that sequences the
// generation, lighting and meshing passes.
package world

import (
	"fmt"

	"github.com/voxelforge/engine/pkg/voxel"
	"github.com/voxelforge/engine/pkg/voxel/tree"
)

// Pos is a chunk grid coordinate, in chunk units rather than world units.
type Pos struct {
	X, Y, Z int
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Add returns p offset by d.
func (p Pos) Add(d Pos) Pos {
	return Pos{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// Neighbors returns the 26 face, edge and corner adjacent chunk coordinates.
func (p Pos) Neighbors() []Pos {
	out := make([]Pos, 0, 26)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				out = append(out, Pos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz})
			}
		}
	}
	return out
}

// Chunk is a fixed-size cubic region of the world. Voxel content and the
// scalar light map are held in separate sparse grids over the same centered
// local coordinate domain.
type Chunk struct {
	pos      Pos
	voxels   *tree.Grid[voxel.Block]
	light    *tree.Grid[voxel.Light]
	hasLight bool
}

// NewChunk creates an empty chunk at pos with the given side length.
func NewChunk(pos Pos, width int) *Chunk {
	return &Chunk{
		pos:    pos,
		voxels: tree.New[voxel.Block](width),
		light:  tree.New[voxel.Light](width),
	}
}

// RestoreChunk wraps a persisted voxel grid back into a chunk. Light state
// is derived, so the chunk starts unlit with an empty light map.
func RestoreChunk(pos Pos, voxels *tree.Grid[voxel.Block]) *Chunk {
	return &Chunk{
		pos:    pos,
		voxels: voxels,
		light:  tree.New[voxel.Light](voxels.Width()),
	}
}

// Pos returns the chunk's grid coordinate.
func (c *Chunk) Pos() Pos { return c.pos }

// Width returns the chunk's side length in voxels.
func (c *Chunk) Width() int { return c.voxels.Width() }

// Voxels returns the chunk's voxel grid.
func (c *Chunk) Voxels() *tree.Grid[voxel.Block] { return c.voxels }

// Light returns the chunk's raw light map grid.
func (c *Chunk) Light() *tree.Grid[voxel.Light] { return c.light }

// HasLight reports whether the light map pass has completed for the chunk's
// current contents.
func (c *Chunk) HasLight() bool { return c.hasLight }

// SetHasLight marks light map validity. Cleared when contents change in a
// way that invalidates occlusion, set by the light map pass.
func (c *Chunk) SetHasLight(v bool) { c.hasLight = v }

// LOD returns the chunk's viewing level of detail.
func (c *Chunk) LOD() int { return c.voxels.LOD() }

// SetLOD sets the level of detail applied to voxel reads. The light grid is
// always read at full resolution.
func (c *Chunk) SetLOD(lod int) { c.voxels.SetLOD(lod) }
