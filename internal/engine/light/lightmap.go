package light

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/engine/internal/engine/world"
	"github.com/voxelforge/engine/pkg/voxel"
	"github.com/voxelforge/engine/pkg/voxel/tree"
)

// rayLength places the ray origin well outside any chunk so the traversal
// enters from the unoccluded side of the light direction.
const rayLength = 100

// UpdateLightMap recomputes the chunk's raw occlusion light map. For every
// cell a ray is cast from far along the negated light direction toward the
// cell; cells the ray crosses before hitting an occupied cell record full
// light, the occupied cell and everything after it record none. Every
// in-bounds cell a ray crosses is memoized, so each cell is computed once
// per pass. The pass is chunk-local and marks the chunk lit when complete.
func UpdateLightMap(c *world.Chunk, tr Tracer, dir mgl32.Vec3) {
	w := c.Width()
	half := w / 2
	voxels := c.Voxels()
	light := c.Light()
	light.Clear()

	// Occupancy is tested at full resolution regardless of viewing LOD.
	lod := voxels.LOD()
	voxels.SetLOD(0)
	defer voxels.SetLOD(lod)

	offset := dir.Normalize().Mul(-rayLength)

	for x := -half; x < half; x++ {
		for y := -half; y < half; y++ {
			for z := -half; z < half; z++ {
				target := tree.Pt(x, y, z)
				if light.Contains(target) {
					continue
				}
				center := mgl32.Vec3{
					float32(x) + 0.5,
					float32(y) + 0.5,
					float32(z) + 0.5,
				}
				val := voxel.Light(1)
				tr.Trace(center.Add(offset), center, func(p tree.Point) bool {
					if p.X < -half || p.X >= half ||
						p.Y < -half || p.Y >= half ||
						p.Z < -half || p.Z >= half {
						return true
					}
					if voxels.Contains(p) {
						val = 0
					}
					if !light.Contains(p) {
						light.Insert(p, val)
					}
					return true
				})
			}
		}
	}

	light.Merge()
	c.SetHasLight(true)
}
