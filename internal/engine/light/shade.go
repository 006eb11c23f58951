package light

import (
	"context"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/voxelforge/engine/internal/engine/world"
	"github.com/voxelforge/engine/pkg/voxel"
	"github.com/voxelforge/engine/pkg/voxel/tree"
)

// Settings describes the single directional light plus ambient term used by
// the shading pass.
type Settings struct {
	Direction mgl32.Vec3
	Intensity float32
	Ambient   float32
}

// DefaultSettings matches an overhead late-afternoon sun.
func DefaultSettings() Settings {
	return Settings{
		Direction: mgl32.Vec3{-0.4, -1, -0.2},
		Intensity: 0.8,
		Ambient:   0.05,
	}
}

// Smoothed is one chunk's completed smoothing result, held until every
// chunk in the batch finishes computing so no chunk's light map mutates
// while neighbors are still reading it.
type Smoothed struct {
	Chunk *world.Chunk
	buf   []float32
}

// ready reports whether every existing face-adjacent neighbor has a valid
// light map. Chunks with absent neighbors proceed; chunks whose neighbor
// exists but is not yet lit wait for a later pass.
func ready(ix *world.Index, c *world.Chunk) bool {
	p := c.Pos()
	for _, d := range []world.Pos{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
	} {
		if n, ok := ix.At(p.Add(d)); ok && !n.HasLight() {
			return false
		}
	}
	return true
}

// sample reads the raw light map value at a possibly out-of-chunk local
// coordinate, resolving the owning chunk through the index.
func sample(ix *world.Index, c *world.Chunk, p tree.Point) (float32, bool) {
	half := c.Width() / 2
	target := c
	local := p

	if p.X < -half || p.X >= half || p.Y < -half || p.Y >= half || p.Z < -half || p.Z >= half {
		var ok bool
		target, local, ok = ix.ResolveLocal(c.Pos(), p)
		if !ok {
			return 0, false
		}
	}

	v, ok := target.Light().Get(local)
	if !ok {
		return 0, false
	}
	return float32(v), true
}

// smooth computes the padded box-averaged light buffer for one chunk. Cells
// with no in-range samples keep the zero-sample convention: the divisor is
// forced to one, so they come out dark.
func smooth(ix *world.Index, c *world.Chunk) []float32 {
	w := c.Width()
	half := w / 2
	side := w + 2
	buf := make([]float32, side*side*side)

	i := 0
	for x := -half - 1; x <= half; x++ {
		for y := -half - 1; y <= half; y++ {
			for z := -half - 1; z <= half; z++ {
				var sum float32
				count := 0
				for dx := -1; dx <= 1; dx++ {
					for dy := -1; dy <= 1; dy++ {
						for dz := -1; dz <= 1; dz++ {
							if v, ok := sample(ix, c, tree.Pt(x+dx, y+dy, z+dz)); ok {
								sum += v
								count++
							}
						}
					}
				}
				if count == 0 {
					count = 1
				}
				buf[i] = sum / float32(count)
				i++
			}
		}
	}
	return buf
}

// at reads the padded buffer at a local coordinate in [-half-1, half].
func (s *Smoothed) at(p tree.Point) float32 {
	w := s.Chunk.Width()
	half := w / 2
	side := w + 2
	x := p.X + half + 1
	y := p.Y + half + 1
	z := p.Z + half + 1
	return s.buf[(x*side+y)*side+z]
}

// SmoothAll runs the smoothing step for every ready chunk in the batch,
// fanning out across workers. Results are only returned once all workers
// finish; callers apply them afterwards, so reads of neighbor light maps
// never race with shade writes. Chunks left out of the result were not
// ready and should be retried.
func SmoothAll(ctx context.Context, ix *world.Index, chunks []*world.Chunk, workers int) ([]Smoothed, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var pending []*world.Chunk
	for _, c := range chunks {
		if ready(ix, c) {
			pending = append(pending, c)
		}
	}

	out := make([]Smoothed, len(pending))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Smoothed{Chunk: c, buf: smooth(ix, c)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Apply projects a chunk's smoothed light onto the six face normals of each
// stored region and writes the result as per-face shade, then re-merges the
// voxel grid so equal shading compacts again before meshing.
func Apply(s *Smoothed, set Settings) {
	c := s.Chunk
	toLight := set.Direction.Normalize().Mul(-1)
	voxels := c.Voxels()

	voxels.ForEachMut(func(e tree.ElementMut[voxel.Block]) bool {
		for _, f := range voxel.Faces {
			proj := toLight.Dot(f.Normal())
			if proj < 0 {
				proj = 0
			} else if proj > 1 {
				proj = 1
			}
			// Sample one cell outside the region across this face.
			dx, dy, dz := f.Offset()
			lv := s.at(tree.Pt(
				outside(e.X, e.Width, dx),
				outside(e.Y, e.Width, dy),
				outside(e.Z, e.Width, dz),
			))
			e.Value.Shade.Set(f, set.Ambient+set.Intensity*proj*lv)
		}
		return true
	})

	voxels.Merge()
}

// outside maps a region's min corner to the coordinate one cell past the
// region along d, or the corner itself when the face is on another axis.
func outside(min, width, d int) int {
	switch {
	case d > 0:
		return min + width
	case d < 0:
		return min - 1
	default:
		return min
	}
}
