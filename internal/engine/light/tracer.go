// Package light implements the two lighting passes: a ray-traced occlusion
// light map over each chunk, and a smoothed, face-projected shading pass
// that samples across chunk boundaries.
package light

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/engine/pkg/voxel/tree"
)

// Tracer walks the grid cells along a line segment, calling visit for each
// cell in order from the segment start. Returning false stops the walk.
type Tracer interface {
	Trace(from, to mgl32.Vec3, visit func(tree.Point) bool)
}

// NewTracer returns the traversal strategy named by kind, one of
// "bresenham" or "dda".
func NewTracer(kind string) (Tracer, error) {
	switch kind {
	case "bresenham":
		return Bresenham{}, nil
	case "dda":
		return DDA{}, nil
	default:
		return nil, fmt.Errorf("light: unknown tracer %q", kind)
	}
}

// Bresenham rasterizes the segment with 3D integer line stepping. Fast, but
// can cut corners diagonally.
type Bresenham struct{}

func (Bresenham) Trace(from, to mgl32.Vec3, visit func(tree.Point) bool) {
	x0, y0, z0 := floori(from.X()), floori(from.Y()), floori(from.Z())
	x1, y1, z1 := floori(to.X()), floori(to.Y()), floori(to.Z())

	dx, sx := absStep(x1 - x0)
	dy, sy := absStep(y1 - y0)
	dz, sz := absStep(z1 - z0)

	dm := dx
	if dy > dm {
		dm = dy
	}
	if dz > dm {
		dm = dz
	}

	ex, ey, ez := dm/2, dm/2, dm/2
	for i := 0; i <= dm; i++ {
		if !visit(tree.Pt(x0, y0, z0)) {
			return
		}
		ex -= dx
		if ex < 0 {
			ex += dm
			x0 += sx
		}
		ey -= dy
		if ey < 0 {
			ey += dm
			y0 += sy
		}
		ez -= dz
		if ez < 0 {
			ez += dm
			z0 += sz
		}
	}
}

// DDA walks every cell the segment pierces using the parametric voxel
// traversal of Amanatides and Woo. Slower than Bresenham but never skips a
// pierced cell.
type DDA struct{}

func (DDA) Trace(from, to mgl32.Vec3, visit func(tree.Point) bool) {
	x, y, z := floori(from.X()), floori(from.Y()), floori(from.Z())
	tx, ty, tz := floori(to.X()), floori(to.Y()), floori(to.Z())

	dir := to.Sub(from)
	stepX, tMaxX, tDeltaX := axisInit(from.X(), dir.X())
	stepY, tMaxY, tDeltaY := axisInit(from.Y(), dir.Y())
	stepZ, tMaxZ, tDeltaZ := axisInit(from.Z(), dir.Z())

	// Upper bound on visited cells keeps degenerate segments finite.
	limit := abs(tx-x) + abs(ty-y) + abs(tz-z) + 3
	for i := 0; i < limit; i++ {
		if !visit(tree.Pt(x, y, z)) {
			return
		}
		if x == tx && y == ty && z == tz {
			return
		}
		if tMaxX <= tMaxY && tMaxX <= tMaxZ {
			x += stepX
			tMaxX += tDeltaX
		} else if tMaxY <= tMaxZ {
			y += stepY
			tMaxY += tDeltaY
		} else {
			z += stepZ
			tMaxZ += tDeltaZ
		}
	}
}

// axisInit computes the step direction, the ray parameter at the first cell
// boundary crossing, and the parameter advance per cell for one axis.
func axisInit(origin, d float32) (step int, tMax, tDelta float64) {
	if d == 0 {
		return 0, math.Inf(1), math.Inf(1)
	}
	od := float64(origin)
	dd := float64(d)
	floor := math.Floor(od)
	if dd > 0 {
		return 1, (floor + 1 - od) / dd, 1 / dd
	}
	return -1, (od - floor) / -dd, 1 / -dd
}

func floori(v float32) int {
	return int(math.Floor(float64(v)))
}

func absStep(d int) (int, int) {
	if d < 0 {
		return -d, -1
	}
	if d > 0 {
		return d, 1
	}
	return 0, 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
