package voxel

import "github.com/go-gl/mathgl/mgl32"

// Shape selects how a block is turned into geometry.
type Shape int

const (
	// ShapeCube is a solid cube meshed with per-face culling.
	ShapeCube Shape = iota
	// ShapeCross is a billboard of four intersecting quads, used for
	// decorative blocks like plants. Cross blocks never merge spatially.
	ShapeCross
)

// Block is a stored voxel: an RGBA color, a mesh shape and the per-face
// shade written by the lighting passes.
type Block struct {
	Color mgl32.Vec4
	Shade Shade
	Shape Shape
}

// NewBlock returns a cube block of the given color with full default shade.
func NewBlock(color mgl32.Vec4) Block {
	return Block{Color: color, Shade: DefaultShade()}
}

// Solid reports whether the block fully occludes faces behind it.
func (b Block) Solid() bool {
	return b.Shape == ShapeCube && b.Color.W() == 1
}

// Transparent reports whether the block's geometry belongs in the
// separately composited transparent buffer.
func (b Block) Transparent() bool {
	return b.Color.W() < 1
}

// Equal reports whether two blocks are interchangeable for merging.
func (b Block) Equal(other Block) bool {
	return b.Color == other.Color && b.Shade == other.Shade && b.Shape == other.Shape
}

// CanMerge reports whether the block participates in spatial merging.
// Cross-shaped blocks keep their individual cells so each billboard
// renders at unit size.
func (b Block) CanMerge() bool {
	return b.Shape == ShapeCube
}

// Average collapses a group of blocks into one representative: colors by
// component-wise mean, shade channels by per-channel max. The max policy
// keeps coarse LOD terrain from darkening where lit and shadowed faces mix.
func (b Block) Average(values []Block) (Block, bool) {
	if len(values) == 0 {
		return Block{}, false
	}
	if len(values) == 1 {
		return values[0], true
	}

	var color mgl32.Vec4
	var shade Shade
	for _, v := range values {
		color = color.Add(v.Color)
		shade.Top = max32(shade.Top, v.Shade.Top)
		shade.Bottom = max32(shade.Bottom, v.Shade.Bottom)
		shade.Left = max32(shade.Left, v.Shade.Left)
		shade.Right = max32(shade.Right, v.Shade.Right)
		shade.Front = max32(shade.Front, v.Shade.Front)
		shade.Back = max32(shade.Back, v.Shade.Back)
	}
	color = color.Mul(1 / float32(len(values)))

	return Block{Color: color, Shade: shade, Shape: ShapeCube}, true
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
