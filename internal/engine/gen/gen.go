// Package gen fills chunks with terrain in one of two modes: a height field
// layered from 2D octave noise with materials stacked from the surface
// downward, or a 3D density field thresholded into material bands. Both place
// noise-driven surface decorations in heightmap mode.
package gen

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/engine/internal/engine/world"
	"github.com/voxelforge/engine/pkg/voxel"
	"github.com/voxelforge/engine/pkg/voxel/tree"
)

// Mode selects how octave noise turns into terrain.
type Mode string

const (
	// ModeHeightmap samples 2D noise per column and fills from the surface
	// down.
	ModeHeightmap Mode = "heightmap"
	// ModeDensity samples 3D noise per cell and maps the density into the
	// layer bands, which produces overhangs and caves.
	ModeDensity Mode = "density"
)

// Octave is one noise layer contributing amplitude * noise(p * frequency)
// to the height or density field.
type Octave struct {
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
}

// Layer is one material band. In heightmap mode bands apply from the
// computed surface height downward in order; in density mode each band
// claims Thickness units of the density range. Thickness < 0 means the band
// continues without bound.
type Layer struct {
	Block     voxel.Block
	Thickness int
}

// Decoration is a non-terrain block scattered on the surface where a
// dedicated noise field exceeds the threshold.
type Decoration struct {
	Block     voxel.Block
	Threshold float64
}

// Params configures a terrain generator. An empty Mode means heightmap.
type Params struct {
	Seed        int64
	Kind        Kind
	Mode        Mode
	Octaves     []Octave
	Layers      []Layer
	Decorations []Decoration
}

// Generator produces chunks deterministically from its parameters. The same
// coordinate always yields the same contents for the same Params.
type Generator struct {
	params Params
	field  Noise
	deco   Noise
}

// New validates p and builds a generator.
func New(p Params) (*Generator, error) {
	if p.Mode == "" {
		p.Mode = ModeHeightmap
	}
	if p.Mode != ModeHeightmap && p.Mode != ModeDensity {
		return nil, fmt.Errorf("gen: unknown mode %q", p.Mode)
	}
	if len(p.Octaves) == 0 {
		return nil, fmt.Errorf("gen: at least one octave required")
	}
	if len(p.Layers) == 0 {
		return nil, fmt.Errorf("gen: at least one layer required")
	}
	field, err := NewNoise(p.Kind, p.Seed)
	if err != nil {
		return nil, err
	}
	deco, err := NewNoise(KindSimplex, p.Seed+1)
	if err != nil {
		return nil, err
	}
	return &Generator{params: p, field: field, deco: deco}, nil
}

// HeightAt returns the surface height in world units at a world column.
func (g *Generator) HeightAt(wx, wz int) int {
	var h float64
	for _, o := range g.params.Octaves {
		h += o.Amplitude * g.field.At2(float64(wx)*o.Frequency, float64(wz)*o.Frequency)
	}
	return int(h)
}

// DensityAt returns the 3D octave noise sum at a world cell.
func (g *Generator) DensityAt(wx, wy, wz int) float64 {
	var d float64
	for _, o := range g.params.Octaves {
		d += o.Amplitude * g.field.At3(
			float64(wx)*o.Frequency,
			float64(wy)*o.Frequency,
			float64(wz)*o.Frequency,
		)
	}
	return d
}

// blockAt picks the material for a cell depth cells below the surface.
// Returns false above the surface or beneath the last bounded layer.
func (g *Generator) blockAt(depth int) (voxel.Block, bool) {
	if depth < 0 {
		return voxel.Block{}, false
	}
	for _, l := range g.params.Layers {
		if l.Thickness < 0 || depth < l.Thickness {
			return l.Block, true
		}
		depth -= l.Thickness
	}
	return voxel.Block{}, false
}

// blockForDensity maps a density value into the layer bands in order. A
// density below the first band's ceiling selects the first layer; one past
// every bounded band selects nothing unless an unbounded layer follows.
func (g *Generator) blockForDensity(d float64) (voxel.Block, bool) {
	for _, l := range g.params.Layers {
		if l.Thickness < 0 || d < float64(l.Thickness) {
			return l.Block, true
		}
		d -= float64(l.Thickness)
	}
	return voxel.Block{}, false
}

// Generate builds the chunk at pos. Local cells use the centered convention,
// so the world coordinate of local l is pos*width + l + width/2.
func (g *Generator) Generate(pos world.Pos, width int) *world.Chunk {
	c := world.NewChunk(pos, width)
	if g.params.Mode == ModeDensity {
		g.fillDensity(c, pos, width)
	} else {
		g.fillHeightmap(c, pos, width)
	}
	c.Voxels().Merge()
	return c
}

func (g *Generator) fillDensity(c *world.Chunk, pos world.Pos, width int) {
	half := width / 2
	voxels := c.Voxels()

	for lx := -half; lx < half; lx++ {
		for ly := -half; ly < half; ly++ {
			for lz := -half; lz < half; lz++ {
				wx := pos.X*width + lx + half
				wy := pos.Y*width + ly + half
				wz := pos.Z*width + lz + half
				b, ok := g.blockForDensity(g.DensityAt(wx, wy, wz))
				if !ok {
					continue
				}
				voxels.Insert(tree.Pt(lx, ly, lz), b)
			}
		}
	}
}

func (g *Generator) fillHeightmap(c *world.Chunk, pos world.Pos, width int) {
	half := width / 2
	voxels := c.Voxels()

	for lx := -half; lx < half; lx++ {
		for lz := -half; lz < half; lz++ {
			wx := pos.X*width + lx + half
			wz := pos.Z*width + lz + half
			height := g.HeightAt(wx, wz)

			for ly := -half; ly < half; ly++ {
				wy := pos.Y*width + ly + half
				b, ok := g.blockAt(height - wy)
				if !ok {
					continue
				}
				voxels.Insert(tree.Pt(lx, ly, lz), b)
			}

			// Decorations sit in the first air cell above the surface.
			wy := height + 1
			ly := wy - pos.Y*width - half
			if ly < -half || ly >= half {
				continue
			}
			for i, d := range g.params.Decorations {
				sample := g.deco.At2(float64(wx)*0.7+float64(i)*100, float64(wz)*0.7)
				if sample > d.Threshold {
					voxels.Insert(tree.Pt(lx, ly, lz), d.Block)
					break
				}
			}
		}
	}
}

// DefaultParams is a small grass, dirt and stone world with sparse cross
// foliage, used when no terrain config is supplied.
func DefaultParams(seed int64) Params {
	grass := voxel.NewBlock(mgl32.Vec4{0.22, 0.55, 0.2, 1})
	dirt := voxel.NewBlock(mgl32.Vec4{0.42, 0.3, 0.18, 1})
	stone := voxel.NewBlock(mgl32.Vec4{0.5, 0.5, 0.52, 1})
	flower := voxel.NewBlock(mgl32.Vec4{0.9, 0.85, 0.3, 1})
	flower.Shape = voxel.ShapeCross

	return Params{
		Seed: seed,
		Kind: KindSimplex,
		Octaves: []Octave{
			{Amplitude: 12, Frequency: 0.01},
			{Amplitude: 4, Frequency: 0.04},
			{Amplitude: 1, Frequency: 0.12},
		},
		Layers: []Layer{
			{Block: grass, Thickness: 1},
			{Block: dirt, Thickness: 3},
			{Block: stone, Thickness: -1},
		},
		Decorations: []Decoration{
			{Block: flower, Threshold: 0.8},
		},
	}
}
