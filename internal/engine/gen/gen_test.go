package gen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxelforge/engine/internal/engine/world"
	"github.com/voxelforge/engine/pkg/voxel/tree"
)

func TestNoiseKinds(t *testing.T) {
	for _, kind := range []Kind{KindSimplex, KindPerlin, KindRidged} {
		n, err := NewNoise(kind, 42)
		require.NoError(t, err, "kind %s", kind)
		v := n.At2(1.5, -2.25)
		require.Equal(t, v, n.At2(1.5, -2.25), "kind %s not deterministic", kind)
		require.InDelta(t, 0, v, 1.01, "kind %s out of range", kind)
		require.InDelta(t, 0, n.At3(0.5, 1.5, -0.5), 1.01, "kind %s out of range", kind)
	}

	_, err := NewNoise("white", 42)
	require.Error(t, err)
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := New(DefaultParams(7))
	require.NoError(t, err)
	b, err := New(DefaultParams(7))
	require.NoError(t, err)

	pos := world.Pos{X: 1, Y: 0, Z: -2}
	ca := a.Generate(pos, 16)
	cb := b.Generate(pos, 16)
	require.Equal(t, ca.Voxels().Len(), cb.Voxels().Len())

	for x := -8; x < 8; x++ {
		for y := -8; y < 8; y++ {
			for z := -8; z < 8; z++ {
				va, aok := ca.Voxels().Get(tree.Pt(x, y, z))
				vb, bok := cb.Voxels().Get(tree.Pt(x, y, z))
				require.Equal(t, aok, bok)
				if aok {
					require.Equal(t, va, vb)
				}
			}
		}
	}
}

func TestGenerateSeedsDiffer(t *testing.T) {
	a, err := New(DefaultParams(1))
	require.NoError(t, err)
	b, err := New(DefaultParams(2))
	require.NoError(t, err)

	same := true
	for x := 0; x < 64 && same; x += 4 {
		for z := 0; z < 64 && same; z += 4 {
			if a.HeightAt(x, z) != b.HeightAt(x, z) {
				same = false
			}
		}
	}
	require.False(t, same, "different seeds produced identical height fields")
}

func TestLayersApplyFromSurfaceDown(t *testing.T) {
	p := DefaultParams(3)
	g, err := New(p)
	require.NoError(t, err)

	// A column deep inside a chunk: surface block is the first layer,
	// the band below it the second, everything deeper the unbounded third.
	b, ok := g.blockAt(0)
	require.True(t, ok)
	require.Equal(t, p.Layers[0].Block, b)

	b, ok = g.blockAt(2)
	require.True(t, ok)
	require.Equal(t, p.Layers[1].Block, b)

	b, ok = g.blockAt(500)
	require.True(t, ok)
	require.Equal(t, p.Layers[2].Block, b)

	_, ok = g.blockAt(-1)
	require.False(t, ok)
}

func TestGenerateFillsBelowSurface(t *testing.T) {
	g, err := New(DefaultParams(11))
	require.NoError(t, err)

	// Far below the height field every cell is filled.
	c := g.Generate(world.Pos{Y: -4}, 16)
	require.Equal(t, 16*16*16, c.Voxels().Len())

	// Far above, nothing is.
	c = g.Generate(world.Pos{Y: 4}, 16)
	require.Equal(t, 0, c.Voxels().Len())
}

func TestDensityBandsSelectLayers(t *testing.T) {
	p := DefaultParams(3)
	g, err := New(p)
	require.NoError(t, err)

	// Densities walk the bands in order: anything below the first ceiling
	// is the first layer, past every bounded band the unbounded last one.
	b, ok := g.blockForDensity(-5)
	require.True(t, ok)
	require.Equal(t, p.Layers[0].Block, b)

	b, ok = g.blockForDensity(0.5)
	require.True(t, ok)
	require.Equal(t, p.Layers[0].Block, b)

	b, ok = g.blockForDensity(2.5)
	require.True(t, ok)
	require.Equal(t, p.Layers[1].Block, b)

	b, ok = g.blockForDensity(100)
	require.True(t, ok)
	require.Equal(t, p.Layers[2].Block, b)
}

func TestDensityBandsCanRunOut(t *testing.T) {
	p := DefaultParams(3)
	p.Layers = p.Layers[:2] // drop the unbounded band
	g, err := New(p)
	require.NoError(t, err)

	_, ok := g.blockForDensity(100)
	require.False(t, ok)
}

func TestGenerateDensityMode(t *testing.T) {
	p := DefaultParams(9)
	p.Mode = ModeDensity
	a, err := New(p)
	require.NoError(t, err)
	b, err := New(p)
	require.NoError(t, err)

	pos := world.Pos{X: 1, Y: -1, Z: 2}
	ca := a.Generate(pos, 8)
	cb := b.Generate(pos, 8)
	require.Equal(t, ca.Voxels().Len(), cb.Voxels().Len())

	// With an unbounded final band every cell maps to some layer.
	require.Equal(t, 8*8*8, ca.Voxels().Len())

	for x := -4; x < 4; x++ {
		for y := -4; y < 4; y++ {
			for z := -4; z < 4; z++ {
				va, _ := ca.Voxels().Get(tree.Pt(x, y, z))
				vb, _ := cb.Voxels().Get(tree.Pt(x, y, z))
				require.Equal(t, va, vb)

				wx := pos.X*8 + x + 4
				wy := pos.Y*8 + y + 4
				wz := pos.Z*8 + z + 4
				want, ok := a.blockForDensity(a.DensityAt(wx, wy, wz))
				require.True(t, ok)
				require.Equal(t, want, va)
			}
		}
	}
}

func TestDensityModeVariesWithHeight(t *testing.T) {
	p := DefaultParams(21)
	p.Mode = ModeDensity
	g, err := New(p)
	require.NoError(t, err)

	// 3D sampling must not be a column fill: somewhere in a tall stack of
	// chunks two cells of the same column differ.
	varies := false
	for y := -2; y <= 2 && !varies; y++ {
		c := g.Generate(world.Pos{Y: y}, 8)
		first, ok := c.Voxels().Get(tree.Pt(0, -4, 0))
		for ly := -3; ly < 4; ly++ {
			v, vok := c.Voxels().Get(tree.Pt(0, ly, 0))
			if vok != ok || (vok && !v.Equal(first)) {
				varies = true
			}
		}
	}
	require.True(t, varies)
}

func TestNewRejectsEmptyParams(t *testing.T) {
	_, err := New(Params{Kind: KindSimplex, Layers: DefaultParams(0).Layers})
	require.Error(t, err)
	_, err = New(Params{Kind: KindSimplex, Octaves: DefaultParams(0).Octaves})
	require.Error(t, err)
	_, err = New(Params{Kind: KindSimplex, Mode: "volumetric",
		Octaves: DefaultParams(0).Octaves, Layers: DefaultParams(0).Layers})
	require.Error(t, err)
}
