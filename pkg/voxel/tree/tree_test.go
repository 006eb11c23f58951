package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// cell is a minimal test value. Mergeability is carried per value so tests
// can exercise the CanMerge veto.
type cell struct {
	v     float64
	cross bool
}

func (c cell) Equal(o cell) bool { return c.v == o.v && c.cross == o.cross }

func (c cell) CanMerge() bool { return !c.cross }

func (c cell) Average(vs []cell) (cell, bool) {
	if len(vs) == 0 {
		return cell{}, false
	}
	var sum float64
	for _, o := range vs {
		sum += o.v
	}
	return cell{v: sum / float64(len(vs))}, true
}

func TestInsertGetRemove(t *testing.T) {
	g := New[cell](8)

	_, ok := g.Get(Pt(1, 2, 3))
	require.False(t, ok)

	prev, ok := g.Insert(Pt(1, 2, 3), cell{v: 7})
	require.False(t, ok)
	require.Equal(t, cell{}, prev)
	require.Equal(t, 1, g.Len())

	got, ok := g.Get(Pt(1, 2, 3))
	require.True(t, ok)
	require.Equal(t, 7.0, got.v)

	prev, ok = g.Insert(Pt(1, 2, 3), cell{v: 9})
	require.True(t, ok)
	require.Equal(t, 7.0, prev.v)
	require.Equal(t, 1, g.Len())

	prev, ok = g.Remove(Pt(1, 2, 3))
	require.True(t, ok)
	require.Equal(t, 9.0, prev.v)
	require.Equal(t, 0, g.Len())
	require.False(t, g.Contains(Pt(1, 2, 3)))
}

func TestBoundsAreCentered(t *testing.T) {
	g := New[cell](8)

	for _, p := range []Point{Pt(-4, 0, 0), Pt(0, -4, 0), Pt(0, 0, 3), Pt(3, -4, -4)} {
		_, ok := g.Insert(p, cell{v: 1})
		require.False(t, ok)
		require.True(t, g.Contains(p), "point %v should be in bounds", p)
		g.Remove(p)
	}

	for _, p := range []Point{Pt(4, 0, 0), Pt(0, 4, 0), Pt(0, 0, -5), Pt(-5, 4, 4)} {
		_, ok := g.Insert(p, cell{v: 1})
		require.False(t, ok)
		require.False(t, g.Contains(p), "point %v should be out of bounds", p)
	}
	require.Equal(t, 0, g.Len())
}

func fillBox(g *Grid[cell], min Point, w int, v cell) {
	for x := 0; x < w; x++ {
		for y := 0; y < w; y++ {
			for z := 0; z < w; z++ {
				g.Insert(Pt(min.X+x, min.Y+y, min.Z+z), v)
			}
		}
	}
}

func TestMergeCollapsesUniformOctants(t *testing.T) {
	g := New[cell](4)
	fillBox(g, Pt(-2, -2, -2), 4, cell{v: 5})
	g.Merge()

	// Every coordinate resolves to the same authoritative slot.
	root := g.resolve(g.index(Pt(-2, -2, -2)))
	require.Equal(t, int32(4), g.nodes[root].width)
	for x := -2; x < 2; x++ {
		for y := -2; y < 2; y++ {
			for z := -2; z < 2; z++ {
				require.Equal(t, root, g.resolve(g.index(Pt(x, y, z))))
			}
		}
	}

	var elems []Element[cell]
	g.ForEach(func(e Element[cell]) bool {
		elems = append(elems, e)
		return true
	})
	require.Len(t, elems, 1)
	require.Equal(t, 4, elems[0].Width)
	require.Equal(t, 5.0, elems[0].Value.v)
	require.Equal(t, 64, g.Len())
}

func TestMergeRequiresAllEight(t *testing.T) {
	g := New[cell](2)
	fillBox(g, Pt(-1, -1, -1), 2, cell{v: 5})
	g.Remove(Pt(0, 0, 0))
	g.Merge()

	count := 0
	g.ForEach(func(e Element[cell]) bool {
		require.Equal(t, 1, e.Width)
		count++
		return true
	})
	require.Equal(t, 7, count)
}

func TestMergeRespectsCanMerge(t *testing.T) {
	g := New[cell](2)
	fillBox(g, Pt(-1, -1, -1), 2, cell{v: 5, cross: true})
	g.Merge()

	count := 0
	g.ForEach(func(e Element[cell]) bool {
		require.Equal(t, 1, e.Width)
		count++
		return true
	})
	require.Equal(t, 8, count)
}

func TestMergeDistinguishesValues(t *testing.T) {
	g := New[cell](2)
	fillBox(g, Pt(-1, -1, -1), 2, cell{v: 5})
	g.Insert(Pt(0, 0, 0), cell{v: 6})
	g.Merge()

	count := 0
	g.ForEach(func(e Element[cell]) bool {
		count++
		return true
	})
	require.Equal(t, 8, count)
}

func TestInsertSplitsMergedRegion(t *testing.T) {
	g := New[cell](4)
	fillBox(g, Pt(-2, -2, -2), 4, cell{v: 5})
	g.Merge()

	g.Insert(Pt(1, 1, 1), cell{v: 9})

	got, ok := g.Get(Pt(1, 1, 1))
	require.True(t, ok)
	require.Equal(t, 9.0, got.v)

	// The surrounding region still reads the old value.
	for _, p := range []Point{Pt(-2, -2, -2), Pt(0, 0, 0), Pt(1, 1, 0), Pt(-1, 1, 1)} {
		got, ok := g.Get(p)
		require.True(t, ok, "point %v", p)
		require.Equal(t, 5.0, got.v, "point %v", p)
	}
	require.Equal(t, 64, g.Len())

	// Re-merging restores a consistent coarse structure around the edit.
	g.Merge()
	got, ok = g.Get(Pt(1, 1, 1))
	require.True(t, ok)
	require.Equal(t, 9.0, got.v)
}

func TestRemoveSplitsMergedRegion(t *testing.T) {
	g := New[cell](2)
	fillBox(g, Pt(-1, -1, -1), 2, cell{v: 5})
	g.Merge()

	prev, ok := g.Remove(Pt(0, -1, 0))
	require.True(t, ok)
	require.Equal(t, 5.0, prev.v)
	require.Equal(t, 7, g.Len())
	require.False(t, g.Contains(Pt(0, -1, 0)))

	for _, p := range []Point{Pt(-1, -1, -1), Pt(0, 0, 0)} {
		require.True(t, g.Contains(p), "point %v", p)
	}
}

func TestLODGetAverages(t *testing.T) {
	g := New[cell](2)
	for _, p := range []Point{Pt(-1, -1, -1), Pt(0, -1, -1), Pt(-1, 0, -1), Pt(0, 0, -1)} {
		g.Insert(p, cell{v: 0})
	}
	for _, p := range []Point{Pt(-1, -1, 0), Pt(0, -1, 0), Pt(-1, 0, 0), Pt(0, 0, 0)} {
		g.Insert(p, cell{v: 1})
	}

	g.SetLOD(1)
	got, ok := g.Get(Pt(0, 0, 0))
	require.True(t, ok)
	require.Equal(t, 0.5, got.v)

	// Raw storage is untouched by the read level.
	g.SetLOD(0)
	got, ok = g.Get(Pt(0, 0, 0))
	require.True(t, ok)
	require.Equal(t, 1.0, got.v)
}

func TestLODForEachFoldsWindows(t *testing.T) {
	g := New[cell](4)
	fillBox(g, Pt(-2, -2, -2), 2, cell{v: 2})
	fillBox(g, Pt(0, 0, 0), 2, cell{v: 4})

	g.SetLOD(1)
	var elems []Element[cell]
	g.ForEach(func(e Element[cell]) bool {
		elems = append(elems, e)
		return true
	})
	require.Len(t, elems, 2)
	for _, e := range elems {
		require.Equal(t, 2, e.Width)
	}
}

func TestMutateReachesMergedAuthority(t *testing.T) {
	g := New[cell](2)
	fillBox(g, Pt(-1, -1, -1), 2, cell{v: 5})
	g.Merge()

	ok := g.Mutate(Pt(0, 0, 0), func(c *cell) { c.v = 8 })
	require.True(t, ok)

	for _, p := range []Point{Pt(-1, -1, -1), Pt(0, 0, 0), Pt(-1, 0, 0)} {
		got, ok := g.Get(p)
		require.True(t, ok)
		require.Equal(t, 8.0, got.v, "point %v", p)
	}
}

func TestRunsRoundTrip(t *testing.T) {
	g := New[cell](4)
	fillBox(g, Pt(-2, -2, -2), 2, cell{v: 3})
	g.Insert(Pt(1, 1, 1), cell{v: 7})
	g.Merge()

	eq := func(a, b cell) bool { return a.Equal(b) }
	runs := g.Runs(eq)

	total := 0
	for _, r := range runs {
		total += r.Len
	}
	require.Equal(t, 64, total)

	g2, err := FromRuns(4, runs)
	require.NoError(t, err)
	require.Equal(t, g.Len(), g2.Len())
	for x := -2; x < 2; x++ {
		for y := -2; y < 2; y++ {
			for z := -2; z < 2; z++ {
				a, aok := g.Get(Pt(x, y, z))
				b, bok := g2.Get(Pt(x, y, z))
				require.Equal(t, aok, bok, "point %d,%d,%d", x, y, z)
				require.Equal(t, a, b, "point %d,%d,%d", x, y, z)
			}
		}
	}
}

func TestFromRunsRejectsBadCoverage(t *testing.T) {
	_, err := FromRuns[cell](2, []Run[cell]{{OK: false, Len: 7}})
	require.Error(t, err)

	_, err = FromRuns[cell](2, []Run[cell]{{OK: false, Len: 9}})
	require.Error(t, err)
}

func TestFromRunsRebuildsMerged(t *testing.T) {
	g, err := FromRuns(4, []Run[cell]{{Value: cell{v: 1}, OK: true, Len: 64}})
	require.NoError(t, err)
	require.Equal(t, 64, g.Len())

	var elems []Element[cell]
	g.ForEach(func(e Element[cell]) bool {
		elems = append(elems, e)
		return true
	})
	require.Len(t, elems, 1)
	require.Equal(t, 4, elems[0].Width)
}
