package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/voxelforge/engine/pkg/voxel"
	"github.com/voxelforge/engine/pkg/voxel/tree"
)

func TestQueueUpgradesNeverDowngrades(t *testing.T) {
	q := NewQueue()
	p := Pos{X: 1, Y: 2, Z: 3}

	require.True(t, q.Upsert(p, OpLightMap))

	// Same or lower rank is a no-op.
	require.False(t, q.Upsert(p, OpLightMap))
	require.False(t, q.Upsert(p, OpGenerate))
	op, ok := q.Op(p)
	require.True(t, ok)
	require.Equal(t, OpLightMap, op)

	// Higher rank upgrades.
	require.True(t, q.Upsert(p, OpMesh))
	op, _ = q.Op(p)
	require.Equal(t, OpMesh, op)

	// And cannot be pushed back down.
	require.False(t, q.Upsert(p, OpLightMap))
	op, _ = q.Op(p)
	require.Equal(t, OpMesh, op)
	require.Equal(t, 1, q.Len())
}

func TestQueueMatchIsSortedAndExact(t *testing.T) {
	q := NewQueue()
	q.Upsert(Pos{X: 2}, OpMesh)
	q.Upsert(Pos{X: -1}, OpMesh)
	q.Upsert(Pos{X: 0, Y: 1}, OpMesh)
	q.Upsert(Pos{X: 0}, OpLight)

	got := q.Match(OpMesh)
	require.Equal(t, []Pos{{X: -1}, {X: 0, Y: 1}, {X: 2}}, got)

	q.Remove(Pos{X: -1})
	require.Len(t, q.Match(OpMesh), 2)
	require.Equal(t, 3, q.Len())
}

func TestIndexInsertReplaceRemove(t *testing.T) {
	ix := NewIndex(16)
	p := Pos{X: 0, Y: -1, Z: 2}

	a := NewChunk(p, 16)
	ix.Insert(a)
	got, ok := ix.At(p)
	require.True(t, ok)
	require.Same(t, a, got)
	require.Equal(t, 1, ix.Len())

	// Regeneration replaces, never merges.
	b := NewChunk(p, 16)
	ix.Insert(b)
	got, _ = ix.At(p)
	require.Same(t, b, got)
	require.Equal(t, 1, ix.Len())

	removed, ok := ix.Remove(p)
	require.True(t, ok)
	require.Same(t, b, removed)
	_, ok = ix.At(p)
	require.False(t, ok)
	require.Equal(t, 0, ix.Len())
}

func TestIndexWithin(t *testing.T) {
	ix := NewIndex(16)
	for x := -2; x <= 2; x++ {
		ix.Insert(NewChunk(Pos{X: x}, 16))
	}

	hits := ix.Within(Pos{X: -1, Y: 0, Z: 0}, Pos{X: 1, Y: 0, Z: 0})
	require.Len(t, hits, 3)
	for _, c := range hits {
		require.GreaterOrEqual(t, c.Pos().X, -1)
		require.LessOrEqual(t, c.Pos().X, 1)
	}
}

func TestNeighborsCount(t *testing.T) {
	n := (Pos{}).Neighbors()
	require.Len(t, n, 26)
	seen := make(map[Pos]bool)
	for _, p := range n {
		require.NotEqual(t, Pos{}, p)
		require.False(t, seen[p])
		seen[p] = true
	}
}

func TestChunkLODAppliesToVoxelsOnly(t *testing.T) {
	c := NewChunk(Pos{}, 4)
	c.Voxels().Insert(tree.Pt(0, 0, 0), voxel.NewBlock(mgl32.Vec4{1, 1, 1, 1}))
	c.Light().Insert(tree.Pt(0, 0, 0), voxel.Light(1))

	c.SetLOD(1)
	require.Equal(t, 1, c.LOD())
	require.Equal(t, 1, c.Voxels().LOD())
	require.Equal(t, 0, c.Light().LOD())
}
