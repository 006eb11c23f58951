package world

import (
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/voxelforge/engine/pkg/voxel/tree"
)

// entry adapts a chunk to the R-tree's Spatial interface. The bounding box
// is the chunk's world-unit extent, precomputed at insert time.
type entry struct {
	chunk *Chunk
	rect  rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.rect }

// Index owns all chunks of one world, keyed by chunk grid coordinate. Point
// lookups go through a map, range queries through an R-tree over world-unit
// bounding boxes. Reads from many neighbor lookups and writes from the stage
// owning the current pass are serialized with a read-write lock.
type Index struct {
	mu      sync.RWMutex
	width   int
	entries map[Pos]*entry
	rt      *rtreego.Rtree
}

// NewIndex creates an empty index for chunks of the given side length.
func NewIndex(width int) *Index {
	return &Index{
		width:   width,
		entries: make(map[Pos]*entry),
		rt:      rtreego.NewTree(3, 16, 64),
	}
}

// Width returns the chunk side length the index was built for.
func (ix *Index) Width() int { return ix.width }

// Len returns the number of chunks held.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Insert stores c, replacing any chunk already at its coordinate.
func (ix *Index) Insert(c *Chunk) {
	w := float64(ix.width)
	p := c.Pos()
	rect, _ := rtreego.NewRect(
		rtreego.Point{float64(p.X) * w, float64(p.Y) * w, float64(p.Z) * w},
		[]float64{w, w, w},
	)
	e := &entry{chunk: c, rect: rect}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if old, ok := ix.entries[p]; ok {
		ix.rt.Delete(old)
	}
	ix.entries[p] = e
	ix.rt.Insert(e)
}

// At returns the chunk at coordinate p, if present.
func (ix *Index) At(p Pos) (*Chunk, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entries[p]
	if !ok {
		return nil, false
	}
	return e.chunk, true
}

// Remove deletes and returns the chunk at coordinate p.
func (ix *Index) Remove(p Pos) (*Chunk, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.entries[p]
	if !ok {
		return nil, false
	}
	delete(ix.entries, p)
	ix.rt.Delete(e)
	return e.chunk, true
}

// ForEach calls fn for every chunk. Returning false stops the walk. The lock
// is held for the duration; fn must not call back into the index.
func (ix *Index) ForEach(fn func(*Chunk) bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, e := range ix.entries {
		if !fn(e.chunk) {
			return
		}
	}
}

// ResolveLocal maps a local coordinate relative to the chunk at from, which
// may fall outside that chunk's bounds, onto the owning chunk and its local
// coordinate there. Reports false when the owning chunk is not loaded.
func (ix *Index) ResolveLocal(from Pos, p tree.Point) (*Chunk, tree.Point, bool) {
	w := ix.width
	half := w / 2
	div := func(v int) (d, local int) {
		u := v + half
		d = u / w
		if u%w < 0 {
			d--
		}
		return d, v - d*w
	}
	dx, lx := div(p.X)
	dy, ly := div(p.Y)
	dz, lz := div(p.Z)
	c, ok := ix.At(Pos{X: from.X + dx, Y: from.Y + dy, Z: from.Z + dz})
	if !ok {
		return nil, tree.Point{}, false
	}
	return c, tree.Pt(lx, ly, lz), true
}

// Within returns the chunks whose world-unit bounds intersect the box
// spanned by the chunk coordinates min and max, inclusive. The query rect
// is inset by half a voxel so merely touching chunks do not match.
func (ix *Index) Within(min, max Pos) []*Chunk {
	w := float64(ix.width)
	const inset = 0.5
	rect, err := rtreego.NewRect(
		rtreego.Point{
			float64(min.X)*w + inset,
			float64(min.Y)*w + inset,
			float64(min.Z)*w + inset,
		},
		[]float64{
			float64(max.X-min.X+1)*w - 2*inset,
			float64(max.Y-min.Y+1)*w - 2*inset,
			float64(max.Z-min.Z+1)*w - 2*inset,
		},
	)
	if err != nil {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	hits := ix.rt.SearchIntersect(rect)
	out := make([]*Chunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*entry).chunk)
	}
	return out
}
