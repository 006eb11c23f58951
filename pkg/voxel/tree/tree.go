// Package tree implements a mergeable sparse voxel grid: a fixed-width cubic
// array-backed implicit octree whose cells can be collapsed in place into
// larger regions through slot indirection, without moving data.
//
// The grid spans a power-of-two cube using the centered coordinate convention
// [-width/2, width/2) on every axis. Slots are addressed by a Morton
// bit-interleaved code, so every power-of-eight-aligned region occupies a
// contiguous, aligned slot range. A slot is either authoritative (it holds an
// optional value and the width of the region it represents) or a forwarding
// index into another slot; following forwarding indices from any slot
// terminates at exactly one authoritative slot.
package tree

import (
	"fmt"
	"math/bits"
)

// Point is a cell coordinate inside a grid.
type Point struct {
	X, Y, Z int
}

// Pt is shorthand for constructing a Point.
func Pt(x, y, z int) Point { return Point{X: x, Y: y, Z: z} }

// Value is the behavior a stored element type supplies: equality for merge
// decisions, an opt-out from spatial merging, and the policy collapsing a
// group of raw values into one (used by LOD reads).
type Value[T any] interface {
	Equal(T) bool
	CanMerge() bool
	Average([]T) (T, bool)
}

type node[T any] struct {
	ref   int32 // slot this cell forwards to, -1 when authoritative
	width int32 // region width, meaningful when ref == -1
	ok    bool  // value present, meaningful when ref == -1
	value T
}

// Grid is the sparse voxel grid. The zero value is not usable; construct
// with New.
type Grid[T Value[T]] struct {
	depth  int
	lod    int
	length int
	nodes  []node[T]
}

// New creates an empty grid of side length width, which must be a power of
// two. Every cell starts as an unoccupied width-1 region.
func New[T Value[T]](width int) *Grid[T] {
	if width < 1 || width&(width-1) != 0 {
		panic(fmt.Sprintf("tree: width %d is not a power of two", width))
	}
	depth := bits.Len(uint(width)) - 1
	g := &Grid[T]{
		depth: depth,
		nodes: make([]node[T], width*width*width),
	}
	for i := range g.nodes {
		g.nodes[i] = node[T]{ref: -1, width: 1}
	}
	return g
}

// Width returns the grid's side length in cells.
func (g *Grid[T]) Width() int { return 1 << g.depth }

// Depth returns the number of octree levels.
func (g *Grid[T]) Depth() int { return g.depth }

// Len returns the number of occupied logical cells.
func (g *Grid[T]) Len() int { return g.length }

// LOD returns the current read level of detail, 0 being the finest.
func (g *Grid[T]) LOD() int { return g.lod }

// SetLOD changes the read level of detail. Reads at level l average raw
// values over the enclosing 2^l window; stored data is unaffected.
func (g *Grid[T]) SetLOD(lod int) {
	if lod < 0 {
		lod = 0
	}
	if lod > g.depth {
		lod = g.depth
	}
	g.lod = lod
}

// Clear removes all values, resetting every cell to an unoccupied unit
// region.
func (g *Grid[T]) Clear() {
	for i := range g.nodes {
		g.nodes[i] = node[T]{ref: -1, width: 1}
	}
	g.length = 0
}

func expand3(v uint32) uint32 {
	v &= 0x3FF
	v = (v | v<<16) & 0x030000FF
	v = (v | v<<8) & 0x0300F00F
	v = (v | v<<4) & 0x030C30C3
	v = (v | v<<2) & 0x09249249
	return v
}

func compact3(v uint32) uint32 {
	v &= 0x09249249
	v = (v | v>>2) & 0x030C30C3
	v = (v | v>>4) & 0x0300F00F
	v = (v | v>>8) & 0x030000FF
	v = (v | v>>16) & 0x3FF
	return v
}

func (g *Grid[T]) inBounds(p Point) bool {
	half := 1 << g.depth / 2
	return p.X >= -half && p.X < half &&
		p.Y >= -half && p.Y < half &&
		p.Z >= -half && p.Z < half
}

func (g *Grid[T]) index(p Point) int {
	half := uint32(1 << g.depth / 2)
	x := uint32(p.X) + half
	y := uint32(p.Y) + half
	z := uint32(p.Z) + half
	return int(expand3(x) | expand3(y)<<1 | expand3(z)<<2)
}

func (g *Grid[T]) coords(i int) Point {
	half := 1 << g.depth / 2
	u := uint32(i)
	return Point{
		X: int(compact3(u)) - half,
		Y: int(compact3(u>>1)) - half,
		Z: int(compact3(u>>2)) - half,
	}
}

// resolve follows forwarding indices to the authoritative slot.
func (g *Grid[T]) resolve(i int) int {
	for g.nodes[i].ref >= 0 {
		i = int(g.nodes[i].ref)
	}
	return i
}

// settle extracts the previous logical value displaced from slot i, shrinking
// the width of the region it belonged to by one level per forwarding hop.
// Width correction is lazy; the next Merge restores consistency.
func (g *Grid[T]) settle(old node[T]) (T, bool) {
	if old.ref < 0 {
		return old.value, old.ok
	}
	hops := 1
	j := int(old.ref)
	for g.nodes[j].ref >= 0 {
		j = int(g.nodes[j].ref)
		hops++
	}
	auth := &g.nodes[j]
	auth.width >>= hops
	if auth.width < 1 {
		auth.width = 1
	}
	return auth.value, auth.ok
}

// Insert stores v at p and returns the previous logical value there.
// Out-of-bounds coordinates are a no-op returning false.
func (g *Grid[T]) Insert(p Point, v T) (T, bool) {
	var zero T
	if !g.inBounds(p) {
		return zero, false
	}
	i := g.index(p)
	old := g.nodes[i]
	g.nodes[i] = node[T]{ref: -1, width: 1, ok: true, value: v}
	prev, ok := g.settle(old)
	if !ok {
		g.length++
	}
	return prev, ok
}

// Remove clears the cell at p and returns the previous logical value.
func (g *Grid[T]) Remove(p Point) (T, bool) {
	var zero T
	if !g.inBounds(p) {
		return zero, false
	}
	i := g.index(p)
	old := g.nodes[i]
	g.nodes[i] = node[T]{ref: -1, width: 1}
	prev, ok := g.settle(old)
	if ok {
		g.length--
	}
	return prev, ok
}

// Get reads the cell at p. At LOD 0 it returns the stored leaf value. At
// higher levels it truncates p to the enclosing LOD window and returns the
// value-type average of the distinct regions inside it.
func (g *Grid[T]) Get(p Point) (T, bool) {
	var zero T
	if !g.inBounds(p) {
		return zero, false
	}
	if g.lod == 0 {
		n := &g.nodes[g.resolve(g.index(p))]
		if !n.ok {
			return zero, false
		}
		return n.value, true
	}

	lw := 1 << g.lod
	base := Point{X: p.X &^ (lw - 1), Y: p.Y &^ (lw - 1), Z: p.Z &^ (lw - 1)}
	var vals []T
	seen := make(map[int]struct{}, 8)
	for dx := 0; dx < lw; dx++ {
		for dy := 0; dy < lw; dy++ {
			for dz := 0; dz < lw; dz++ {
				r := g.resolve(g.index(Point{base.X + dx, base.Y + dy, base.Z + dz}))
				if _, dup := seen[r]; dup {
					continue
				}
				seen[r] = struct{}{}
				if g.nodes[r].ok {
					vals = append(vals, g.nodes[r].value)
				}
			}
		}
	}
	if len(vals) == 0 {
		return zero, false
	}
	return vals[0].Average(vals)
}

// Contains reports whether Get would return a value at p.
func (g *Grid[T]) Contains(p Point) bool {
	_, ok := g.Get(p)
	return ok
}

// Mutate applies fn to the authoritative value for p, if occupied. The
// resolution step means a merged region is mutated through its single
// owning slot regardless of which member coordinate is named.
func (g *Grid[T]) Mutate(p Point, fn func(*T)) bool {
	if !g.inBounds(p) {
		return false
	}
	n := &g.nodes[g.resolve(g.index(p))]
	if !n.ok {
		return false
	}
	fn(&n.value)
	return true
}

// Merge compacts the grid bottom-up: at each level, any aligned group of 8
// sibling regions that resolve to equal-width, equal-value, mergeable nodes
// collapses into one region of twice the width, the other 7 becoming
// forwarding slots. Unoccupied regions merge as well. Runs in O(volume).
func (g *Grid[T]) Merge() {
	var zero T
	for d := 1; d <= g.depth; d++ {
		block := 1 << (3 * d)
		child := block >> 3
		cw := int32(1) << (d - 1)
		for base := 0; base < len(g.nodes); base += block {
			r0 := g.resolve(base)
			first := &g.nodes[r0]
			if first.width >= cw*2 {
				continue
			}
			if first.width != cw || (first.ok && !first.value.CanMerge()) {
				continue
			}
			var reps [8]int
			reps[0] = r0
			match := true
			for c := 1; c < 8 && match; c++ {
				r := g.resolve(base + c*child)
				for p := 0; p < c; p++ {
					if reps[p] == r {
						// A lazily shrunk region still spans siblings;
						// this group cannot form a clean octant.
						match = false
					}
				}
				if !match {
					break
				}
				reps[c] = r
				n := &g.nodes[r]
				if n.width != cw || n.ok != first.ok {
					match = false
					break
				}
				if n.ok && (!n.value.CanMerge() || !first.value.Equal(n.value)) {
					match = false
				}
			}
			if !match {
				continue
			}
			for c := 1; c < 8; c++ {
				g.nodes[reps[c]] = node[T]{ref: int32(r0), value: zero}
			}
			first.width = cw * 2
		}
	}
}

// Element is one distinct region reported by ForEach.
type Element[T any] struct {
	X, Y, Z int
	Width   int
	Value   T
}

// ElementMut is one distinct region reported by ForEachMut; Value points at
// the region's single authoritative storage.
type ElementMut[T any] struct {
	X, Y, Z int
	Width   int
	Value   *T
}

// ForEach calls fn once per distinct occupied region, deduplicating regions
// reachable through multiple forwarding chains. At LOD > 0 regions smaller
// than the LOD window are folded into one averaged element per window.
// Returning false from fn stops the walk.
func (g *Grid[T]) ForEach(fn func(Element[T]) bool) {
	if g.lod == 0 {
		seen := make([]bool, len(g.nodes))
		for i := range g.nodes {
			r := g.resolve(i)
			if seen[r] {
				continue
			}
			seen[r] = true
			n := &g.nodes[r]
			if !n.ok {
				continue
			}
			p := g.coords(r)
			if !fn(Element[T]{X: p.X, Y: p.Y, Z: p.Z, Width: int(n.width), Value: n.value}) {
				return
			}
		}
		return
	}

	lw := 1 << g.lod
	step := lw * lw * lw
	seen := make([]bool, len(g.nodes))
	for base := 0; base < len(g.nodes); base += step {
		r := g.resolve(base)
		n := &g.nodes[r]
		if int(n.width) >= lw {
			// One region fills (or exceeds) the window; report it once.
			if seen[r] {
				continue
			}
			seen[r] = true
			if !n.ok {
				continue
			}
			p := g.coords(r)
			if !fn(Element[T]{X: p.X, Y: p.Y, Z: p.Z, Width: int(n.width), Value: n.value}) {
				return
			}
			continue
		}
		var vals []T
		for j := base; j < base+step; j++ {
			rj := g.resolve(j)
			if seen[rj] {
				continue
			}
			seen[rj] = true
			if g.nodes[rj].ok {
				vals = append(vals, g.nodes[rj].value)
			}
		}
		if len(vals) == 0 {
			continue
		}
		avg, ok := vals[0].Average(vals)
		if !ok {
			continue
		}
		p := g.coords(base)
		if !fn(Element[T]{X: p.X, Y: p.Y, Z: p.Z, Width: lw, Value: avg}) {
			return
		}
	}
}

// ForEachMut calls fn once per distinct occupied region with a pointer to
// its authoritative value. Always walks at full resolution.
func (g *Grid[T]) ForEachMut(fn func(ElementMut[T]) bool) {
	seen := make([]bool, len(g.nodes))
	for i := range g.nodes {
		r := g.resolve(i)
		if seen[r] {
			continue
		}
		seen[r] = true
		n := &g.nodes[r]
		if !n.ok {
			continue
		}
		p := g.coords(r)
		if !fn(ElementMut[T]{X: p.X, Y: p.Y, Z: p.Z, Width: int(n.width), Value: &n.value}) {
			return
		}
	}
}
