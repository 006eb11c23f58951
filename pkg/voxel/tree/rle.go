package tree

import "fmt"

// Run is one run-length entry over the grid's Morton slot order. OK false
// encodes a run of unoccupied cells.
type Run[T any] struct {
	Value T
	OK    bool
	Len   int
}

// Runs flattens the grid into run-length entries covering every cell in
// Morton order, including unoccupied spans. Adjacent cells coalesce when eq
// reports their values equal, letting callers run-length by a coarser
// equality than the value type's own (a serializer that drops derived
// fields, for instance).
func (g *Grid[T]) Runs(eq func(a, b T) bool) []Run[T] {
	var runs []Run[T]
	for i := range g.nodes {
		n := &g.nodes[g.resolve(i)]
		if len(runs) > 0 {
			last := &runs[len(runs)-1]
			if last.OK == n.ok && (!n.ok || eq(last.Value, n.value)) {
				last.Len++
				continue
			}
		}
		runs = append(runs, Run[T]{Value: n.value, OK: n.ok, Len: 1})
	}
	return runs
}

// FromRuns rebuilds a grid of side length width from run-length entries.
// Each run is expanded into the largest aligned power-of-eight regions that
// fit, so uniform spans come back pre-merged. The runs must cover the volume
// exactly.
func FromRuns[T Value[T]](width int, runs []Run[T]) (*Grid[T], error) {
	g := New[T](width)
	i := 0
	for _, run := range runs {
		if run.Len < 0 || i+run.Len > len(g.nodes) {
			return nil, fmt.Errorf("tree: runs exceed volume %d", len(g.nodes))
		}
		n := run.Len
		for n > 0 {
			k := 0
			for 1<<(3*(k+1)) <= n && i&(1<<(3*(k+1))-1) == 0 {
				k++
			}
			size := 1 << (3 * k)
			g.nodes[i] = node[T]{ref: -1, width: int32(1) << k, ok: run.OK, value: run.Value}
			for j := i + 1; j < i+size; j++ {
				g.nodes[j] = node[T]{ref: int32(i)}
			}
			if run.OK {
				g.length += size
			}
			i += size
			n -= size
		}
	}
	if i != len(g.nodes) {
		return nil, fmt.Errorf("tree: runs cover %d of %d cells", i, len(g.nodes))
	}
	return g, nil
}
