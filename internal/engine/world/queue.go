package world

import (
	"sort"
	"sync"
)

// Op is a pending pipeline operation for a chunk coordinate. Ops are totally
// ordered; a later stage always outranks an earlier one.
type Op int

const (
	OpGenerate Op = iota + 1
	OpLightMap
	OpLight
	OpMesh
)

func (o Op) String() string {
	switch o {
	case OpGenerate:
		return "generate"
	case OpLightMap:
		return "lightmap"
	case OpLight:
		return "light"
	case OpMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Queue maps each chunk coordinate to its single highest-ranked pending
// operation. Upserts only ever upgrade; a coordinate holds at most one entry.
type Queue struct {
	mu      sync.Mutex
	pending map[Pos]Op
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{pending: make(map[Pos]Op)}
}

// Upsert records op for p unless a higher-or-equal ranked operation is
// already pending there. Reports whether the entry was created or upgraded.
func (q *Queue) Upsert(p Pos, op Op) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if cur, ok := q.pending[p]; ok && cur >= op {
		return false
	}
	q.pending[p] = op
	return true
}

// Remove drops the pending entry for p, if any.
func (q *Queue) Remove(p Pos) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, p)
}

// Op returns the pending operation for p.
func (q *Queue) Op(p Pos) (Op, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	op, ok := q.pending[p]
	return op, ok
}

// Len returns the number of coordinates with a pending operation.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Match returns the coordinates whose pending operation equals op, in a
// deterministic coordinate order so batch passes are reproducible.
func (q *Queue) Match(op Op) []Pos {
	q.mu.Lock()
	var out []Pos
	for p, cur := range q.pending {
		if cur == op {
			out = append(out, p)
		}
	}
	q.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}
