package pathfinding

import (
	"container/heap"

	"github.com/picogrid/expedition-sim/pkg/geo"
)

// node is one frontier entry.
type node struct {
	key   string
	coord geo.Coordinate
	g     float64
	h     float64
}

func (n *node) f() float64 { return n.g + n.h }

// frontier is a binary min-heap of nodes ordered by f, then h, then key.
//
// It uses lazy deletion: when a cheaper route to a node is found the node is
// pushed again instead of being updated in place, and the stale entry is
// skipped when it surfaces (its key is already in the closed set, or its g
// is above the best known). This trades memory for a much simpler queue with
// no index bookkeeping.
type frontier []*node

func (q frontier) Len() int { return len(q) }

func (q frontier) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.f() != b.f() {
		return a.f() < b.f()
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.key < b.key
}

func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *frontier) Push(x interface{}) { *q = append(*q, x.(*node)) }

func (q *frontier) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

func (q *frontier) push(n *node) { heap.Push(q, n) }

func (q *frontier) pop() *node { return heap.Pop(q).(*node) }
