// Package pheap implements a min pairing heap with in-place decrease-key.
//
// Push and DecreaseKey are O(1); Pop is amortized O(log n). The heap shape is
// repaired lazily with a two-pass pairing merge on Pop, so workloads that
// reschedule far more often than they pop stay cheap.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
package pheap

// LessFunc reports whether a orders strictly before b.
type LessFunc[T any] func(a, b T) bool

// Node is the handle returned by Push. It stays valid until the element is
// popped; a popped handle must not be passed back to the heap.
type Node[T any] struct {
	value T

	child   *Node[T] // leftmost child
	sibling *Node[T] // next sibling to the right
	prev    *Node[T] // parent if leftmost child, else left sibling

	owner *Heap[T]
}

// Value returns the element's current key.
func (n *Node[T]) Value() T {
	return n.value
}

// InHeap reports whether the handle still refers to a live element.
func (n *Node[T]) InHeap() bool {
	return n.owner != nil
}

// Heap is a min pairing heap ordered by a LessFunc.
type Heap[T any] struct {
	root *Node[T]
	size int
	less LessFunc[T]

	scratch []*Node[T] // reused by Pop to avoid per-pop allocation
}

// New creates an empty heap ordered by less.
func New[T any](less LessFunc[T]) *Heap[T] {
	if less == nil {
		panic("pheap: less must not be nil")
	}
	return &Heap[T]{less: less}
}

// Len returns the number of elements in the heap.
func (h *Heap[T]) Len() int {
	return h.size
}

// Push inserts v and returns its handle.
func (h *Heap[T]) Push(v T) *Node[T] {
	n := &Node[T]{value: v, owner: h}
	h.root = h.meld(h.root, n)
	h.size++
	return n
}

// Peek returns the minimum element without removing it.
// The second result is false when the heap is empty.
func (h *Heap[T]) Peek() (T, bool) {
	if h.root == nil {
		var zero T
		return zero, false
	}
	return h.root.value, true
}

// PeekNode returns the handle of the minimum element, or nil when empty.
func (h *Heap[T]) PeekNode() *Node[T] {
	return h.root
}

// Pop removes and returns the minimum element.
// The second result is false when the heap is empty.
func (h *Heap[T]) Pop() (T, bool) {
	n := h.PopNode()
	if n == nil {
		var zero T
		return zero, false
	}
	return n.value, true
}

// PopNode removes the minimum element and returns its (now detached) handle,
// or nil when the heap is empty.
func (h *Heap[T]) PopNode() *Node[T] {
	r := h.root
	if r == nil {
		return nil
	}
	h.root = h.mergePairs(r.child)
	h.size--

	r.child = nil
	r.owner = nil
	return r
}

// DecreaseKey replaces n's key with v. v must not order after the current
// key; passing a larger key or a handle from another heap panics.
func (h *Heap[T]) DecreaseKey(n *Node[T], v T) {
	if n.owner != h {
		panic("pheap: DecreaseKey on a node that is not in this heap")
	}
	if h.less(n.value, v) {
		panic("pheap: DecreaseKey with a key larger than the current one")
	}
	n.value = v
	if n == h.root {
		return
	}

	h.cut(n)
	h.root = h.meld(h.root, n)
}

// cut detaches the subtree rooted at n from its parent or left sibling.
func (h *Heap[T]) cut(n *Node[T]) {
	if n.prev.child == n {
		n.prev.child = n.sibling
	} else {
		n.prev.sibling = n.sibling
	}
	if n.sibling != nil {
		n.sibling.prev = n.prev
	}
	n.prev = nil
	n.sibling = nil
}

// meld links two detached roots and returns the new root. On a tie the
// first argument stays on top.
func (h *Heap[T]) meld(a, b *Node[T]) *Node[T] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if h.less(b.value, a.value) {
		a, b = b, a
	}

	b.prev = a
	b.sibling = a.child
	if a.child != nil {
		a.child.prev = b
	}
	a.child = b
	a.prev = nil
	a.sibling = nil
	return a
}

// mergePairs runs the standard two-pass merge over a sibling list: meld
// adjacent pairs left to right, then fold the results right to left.
func (h *Heap[T]) mergePairs(first *Node[T]) *Node[T] {
	if first == nil {
		return nil
	}

	trees := h.scratch[:0]
	for c := first; c != nil; {
		next := c.sibling
		c.prev = nil
		c.sibling = nil
		trees = append(trees, c)
		c = next
	}

	paired := 0
	for i := 0; i < len(trees); i += 2 {
		if i+1 < len(trees) {
			trees[paired] = h.meld(trees[i], trees[i+1])
		} else {
			trees[paired] = trees[i]
		}
		paired++
	}

	root := trees[paired-1]
	for i := paired - 2; i >= 0; i-- {
		root = h.meld(trees[i], root)
	}

	clear(trees)
	h.scratch = trees[:0]
	return root
}
