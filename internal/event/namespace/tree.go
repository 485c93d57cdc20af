package namespace

import (
	"slices"
	"sort"
	"sync"
)

// Tree is a thread-safe trie keyed by namespace segment.
//
// Each node holds an ordered list of values. Values are compared by equality,
// so pointer types give identity semantics. The tree never prunes nodes.
//
// Callers must not hold references obtained from Snapshot or Children across
// the assumption that the tree is unchanged; every accessor takes the lock for
// the duration of a single read or write only, which lets callbacks that run
// between accessors mutate the tree freely.
type Tree[T comparable] struct {
	mu   sync.RWMutex
	root *Node[T]
}

// Node is one namespace level. Its contents are only reachable through the
// owning Tree.
type Node[T comparable] struct {
	children map[string]*Node[T]
	values   []T
}

// Entry pairs a child node with the segment that reaches it.
type Entry[T comparable] struct {
	Segment string
	Node    *Node[T]
}

func newNode[T comparable]() *Node[T] {
	return &Node[T]{
		children: make(map[string]*Node[T]),
	}
}

// NewTree creates an empty tree.
func NewTree[T comparable]() *Tree[T] {
	return &Tree[T]{
		root: newNode[T](),
	}
}

// Root returns the root node.
func (t *Tree[T]) Root() *Node[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Initialize root if zero-value Tree is used
	if t.root == nil {
		t.root = newNode[T]()
	}
	return t.root
}

// Ensure descends from the root, creating every missing node, and returns the
// terminal node.
func (t *Tree[T]) Ensure(segments []string) *Node[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.ensureLocked(segments)
}

func (t *Tree[T]) ensureLocked(segments []string) *Node[T] {
	if t.root == nil {
		t.root = newNode[T]()
	}

	node := t.root
	for _, seg := range segments {
		child := node.children[seg]
		if child == nil {
			child = newNode[T]()
			node.children[seg] = child
		}
		node = child
	}
	return node
}

// Append ensures the path exists and appends v to its terminal node.
func (t *Tree[T]) Append(segments []string, v T) *Node[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.ensureLocked(segments)
	node.values = append(node.values, v)
	return node
}

// Lookup resolves segments from the root without creating nodes.
func (t *Tree[T]) Lookup(segments []string) (*Node[T], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.lookupLocked(segments)
	return node, node != nil
}

func (t *Tree[T]) lookupLocked(segments []string) *Node[T] {
	node := t.root
	for _, seg := range segments {
		if node == nil {
			return nil
		}
		node = node.children[seg]
	}
	return node
}

// Child returns the child of node reached by seg.
func (t *Tree[T]) Child(node *Node[T], seg string) (*Node[T], bool) {
	if node == nil {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	child, ok := node.children[seg]
	return child, ok
}

// Children returns the children of node ordered by segment.
func (t *Tree[T]) Children(node *Node[T]) []Entry[T] {
	if node == nil {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(node.children) == 0 {
		return nil
	}

	entries := make([]Entry[T], 0, len(node.children))
	for seg, child := range node.children {
		entries = append(entries, Entry[T]{Segment: seg, Node: child})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Segment < entries[j].Segment
	})
	return entries
}

// Snapshot returns a copy of the values held by node.
// Mutations made after the call do not affect the returned slice.
func (t *Tree[T]) Snapshot(node *Node[T]) []T {
	if node == nil {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Clone(node.values)
}

// Remove deletes the first occurrence of v at the node reached by segments.
// The node itself is kept even when it becomes empty.
func (t *Tree[T]) Remove(segments []string, v T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.lookupLocked(segments)
	if node == nil {
		return ErrPathNotFound
	}

	i := slices.Index(node.values, v)
	if i < 0 {
		return ErrNotSubscribed
	}
	node.values = slices.Delete(node.values, i, i+1)
	return nil
}

// Count returns the number of values at the node reached by segments.
func (t *Tree[T]) Count(segments []string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.lookupLocked(segments)
	if node == nil {
		return 0
	}
	return len(node.values)
}

// Size returns the number of values stored in the whole tree.
func (t *Tree[T]) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	walk(t.root, nil, func(_ []string, n *Node[T]) {
		count += len(n.values)
	})
	return count
}

// NodeCount returns the number of nodes below the root.
// Since nodes are never pruned this only grows.
func (t *Tree[T]) NodeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	walk(t.root, nil, func(path []string, _ *Node[T]) {
		if len(path) > 0 {
			count++
		}
	})
	return count
}

// Paths returns every path that currently holds at least one value, joined
// with syntax and sorted.
func (t *Tree[T]) Paths(syntax Syntax) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var paths []string
	walk(t.root, nil, func(path []string, n *Node[T]) {
		if len(n.values) > 0 && len(path) > 0 {
			paths = append(paths, syntax.Join(path))
		}
	})
	sort.Strings(paths)
	return paths
}

// walk visits node and all descendants depth-first. Caller holds the lock.
func walk[T comparable](node *Node[T], path []string, visit func([]string, *Node[T])) {
	if node == nil {
		return
	}

	visit(path, node)

	for seg, child := range node.children {
		walk(child, append(slices.Clip(path), seg), visit)
	}
}
