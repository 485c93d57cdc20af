package namespace

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct{ name string }

func TestTree_ZeroValue(t *testing.T) {
	var tree Tree[*item]

	_, ok := tree.Lookup([]string{"a"})
	assert.False(t, ok)
	assert.Equal(t, 0, tree.Size())
	assert.Equal(t, 0, tree.NodeCount())
	assert.ErrorIs(t, tree.Remove([]string{"a"}, &item{}), ErrPathNotFound)

	tree.Append([]string{"a", "b"}, &item{"x"})
	assert.Equal(t, 1, tree.Size())
	assert.Equal(t, 2, tree.NodeCount())
}

func TestTree_Ensure(t *testing.T) {
	tree := NewTree[*item]()

	n1 := tree.Ensure([]string{"hello", "world"})
	n2 := tree.Ensure([]string{"hello", "world"})
	assert.Same(t, n1, n2)

	parent, ok := tree.Lookup([]string{"hello"})
	require.True(t, ok)
	child, ok := tree.Child(parent, "world")
	require.True(t, ok)
	assert.Same(t, n1, child)

	_, ok = tree.Child(parent, "earth")
	assert.False(t, ok)
	assert.Equal(t, 2, tree.NodeCount())
}

func TestTree_AppendOrder(t *testing.T) {
	tree := NewTree[*item]()
	a, b, c := &item{"a"}, &item{"b"}, &item{"c"}

	tree.Append([]string{"x"}, a)
	tree.Append([]string{"x"}, b)
	node := tree.Append([]string{"x"}, c)

	assert.Equal(t, []*item{a, b, c}, tree.Snapshot(node))
	assert.Equal(t, 3, tree.Count([]string{"x"}))
}

func TestTree_RemoveByIdentity(t *testing.T) {
	tree := NewTree[*item]()
	a := &item{"same"}
	b := &item{"same"}

	tree.Append([]string{"x"}, a)
	tree.Append([]string{"x"}, b)

	require.NoError(t, tree.Remove([]string{"x"}, b))
	node, _ := tree.Lookup([]string{"x"})
	got := tree.Snapshot(node)
	require.Len(t, got, 1)
	assert.Same(t, a, got[0])

	assert.ErrorIs(t, tree.Remove([]string{"x"}, b), ErrNotSubscribed)
	assert.ErrorIs(t, tree.Remove([]string{"y"}, a), ErrPathNotFound)
}

func TestTree_NeverPrunes(t *testing.T) {
	tree := NewTree[*item]()
	a := &item{"a"}

	tree.Append([]string{"a", "b", "c"}, a)
	require.Equal(t, 3, tree.NodeCount())

	require.NoError(t, tree.Remove([]string{"a", "b", "c"}, a))
	assert.Equal(t, 3, tree.NodeCount())
	assert.Equal(t, 0, tree.Size())

	_, ok := tree.Lookup([]string{"a", "b", "c"})
	assert.True(t, ok)
	assert.Empty(t, tree.Paths(NewSyntax("/")))
}

func TestTree_SnapshotIsolation(t *testing.T) {
	tree := NewTree[*item]()
	a, b := &item{"a"}, &item{"b"}

	node := tree.Append([]string{"x"}, a)
	snap := tree.Snapshot(node)

	tree.Append([]string{"x"}, b)
	require.NoError(t, tree.Remove([]string{"x"}, a))

	assert.Equal(t, []*item{a}, snap)
	assert.Equal(t, []*item{b}, tree.Snapshot(node))
}

func TestTree_Children(t *testing.T) {
	tree := NewTree[*item]()
	tree.Ensure([]string{"hello", "world"})
	tree.Ensure([]string{"hello", "earth"})
	tree.Ensure([]string{"hello", "*"})
	tree.Ensure([]string{"hello", "world", "inner"})

	parent, _ := tree.Lookup([]string{"hello"})
	entries := tree.Children(parent)

	segs := make([]string, len(entries))
	for i, e := range entries {
		segs[i] = e.Segment
	}
	assert.Equal(t, []string{"*", "earth", "world"}, segs)
	assert.Nil(t, tree.Children(nil))
}

func TestTree_Paths(t *testing.T) {
	tree := NewTree[*item]()
	tree.Append([]string{"b"}, &item{})
	tree.Append([]string{"a", "x"}, &item{})
	tree.Ensure([]string{"a", "empty"})

	assert.Equal(t, []string{"a.x", "b"}, tree.Paths(NewSyntax(".")))
}

func TestTree_Concurrent(t *testing.T) {
	tree := NewTree[*item]()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				it := &item{fmt.Sprintf("%d-%d", i, j)}
				segs := []string{"root", fmt.Sprintf("n%d", j%10)}
				tree.Append(segs, it)
				node, _ := tree.Lookup(segs)
				_ = tree.Snapshot(node)
				_ = tree.Children(tree.Root())
				_ = tree.Remove(segs, it)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, tree.Size())
	assert.Equal(t, 11, tree.NodeCount())
}
