package node

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNodeAssignsDenseIDs(t *testing.T) {
	tree := NewTree(64)

	a := tree.CreateNode(1, []byte("foo"))
	b := tree.CreateNode(1, []byte("bar"))

	assert.Equal(t, uint32(0), a.ID())
	assert.Equal(t, uint32(1), b.ID())
	assert.Equal(t, 2, tree.Len())
}

func TestNodeVectorIndexingMatchesID(t *testing.T) {
	tree := NewTree(64)
	for i := 0; i < 10; i++ {
		tree.CreateNode(uint32(i), []byte{byte(i)})
	}
	for i := uint32(0); i < 10; i++ {
		n := tree.Get(i)
		require.NotNil(t, n)
		assert.Equal(t, i, n.ID())
	}
}

func TestGetOutOfRangeIsNil(t *testing.T) {
	tree := NewTree(64)
	tree.CreateNode(1, []byte("x"))

	assert.Nil(t, tree.Get(1)) // == Len(): strictly out of range
	assert.Nil(t, tree.Get(100))
}

func TestFindChildDedup(t *testing.T) {
	tree := NewTree(64)
	root := tree.Root()

	first := tree.CreateNode(1, []byte("foo"))
	tree.AppendChild(root, first)

	found := tree.FindChild(root, 1, []byte("foo"))
	require.NotNil(t, found)
	assert.Equal(t, first.ID(), found.ID())

	assert.Nil(t, tree.FindChild(root, 1, []byte("bar")))
}

func TestSiblingChainHasNoDuplicatePairs(t *testing.T) {
	tree := NewTree(64)
	root := tree.Root()

	values := [][]byte{[]byte("a"), []byte("b"), []byte("a"), []byte("c")}
	for _, v := range values {
		if existing := tree.FindChild(root, 1, v); existing != nil {
			continue
		}
		n := tree.CreateNode(1, v)
		tree.AppendChild(root, n)
	}

	seen := map[string]bool{}
	count := 0
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		key := string(c.Value())
		assert.False(t, seen[key], "duplicate sibling value %q", key)
		seen[key] = true
		count++
	}
	assert.Equal(t, 3, count)
}

func TestValueBytesDoNotAlias(t *testing.T) {
	tree := NewTree(64)
	src := []byte("mutate-me")
	n := tree.CreateNode(1, src)

	src[0] = 'X'
	assert.Equal(t, byte('m'), n.Value()[0])
}

func TestConcurrentCreateAndFind(t *testing.T) {
	tree := NewTree(64)
	root := tree.Root()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := []byte{byte(i % 4)}
			if existing := tree.FindChild(root, 1, v); existing != nil {
				return
			}
			n := tree.CreateNode(1, v)
			tree.AppendChild(root, n)
		}(i)
	}
	wg.Wait()

	count := 0
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		count++
	}
	assert.LessOrEqual(t, count, 4)
}
