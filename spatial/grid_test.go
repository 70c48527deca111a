package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertAndContains(t *testing.T) {
	idx := New(1000)
	idx.Insert(1, Point{X: 0, Y: 0, Z: 0})
	assert.True(t, idx.Contains(1))
	assert.Equal(t, 1, idx.Len())
}

func TestRemove(t *testing.T) {
	idx := New(1000)
	idx.Insert(1, Point{})
	idx.Remove(1)
	assert.False(t, idx.Contains(1))
	assert.Equal(t, 0, idx.Len())
}

func TestMoveRelocatesBucket(t *testing.T) {
	idx := New(100)
	idx.Insert(1, Point{X: 0})
	idx.Insert(1, Point{X: 5000})
	results := idx.Radius(Point{X: 5000}, 10)
	assert.Contains(t, results, uint32(1))

	far := idx.Radius(Point{X: 0}, 10)
	assert.NotContains(t, far, uint32(1))
}

func TestRadiusIncludesBoundary(t *testing.T) {
	idx := New(1000)
	idx.Insert(1, Point{X: 10})
	results := idx.Radius(Point{X: 0}, 10)
	assert.Contains(t, results, uint32(1))
}

func TestRadiusExcludesOutOfRange(t *testing.T) {
	idx := New(1000)
	idx.Insert(1, Point{X: 5000})
	results := idx.Radius(Point{X: 0}, 10)
	assert.NotContains(t, results, uint32(1))
}

func TestAllReturnsEveryId(t *testing.T) {
	idx := New(1000)
	idx.Insert(1, Point{})
	idx.Insert(2, Point{X: 1})
	assert.ElementsMatch(t, []uint32{1, 2}, idx.All())
}
