package batch

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatches_Deterministic(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	got := slices.Collect(Batches(items, 4))

	assert.Equal(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10}}, got)
}

func TestBatches_ExactMultiple(t *testing.T) {
	got := slices.Collect(Batches([]string{"a", "b", "c", "d"}, 2))
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, got)
}

func TestBatches_Empty(t *testing.T) {
	n := 0
	for range Batches([]int{}, 4) {
		n++
	}
	assert.Zero(t, n)

	for range Batches[int](nil, 4) {
		t.Fatal("nil input must yield no batches")
	}
}

func TestBatches_SizeLargerThanInput(t *testing.T) {
	got := slices.Collect(Batches([]int{1, 2}, 16))
	assert.Equal(t, [][]int{{1, 2}}, got)
}

func TestBatches_EarlyStop(t *testing.T) {
	seen := 0
	for b := range Batches([]int{1, 2, 3, 4, 5}, 2) {
		seen++
		if b[0] == 3 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestBatches_ChunksAliasInput(t *testing.T) {
	items := []int{1, 2, 3}
	for b := range Batches(items, 2) {
		b[0] *= 10
	}
	assert.Equal(t, []int{10, 2, 30}, items)
}

func TestBatches_AppendDoesNotClobberSibling(t *testing.T) {
	items := []int{1, 2, 3, 4}
	var first []int
	for b := range Batches(items, 2) {
		if first == nil {
			first = b
		}
	}
	first = append(first, 99)
	assert.Equal(t, []int{1, 2, 3, 4}, items)
	assert.Equal(t, []int{1, 2, 99}, first)
}

func TestBatches_NonPositiveSizePanics(t *testing.T) {
	require.Panics(t, func() { Batches([]int{1}, 0) })
	require.Panics(t, func() { Batches([]int{1}, -2) })
}

func TestCount(t *testing.T) {
	assert.Equal(t, 3, Count(10, 4))
	assert.Equal(t, 1, Count(4, 4))
	assert.Equal(t, 0, Count(0, 4))
	assert.Equal(t, 0, Count(5, 0))
}
