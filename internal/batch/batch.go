// Package batch splits ordered slices into fixed-size chunks for inference calls.
package batch

import (
	"fmt"
	"iter"
)

// Batches yields consecutive chunks of at most size items. The final chunk may be
// shorter; an empty input yields nothing. Chunks alias items, so writes through a
// chunk are visible in items.
func Batches[T any](items []T, size int) iter.Seq[[]T] {
	if size <= 0 {
		panic(fmt.Sprintf("batch: size must be positive, got %d", size))
	}
	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			if !yield(items[start:end:end]) {
				return
			}
		}
	}
}

// Count is the number of chunks Batches yields for n items.
func Count(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
