package rank

import "container/heap"

// scoredItem is anything held by the bounded top-K collector.
type scoredItem[T any] struct {
	value T
	score int
}

type minHeap[T any] []scoredItem[T]

func (h minHeap[T]) Len() int            { return len(h) }
func (h minHeap[T]) Less(i, j int) bool  { return h[i].score < h[j].score }
func (h minHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap[T]) Push(x any)         { *h = append(*h, x.(scoredItem[T])) }
func (h *minHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopK keeps the K highest-scored values seen so far by evicting the lowest
// retained one when full.
type TopK[T any] struct {
	k int
	h minHeap[T]
}

// NewTopK returns a collector with capacity k (k <= 0 collects nothing).
func NewTopK[T any](k int) *TopK[T] {
	return &TopK[T]{k: k}
}

// Offer considers a value; values scoring below the current floor are dropped.
func (t *TopK[T]) Offer(value T, score int) {
	if t.k <= 0 {
		return
	}
	if len(t.h) < t.k {
		heap.Push(&t.h, scoredItem[T]{value: value, score: score})
		return
	}
	if score <= t.h[0].score {
		return
	}
	t.h[0] = scoredItem[T]{value: value, score: score}
	heap.Fix(&t.h, 0)
}

// Drain extracts the retained values ordered by score descending. Ties keep
// heap extraction order. The collector is empty afterwards.
func (t *TopK[T]) Drain() []T {
	out := make([]T, len(t.h))
	for i := len(t.h) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.h).(scoredItem[T]).value
	}
	return out
}
