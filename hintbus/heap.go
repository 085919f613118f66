package hintbus

import "container/heap"

// hintHeap orders Hints by (priority desc, timestamp asc), the consumer
// view ordering required by spec §5. It is a max-heap on priority.
//
// Grounded on the container/heap idiom used for CBS open-lists in the
// example pack (a typed slice implementing heap.Interface, pushed/popped
// through the stdlib heap functions rather than hand-rolled sift logic).
type hintHeap []Hint

func (h hintHeap) Len() int { return len(h) }

func (h hintHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].Timestamp.Before(h[j].Timestamp)
}

func (h hintHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *hintHeap) Push(x any) {
	*h = append(*h, x.(Hint))
}

func (h *hintHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// lowestPriorityIndex returns the index of the lowest-priority element
// (by the same ordering Less defines), used to implement bounded-capacity
// eviction (drop lowest priority when full).
func (h hintHeap) lowestPriorityIndex() int {
	if len(h) == 0 {
		return -1
	}
	lowest := 0
	for i := 1; i < len(h); i++ {
		if h.Less(lowest, i) {
			continue // h[lowest] still outranks h[i]
		}
		lowest = i
	}
	return lowest
}

func removeAt(h *hintHeap, i int) Hint {
	return heap.Remove(h, i).(Hint)
}
