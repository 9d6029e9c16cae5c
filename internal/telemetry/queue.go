package telemetry

import "sync"

// compactThreshold is how many consumed slots accumulate before the backing
// slice is compacted.
const compactThreshold = 1024

// Queue is an unbounded FIFO of records bridging the reader goroutine and the
// render loop. The lock only covers the slice bookkeeping.
type Queue struct {
	mu    sync.Mutex
	items []Record
	head  int
}

// Push appends a record to the tail.
func (q *Queue) Push(r Record) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
}

// Pop removes and returns the oldest record.
func (q *Queue) Pop() (Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return Record{}, false
	}
	r := q.items[q.head]
	q.items[q.head] = Record{}
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return r, true
}

// Len returns the number of pending records.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Clear discards every pending record and returns how many were dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items) - q.head
	q.items = nil
	q.head = 0
	return n
}
