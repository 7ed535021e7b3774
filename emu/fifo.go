package emu

// fifo is an unbounded first-in first-out queue. Popped slots are
// reclaimed once the queue drains so steady state does not allocate.
type fifo[T any] struct {
	items []T
	head  int
}

func (q *fifo[T]) push(v T) {
	q.items = append(q.items, v)
}

func (q *fifo[T]) empty() bool {
	return q.head >= len(q.items)
}

func (q *fifo[T]) len() int {
	return len(q.items) - q.head
}

// front returns the oldest item. The queue must not be empty.
func (q *fifo[T]) front() T {
	return q.items[q.head]
}

func (q *fifo[T]) pop() T {
	v := q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return v
}

func (q *fifo[T]) clear() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}
