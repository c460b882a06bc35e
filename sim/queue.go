// Implements the TaskQueue, which holds the broker's pending tasks.
// Tasks are enqueued as they are handed to the broker and dequeued at submission.

package sim

import (
	"fmt"
	"strings"
)

// TaskQueue is a FIFO queue of tasks the broker has not yet submitted.
type TaskQueue struct {
	queue []*Task
}

// Enqueue adds a task to the back of the queue.
func (q *TaskQueue) Enqueue(t *Task) {
	q.queue = append(q.queue, t)
}

// Len returns the number of tasks in the queue.
func (q *TaskQueue) Len() int {
	return len(q.queue)
}

// Items returns the queue contents for iteration. Callers MUST NOT append to
// or reslice the returned slice; use Reorder to change the order.
func (q *TaskQueue) Items() []*Task {
	return q.queue
}

// Reorder replaces the queue contents with fn's result. fn must return a
// permutation of its input.
func (q *TaskQueue) Reorder(fn func([]*Task) []*Task) {
	if fn == nil {
		panic("Reorder: fn must not be nil")
	}
	n := len(q.queue)
	out := fn(q.queue)
	if len(out) != n {
		panic(fmt.Sprintf("Reorder: fn changed queue length from %d to %d", n, len(out)))
	}
	q.queue = out
}

// Dequeue removes and returns the task at the front, or nil when empty.
func (q *TaskQueue) Dequeue() *Task {
	if len(q.queue) == 0 {
		return nil
	}
	t := q.queue[0]
	q.queue = q.queue[1:]
	return t
}

func (q *TaskQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, t := range q.queue {
		sb.WriteString(fmt.Sprint(t.ID))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
