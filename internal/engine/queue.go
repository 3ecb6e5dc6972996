package engine

import "sync"

// messageQueue is the unbounded FIFO between a build worker and its channel.
//
// The worker enqueues without ever blocking, so a slow coordinator cannot
// stall a build. A pump goroutine drains the queue into the channel the
// coordinator reads, and closes that channel once the queue is closed and
// empty.
type messageQueue struct {
	mu       sync.Mutex
	messages []Message
	closed   bool
	signal   chan struct{} // Signals message availability (buffered, size 1)
}

func newMessageQueue() *messageQueue {
	return &messageQueue{
		messages: make([]Message, 0, 16),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a message to the back of the queue.
// Returns false if the queue is closed.
func (q *messageQueue) Enqueue(m Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.messages = append(q.messages, m)

	// Non-blocking: buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front message without blocking.
func (q *messageQueue) TryDequeue() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.messages) == 0 {
		return nil, false
	}

	m := q.messages[0]
	q.messages[0] = nil
	if len(q.messages) == 1 {
		q.messages = q.messages[:0]
	} else {
		q.messages = q.messages[1:]
	}
	return m, true
}

// Dequeue removes the front message, blocking until one is available.
// Returns (nil, false) once the queue is closed and empty.
func (q *messageQueue) Dequeue() (Message, bool) {
	for {
		if m, ok := q.TryDequeue(); ok {
			return m, true
		}

		q.mu.Lock()
		if q.closed && len(q.messages) == 0 {
			q.mu.Unlock()
			return nil, false
		}
		q.mu.Unlock()

		<-q.signal
	}
}

// Close signals that no more messages will be enqueued.
func (q *messageQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal) // Wakes all waiters
}

// pump forwards every message to out in order and closes out when done.
func (q *messageQueue) pump(out chan<- Message) {
	defer close(out)
	for {
		m, ok := q.Dequeue()
		if !ok {
			return
		}
		out <- m
	}
}
