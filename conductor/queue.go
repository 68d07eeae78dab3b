package conductor

import "sync"

// ExecutionQueue is a two-band priority FIFO: HIGH requests always drain
// ahead of NORMAL ones, and a CHAINED request is spliced onto the head of
// the NORMAL band so a sequence's own continuation runs before any other
// NORMAL-priority request that arrived earlier but is unrelated to it.
type ExecutionQueue struct {
	mu     sync.Mutex
	high   []*SequenceRequest
	normal []*SequenceRequest
}

// NewExecutionQueue creates an empty queue.
func NewExecutionQueue() *ExecutionQueue {
	return &ExecutionQueue{}
}

// Enqueue places req in the band its Priority belongs to.
func (q *ExecutionQueue) Enqueue(req *SequenceRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch req.Priority {
	case PriorityHigh:
		q.high = append(q.high, req)
	case PriorityChained:
		q.normal = append([]*SequenceRequest{req}, q.normal...)
	default:
		q.normal = append(q.normal, req)
	}
}

// Dequeue removes and returns the next request to run: the whole HIGH
// band drains before any NORMAL/CHAINED request is considered.
func (q *ExecutionQueue) Dequeue() (*SequenceRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.high) > 0 {
		req := q.high[0]
		q.high = q.high[1:]
		return req, true
	}
	if len(q.normal) > 0 {
		req := q.normal[0]
		q.normal = q.normal[1:]
		return req, true
	}
	return nil, false
}

// Peek returns the request Dequeue would hand out next without removing
// it.
func (q *ExecutionQueue) Peek() (*SequenceRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.high) > 0 {
		return q.high[0], true
	}
	if len(q.normal) > 0 {
		return q.normal[0], true
	}
	return nil, false
}

// Size returns the total number of queued requests across both bands.
func (q *ExecutionQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.high) + len(q.normal)
}

// IsEmpty reports whether the queue currently holds no requests.
func (q *ExecutionQueue) IsEmpty() bool {
	return q.Size() == 0
}

// Snapshot returns a point-in-time copy of the queue contents in the
// order they would be dequeued: HIGH band first, then NORMAL/CHAINED.
func (q *ExecutionQueue) Snapshot() []*SequenceRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*SequenceRequest, 0, len(q.high)+len(q.normal))
	out = append(out, q.high...)
	out = append(out, q.normal...)
	return out
}
