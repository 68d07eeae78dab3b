package conductor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionQueue_HighDrainsBeforeNormal(t *testing.T) {
	q := NewExecutionQueue()
	q.Enqueue(&SequenceRequest{RequestID: "normal-1", Priority: PriorityNormal})
	q.Enqueue(&SequenceRequest{RequestID: "high-1", Priority: PriorityHigh})

	req, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "high-1", req.RequestID)

	req, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "normal-1", req.RequestID)
}

func TestExecutionQueue_ChainedPrependsToNormalBand(t *testing.T) {
	q := NewExecutionQueue()
	q.Enqueue(&SequenceRequest{RequestID: "normal-1", Priority: PriorityNormal})
	q.Enqueue(&SequenceRequest{RequestID: "chained-1", Priority: PriorityChained})

	req, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "chained-1", req.RequestID, "CHAINED jumps ahead of earlier NORMAL requests")

	req, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "normal-1", req.RequestID)
}

func TestExecutionQueue_SizeAndEmpty(t *testing.T) {
	q := NewExecutionQueue()
	assert.True(t, q.IsEmpty())

	q.Enqueue(&SequenceRequest{Priority: PriorityNormal})
	assert.Equal(t, 1, q.Size())
	assert.False(t, q.IsEmpty())

	_, _ = q.Dequeue()
	assert.True(t, q.IsEmpty())
}

func TestExecutionQueue_PeekDoesNotRemove(t *testing.T) {
	q := NewExecutionQueue()
	q.Enqueue(&SequenceRequest{RequestID: "normal-1", Priority: PriorityNormal})

	peeked, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "normal-1", peeked.RequestID)
	assert.Equal(t, 1, q.Size())

	dequeued, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, peeked, dequeued)
}

func TestExecutionQueue_Snapshot_PreservesDequeueOrder(t *testing.T) {
	q := NewExecutionQueue()
	q.Enqueue(&SequenceRequest{RequestID: "normal-1", Priority: PriorityNormal})
	q.Enqueue(&SequenceRequest{RequestID: "high-1", Priority: PriorityHigh})

	snap := q.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "high-1", snap[0].RequestID)
	assert.Equal(t, "normal-1", snap[1].RequestID)
}
