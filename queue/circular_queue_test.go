package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCircularQueueZeroCapacityPanics(t *testing.T) {
	require.Panics(t, func() {
		NewCircularQueue[int](0)
	})
}

func TestCircularQueueEmpty(t *testing.T) {
	q := NewCircularQueue[int](5)
	require.Equal(t, 0, len(q.Iter()))
}

func TestCircularQueuePartiallyFull(t *testing.T) {
	q := NewCircularQueue[int](5)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	require.Equal(t, 3, q.Len())
	require.Equal(t, []int{3, 2, 1}, q.Iter())
}

func TestCircularQueueFull(t *testing.T) {
	q := NewCircularQueue[int](5)
	for i := 1; i <= 5; i++ {
		q.Push(i)
	}

	require.Equal(t, 5, q.Len())
	require.Equal(t, []int{5, 4, 3, 2, 1}, q.Iter())
}

func TestCircularQueueOverFull(t *testing.T) {
	q := NewCircularQueue[int](5)
	for i := 1; i <= 7; i++ {
		q.Push(i)
	}

	require.Equal(t, 5, q.Len())
	require.Equal(t, []int{7, 6, 5, 4, 3}, q.Iter())
}

func TestCircularQueueClear(t *testing.T) {
	q := NewCircularQueue[int](5)
	for i := 1; i <= 7; i++ {
		q.Push(i)
	}

	q.Clear()
	require.Equal(t, 0, q.Len())
	require.Empty(t, q.Iter())

	q.Push(1)
	q.Push(2)
	q.Push(3)
	require.Equal(t, 3, q.Len())
	require.Equal(t, []int{3, 2, 1}, q.Iter())
}

// TestCircularQueueClearResetsReverseIdx covers the field the source
// structure's clear() left alone: pop twice from a full queue (leaving
// reverseIdx at 2), clear, check reverseIdx is back to 0, then refill
// the queue and pop every element again.
func TestCircularQueueClearResetsReverseIdx(t *testing.T) {
	q := NewCircularQueue[int](3)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	_, ok := q.Pop()
	require.True(t, ok)
	_, ok = q.Pop()
	require.True(t, ok)

	q.Clear()
	require.Equal(t, 0, q.reverseIdx)

	q.Push(10)
	q.Push(20)
	q.Push(30)

	for i := 0; i < 3; i++ {
		_, ok := q.Pop()
		require.Truef(t, ok, "pop %d should succeed after Clear reset reverseIdx", i)
	}
	_, ok = q.Pop()
	require.False(t, ok)
}

func TestCircularQueuePoppingThenPushing(t *testing.T) {
	q := NewCircularQueue[int](5)
	for i := 1; i <= 7; i++ {
		q.Push(i)
	}

	for _, want := range []int{7, 6, 5, 4, 3} {
		v, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	_, ok := q.Pop()
	require.False(t, ok)

	for i := 1; i <= 7; i++ {
		q.Push(i)
	}
	for _, want := range []int{7, 6, 5, 4, 3} {
		v, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	_, ok = q.Pop()
	require.False(t, ok)
}

func TestCircularQueueZeroSized(t *testing.T) {
	q := NewCircularQueue[struct{}](3)
	require.Equal(t, 3, q.Capacity())

	for i := 0; i < 4; i++ {
		q.Push(struct{}{})
	}
	require.Equal(t, 3, q.Len())
	require.Equal(t, []struct{}{{}, {}, {}}, q.Iter())
}
