package containers

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	t.Run("fifo order across growth", func(t *testing.T) {
		q := NewQueue[int](2)
		for i := 0; i < 5; i++ {
			q.Enqueue(i)
		}

		v, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, 0, v)

		q.Enqueue(5)
		q.Enqueue(6)

		require.Equal(t, []int{1, 2, 3, 4, 5, 6}, q.Drain())
		require.True(t, q.IsEmpty())
	})

	t.Run("dequeue on empty queue", func(t *testing.T) {
		q := NewQueue[string](0)

		_, err := q.Dequeue()

		require.ErrorIs(t, err, ErrQueueEmpty)
		require.Nil(t, q.Drain())
	})

	t.Run("concurrent producers", func(t *testing.T) {
		q := NewQueue[int](4)
		var wg sync.WaitGroup
		for p := 0; p < 8; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					q.Enqueue(p*100 + i)
				}
			}(p)
		}
		wg.Wait()

		got := q.Drain()
		sort.Ints(got)

		require.Len(t, got, 800)
		for i, v := range got {
			require.Equal(t, i, v)
		}
	})
}
