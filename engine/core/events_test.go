package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	t.Run("delivers to listeners until handled", func(t *testing.T) {
		bus := NewEventBus()
		var first, second int
		l1, l2 := &struct{ n int }{1}, &struct{ n int }{2}

		require.True(t, bus.Register(EVENT_CODE_ASSET_LOADED, l1, func(EventContext) bool {
			first++
			return true
		}))
		require.True(t, bus.Register(EVENT_CODE_ASSET_LOADED, l2, func(EventContext) bool {
			second++
			return false
		}))

		handled := bus.Fire(EventContext{Type: EVENT_CODE_ASSET_LOADED})

		require.True(t, handled)
		require.Equal(t, 1, first)
		require.Equal(t, 0, second)
	})

	t.Run("rejects duplicate listener", func(t *testing.T) {
		bus := NewEventBus()
		l := &struct{}{}
		cb := func(EventContext) bool { return false }

		require.True(t, bus.Register(EVENT_CODE_ASSET_FAILED, l, cb))
		require.False(t, bus.Register(EVENT_CODE_ASSET_FAILED, l, cb))
	})

	t.Run("unregister stops delivery", func(t *testing.T) {
		bus := NewEventBus()
		l := &struct{}{}
		calls := 0
		bus.Register(EVENT_CODE_APPLICATION_QUIT, l, func(EventContext) bool {
			calls++
			return true
		})

		require.True(t, bus.Unregister(EVENT_CODE_APPLICATION_QUIT, l))
		require.False(t, bus.Unregister(EVENT_CODE_APPLICATION_QUIT, l))
		require.False(t, bus.Fire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
		require.Zero(t, calls)
	})

	t.Run("nil bus is a no-op", func(t *testing.T) {
		var bus *EventBus
		require.False(t, bus.Fire(EventContext{Type: EVENT_CODE_ASSET_LOADED}))
	})
}
