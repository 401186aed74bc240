package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type EventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// An asset finished loading and was committed to its storage.
	/* Context usage:
	 * data := context.Data.(*AssetEvent)
	 */
	EVENT_CODE_ASSET_LOADED EventCode = 0x10

	// An asset failed to resolve, import or process.
	EVENT_CODE_ASSET_FAILED EventCode = 0x11

	// A committed asset was replaced by a newer version of its source.
	EVENT_CODE_ASSET_RELOADED EventCode = 0x12

	// An unreferenced slot was freed.
	EVENT_CODE_ASSET_RECLAIMED EventCode = 0x13

	MAX_EVENT_CODE EventCode = 0xFF
)

type EventContext struct {
	Type   EventCode
	Sender interface{}
	Data   interface{}
}

// AssetEvent is the payload of every EVENT_CODE_ASSET_* event.
type AssetEvent struct {
	TypeID     TypeID
	Key        string
	Index      uint32
	Generation uint32
	Err        error
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventBus dispatches events synchronously to registered listeners.
// It is safe to fire events from multiple goroutines.
type EventBus struct {
	mu         sync.RWMutex
	registered map[EventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[EventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listeners will not be registered again and will cause this to return false.
 */
func (eb *EventBus) Register(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, e := range eb.registered[code] {
		if e.listener == listener {
			LogWarn("event listener already registered for code %d", code)
			return false
		}
	}
	eb.registered[code] = append(eb.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister removes the listener for the given code. Returns false if it was not registered.
func (eb *EventBus) Unregister(code EventCode, listener interface{}) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	events := eb.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eb.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 */
func (eb *EventBus) Fire(context EventContext) bool {
	if eb == nil {
		return false
	}
	eb.mu.RLock()
	events := eb.registered[context.Type]
	eb.mu.RUnlock()

	for _, e := range events {
		if e.callback(context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (eb *EventBus) Shutdown() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.registered = make(map[EventCode][]*registeredEvent)
	return nil
}
