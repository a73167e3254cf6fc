package junban

import "reflect"

// MaxEventTypes defines the maximum number of unique event types that can be
// registered in the EventBus. This value is fixed at 256.
const MaxEventTypes = 256

// EventBus provides a simple, type-safe event bus. The scheduler publishes
// strategy switches, dispatch plans and tick results on it; loggers, recorders
// and tests subscribe.
//
// Handlers run synchronously on the publishing goroutine, which for the
// scheduler is the goroutine calling Tick or SelectStrategy.
type EventBus struct {
	eventTypeMap    map[reflect.Type]uint8
	handlers        [MaxEventTypes][]interface{}
	nextEventTypeID uint8
	registered      int
}

// Subscribe registers a handler function to be called when an event of type `T`
// is published. Handlers are stored in the order they are subscribed.
//
// Parameters:
//   - bus: The EventBus instance to subscribe to.
//   - handler: A function that takes a single argument of type `T`.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	t := reflect.TypeFor[T]()
	id := bus.getEventTypeID(t)
	if cap(bus.handlers[id]) == 0 {
		bus.handlers[id] = make([]interface{}, 0, 4)
	}
	bus.handlers[id] = append(bus.handlers[id], handler)
}

// Publish broadcasts an event of type `T` to all registered handlers for that
// type. The handlers are called synchronously in the order they were subscribed.
//
// Parameters:
//   - bus: The EventBus instance to publish to.
//   - event: The event data of type `T` to be sent to handlers.
func Publish[T any](bus *EventBus, event T) {
	t := reflect.TypeFor[T]()
	if id, ok := bus.eventTypeMap[t]; ok {
		hs := bus.handlers[id]
		for _, h := range hs {
			h.(func(T))(event)
		}
	}
}

// HasSubscribers reports whether any handler is registered for `T`. Publishers
// use it to skip building expensive events nobody listens to.
func HasSubscribers[T any](bus *EventBus) bool {
	id, ok := bus.eventTypeMap[reflect.TypeFor[T]()]
	return ok && len(bus.handlers[id]) > 0
}

// getEventTypeID retrieves or assigns an ID for the event type.
func (bus *EventBus) getEventTypeID(t reflect.Type) uint8 {
	if bus.eventTypeMap == nil {
		bus.eventTypeMap = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.eventTypeMap[t]; ok {
		return id
	}
	if bus.registered >= MaxEventTypes {
		panic("junban: too many event types")
	}
	id := bus.nextEventTypeID
	bus.nextEventTypeID++
	bus.registered++
	bus.eventTypeMap[t] = id
	return id
}
