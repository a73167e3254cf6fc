package junban

import (
	"testing"
)

type testEvent struct {
	Value int
}

func TestEventBusSubscribeAndPublish(t *testing.T) {
	bus := &EventBus{}
	received := 0
	Subscribe(bus, func(e testEvent) {
		received += e.Value
	})
	Subscribe(bus, func(e testEvent) {
		received += e.Value * 2
	})
	Publish(bus, testEvent{Value: 1})
	if received != 3 {
		t.Errorf("expected received 3, got %d", received)
	}
	Publish(bus, testEvent{Value: 2})
	if received != 3+6 {
		t.Errorf("expected received 9, got %d", received)
	}
}

func TestEventBusMultipleTypes(t *testing.T) {
	bus := &EventBus{}
	received1 := 0
	received2 := 0
	Subscribe(bus, func(e testEvent) {
		received1 += e.Value
	})
	Subscribe(bus, func(p Vec3) {
		received2 += int(p.X)
	})
	Publish(bus, testEvent{Value: 42})
	Publish(bus, Vec3{X: 10})
	if received1 != 42 {
		t.Errorf("expected received1 42, got %d", received1)
	}
	if received2 != 10 {
		t.Errorf("expected received2 10, got %d", received2)
	}
}

func TestEventBusNoHandlers(t *testing.T) {
	bus := &EventBus{}
	// No panic expected
	Publish(bus, testEvent{Value: 42})
}

func TestEventBusHasSubscribers(t *testing.T) {
	bus := &EventBus{}
	if HasSubscribers[testEvent](bus) {
		t.Error("expected no subscribers")
	}
	Subscribe(bus, func(testEvent) {})
	if !HasSubscribers[testEvent](bus) {
		t.Error("expected subscribers")
	}
	if HasSubscribers[TickCompleted](bus) {
		t.Error("expected no subscribers for another type")
	}
}

func BenchmarkEventBusPublish(b *testing.B) {
	bus := &EventBus{}
	sum := 0
	Subscribe(bus, func(e TickCompleted) { sum += e.Stats.Updated })
	ev := TickCompleted{Stats: TickStats{Updated: 1}}
	b.ReportAllocs()
	for b.Loop() {
		Publish(bus, ev)
	}
}
