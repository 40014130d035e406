package event

import (
	"testing"

	"github.com/Gaurav-Gosain/shellglobal/internal/inputmode"
)

func TestPublishOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	bus.Subscribe(func(Event) { order = append(order, 1) })
	bus.Subscribe(func(Event) { order = append(order, 2) })
	bus.Subscribe(func(Event) { order = append(order, 3) })

	bus.Publish(Enter{})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Expected delivery order [1 2 3], got %v", order)
	}
}

func TestSubscribeKinds(t *testing.T) {
	bus := NewBus()
	var got []Event
	bus.Subscribe(func(e Event) { got = append(got, e) }, KindPositionChanged, KindLeave)

	bus.Publish(Enter{})
	bus.Publish(PositionChanged{X: 4, Y: 2})
	bus.Publish(ModeChanged{From: inputmode.Normal, To: inputmode.Focused})
	bus.Publish(Leave{})

	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d: %v", len(got), got)
	}
	if pos, ok := got[0].(PositionChanged); !ok || pos.X != 4 || pos.Y != 2 {
		t.Errorf("Expected PositionChanged{4 2}, got %#v", got[0])
	}
	if got[1].Kind() != KindLeave {
		t.Errorf("Expected leave, got %v", got[1].Kind())
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	sub := bus.Subscribe(func(Event) { calls++ })

	bus.Publish(Enter{})
	if !sub.Unsubscribe() {
		t.Fatal("Unsubscribe returned false for an active subscription")
	}
	if sub.Unsubscribe() {
		t.Error("Second Unsubscribe should return false")
	}
	bus.Publish(Enter{})

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if bus.Len() != 0 {
		t.Errorf("Expected no subscribers, got %d", bus.Len())
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	var second *Subscription
	secondCalls := 0

	bus.Subscribe(func(Event) { second.Unsubscribe() })
	second = bus.Subscribe(func(Event) { secondCalls++ })

	// The snapshot taken by Publish still includes the second handler.
	bus.Publish(Enter{})
	bus.Publish(Enter{})

	if secondCalls != 1 {
		t.Errorf("Expected second handler to run once, got %d", secondCalls)
	}
}

func TestPanickingHandler(t *testing.T) {
	bus := NewBus()
	reached := false
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(Event) { reached = true })

	bus.Publish(Leave{})

	if !reached {
		t.Error("Handler after a panicking one was not called")
	}
}

func TestKindString(t *testing.T) {
	if KindPositionChanged.String() != "xdnd-position-changed" {
		t.Errorf("Unexpected name %q", KindPositionChanged.String())
	}
	if Kind(9).String() != "Kind(9)" {
		t.Errorf("Unexpected name %q", Kind(9).String())
	}
}
