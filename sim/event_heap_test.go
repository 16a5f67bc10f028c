package sim

import (
	"testing"
)

func newTestEvent(o Ordering, time int64, priority int, seq uint64) *Event {
	return &Event{time: time, priority: priority, seq: seq, key: o.Key(time, priority, seq)}
}

// TestEventHeap_TimestampOrdering tests that events are popped in timestamp order
func TestEventHeap_TimestampOrdering(t *testing.T) {
	o := StableOrdering{}
	h := NewEventHeap(o)

	h.Schedule(newTestEvent(o, 100, 0, 0))
	h.Schedule(newTestEvent(o, 50, 0, 1))
	h.Schedule(newTestEvent(o, 150, 0, 2))

	for _, want := range []int64{50, 100, 150} {
		got := h.PopNext()
		if got.Timestamp() != want {
			t.Errorf("event timestamp = %d, want %d", got.Timestamp(), want)
		}
	}
	if h.Len() != 0 {
		t.Errorf("Heap should be empty, len = %d", h.Len())
	}
	if h.PopNext() != nil {
		t.Error("empty heap should return nil")
	}
}

// TestEventHeap_DeterministicOrdering tests that ordering is independent of insertion order
func TestEventHeap_DeterministicOrdering(t *testing.T) {
	for _, o := range []Ordering{StableOrdering{}, PackedOrdering{PriorityBits: 2}} {
		events := []*Event{
			newTestEvent(o, 100, 1, 0),
			newTestEvent(o, 100, 0, 1),
			newTestEvent(o, 100, 0, 2),
			newTestEvent(o, 99, 3, 3),
		}
		h1 := NewEventHeap(o)
		h2 := NewEventHeap(o)
		for i := range events {
			h1.Schedule(events[i])
			h2.Schedule(events[len(events)-1-i])
		}
		wantSeq := []uint64{3, 1, 2, 0}
		for i, want := range wantSeq {
			a, b := h1.PopNext(), h2.PopNext()
			if a != b || a.EventID() != want {
				t.Errorf("%T: pop %d = %d/%d, want %d", o, i, a.EventID(), b.EventID(), want)
			}
		}
	}
}
