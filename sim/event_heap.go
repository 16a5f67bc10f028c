package sim

import "container/heap"

// EventHeap implements a priority queue over events using the order of the
// configured Ordering.
type EventHeap struct {
	events   []*Event
	ordering Ordering
}

// NewEventHeap creates an empty event heap
func NewEventHeap(ordering Ordering) *EventHeap {
	h := &EventHeap{
		events:   make([]*Event, 0),
		ordering: ordering,
	}
	heap.Init(h)
	return h
}

// Len implements heap.Interface
func (h *EventHeap) Len() int {
	return len(h.events)
}

// Less implements heap.Interface by delegating to the ordering
func (h *EventHeap) Less(i, j int) bool {
	return h.ordering.Less(h.events[i], h.events[j])
}

// Swap implements heap.Interface
func (h *EventHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
}

// Push implements heap.Interface
func (h *EventHeap) Push(x any) {
	h.events = append(h.events, x.(*Event))
}

// Pop implements heap.Interface
func (h *EventHeap) Pop() any {
	old := h.events
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.events = old[0 : n-1]
	return item
}

// Schedule adds an event to the heap
func (h *EventHeap) Schedule(e *Event) {
	heap.Push(h, e)
}

// PopNext removes and returns the next event, or nil when empty
func (h *EventHeap) PopNext() *Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(*Event)
}
