package sim

// Ordering imposes the total order over pending events.
// Key is computed once at submission; Less compares two queued events.
type Ordering interface {
	Key(time int64, priority int, seq uint64) uint64
	Less(a, b *Event) bool
}

// StableOrdering orders events by time, then priority, then submission
// sequence. It has no range limits.
type StableOrdering struct{}

// Key returns the submission sequence unchanged.
func (StableOrdering) Key(_ int64, _ int, seq uint64) uint64 {
	return seq
}

// Less implements the (time, priority, sequence) lexicographic order.
func (StableOrdering) Less(a, b *Event) bool {
	if a.time != b.time {
		return a.time < b.time
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.key < b.key
}

// PackedLowBits is the width of the field below the time bits of a packed
// key. It holds the priority in its top PriorityBits bits and the
// submission counter in the rest.
const PackedLowBits = 22

// MaxPriorityBits bounds PackedOrdering.PriorityBits (exclusive).
const MaxPriorityBits = 10

// PackedOrdering encodes (time, priority, counter) into one uint64 and
// compares keys with a single integer comparison.
//
// The Simulator numbers submissions per (time, priority) pair, restarting
// once a pair has no queued events. Ranges are not checked: time must stay
// below 2^(64-PackedLowBits), priority below 2^PriorityBits, and at most
// 2^(PackedLowBits-PriorityBits) queued events may share one pair. Past that
// the counter wraps and later events alias the keys of earlier ones.
type PackedOrdering struct {
	PriorityBits int
}

func (o PackedOrdering) counterBits() uint {
	return uint(PackedLowBits - o.PriorityBits)
}

// Key packs time, priority and the low bits of the pair counter seq.
func (o PackedOrdering) Key(time int64, priority int, seq uint64) uint64 {
	cb := o.counterBits()
	mask := uint64(1)<<cb - 1
	return uint64(time)<<PackedLowBits | uint64(priority)<<cb | seq&mask
}

// Less compares packed keys.
func (PackedOrdering) Less(a, b *Event) bool {
	return a.key < b.key
}

// CounterCapacity returns how many events can share one (time, priority)
// pair before the counter wraps.
func (o PackedOrdering) CounterCapacity() uint64 {
	return uint64(1) << o.counterBits()
}
