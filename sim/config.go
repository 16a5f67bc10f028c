package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration error returned from
// constructors in this package.
var ErrInvalidConfig = errors.New("invalid configuration")

// OrderingKind names an ordering strategy.
type OrderingKind string

const (
	// OrderingStable selects StableOrdering (default).
	OrderingStable OrderingKind = "stable"
	// OrderingPacked selects PackedOrdering.
	OrderingPacked OrderingKind = "packed"
)

// validOrderings maps accepted ordering names.
var validOrderings = map[OrderingKind]bool{
	OrderingStable: true,
	OrderingPacked: true,
	"":             true, // empty defaults to stable
}

// IsValidOrdering returns true if the given name is a recognized ordering.
func IsValidOrdering(name string) bool {
	return validOrderings[OrderingKind(name)]
}

// KernelConfig groups the event kernel parameters.
type KernelConfig struct {
	Ordering     OrderingKind // "stable" (default) or "packed"
	PriorityBits int          // packed only: priority bit budget, 0 <= b < MaxPriorityBits
}

// Validate reports configuration faults. They are fatal: no simulator is
// built from an invalid config.
func (c KernelConfig) Validate() error {
	if !validOrderings[c.Ordering] {
		return fmt.Errorf("%w: unknown ordering %q", ErrInvalidConfig, c.Ordering)
	}
	if c.PriorityBits < 0 || c.PriorityBits >= MaxPriorityBits {
		return fmt.Errorf("%w: priority bits %d outside [0, %d)", ErrInvalidConfig, c.PriorityBits, MaxPriorityBits)
	}
	if c.Ordering != OrderingPacked && c.PriorityBits != 0 {
		return fmt.Errorf("%w: priority bits only apply to the packed ordering", ErrInvalidConfig)
	}
	return nil
}

// MaxPriority returns the largest priority the configured ordering can
// represent without aliasing.
func (c KernelConfig) MaxPriority() int {
	if c.Ordering == OrderingPacked {
		return 1<<c.PriorityBits - 1
	}
	return int(^uint(0) >> 1)
}

func (c KernelConfig) ordering() Ordering {
	if c.Ordering == OrderingPacked {
		return PackedOrdering{PriorityBits: c.PriorityBits}
	}
	return StableOrdering{}
}
