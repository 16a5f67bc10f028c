package workload

import (
	"fmt"
	"iter"
)

// PeriodicSpec generates Count arrivals on one conveyor, Period ticks
// apart starting at Start. Cargo IDs are Prefix followed by the index.
type PeriodicSpec struct {
	Conveyor string `yaml:"conveyor"`
	Start    int64  `yaml:"start"`
	Period   int64  `yaml:"period"`
	Count    int    `yaml:"count"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// Validate checks the generator parameters.
func (p PeriodicSpec) Validate() error {
	if p.Conveyor == "" {
		return fmt.Errorf("periodic arrivals: conveyor is required")
	}
	if p.Start < 0 {
		return fmt.Errorf("periodic arrivals on %s: start %d must be >= 0", p.Conveyor, p.Start)
	}
	if p.Period < 0 {
		return fmt.Errorf("periodic arrivals on %s: period %d must be >= 0", p.Conveyor, p.Period)
	}
	if p.Count < 0 {
		return fmt.Errorf("periodic arrivals on %s: count %d must be >= 0", p.Conveyor, p.Count)
	}
	return nil
}

// Records lazily yields the generated arrivals in time order.
func (p PeriodicSpec) Records() iter.Seq[ArrivalRecord] {
	prefix := p.Prefix
	if prefix == "" {
		prefix = p.Conveyor + "-"
	}
	return func(yield func(ArrivalRecord) bool) {
		for i := 0; i < p.Count; i++ {
			rec := ArrivalRecord{
				Time:     p.Start + int64(i)*p.Period,
				Conveyor: p.Conveyor,
				CargoID:  fmt.Sprintf("%s%d", prefix, i),
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Concat yields every record of each sequence in turn.
func Concat(seqs ...iter.Seq[ArrivalRecord]) iter.Seq[ArrivalRecord] {
	return func(yield func(ArrivalRecord) bool) {
		for _, seq := range seqs {
			for rec := range seq {
				if !yield(rec) {
					return
				}
			}
		}
	}
}
