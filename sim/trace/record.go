// Package trace provides acceptance and transfer recording for conveyor lines.
// This package has no dependencies on sim/ or sim/conveyor/ — it stores pure data types.
package trace

// AcceptRecord captures a cargo unit being accepted onto a conveyor.
type AcceptRecord struct {
	Seq         int
	CargoID     string
	Conveyor    string
	RequestedAt int64 // tick PutOn was called
	Clock       int64 // tick the cargo was actually accepted
}

// Wait returns how long the put was blocked by a full conveyor.
func (r AcceptRecord) Wait() int64 {
	return r.Clock - r.RequestedAt
}

// TransferRecord captures one successful batch pass between two conveyors.
type TransferRecord struct {
	Seq      int
	Clock    int64
	From     string
	To       string
	CargoIDs []string
}

// DeferralRecord captures a pass that could not happen because the
// downstream conveyor was not ready; the batch waits for its extraction.
type DeferralRecord struct {
	Seq       int
	Clock     int64
	From      string
	To        string
	BatchSize int
}

// ExtractionRecord captures cargo removed from a conveyor by external logic.
type ExtractionRecord struct {
	Seq      int
	Clock    int64
	Conveyor string
	CargoIDs []string
}
