package conveyor

import "github.com/inference-sim/conveyor-sim/sim/trace"

// ChangeKind names what happened to a conveyor.
type ChangeKind string

const (
	ChangeAccepted  ChangeKind = "accepted"
	ChangeSent      ChangeKind = "sent"     // batch left Conveyor for Peer
	ChangeReceived  ChangeKind = "received" // batch arrived on Conveyor from Peer
	ChangeDeferred  ChangeKind = "deferred" // pass to Peer postponed, Peer not ready
	ChangeExtracted ChangeKind = "extracted"
)

// Change is delivered to observers after the conveyor's state has changed.
// A successful pass produces a Sent change on the source and a Received
// change on the destination, in that order.
type Change struct {
	Time        int64
	Kind        ChangeKind
	Conveyor    *Conveyor
	Peer        *Conveyor // nil for accepted and extracted changes
	Batch       []Cargo
	RequestedAt int64 // accepted only: tick PutOn was called
}

// Observer receives conveyor changes. It runs inside the kernel callback
// that caused the change and must not block.
type Observer func(ch Change)

func cargoIDs(batch []Cargo) []string {
	ids := make([]string, len(batch))
	for i, c := range batch {
		ids[i] = c.ID
	}
	return ids
}

// TraceObserver records changes into st.
func TraceObserver(st *trace.SimulationTrace) Observer {
	return func(ch Change) {
		switch ch.Kind {
		case ChangeAccepted:
			for _, c := range ch.Batch {
				st.RecordAccept(trace.AcceptRecord{
					CargoID:     c.ID,
					Conveyor:    ch.Conveyor.Name(),
					RequestedAt: ch.RequestedAt,
					Clock:       ch.Time,
				})
			}
		case ChangeSent:
			st.RecordTransfer(trace.TransferRecord{
				Clock:    ch.Time,
				From:     ch.Conveyor.Name(),
				To:       ch.Peer.Name(),
				CargoIDs: cargoIDs(ch.Batch),
			})
		case ChangeDeferred:
			st.RecordDeferral(trace.DeferralRecord{
				Clock:     ch.Time,
				From:      ch.Conveyor.Name(),
				To:        ch.Peer.Name(),
				BatchSize: len(ch.Batch),
			})
		case ChangeExtracted:
			st.RecordExtraction(trace.ExtractionRecord{
				Clock:    ch.Time,
				Conveyor: ch.Conveyor.Name(),
				CargoIDs: cargoIDs(ch.Batch),
			})
		}
	}
}
