package trace

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// TraceLevel controls the verbosity of tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTransfers captures passes, deferrals and extractions.
	TraceLevelTransfers TraceLevel = "transfers"
	// TraceLevelAll additionally captures every cargo acceptance.
	TraceLevelAll TraceLevel = "all"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelTransfers: true,
	TraceLevelAll:       true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether anything is recorded at this level.
func (c TraceConfig) Enabled() bool {
	return c.Level != "" && c.Level != TraceLevelNone
}

// SimulationTrace collects records during one simulation run.
type SimulationTrace struct {
	RunID       string
	Config      TraceConfig
	Accepts     []AcceptRecord
	Transfers   []TransferRecord
	Deferrals   []DeferralRecord
	Extractions []ExtractionRecord
	next        int
}

// NewSimulationTrace creates a SimulationTrace ready for recording, tagged
// with a fresh run ID.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		RunID:       uuid.NewString(),
		Config:      config,
		Accepts:     make([]AcceptRecord, 0),
		Transfers:   make([]TransferRecord, 0),
		Deferrals:   make([]DeferralRecord, 0),
		Extractions: make([]ExtractionRecord, 0),
	}
}

func (st *SimulationTrace) seq() int {
	st.next++
	return st.next
}

// RecordAccept appends an acceptance record. Ignored below TraceLevelAll.
func (st *SimulationTrace) RecordAccept(record AcceptRecord) {
	if st.Config.Level != TraceLevelAll {
		return
	}
	record.Seq = st.seq()
	st.Accepts = append(st.Accepts, record)
}

// RecordTransfer appends a transfer record.
func (st *SimulationTrace) RecordTransfer(record TransferRecord) {
	if !st.Config.Enabled() {
		return
	}
	record.Seq = st.seq()
	st.Transfers = append(st.Transfers, record)
}

// RecordDeferral appends a deferral record.
func (st *SimulationTrace) RecordDeferral(record DeferralRecord) {
	if !st.Config.Enabled() {
		return
	}
	record.Seq = st.seq()
	st.Deferrals = append(st.Deferrals, record)
}

// RecordExtraction appends an extraction record.
func (st *SimulationTrace) RecordExtraction(record ExtractionRecord) {
	if !st.Config.Enabled() {
		return
	}
	record.Seq = st.seq()
	st.Extractions = append(st.Extractions, record)
}

type timelineLine struct {
	seq  int
	text string
}

// WriteTimeline writes every record, one per line, in recording order.
// The run ID is left out so the output is deterministic.
func (st *SimulationTrace) WriteTimeline(w io.Writer) error {
	lines := make([]timelineLine, 0, len(st.Accepts)+len(st.Transfers)+len(st.Deferrals)+len(st.Extractions))
	for _, r := range st.Accepts {
		lines = append(lines, timelineLine{r.Seq, fmt.Sprintf("[tick %07d] accept   %s <- %s (requested %d)", r.Clock, r.Conveyor, r.CargoID, r.RequestedAt)})
	}
	for _, r := range st.Transfers {
		lines = append(lines, timelineLine{r.Seq, fmt.Sprintf("[tick %07d] transfer %s -> %s [%s]", r.Clock, r.From, r.To, strings.Join(r.CargoIDs, ","))})
	}
	for _, r := range st.Deferrals {
		lines = append(lines, timelineLine{r.Seq, fmt.Sprintf("[tick %07d] defer    %s -> %s (%d waiting)", r.Clock, r.From, r.To, r.BatchSize)})
	}
	for _, r := range st.Extractions {
		lines = append(lines, timelineLine{r.Seq, fmt.Sprintf("[tick %07d] extract  %s [%s]", r.Clock, r.Conveyor, strings.Join(r.CargoIDs, ","))})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].seq < lines[j].seq })
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l.text); err != nil {
			return fmt.Errorf("writing timeline: %w", err)
		}
	}
	return nil
}
