package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/inference-sim/conveyor-sim/sim/trace"
)

// ConveyorReport is the end-of-run state of one conveyor.
type ConveyorReport struct {
	Name          string `json:"name"`
	Next          string `json:"next,omitempty"`
	Capacity      int    `json:"capacity"`
	Period        int64  `json:"period"`
	State         string `json:"state"`
	Occupancy     int    `json:"occupancy"`
	Accepted      int    `json:"accepted"`
	BlockedPuts   int    `json:"blocked_puts"`
	Passes        int    `json:"passes"`
	Deferrals     int    `json:"deferrals"`
	Extracted     int    `json:"extracted"`
	PeakOccupancy int    `json:"peak_occupancy"`
	PendingPuts   int    `json:"pending_puts"`
}

// Report summarizes a finished run.
type Report struct {
	RunID         string              `json:"run_id,omitempty"`
	Ordering      string              `json:"ordering"`
	EndedAt       int64               `json:"ended_at"`
	Arrivals      int                 `json:"arrivals"`
	EventsRun     uint64              `json:"events_executed"`
	EventsPending int                 `json:"events_pending"`
	Conveyors     []ConveyorReport    `json:"conveyors"`
	Trace         *trace.TraceSummary `json:"trace,omitempty"`
}

// NewReport collects the report for run.
func NewReport(run *Simulation) *Report {
	rep := &Report{
		Ordering:      string(run.Sim.Config().Ordering),
		EndedAt:       run.EndedAt,
		Arrivals:      run.Arrivals,
		EventsRun:     run.Sim.Executed(),
		EventsPending: run.Sim.Pending(),
	}
	if rep.Ordering == "" {
		rep.Ordering = "stable"
	}
	for _, c := range run.Line.Conveyors() {
		stats := c.Stats()
		next := ""
		if !c.IsTerminal() {
			next = run.Line.Get(c.Next()).Name()
		}
		rep.Conveyors = append(rep.Conveyors, ConveyorReport{
			Name:          c.Name(),
			Next:          next,
			Capacity:      c.Capacity(),
			Period:        c.Period(),
			State:         string(c.State()),
			Occupancy:     c.Len(),
			Accepted:      stats.Accepted,
			BlockedPuts:   stats.BlockedPuts,
			Passes:        stats.Passes,
			Deferrals:     stats.Deferrals,
			Extracted:     stats.Extracted,
			PeakOccupancy: stats.PeakOccupancy,
			PendingPuts:   c.PendingPuts(),
		})
	}
	if run.Trace != nil {
		rep.RunID = run.Trace.RunID
		rep.Trace = trace.Summarize(run.Trace)
	}
	return rep
}

// WriteJSON writes the report as indented JSON.
func (rep *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteTable renders the per-conveyor table followed by the run totals.
func (rep *Report) WriteTable(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Conveyor", "Next", "Cap", "Period", "State", "Load", "Accepted", "Blocked", "Passes", "Deferrals", "Extracted", "Peak", "Waiting Puts"})
	for _, c := range rep.Conveyors {
		next := c.Next
		if next == "" {
			next = "-"
		}
		tw.AppendRow(table.Row{c.Name, next, c.Capacity, c.Period, c.State, c.Occupancy, c.Accepted, c.BlockedPuts, c.Passes, c.Deferrals, c.Extracted, c.PeakOccupancy, c.PendingPuts})
	}
	tw.Render()

	_, _ = fmt.Fprintf(w, "=== Simulation Summary ===\n")
	_, _ = fmt.Fprintf(w, "Ordering        : %s\n", rep.Ordering)
	_, _ = fmt.Fprintf(w, "Ended at tick   : %d\n", rep.EndedAt)
	_, _ = fmt.Fprintf(w, "Arrivals        : %d\n", rep.Arrivals)
	_, _ = fmt.Fprintf(w, "Events executed : %d\n", rep.EventsRun)
	_, _ = fmt.Fprintf(w, "Events pending  : %d\n", rep.EventsPending)
	if rep.Trace != nil {
		_, _ = fmt.Fprintf(w, "Run ID          : %s\n", rep.RunID)
		_, _ = fmt.Fprintf(w, "Transfers       : %d (%d cargo)\n", rep.Trace.TotalTransfers, rep.Trace.CargoTransferred)
		_, _ = fmt.Fprintf(w, "Deferrals       : %d\n", rep.Trace.TotalDeferrals)
		_, _ = fmt.Fprintf(w, "Extracted       : %d\n", rep.Trace.CargoExtracted)
		if rep.Trace.TotalAccepts > 0 {
			_, _ = fmt.Fprintf(w, "Mean put wait   : %.2f ticks (max %d)\n", rep.Trace.MeanWait, rep.Trace.MaxWait)
		}
	}
}
