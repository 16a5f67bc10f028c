package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAccepts     int            `json:"total_accepts"`
	TotalTransfers   int            `json:"total_transfers"`
	TotalDeferrals   int            `json:"total_deferrals"`
	CargoTransferred int            `json:"cargo_transferred"`
	CargoExtracted   int            `json:"cargo_extracted"`
	MeanWait         float64        `json:"mean_wait"`
	MaxWait          int64          `json:"max_wait"`
	BlockedAccepts   int            `json:"blocked_accepts"` // accepts that waited at least one tick
	OutflowByFrom    map[string]int `json:"outflow_by_from"` // conveyor name → cargo units passed downstream
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		OutflowByFrom: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalAccepts = len(st.Accepts)
	if len(st.Accepts) > 0 {
		var totalWait int64
		for _, a := range st.Accepts {
			w := a.Wait()
			totalWait += w
			if w > summary.MaxWait {
				summary.MaxWait = w
			}
			if w > 0 {
				summary.BlockedAccepts++
			}
		}
		summary.MeanWait = float64(totalWait) / float64(len(st.Accepts))
	}

	summary.TotalTransfers = len(st.Transfers)
	for _, r := range st.Transfers {
		summary.CargoTransferred += len(r.CargoIDs)
		summary.OutflowByFrom[r.From] += len(r.CargoIDs)
	}
	summary.TotalDeferrals = len(st.Deferrals)
	for _, r := range st.Extractions {
		summary.CargoExtracted += len(r.CargoIDs)
	}

	return summary
}
