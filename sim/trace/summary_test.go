package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelAll})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalAccepts != 0 || summary.TotalTransfers != 0 || summary.TotalDeferrals != 0 {
		t.Errorf("expected zero counts, got %+v", summary)
	}
	if summary.MeanWait != 0 || summary.MaxWait != 0 {
		t.Error("expected 0 wait values")
	}
	if len(summary.OutflowByFrom) != 0 {
		t.Error("expected empty outflow distribution")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil || summary.OutflowByFrom == nil {
		t.Fatal("expected non-nil summary with initialized map")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with accepts, transfers, a deferral and an extraction
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelAll})
	st.RecordAccept(AcceptRecord{CargoID: "c1", Conveyor: "a", RequestedAt: 0, Clock: 0})
	st.RecordAccept(AcceptRecord{CargoID: "c2", Conveyor: "a", RequestedAt: 0, Clock: 10})
	st.RecordAccept(AcceptRecord{CargoID: "c3", Conveyor: "a", RequestedAt: 5, Clock: 35})
	st.RecordTransfer(TransferRecord{Clock: 10, From: "a", To: "b", CargoIDs: []string{"c1"}})
	st.RecordTransfer(TransferRecord{Clock: 20, From: "a", To: "b", CargoIDs: []string{"c2"}})
	st.RecordTransfer(TransferRecord{Clock: 30, From: "b", To: "c", CargoIDs: []string{"c1", "c2"}})
	st.RecordDeferral(DeferralRecord{Clock: 25, From: "a", To: "b", BatchSize: 1})
	st.RecordExtraction(ExtractionRecord{Clock: 40, Conveyor: "c", CargoIDs: []string{"c1", "c2"}})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalAccepts != 3 {
		t.Errorf("expected 3 accepts, got %d", summary.TotalAccepts)
	}
	if summary.TotalTransfers != 3 {
		t.Errorf("expected 3 transfers, got %d", summary.TotalTransfers)
	}
	if summary.CargoTransferred != 4 {
		t.Errorf("expected 4 cargo transferred, got %d", summary.CargoTransferred)
	}
	if summary.TotalDeferrals != 1 {
		t.Errorf("expected 1 deferral, got %d", summary.TotalDeferrals)
	}
	if summary.CargoExtracted != 2 {
		t.Errorf("expected 2 extracted, got %d", summary.CargoExtracted)
	}
	if summary.OutflowByFrom["a"] != 2 || summary.OutflowByFrom["b"] != 2 {
		t.Errorf("unexpected outflow distribution %v", summary.OutflowByFrom)
	}

	// THEN waits are (0 + 10 + 30) / 3 with max 30
	if summary.MeanWait < 13.33 || summary.MeanWait > 13.34 {
		t.Errorf("expected mean wait ~13.33, got %.4f", summary.MeanWait)
	}
	if summary.MaxWait != 30 {
		t.Errorf("expected max wait 30, got %d", summary.MaxWait)
	}
	if summary.BlockedAccepts != 2 {
		t.Errorf("expected 2 blocked accepts, got %d", summary.BlockedAccepts)
	}
}
