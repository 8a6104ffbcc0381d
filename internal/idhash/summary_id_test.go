package idhash

import (
	"testing"

	"intraday-lab/internal/domain"
)

func TestComputeSummaryID(t *testing.T) {
	got := ComputeSummaryID("run-1", "AAPL", domain.DetectorSwing)

	if len(got) != 64 {
		t.Errorf("ComputeSummaryID() length = %d, want 64", len(got))
	}

	// Same inputs must reproduce the same ID.
	if again := ComputeSummaryID("run-1", "AAPL", domain.DetectorSwing); again != got {
		t.Errorf("ComputeSummaryID() not deterministic: %s != %s", again, got)
	}
}

func TestComputeSummaryID_DifferentInputs(t *testing.T) {
	base := ComputeSummaryID("run-1", "AAPL", domain.DetectorSwing)

	if ComputeSummaryID("run-2", "AAPL", domain.DetectorSwing) == base {
		t.Error("different run_id should produce different hash")
	}
	if ComputeSummaryID("run-1", "MSFT", domain.DetectorSwing) == base {
		t.Error("different symbol should produce different hash")
	}
	if ComputeSummaryID("run-1", "AAPL", domain.DetectorReversal) == base {
		t.Error("different detector should produce different hash")
	}
}
