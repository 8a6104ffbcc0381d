// Package idhash derives deterministic record IDs so history inserts
// are idempotent: re-persisting the same run yields the same keys and
// trips the duplicate check instead of writing a second copy.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"intraday-lab/internal/domain"
)

// ComputeSummaryID computes a deterministic summary row ID using SHA256.
// Formula: SHA256(run_id|symbol|detector)
// Returns hex-encoded hash (64 characters).
func ComputeSummaryID(runID, symbol string, detector domain.DetectorKind) string {
	data := fmt.Sprintf("%s|%s|%s", runID, symbol, string(detector))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
