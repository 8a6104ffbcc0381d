package reporting

import (
	"fmt"
	"strings"
	"time"

	"intraday-lab/internal/domain"
)

var headerReplacer = strings.NewReplacer(" ", "_", "/", "_", "%", "pct")

// RenderCSV renders the summary section as CSV: one snake_case header
// row, one row per symbol. Detail rows never appear in the export.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	headers := make([]string, len(r.Summary.Columns))
	for i, col := range r.Summary.Columns {
		headers[i] = headerReplacer.Replace(strings.ToLower(col))
	}
	sb.WriteString(strings.Join(headers, ","))
	sb.WriteString("\n")

	for _, row := range r.Summary.Rows {
		sb.WriteString(strings.Join(row, ","))
		sb.WriteString("\n")
	}

	return sb.String()
}

// DefaultFilename names a CSV export after the detector, threshold and
// a second-resolution timestamp, e.g. swing_analysis_5pct_20250324_161502.csv.
// Detectors without a threshold drop the pct segment.
func DefaultFilename(run domain.RunRecord, now time.Time) string {
	stamp := now.Format("20060102_150405")
	if run.Threshold > 0 {
		return fmt.Sprintf("%s_analysis_%gpct_%s.csv", run.Detector, run.Threshold, stamp)
	}
	return fmt.Sprintf("%s_analysis_%s.csv", run.Detector, stamp)
}
