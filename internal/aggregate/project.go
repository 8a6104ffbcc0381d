package aggregate

import (
	"strconv"

	"intraday-lab/internal/domain"
)

// Layouts shared by the table and CSV renderers. Dates use the session
// day, clock times the exchange-local bar minute.
const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// AveragedColumns returns the header of the one-row-per-symbol view for
// a detector. Unknown kinds return nil.
func AveragedColumns(kind domain.DetectorKind) []string {
	switch kind {
	case domain.DetectorSwing:
		return []string{"Symbol", "Sessions", "Up Swings", "Down Swings", "Total", "Avg/Session", "Volatility"}
	case domain.DetectorReversal:
		return []string{"Symbol", "Sessions", "Cycles", "Avg/Session"}
	case domain.DetectorAnchor:
		return []string{"Symbol", "Sessions", "Avg Anchor", "Avg High", "Avg Low", "Direction", "Avg Gain %"}
	case domain.DetectorDip:
		return []string{"Symbol", "Date", "Session High", "Reference", "Drop %"}
	}
	return nil
}

// AveragedRow flattens one summary into a row matching AveragedColumns.
// The projection reads the summary as-is; it never recomputes metrics
// from the detail rows.
func AveragedRow(s domain.SymbolSummary) []string {
	switch s.Detector {
	case domain.DetectorSwing:
		if s.Swing == nil {
			return nil
		}
		return []string{
			s.Symbol,
			strconv.Itoa(s.SessionCount),
			strconv.Itoa(s.Swing.UpTotal),
			strconv.Itoa(s.Swing.DownTotal),
			strconv.Itoa(s.Swing.Total),
			fmtFloat(s.Swing.AvgPerDay),
			string(s.Swing.Volatility),
		}
	case domain.DetectorReversal:
		if s.Reversal == nil {
			return nil
		}
		return []string{
			s.Symbol,
			strconv.Itoa(s.SessionCount),
			strconv.Itoa(s.Reversal.CycleTotal),
			fmtFloat(s.Reversal.AvgPerDay),
		}
	case domain.DetectorAnchor:
		if s.Anchor == nil {
			return nil
		}
		return []string{
			s.Symbol,
			strconv.Itoa(s.SessionCount),
			fmtFloat(s.Anchor.AvgAnchorPrice),
			fmtFloat(s.Anchor.AvgPostHigh),
			fmtFloat(s.Anchor.AvgPostLow),
			string(s.Anchor.Direction),
			fmtFloat(s.Anchor.AvgPctGain),
		}
	case domain.DetectorDip:
		if s.Dip == nil {
			return nil
		}
		return []string{
			s.Symbol,
			s.Dip.Date.Format(dateLayout),
			fmtFloat(s.Dip.SessionHigh),
			fmtFloat(s.Dip.ReferencePrice),
			fmtFloat(s.Dip.DropPct),
		}
	}
	return nil
}

// DetailedColumns returns the header of the per-session drill-down for
// a detector. The dip scan retains no detail rows, so its detailed view
// is the averaged one.
func DetailedColumns(kind domain.DetectorKind) []string {
	switch kind {
	case domain.DetectorSwing:
		return []string{"Date", "Up Swings", "Down Swings"}
	case domain.DetectorReversal:
		return []string{"Date", "Cycles"}
	case domain.DetectorAnchor:
		return []string{"Date", "Anchor", "High", "High At", "Low", "Low At", "Direction", "Gain %"}
	}
	return nil
}

// DetailedRows renders one row per retained session, in session order.
func DetailedRows(s domain.SymbolSummary) [][]string {
	switch s.Detector {
	case domain.DetectorSwing:
		rows := make([][]string, 0, len(s.SwingSessions))
		for _, sess := range s.SwingSessions {
			rows = append(rows, []string{
				sess.Date.Format(dateLayout),
				strconv.Itoa(sess.UpCount),
				strconv.Itoa(sess.DownCount),
			})
		}
		return rows
	case domain.DetectorReversal:
		rows := make([][]string, 0, len(s.ReversalSessions))
		for _, sess := range s.ReversalSessions {
			rows = append(rows, []string{
				sess.Date.Format(dateLayout),
				strconv.Itoa(sess.CycleCount),
			})
		}
		return rows
	case domain.DetectorAnchor:
		rows := make([][]string, 0, len(s.AnchorSessions))
		for _, rec := range s.AnchorSessions {
			rows = append(rows, []string{
				rec.Date.Format(dateLayout),
				fmtFloat(rec.AnchorPrice),
				fmtFloat(rec.PostHigh),
				rec.PostHighTime.Format(clockLayout),
				fmtFloat(rec.PostLow),
				rec.PostLowTime.Format(clockLayout),
				string(rec.Direction),
				fmtFloat(rec.PctGain),
			})
		}
		return rows
	}
	return nil
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
