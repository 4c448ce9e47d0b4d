package derive

import (
	"time"

	"tieba-stats/models"
)

// BuildDeltaSeries converts a newest-first cumulative series into interval
// records and prepends a record for now whose delta is the growth of
// liveTotal over the newest snapshot. The oldest snapshot has no earlier
// reference, so its delta is its own total. Negative deltas are kept.
func BuildDeltaSeries(points []models.TimeSeriesPoint, liveTotal int64, now time.Time) []models.IntervalRecord {
	out := make([]models.IntervalRecord, 0, len(points)+1)

	today := models.IntervalRecord{Timestamp: now, CumulativeTotal: liveTotal, Delta: liveTotal}
	if len(points) > 0 {
		today.Delta = liveTotal - points[0].CumulativeTotal
	}
	out = append(out, today)

	for i, p := range points {
		rec := models.IntervalRecord{Timestamp: p.Timestamp, CumulativeTotal: p.CumulativeTotal}
		if i < len(points)-1 {
			rec.Delta = p.CumulativeTotal - points[i+1].CumulativeTotal
		} else {
			rec.Delta = p.CumulativeTotal
		}
		out = append(out, rec)
	}
	return out
}

// Reaccumulate rebuilds cumulative totals from deltas, summing from the
// oldest record forward. It is the inverse of BuildDeltaSeries.
func Reaccumulate(records []models.IntervalRecord) []int64 {
	out := make([]int64, len(records))
	var running int64
	for i := len(records) - 1; i >= 0; i-- {
		running += records[i].Delta
		out[i] = running
	}
	return out
}
