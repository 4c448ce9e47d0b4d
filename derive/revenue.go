package derive

import (
	"fmt"
	"slices"
	"time"

	"tieba-stats/models"
)

// Series tags of the long-format revenue rows.
const (
	SeriesActual       = "actual"
	SeriesAverage      = "average"
	SeriesFiveDayTotal = "five-day total"
	SeriesPeak         = "peak"
)

// poolFreshDays is how long a pool carries its age in its label.
const poolFreshDays = 5

// HistoryRow is one (date, series) point of the revenue history chart.
type HistoryRow struct {
	Date   time.Time `json:"date"`
	Income float64   `json:"income"`
	Type   string    `json:"type"`
}

// PoolRow is one (pool, series) bar of the pool comparison chart.
type PoolRow struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Income float64 `json:"income"`
}

// PivotHistory emits an actual and an average row for every daily record.
func PivotHistory(daily []models.DailyIncome, average float64) []HistoryRow {
	out := make([]HistoryRow, 0, 2*len(daily))
	for _, d := range daily {
		out = append(out,
			HistoryRow{Date: d.Date, Income: d.Income, Type: SeriesActual},
			HistoryRow{Date: d.Date, Income: average, Type: SeriesAverage},
		)
	}
	return out
}

// PivotPools sorts pools by launch date and emits a five-day total and a
// peak row for each, keyed by the short pool name.
func PivotPools(pools []models.RevenueEvent) []PoolRow {
	sorted := slices.Clone(pools)
	slices.SortStableFunc(sorted, func(a, b models.RevenueEvent) int { return a.Date.Compare(b.Date) })

	out := make([]PoolRow, 0, 2*len(sorted))
	for _, p := range sorted {
		out = append(out,
			PoolRow{Name: p.Short, Type: SeriesFiveDayTotal, Income: p.FiveDayTotal},
			PoolRow{Name: p.Short, Type: SeriesPeak, Income: p.Peak},
		)
	}
	return out
}

// MonthlySeries returns a copy of months sorted oldest first, for charting.
func MonthlySeries(months []models.MonthlyIncome) []models.MonthlyIncome {
	out := slices.Clone(months)
	slices.SortStableFunc(out, func(a, b models.MonthlyIncome) int { return a.Date.Compare(b.Date) })
	return out
}

// MonthlyTable returns a copy of months sorted newest first, for the summary table.
func MonthlyTable(months []models.MonthlyIncome) []models.MonthlyIncome {
	out := slices.Clone(months)
	slices.SortStableFunc(out, func(a, b models.MonthlyIncome) int { return b.Date.Compare(a.Date) })
	return out
}

// PoolLabel appends the pool's age in days while it is still inside its
// five-day window.
func PoolLabel(p models.RevenueEvent, now time.Time) string {
	days := int(now.Sub(p.Date).Hours() / 24)
	if days >= poolFreshDays {
		return p.Name
	}
	if days < 0 {
		days = 0
	}
	return fmt.Sprintf("%s(%d天)", p.Name, days)
}
