package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tieba-stats/cache"
	"tieba-stats/derive"
	"tieba-stats/models"
	"tieba-stats/upstream"
)

type poolView struct {
	Label       string    `json:"label"`
	Short       string    `json:"short"`
	Date        time.Time `json:"date"`
	Income      string    `json:"income"`
	Peak        string    `json:"peak"`
	IncomeValue float64   `json:"incomeValue"`
	PeakValue   float64   `json:"peakValue"`
}

type monthView struct {
	Month  string  `json:"month"`
	Income string  `json:"income"`
	Value  float64 `json:"value"`
}

// Income serves the revenue views: the daily history against its average,
// the pool comparison and the monthly totals.
func (h *Handler) Income(c *gin.Context) {
	now := h.now()
	detail := boolParam(c, "detail")

	start := h.opts.IncomeStart
	if start.IsZero() {
		start = now.AddDate(0, -1, 0)
	}
	params := derive.DayKey(start, h.opts.Location) + "/" + derive.DayKey(now, h.opts.Location)

	report, stale, err := cache.Through(c.Request.Context(), h.fallback, upstream.EndpointIncome, params,
		func(ctx context.Context) (models.RevenueReport, error) { return h.source.Income(ctx, start, now) })
	if err != nil {
		h.sourceFailed(c, upstream.EndpointIncome, err)
		return
	}

	pools := make([]poolView, 0, len(report.Pools))
	for _, p := range report.Pools {
		pools = append(pools, poolView{
			Label:       derive.PoolLabel(p, now),
			Short:       p.Short,
			Date:        p.Date,
			Income:      derive.FormatWan(p.FiveDayTotal, detail),
			Peak:        derive.FormatWan(p.Peak, detail),
			IncomeValue: p.FiveDayTotal,
			PeakValue:   p.Peak,
		})
	}

	table := derive.MonthlyTable(report.Monthly)
	months := make([]monthView, 0, len(table))
	for _, m := range table {
		months = append(months, monthView{
			Month:  m.Date.In(h.opts.Location).Format("2006-01"),
			Income: derive.FormatWan(m.Income, detail),
			Value:  m.Income,
		})
	}

	c.JSON(http.StatusOK, staleFields(gin.H{
		"average":      report.Average,
		"averageLabel": derive.FormatWan(report.Average, detail),
		"history":      derive.PivotHistory(report.Daily, report.Average),
		"pools":        derive.PivotPools(report.Pools),
		"poolTable":    pools,
		"monthly":      derive.MonthlySeries(report.Monthly),
		"monthlyTable": months,
	}, stale))
}
