package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"tieba-stats/derive"
	"tieba-stats/logger"
	"tieba-stats/models"
)

func reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a statistics report",
	}
	cmd.AddCommand(postsReportCommand(), incomeReportCommand(), distributionReportCommand())
	return cmd
}

func newTable(w io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(header)
	return t
}

func parseDay(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date", raw)
	}
	return t, nil
}

func postsReportCommand() *cobra.Command {
	var start, end string
	var detail bool

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Print daily post counts for a date window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.flush()
			now := time.Now().In(d.loc)

			series, err := d.client.Posts(cmd.Context(), now)
			if err != nil {
				return err
			}
			records := derive.BuildDeltaSeries(series.Points, series.LiveTotal, now)

			r := derive.DefaultRange()
			if start != "" || end != "" {
				w := derive.DefaultWindow(now)
				if start != "" {
					if w.Start, err = parseDay(start, d.loc); err != nil {
						return err
					}
				}
				if end != "" {
					if w.End, err = parseDay(end, d.loc); err != nil {
						return err
					}
				}
				r, err = derive.ResolveRange(records, w, r, d.loc)
				if errors.Is(err, derive.ErrInvalidWindow) {
					return err
				}
				if err != nil {
					d.log.Warn("Window not fully resolved, keeping default bounds", logger.Error(err))
				}
			}
			renderPosts(cmd.OutOrStdout(), derive.SliceWindow(records, r), series.LiveTotal, detail, d.loc)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&detail, "detail", false, "print exact totals instead of ten-thousands")
	return cmd
}

func renderPosts(w io.Writer, records []models.IntervalRecord, live int64, detail bool, loc *time.Location) {
	t := newTable(w, "Posts (live total "+derive.FormatWan(float64(live), detail)+")", table.Row{"Day", "Total", "Posts"})
	var sum int64
	for _, rec := range records {
		t.AppendRow(table.Row{derive.DayLabel(rec.Timestamp, loc), derive.FormatWan(float64(rec.CumulativeTotal), detail), rec.Delta})
		sum += rec.Delta
	}
	t.AppendFooter(table.Row{"", "Sum", sum})
	t.Render()
}

func incomeReportCommand() *cobra.Command {
	var detail bool

	cmd := &cobra.Command{
		Use:   "income",
		Short: "Print pool and monthly revenue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.flush()
			now := time.Now().In(d.loc)

			report, err := d.client.Income(cmd.Context(), d.incomeStart, now)
			if err != nil {
				return err
			}
			renderIncome(cmd.OutOrStdout(), report, now, detail, d.loc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&detail, "detail", false, "print exact amounts instead of ten-thousands")
	return cmd
}

func renderIncome(w io.Writer, report models.RevenueReport, now time.Time, detail bool, loc *time.Location) {
	pools := newTable(w, "Pools", table.Row{"Pool", "Launched", "Five-day total", "Peak"})
	for _, p := range report.Pools {
		pools.AppendRow(table.Row{
			derive.PoolLabel(p, now),
			derive.DayKey(p.Date, loc),
			derive.FormatWan(p.FiveDayTotal, detail),
			derive.FormatWan(p.Peak, detail),
		})
	}
	pools.Render()

	months := newTable(w, "Monthly (daily average "+derive.FormatWan(report.Average, detail)+")", table.Row{"Month", "Income"})
	for _, m := range derive.MonthlyTable(report.Monthly) {
		months.AppendRow(table.Row{m.Date.In(loc).Format("2006-01"), derive.FormatWan(m.Income, detail)})
	}
	months.Render()
}

func distributionReportCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Print the member level distribution",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.flush()
			at := time.Now().In(d.loc)
			if date != "" {
				if at, err = parseDay(date, d.loc); err != nil {
					return err
				}
			}

			snap, err := d.client.Distribution(cmd.Context(), at)
			if err != nil {
				return err
			}
			renderDistribution(cmd.OutOrStdout(), derive.ReduceDistribution(snap.Levels, snap.PopulationStats, d.cfg.Derive.ThresholdLevel))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD), today by default")
	return cmd
}

func renderDistribution(w io.Writer, dist derive.Distribution) {
	levels := newTable(w, "Levels", table.Row{"Level", "Members", "Cumulative", "Change"})
	for _, b := range dist.Buckets {
		levels.AppendRow(table.Row{b.Level, b.Count, b.CumulativeRank, b.Delta})
	}
	levels.Render()

	summary := newTable(w, "Population", table.Row{"Figure", "Count", "Percent"})
	threshold := fmt.Sprintf("Level %d", dist.Threshold.Level)
	summary.AppendRows([]table.Row{
		{"Total", dist.Total, ""},
		{threshold, dist.Threshold.Rank, dist.Threshold.Percent.String()},
		{"Members", dist.Membership.Count, dist.Membership.Percent.String()},
		{"VIP", dist.VIP.Count, dist.VIP.Percent.String()},
		{"Signed in", dist.SignIn.Count, dist.SignIn.Percent.String()},
		{"Posts per member", "", dist.AveragePosts.String()},
	})
	summary.Render()
}
