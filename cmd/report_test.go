package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-stats/derive"
	"tieba-stats/logger"
	"tieba-stats/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRenderPosts(t *testing.T) {
	var buf bytes.Buffer
	records := []models.IntervalRecord{
		{Timestamp: day("2024-01-03"), CumulativeTotal: 120000, Delta: 20},
		{Timestamp: day("2024-01-02"), CumulativeTotal: 119980, Delta: 5},
	}

	renderPosts(&buf, records, 120010, false, time.UTC)

	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "live total 12.00w")
	assert.Contains(t, out, "2024-01-03(三)")
	assert.Contains(t, out, "12.00w")
	assert.Contains(t, out, "25")
}

func TestRenderIncome(t *testing.T) {
	var buf bytes.Buffer
	now := day("2024-01-04")
	report := models.RevenueReport{
		Pools: []models.RevenueEvent{
			{Name: "Winter", Short: "W", Date: day("2024-01-02"), FiveDayTotal: 25000, Peak: 9000},
		},
		Monthly: []models.MonthlyIncome{
			{Date: day("2023-12-01"), Income: 10000},
			{Date: day("2024-01-01"), Income: 30000},
		},
		Average: 5000,
	}

	renderIncome(&buf, report, now, true, time.UTC)

	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "winter(2天)")
	assert.Contains(t, out, "25000")
	assert.Contains(t, out, "daily average 5000")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("2024-01")), bytes.Index(buf.Bytes(), []byte("2023-12")))
}

func TestRenderDistribution_ZeroPopulation(t *testing.T) {
	var buf bytes.Buffer
	renderDistribution(&buf, derive.ReduceDistribution(nil, models.PopulationStats{}, 10))

	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "level 10")
	assert.Contains(t, out, strings.ToLower(derive.NaN))
}

func TestParseDay(t *testing.T) {
	got, err := parseDay("2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day("2024-02-29"), got)

	_, err = parseDay("29/02/2024", time.UTC)
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "tieba-stats dev\n", buf.String())
}

type syncCounter struct {
	logger.Logger
	synced int
}

func (s *syncCounter) Sync() error {
	s.synced++
	return nil
}

func TestDepsFlush_SyncsLogger(t *testing.T) {
	log := &syncCounter{Logger: logger.NewNop()}
	d := &deps{log: log}
	d.flush()
	assert.Equal(t, 1, log.synced)
}
