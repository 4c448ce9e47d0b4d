package derive_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-stats/derive"
	"tieba-stats/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func series(days ...string) []models.IntervalRecord {
	out := make([]models.IntervalRecord, len(days))
	for i, d := range days {
		out[i] = models.IntervalRecord{Timestamp: day(d)}
	}
	return out
}

func TestResolveRange_FullSeries(t *testing.T) {
	s := series("2024-01-03", "2024-01-02", "2024-01-01")
	w := models.DateWindow{Start: day("2024-01-01"), End: day("2024-01-03")}

	got, err := derive.ResolveRange(s, w, derive.DefaultRange(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.IndexRange{Start: 0, End: 3}, got)
	assert.Len(t, derive.SliceWindow(s, got), 3)
}

func TestResolveRange_IgnoresTimeOfDay(t *testing.T) {
	s := series("2024-01-03", "2024-01-02", "2024-01-01")
	w := models.DateWindow{
		Start: day("2024-01-02").Add(15 * time.Hour),
		End:   day("2024-01-03").Add(23 * time.Hour),
	}

	got, err := derive.ResolveRange(s, w, derive.DefaultRange(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.IndexRange{Start: 0, End: 2}, got)
}

func TestResolveRange_UsesLocation(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	// 2024-01-01 20:00 UTC is already 2024-01-02 in Shanghai.
	s := []models.IntervalRecord{
		{Timestamp: day("2024-01-02").Add(20 * time.Hour)},
		{Timestamp: day("2024-01-01").Add(20 * time.Hour)},
	}
	w := models.DateWindow{
		Start: time.Date(2024, 1, 2, 0, 0, 0, 0, shanghai),
		End:   time.Date(2024, 1, 3, 0, 0, 0, 0, shanghai),
	}

	got, err := derive.ResolveRange(s, w, derive.DefaultRange(), shanghai)
	require.NoError(t, err)
	assert.Equal(t, models.IndexRange{Start: 0, End: 2}, got)
}

func TestResolveRange_NoMatchKeepsPrevious(t *testing.T) {
	s := series("2024-01-03", "2024-01-02", "2024-01-01")
	prev := models.IndexRange{Start: 1, End: 2}
	w := models.DateWindow{Start: day("2023-06-01"), End: day("2023-06-05")}

	got, err := derive.ResolveRange(s, w, prev, time.UTC)
	require.ErrorIs(t, err, derive.ErrWindowUnresolved)
	assert.Equal(t, prev, got)
}

func TestResolveRange_OneSideMatched(t *testing.T) {
	s := series("2024-01-03", "2024-01-02", "2024-01-01")
	prev := models.IndexRange{Start: 1, End: 2}
	w := models.DateWindow{Start: day("2023-12-01"), End: day("2024-01-02")}

	got, err := derive.ResolveRange(s, w, prev, time.UTC)
	require.ErrorIs(t, err, derive.ErrWindowUnresolved)
	assert.Equal(t, models.IndexRange{Start: 1, End: 2}, got)
}

func TestResolveRange_EmptySeries(t *testing.T) {
	prev := derive.DefaultRange()
	w := models.DateWindow{Start: day("2024-01-01"), End: day("2024-01-03")}

	got, err := derive.ResolveRange(nil, w, prev, time.UTC)
	require.ErrorIs(t, err, derive.ErrWindowUnresolved)
	assert.Equal(t, prev, got)
}

func TestResolveRange_InvertedWindow(t *testing.T) {
	s := series("2024-01-03", "2024-01-02", "2024-01-01")
	prev := models.IndexRange{Start: 0, End: 1}
	w := models.DateWindow{Start: day("2024-01-03"), End: day("2024-01-01")}

	got, err := derive.ResolveRange(s, w, prev, time.UTC)
	require.ErrorIs(t, err, derive.ErrInvalidWindow)
	assert.Equal(t, prev, got)
}

func TestSliceWindow_ClampsOutOfRange(t *testing.T) {
	s := series("2024-01-03", "2024-01-02")

	assert.Len(t, derive.SliceWindow(s, derive.DefaultRange()), 1)
	assert.Empty(t, derive.SliceWindow(s, models.IndexRange{Start: 5, End: 9}))
	assert.Empty(t, derive.SliceWindow(s, models.IndexRange{Start: 2, End: 1}))
}

func TestDefaultWindow(t *testing.T) {
	now := day("2024-03-10")
	w := derive.DefaultWindow(now)
	assert.Equal(t, day("2024-03-03"), w.Start)
	assert.Equal(t, day("2024-03-09"), w.End)
}

func TestResolveRange_SingleDay(t *testing.T) {
	s := series("2024-01-03", "2024-01-02", "2024-01-01")
	w := models.DateWindow{Start: day("2024-01-02"), End: day("2024-01-02")}

	got, err := derive.ResolveRange(s, w, derive.DefaultRange(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.IndexRange{Start: 1, End: 2}, got)
	require.Len(t, derive.SliceWindow(s, got), 1)
	assert.Equal(t, day("2024-01-02"), derive.SliceWindow(s, got)[0].Timestamp)
}
