package derive_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-stats/derive"
	"tieba-stats/models"
)

func histogram() []models.LevelRank {
	return []models.LevelRank{
		{Level: 1, Rank: 50, Delta: 2},
		{Level: 2, Rank: 120},
		{Level: 9, Rank: 400, Delta: -3},
		{Level: 10, Rank: 600},
		{Level: 11, Rank: 1000},
	}
}

func TestReduceDistribution_Counts(t *testing.T) {
	d := derive.ReduceDistribution(histogram(), models.PopulationStats{Total: 2000}, derive.DefaultThresholdLevel)

	counts := make([]int64, len(d.Buckets))
	var sum int64
	for i, b := range d.Buckets {
		counts[i] = b.Count
		sum += b.Count
	}
	assert.Equal(t, []int64{50, 70, 280, 200, 400}, counts)
	assert.Equal(t, d.Buckets[len(d.Buckets)-1].CumulativeRank, sum)
	assert.Equal(t, int64(-3), d.Buckets[2].Delta)
}

func TestReduceDistribution_UnsortedInput(t *testing.T) {
	in := histogram()
	in[0], in[4] = in[4], in[0]

	d := derive.ReduceDistribution(in, models.PopulationStats{Total: 2000}, derive.DefaultThresholdLevel)

	assert.Equal(t, 1, d.Buckets[0].Level)
	assert.Equal(t, int64(50), d.Buckets[0].Count)
	assert.Equal(t, 11, in[0].Level, "input must not be reordered")
}

func TestReduceDistribution_Ratios(t *testing.T) {
	stats := models.PopulationStats{Membership: 150, VIP: 33, SignIn: 0, Total: 2000, Posts: 12345}
	d := derive.ReduceDistribution(histogram(), stats, derive.DefaultThresholdLevel)

	require.True(t, d.Threshold.Present)
	assert.Equal(t, int64(600), d.Threshold.Rank)
	assert.Equal(t, 30.0, d.Threshold.Percent.Value)
	assert.Equal(t, 7.5, d.Membership.Percent.Value)
	assert.Equal(t, 1.65, d.VIP.Percent.Value)
	assert.Equal(t, "0.00", d.SignIn.Percent.String())
	assert.Equal(t, 6.17, d.AveragePosts.Value)

	for _, f := range []derive.Figure{d.Threshold.Percent, d.Membership.Percent, d.VIP.Percent, d.SignIn.Percent} {
		assert.True(t, f.Valid)
		assert.GreaterOrEqual(t, f.Value, 0.0)
		assert.LessOrEqual(t, f.Value, 100.0)
	}
}

func TestReduceDistribution_ZeroTotal(t *testing.T) {
	d := derive.ReduceDistribution(histogram(), models.PopulationStats{Membership: 5}, derive.DefaultThresholdLevel)

	assert.False(t, d.Threshold.Percent.Valid)
	assert.False(t, d.Membership.Percent.Valid)
	assert.False(t, d.AveragePosts.Valid)
	assert.Equal(t, derive.NaN, d.Membership.Percent.String())

	raw, err := json.Marshal(d.Membership)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":5,"percent":null}`, string(raw))
}

func TestReduceDistribution_MissingThreshold(t *testing.T) {
	d := derive.ReduceDistribution(histogram()[:3], models.PopulationStats{Total: 10}, derive.DefaultThresholdLevel)

	assert.False(t, d.Threshold.Present)
	assert.False(t, d.Threshold.Percent.Valid)
}

func TestReduceDistribution_Empty(t *testing.T) {
	d := derive.ReduceDistribution(nil, models.PopulationStats{}, derive.DefaultThresholdLevel)
	assert.Empty(t, d.Buckets)
}

func TestFigure_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(derive.Percentage(1, 3))
	require.NoError(t, err)
	assert.Equal(t, "33.33", string(raw))
}
