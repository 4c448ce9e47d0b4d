package derive

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"tieba-stats/models"
)

// NaN is the placeholder shown for a figure that cannot be computed.
const NaN = "NaN"

// DefaultThresholdLevel is the headline tier of the level distribution.
const DefaultThresholdLevel = 10

// Figure is a two-decimal number that may be undefined, such as a ratio
// against an empty population.
type Figure struct {
	Value float64
	Valid bool
}

// Percentage returns part/total*100 rounded to two decimals, or an invalid
// figure when total is zero.
func Percentage(part, total int64) Figure {
	if total == 0 {
		return Figure{}
	}
	return Figure{Value: round2(float64(part) / float64(total) * 100), Valid: true}
}

// Quotient returns a/b rounded to two decimals, or an invalid figure when b
// is zero.
func Quotient(a, b int64) Figure {
	if b == 0 {
		return Figure{}
	}
	return Figure{Value: round2(float64(a) / float64(b)), Valid: true}
}

func (f Figure) String() string {
	if !f.Valid {
		return NaN
	}
	return strconv.FormatFloat(f.Value, 'f', 2, 64)
}

// MarshalJSON encodes an invalid figure as null.
func (f Figure) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Share is a head count with its percentage of the population.
type Share struct {
	Count   int64  `json:"count"`
	Percent Figure `json:"percent"`
}

// Threshold is the headline tier of the distribution.
type Threshold struct {
	Level   int    `json:"level"`
	Present bool   `json:"present"`
	Rank    int64  `json:"rank"`
	Percent Figure `json:"percent"`
}

// Distribution is the reduced level histogram.
type Distribution struct {
	Buckets      []models.LevelBucket `json:"distribution"`
	Threshold    Threshold            `json:"threshold"`
	Membership   Share                `json:"membership"`
	VIP          Share                `json:"vip"`
	SignIn       Share                `json:"signin"`
	Total        int64                `json:"total"`
	AveragePosts Figure               `json:"average"`
}

// ReduceDistribution converts cumulative ranks into per-level counts and
// computes population ratios. Levels are ordered ascending before
// differencing, so the counts always sum to the last level's rank.
func ReduceDistribution(levels []models.LevelRank, stats models.PopulationStats, thresholdLevel int) Distribution {
	sorted := slices.Clone(levels)
	slices.SortStableFunc(sorted, func(a, b models.LevelRank) int { return a.Level - b.Level })

	d := Distribution{
		Buckets:      make([]models.LevelBucket, len(sorted)),
		Threshold:    Threshold{Level: thresholdLevel},
		Membership:   Share{Count: stats.Membership, Percent: Percentage(stats.Membership, stats.Total)},
		VIP:          Share{Count: stats.VIP, Percent: Percentage(stats.VIP, stats.Total)},
		SignIn:       Share{Count: stats.SignIn, Percent: Percentage(stats.SignIn, stats.Total)},
		Total:        stats.Total,
		AveragePosts: Quotient(stats.Posts, stats.Total),
	}

	for i, lv := range sorted {
		count := lv.Rank
		if i > 0 {
			count = lv.Rank - sorted[i-1].Rank
		}
		d.Buckets[i] = models.LevelBucket{
			Level:          lv.Level,
			CumulativeRank: lv.Rank,
			Count:          count,
			Delta:          lv.Delta,
		}
		if lv.Level == thresholdLevel {
			d.Threshold.Present = true
			d.Threshold.Rank = lv.Rank
			d.Threshold.Percent = Percentage(lv.Rank, stats.Total)
		}
	}
	return d
}
