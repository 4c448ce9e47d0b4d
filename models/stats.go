package models

import "time"

// TimeSeriesPoint is one snapshot of a cumulative counter.
type TimeSeriesPoint struct {
	Timestamp       time.Time `json:"date"`
	CumulativeTotal int64     `json:"total"`
}

// IntervalRecord is a snapshot with the increment since the previous snapshot.
type IntervalRecord struct {
	Timestamp       time.Time `json:"date"`
	CumulativeTotal int64     `json:"total"`
	Delta           int64     `json:"posts"`
}

// DateWindow is the [Start, End] range picked for charting.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IndexRange is a half-open [Start, End) slice window into a series.
type IndexRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// LevelRank is one level of the cumulative rank histogram as served upstream.
type LevelRank struct {
	Level int   `json:"level"`
	Rank  int64 `json:"rank"`
	Delta int64 `json:"delta"`
}

// LevelBucket is a histogram level with its own head count.
type LevelBucket struct {
	Level          int   `json:"level"`
	CumulativeRank int64 `json:"rank"`
	Count          int64 `json:"count"`
	Delta          int64 `json:"delta"`
}

// PopulationStats are the aggregates served alongside the level histogram.
type PopulationStats struct {
	Membership int64 `json:"membership"`
	VIP        int64 `json:"vip"`
	SignIn     int64 `json:"signin"`
	Total      int64 `json:"total"`
	Posts      int64 `json:"posts"`
}

// DistributionSnapshot is the raw histogram plus aggregates for one day.
type DistributionSnapshot struct {
	Levels []LevelRank
	PopulationStats
}

// PostSeries is the cumulative posts history plus the live total.
type PostSeries struct {
	LiveTotal int64
	Points    []TimeSeriesPoint
}
