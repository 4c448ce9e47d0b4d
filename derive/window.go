// Package derive turns raw statistics payloads into chart- and table-ready
// series. Every function here is pure: inputs are never mutated and results
// are freshly allocated.
package derive

import (
	"errors"
	"fmt"
	"time"

	"tieba-stats/models"
)

const dayLayout = "2006-01-02"

var (
	// ErrInvalidWindow is returned when a window's start falls after its end.
	ErrInvalidWindow = errors.New("window start must not be after end")
	// ErrWindowUnresolved is returned when a window bound matches no record.
	ErrWindowUnresolved = errors.New("window bound not found in series")
)

// DefaultRange is the initial chart window: the seven days ending yesterday,
// skipping the synthetic today record at index 0.
func DefaultRange() models.IndexRange {
	return models.IndexRange{Start: 1, End: 8}
}

// DefaultWindow is the date window matching DefaultRange.
func DefaultWindow(now time.Time) models.DateWindow {
	return models.DateWindow{
		Start: now.AddDate(0, 0, -7),
		End:   now.AddDate(0, 0, -1),
	}
}

// DayKey formats t as its calendar day in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayLayout)
}

// ResolveRange maps w onto a [Start, End) index window of the descending
// series. A bound that matches no record keeps prev's value for its side and
// the result is returned together with ErrWindowUnresolved; callers decide
// whether the retained window is good enough to display.
func ResolveRange(series []models.IntervalRecord, w models.DateWindow, prev models.IndexRange, loc *time.Location) (models.IndexRange, error) {
	startKey, endKey := DayKey(w.Start, loc), DayKey(w.End, loc)
	if startKey > endKey {
		return prev, fmt.Errorf("%w: %s > %s", ErrInvalidWindow, startKey, endKey)
	}

	out := prev
	startFound, endFound := false, false
	for i, rec := range series {
		key := DayKey(rec.Timestamp, loc)
		if key == startKey {
			out.End = i + 1
			startFound = true
		}
		if key == endKey {
			out.Start = i
			endFound = true
		}
	}

	switch {
	case !startFound && !endFound:
		return out, fmt.Errorf("%w: %s and %s", ErrWindowUnresolved, startKey, endKey)
	case !startFound:
		return out, fmt.Errorf("%w: %s", ErrWindowUnresolved, startKey)
	case !endFound:
		return out, fmt.Errorf("%w: %s", ErrWindowUnresolved, endKey)
	}
	return out, nil
}

// SliceWindow returns a copy of series[r.Start:r.End] with bounds clamped to
// the series, or an empty slice when the clamped window is empty.
func SliceWindow(series []models.IntervalRecord, r models.IndexRange) []models.IntervalRecord {
	start, end := clamp(r.Start, 0, len(series)), clamp(r.End, 0, len(series))
	if start >= end {
		return []models.IntervalRecord{}
	}
	out := make([]models.IntervalRecord, end-start)
	copy(out, series[start:end])
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
