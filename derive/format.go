package derive

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"tieba-stats/models"
)

// NoEvents is the placeholder listed for a day without events.
const NoEvents = "无"

var weekdayGlyphs = [...]string{"日", "一", "二", "三", "四", "五", "六"}

// FormatWan renders v in units of ten thousand ("12.34W"), or verbatim in
// detail mode.
func FormatWan(v float64, detail bool) string {
	if detail {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v/10000, 'f', 2, 64) + "W"
}

// DayLabel renders t as "2006-01-02(三)".
func DayLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Format(dayLayout) + "(" + weekdayGlyphs[local.Weekday()] + ")"
}

// DaysSince counts calendar days from from to to, inclusive of both ends.
func DaysSince(from, to time.Time, loc *time.Location) int {
	return int(civilDay(to, loc).Sub(civilDay(from, loc)).Hours()/24) + 1
}

func civilDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ShortEventName drops any parenthesised suffix from an anniversary name.
func ShortEventName(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		return name[:i]
	}
	return name
}

// EventsOrPlaceholder returns events, or the single NoEvents entry when empty.
func EventsOrPlaceholder(events []string) []string {
	if len(events) == 0 {
		return []string{NoEvents}
	}
	return slices.Clone(events)
}

// OutbreakRate is v as a percentage of every recorded case, cured and
// deceased included.
func OutbreakRate(v int64, global models.OutbreakStats) Figure {
	return Percentage(v, global.Total+global.Die+global.Cure)
}

// SortProvinces returns a copy of provinces ordered by total, largest first.
func SortProvinces(provinces []models.OutbreakStats) []models.OutbreakStats {
	out := slices.Clone(provinces)
	slices.SortStableFunc(out, func(a, b models.OutbreakStats) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		}
		return 0
	})
	return out
}
