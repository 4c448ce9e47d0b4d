package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"tieba-stats/models"
)

var wireLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"20060102",
}

// wireTime accepts the date shapes the APIs emit: formatted strings in
// several layouts or epoch milliseconds. Rows whose date is null or absent
// are skipped by the converters.
type wireTime struct {
	text    string
	millis  int64
	numeric bool
}

func (w *wireTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		return json.Unmarshal(b, &w.text)
	default:
		w.numeric = true
		return json.Unmarshal(b, &w.millis)
	}
}

func (w wireTime) missing() bool {
	return !w.numeric && w.text == ""
}

func (w wireTime) in(loc *time.Location) (time.Time, error) {
	if w.numeric {
		return time.UnixMilli(w.millis).In(loc), nil
	}
	for _, layout := range wireLayouts {
		if t, err := time.ParseInLocation(layout, w.text, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", w.text)
}

type usersResponse struct {
	Total int64                     `json:"total"`
	Users []models.LeaderboardEntry `json:"users"`
}

type userLookupRequest struct {
	Link  string `json:"link"`
	Token string `json:"token"`
}

type userLookupResponse struct {
	User models.UserProfile `json:"user"`
}

type anniversaryWire struct {
	Event       string   `json:"event"`
	Date        wireTime `json:"date"`
	Description string   `json:"description"`
	Adj         string   `json:"adj"`
}

type anniversariesResponse struct {
	Anniversaries []anniversaryWire `json:"anniversaries"`
}

type eventDaysResponse struct {
	Days []string `json:"days"`
}

type eventsResponse struct {
	Event []string `json:"event"`
}

type liveTotalResponse struct {
	Total int64 `json:"total"`
}

type postPointWire struct {
	Date  wireTime `json:"date"`
	Total int64    `json:"total"`
}

type postHistoryResponse struct {
	Results []postPointWire `json:"results"`
}

type distributionResponse struct {
	Distribution []models.LevelRank `json:"distribution"`
	Membership   int64              `json:"membership"`
	VIP          int64              `json:"vip"`
	SignIn       int64              `json:"signin"`
	Total        int64              `json:"total"`
	Posts        int64              `json:"posts"`
}

type incomeWire struct {
	Date   wireTime `json:"date"`
	Income float64  `json:"income"`
}

type poolWire struct {
	Name   string   `json:"name"`
	Short  string   `json:"short"`
	Date   wireTime `json:"date"`
	Income float64  `json:"income"`
	Max    float64  `json:"max"`
}

type incomeResponse struct {
	Data    []incomeWire `json:"data"`
	Income  []poolWire   `json:"income"`
	Average float64      `json:"average"`
	Month   []incomeWire `json:"month"`
}

type newsResponse struct {
	Items []models.NewsItem `json:"items"`
}

type outbreakResponse struct {
	GlobalStats models.OutbreakStats   `json:"global_stats"`
	ProvStats   []models.OutbreakStats `json:"prov_stats"`
	OtherStats  []struct {
		Title string `json:"title"`
	} `json:"other_stats"`
}

func (r incomeResponse) report(loc *time.Location) (models.RevenueReport, error) {
	report := models.RevenueReport{
		Daily:   make([]models.DailyIncome, 0, len(r.Data)),
		Pools:   make([]models.RevenueEvent, 0, len(r.Income)),
		Monthly: make([]models.MonthlyIncome, 0, len(r.Month)),
		Average: r.Average,
	}
	for _, d := range r.Data {
		if d.Date.missing() {
			continue
		}
		at, err := d.Date.in(loc)
		if err != nil {
			return models.RevenueReport{}, fmt.Errorf("daily income: %w", err)
		}
		report.Daily = append(report.Daily, models.DailyIncome{Date: at, Income: d.Income})
	}
	for _, p := range r.Income {
		if p.Date.missing() {
			continue
		}
		at, err := p.Date.in(loc)
		if err != nil {
			return models.RevenueReport{}, fmt.Errorf("pool %s: %w", p.Name, err)
		}
		report.Pools = append(report.Pools, models.RevenueEvent{
			Name:         p.Name,
			Short:        p.Short,
			Date:         at,
			FiveDayTotal: p.Income,
			Peak:         p.Max,
		})
	}
	for _, m := range r.Month {
		if m.Date.missing() {
			continue
		}
		at, err := m.Date.in(loc)
		if err != nil {
			return models.RevenueReport{}, fmt.Errorf("monthly income: %w", err)
		}
		report.Monthly = append(report.Monthly, models.MonthlyIncome{Date: at, Income: m.Income})
	}
	return report, nil
}
