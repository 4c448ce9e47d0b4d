package models

import "time"

// LeaderboardEntry is one ranked forum member.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
	Link     string `json:"link"`
	Member   bool   `json:"member"`
	Level    int    `json:"level"`
	Exp      int64  `json:"exp"`
}

// DisplayName prefers the nickname over the account name.
func (e LeaderboardEntry) DisplayName() string {
	if e.Nickname != "" {
		return e.Nickname
	}
	return e.Name
}

// LeaderboardPage is one page of the leaderboard.
type LeaderboardPage struct {
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Total    int64              `json:"total"`
	Users    []LeaderboardEntry `json:"users"`
}

// UserProfile is the result of a user lookup.
type UserProfile struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// Anniversary is a community milestone.
type Anniversary struct {
	Event       string    `json:"event"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Adj         string    `json:"adj"`
}

// NewsItem is one entry of the live news feed.
type NewsItem struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	PublishedAt string `json:"publish_time"`
}

// OutbreakStats are the counters of one region.
type OutbreakStats struct {
	Title     string `json:"title,omitempty"`
	Diagnose  int64  `json:"diagnose"`
	Suspected int64  `json:"suspected"`
	Cure      int64  `json:"cure"`
	Die       int64  `json:"die"`
	Total     int64  `json:"total"`
	Time      string `json:"time,omitempty"`
}

// OutbreakSnapshot is the raw epidemic tracker payload.
type OutbreakSnapshot struct {
	Global    OutbreakStats
	Provinces []OutbreakStats
	Others    []string
}
