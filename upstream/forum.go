package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"tieba-stats/logger"
	"tieba-stats/models"
)

// Endpoint names used for metrics, logs and cache keys.
const (
	EndpointUsers         = "users"
	EndpointUser          = "user"
	EndpointSearch        = "search"
	EndpointAnniversaries = "anniversary"
	EndpointEventDays     = "events"
	EndpointEvents        = "event"
	EndpointLiveTotal     = "post"
	EndpointPostHistory   = "posts"
	EndpointDistribution  = "distribution"
	EndpointIncome        = "income"
	EndpointNews          = "news"
	EndpointOutbreak      = "outbreak"
)

func (c *Client) forumURL(path string) string {
	return c.cfg.BaseURL + "/" + path
}

// Leaderboard fetches one page of the member ranking. Pages are 1-based.
func (c *Client) Leaderboard(ctx context.Context, page, pageSize int) (models.LeaderboardPage, error) {
	p := strconv.Itoa(page)
	q := url.Values{
		"page":     {p},
		"pageSize": {strconv.Itoa(pageSize)},
		"token":    {c.signer.Sign(p)},
	}

	var resp usersResponse
	if err := c.getJSON(ctx, EndpointUsers, c.forumURL("users"), q, &resp); err != nil {
		return models.LeaderboardPage{}, err
	}
	return models.LeaderboardPage{Page: page, PageSize: pageSize, Total: resp.Total, Users: resp.Users}, nil
}

// LookupUser resolves a member's profile from their profile link.
func (c *Client) LookupUser(ctx context.Context, link string) (models.UserProfile, error) {
	var resp userLookupResponse
	err := c.postJSON(ctx, EndpointUser, c.forumURL("user"), userLookupRequest{Link: link, Token: c.signer.Sign(link)}, &resp)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return models.UserProfile{}, fmt.Errorf("%w: %s", ErrUserNotFound, link)
	}
	if err != nil {
		return models.UserProfile{}, err
	}
	if resp.User.Nickname == "" && resp.User.Avatar == "" {
		return models.UserProfile{}, fmt.Errorf("%w: %s", ErrUserNotFound, link)
	}
	return resp.User, nil
}

// SearchUsers finds members whose name matches keyword.
func (c *Client) SearchUsers(ctx context.Context, keyword string) ([]models.LeaderboardEntry, error) {
	q := url.Values{"keyword": {keyword}, "token": {c.signer.Sign(keyword)}}

	var resp usersResponse
	if err := c.getJSON(ctx, EndpointSearch, c.forumURL("user"), q, &resp); err != nil {
		return nil, err
	}
	if resp.Users == nil {
		return []models.LeaderboardEntry{}, nil
	}
	return resp.Users, nil
}

// Anniversaries returns the community milestones, newest first.
func (c *Client) Anniversaries(ctx context.Context) ([]models.Anniversary, error) {
	var resp anniversariesResponse
	if err := c.getJSON(ctx, EndpointAnniversaries, c.forumURL("anniversary"), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Anniversary, 0, len(resp.Anniversaries))
	for _, a := range resp.Anniversaries {
		if a.Date.missing() {
			c.log.Debug("Skipping undated anniversary", logger.String("event", a.Event))
			continue
		}
		at, err := a.Date.in(c.cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("%s: anniversary %s: %w", EndpointAnniversaries, a.Event, err)
		}
		out = append(out, models.Anniversary{Event: a.Event, Date: at, Description: a.Description, Adj: a.Adj})
	}
	slices.Reverse(out)
	return out, nil
}

// EventDays lists the days ("2006-01-02") that have recorded events.
func (c *Client) EventDays(ctx context.Context) ([]string, error) {
	var resp eventDaysResponse
	if err := c.getJSON(ctx, EndpointEventDays, c.forumURL("events"), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Days == nil {
		return []string{}, nil
	}
	return resp.Days, nil
}

// Events lists what happened on date.
func (c *Client) Events(ctx context.Context, date time.Time) ([]string, error) {
	d := c.day(date)
	q := url.Values{"date": {d}, "token": {c.signer.Sign(d)}}

	var resp eventsResponse
	if err := c.getJSON(ctx, EndpointEvents, c.forumURL("event"), q, &resp); err != nil {
		return nil, err
	}
	return resp.Event, nil
}

// LiveTotal returns the post count as of now.
func (c *Client) LiveTotal(ctx context.Context, now time.Time) (int64, error) {
	d := c.day(now)
	q := url.Values{"date": {d}, "token": {c.signer.Sign(d)}}

	var resp liveTotalResponse
	if err := c.getJSON(ctx, EndpointLiveTotal, c.forumURL("post"), q, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// PostHistory returns the daily cumulative post snapshots, newest first.
func (c *Client) PostHistory(ctx context.Context) ([]models.TimeSeriesPoint, error) {
	q := url.Values{"page": {"0"}, "token": {c.signer.Sign("0")}}

	var resp postHistoryResponse
	if err := c.getJSON(ctx, EndpointPostHistory, c.forumURL("posts"), q, &resp); err != nil {
		return nil, err
	}

	out := make([]models.TimeSeriesPoint, 0, len(resp.Results))
	for _, p := range resp.Results {
		if p.Date.missing() {
			continue
		}
		at, err := p.Date.in(c.cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EndpointPostHistory, err)
		}
		out = append(out, models.TimeSeriesPoint{Timestamp: at, CumulativeTotal: p.Total})
	}
	return out, nil
}

// Posts fetches the live total and then the history, in that order.
func (c *Client) Posts(ctx context.Context, now time.Time) (models.PostSeries, error) {
	live, err := c.LiveTotal(ctx, now)
	if err != nil {
		return models.PostSeries{}, err
	}
	history, err := c.PostHistory(ctx)
	if err != nil {
		return models.PostSeries{}, err
	}
	return models.PostSeries{LiveTotal: live, Points: history}, nil
}

// Distribution returns the level histogram and population aggregates of date.
func (c *Client) Distribution(ctx context.Context, date time.Time) (models.DistributionSnapshot, error) {
	d := c.day(date)
	q := url.Values{"date": {d}, "token": {c.signer.Sign(d)}}

	var resp distributionResponse
	if err := c.getJSON(ctx, EndpointDistribution, c.forumURL("distribution"), q, &resp); err != nil {
		return models.DistributionSnapshot{}, err
	}
	return models.DistributionSnapshot{
		Levels: resp.Distribution,
		PopulationStats: models.PopulationStats{
			Membership: resp.Membership,
			VIP:        resp.VIP,
			SignIn:     resp.SignIn,
			Total:      resp.Total,
			Posts:      resp.Posts,
		},
	}, nil
}

// Income returns the revenue records between start and end.
func (c *Client) Income(ctx context.Context, start, end time.Time) (models.RevenueReport, error) {
	s := start.In(c.cfg.Location).Format("20060102")
	e := end.In(c.cfg.Location).Format("20060102")
	q := url.Values{"start": {s}, "end": {e}, "token": {c.signer.Sign(s + e)}}

	var resp incomeResponse
	if err := c.getJSON(ctx, EndpointIncome, c.forumURL("income"), q, &resp); err != nil {
		return models.RevenueReport{}, err
	}
	report, err := resp.report(c.cfg.Location)
	if err != nil {
		return models.RevenueReport{}, fmt.Errorf("%s: %w", EndpointIncome, err)
	}
	return report, nil
}
