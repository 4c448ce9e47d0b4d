package upstream

import (
	"context"
	"net/url"
	"strconv"

	"tieba-stats/models"
)

// NewsPageSize is the number of items per news page.
const NewsPageSize = 10

const newsType = "2"

// NewsPage fetches one page of the live news feed. pageIndex is 0-based;
// the feed itself numbers pages from 1.
func (c *Client) NewsPage(ctx context.Context, pageIndex int) ([]models.NewsItem, error) {
	q := url.Values{
		"type":      {newsType},
		"page_size": {strconv.Itoa(NewsPageSize)},
		"page":      {strconv.Itoa(pageIndex + 1)},
	}

	var resp newsResponse
	if err := c.getJSON(ctx, EndpointNews, c.cfg.NewsURL, q, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Outbreak fetches the epidemic tracker snapshot.
func (c *Client) Outbreak(ctx context.Context) (models.OutbreakSnapshot, error) {
	var resp outbreakResponse
	if err := c.getJSON(ctx, EndpointOutbreak, c.cfg.OutbreakURL, nil, &resp); err != nil {
		return models.OutbreakSnapshot{}, err
	}

	others := make([]string, 0, len(resp.OtherStats))
	for _, o := range resp.OtherStats {
		others = append(others, o.Title)
	}
	return models.OutbreakSnapshot{
		Global:    resp.GlobalStats,
		Provinces: resp.ProvStats,
		Others:    others,
	}, nil
}
