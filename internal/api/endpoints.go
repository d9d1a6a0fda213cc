package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/infblueocean/realstream/internal/feed"
)

// ListVideos fetches one page for sc. Without a topic or channel it
// returns an empty terminal page and sends nothing, so the backend's
// unfiltered listing is never used.
func (c *Client) ListVideos(ctx context.Context, page, size int, sc feed.SearchContext) (feed.Page, error) {
	if sc.IsZero() {
		return feed.EmptyPage(size), nil
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if sc.Topic != "" {
		q.Set("hashtag", sc.Topic)
	}
	if sc.Channel != "" {
		q.Set("channel", sc.Channel)
	}
	var pg feed.Page
	err := c.do(ctx, call{method: http.MethodGet, path: c.videosPath, query: q, idempot: true}, &pg)
	if pg.Items == nil {
		pg.Items = []feed.Item{}
	}
	return pg, err
}

// Scrape asks the scraper to collect videos for sc. Channel searches send
// an empty hashtag.
func (c *Client) Scrape(ctx context.Context, sc feed.SearchContext, limit int) (ScrapeResult, error) {
	body := scrapeRequest{Hashtag: sc.Topic, Channel: sc.Channel, Limit: limit}
	if sc.Channel != "" {
		body.Hashtag = ""
	}
	var res ScrapeResult
	err := c.do(ctx, call{method: http.MethodPost, path: "/scraper/scrape", body: body}, &res)
	return res, err
}

// ScrapeRelated asks the scraper for content related to sc.
func (c *Client) ScrapeRelated(ctx context.Context, sc feed.SearchContext) (feed.Related, error) {
	body := scrapeRequest{Hashtag: sc.Term(), Channel: sc.Channel}
	var res feed.Related
	err := c.do(ctx, call{method: http.MethodPost, path: "/scraper/scrape/related", body: body}, &res)
	return res, err
}

// LikeStatus returns the like state of itemID for the current user.
func (c *Client) LikeStatus(ctx context.Context, itemID string) (LikeStatus, error) {
	var ls LikeStatus
	err := c.do(ctx, call{method: http.MethodGet, path: "/interactions/likes/" + url.PathEscape(itemID), userID: true, idempot: true}, &ls)
	return ls, err
}

// ToggleLike flips the current user's like on itemID.
func (c *Client) ToggleLike(ctx context.Context, itemID string) (LikeStatus, error) {
	var ls LikeStatus
	err := c.do(ctx, call{method: http.MethodPost, path: "/interactions/likes/" + url.PathEscape(itemID), body: struct{}{}, userID: true}, &ls)
	return ls, err
}

// Comments lists the comments on itemID in the order the service returns.
func (c *Client) Comments(ctx context.Context, itemID string) ([]Comment, error) {
	q := url.Values{"videoId": {itemID}}
	var out []Comment
	err := c.do(ctx, call{method: http.MethodGet, path: "/comments", query: q, idempot: true}, &out)
	return out, err
}

// AddComment posts content on itemID under displayName.
func (c *Client) AddComment(ctx context.Context, itemID, content, displayName string) (Comment, error) {
	body := commentRequest{VideoID: itemID, Content: content, DisplayName: displayName}
	var cm Comment
	err := c.do(ctx, call{method: http.MethodPost, path: "/comments", body: body, userID: true}, &cm)
	return cm, err
}

// CommentCount returns how many comments itemID has.
func (c *Client) CommentCount(ctx context.Context, itemID string) (int, error) {
	q := url.Values{"videoId": {itemID}}
	var n int
	err := c.do(ctx, call{method: http.MethodGet, path: "/comments/count", query: q, idempot: true}, &n)
	return n, err
}

// CurrentUser returns the profile for the bearer token.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, call{method: http.MethodGet, path: "/auth/user/me"}, &u)
	return u, err
}
