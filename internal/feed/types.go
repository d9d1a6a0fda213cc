// Package feed holds the short-video feed: the page cache and its
// pagination rules (Pager), the active item and playback flags
// (Controller), and request execution against the content API (Loader).
package feed

import "strings"

// Item is one short video. Immutable once fetched.
type Item struct {
	ID           string   `json:"id"`
	MediaID      string   `json:"videoId"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty"`
	Tags         []string `json:"hashtags"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Channel      string   `json:"channelTitle,omitempty"`
	Duration     int      `json:"duration,omitempty"` // seconds
	ViewCount    int64    `json:"viewCount,omitempty"`
}

// ShareURL is the public link copied by the share action.
func ShareURL(mediaID string) string {
	return "https://www.youtube.com/shorts/" + mediaID
}

// Page is one page of the list endpoint's envelope.
type Page struct {
	Items         []Item `json:"content"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
	Last          bool   `json:"last"`
	TotalPages    int    `json:"totalPages"`
	TotalElements int    `json:"totalElements"`
}

// EmptyPage is the terminal page returned without a request when no
// search context is set.
func EmptyPage(size int) Page {
	return Page{Items: []Item{}, Size: size, Last: true}
}

// Related is the result of a related-content scrape.
type Related struct {
	Count    int      `json:"count"`
	Keywords []string `json:"relatedKeywords"`
}

// SearchContext is a topic or a channel, never both. The zero value means
// no search.
type SearchContext struct {
	Topic   string
	Channel string
}

// Topic returns a topic context. A leading '#' is dropped.
func Topic(s string) SearchContext {
	return SearchContext{Topic: strings.TrimPrefix(strings.TrimSpace(s), "#")}
}

// Channel returns a channel context.
func Channel(s string) SearchContext {
	return SearchContext{Channel: strings.TrimSpace(s)}
}

// IsZero reports whether no search is set.
func (c SearchContext) IsZero() bool { return c.Topic == "" && c.Channel == "" }

// Valid reports whether exactly one of topic and channel is set.
func (c SearchContext) Valid() bool { return (c.Topic != "") != (c.Channel != "") }

// Term is the topic, or the channel for channel searches. It is sent as
// the hashtag of a related scrape.
func (c SearchContext) Term() string {
	if c.Channel != "" {
		return c.Channel
	}
	return c.Topic
}

func (c SearchContext) String() string {
	switch {
	case c.Channel != "":
		return "channel:" + c.Channel
	case c.Topic != "":
		return "topic:" + c.Topic
	}
	return "none"
}
