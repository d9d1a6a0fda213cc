package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/infblueocean/realstream/internal/feed"
)

// ErrUnauthorized is wrapped by StatusError for 401 and 403 responses.
var ErrUnauthorized = errors.New("api: unauthorized")

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == 401 || e.Code == 403 {
		return ErrUnauthorized
	}
	return nil
}

// LikeStatus is an item's like count and whether the caller likes it.
type LikeStatus struct {
	Liked bool `json:"isLiked"`
	Count int  `json:"likeCount"`
}

// Comment on an item.
type Comment struct {
	ID          string    `json:"id"`
	VideoID     string    `json:"videoId"`
	UserID      string    `json:"userId"`
	Content     string    `json:"content"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Author is the comment's display name, or "User".
func (c Comment) Author() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return "User"
}

// User is the profile returned by /auth/user/me.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	PictureURL string `json:"pictureUrl,omitempty"`
}

// ScrapeResult is the scraper's reply to a search.
type ScrapeResult struct {
	Message    string      `json:"message"`
	Count      int         `json:"count"`
	SavedCount int         `json:"saved_count,omitempty"`
	Videos     []feed.Item `json:"videos,omitempty"`
}

// CanonicalChannel returns the channel title of the first scraped video,
// or fallback when there is none.
func (r ScrapeResult) CanonicalChannel(fallback string) string {
	if len(r.Videos) > 0 && r.Videos[0].Channel != "" {
		return r.Videos[0].Channel
	}
	return fallback
}

type scrapeRequest struct {
	Hashtag string `json:"hashtag"`
	Channel string `json:"channel,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type commentRequest struct {
	VideoID     string `json:"videoId"`
	Content     string `json:"content"`
	DisplayName string `json:"displayName,omitempty"`
}
