// Package ui provides the Bubble Tea TUI for RealStream.
package ui

import (
	"github.com/infblueocean/realstream/internal/api"
	"github.com/infblueocean/realstream/internal/feed"
)

// PlayerReady is sent once the player has started or failed to.
type PlayerReady struct {
	Err error
}

// PlayingChanged carries a debounced playing report from the player.
type PlayingChanged struct {
	Playing bool
}

// SearchDone is sent when the scrape for a submitted search finishes.
// Context is the context to show, with a channel replaced by its
// canonical title when the scrape found one. Results of abandoned
// searches are dropped by Seq.
type SearchDone struct {
	Context feed.SearchContext
	Count   int
	Err     error
	// Seq identifies the submit that started the search.
	Seq int
}

// PageLoaded is the result of a FetchPage request.
type PageLoaded struct {
	Req  feed.Request
	Page feed.Page
	Err  error
}

// RelatedLoaded is the result of a FetchRelated request.
type RelatedLoaded struct {
	Req     feed.Request
	Related feed.Related
	Err     error
}

// Refreshed is the result of a Refresh request.
type Refreshed struct {
	Req   feed.Request
	Pages []feed.Page
	Err   error
}

// InteractionsLoaded carries like state and comment count for one item.
// Like is nil when it could not be loaded (e.g. logged out).
type InteractionsLoaded struct {
	ItemID   string
	Like     *api.LikeStatus
	Comments int
	Err      error
}

// LikeToggled is the server's answer to a like toggle.
type LikeToggled struct {
	ItemID string
	Status api.LikeStatus
	Err    error
}

// CommentsLoaded lists the comments on an item.
type CommentsLoaded struct {
	ItemID   string
	Comments []api.Comment
	Err      error
}

// CommentPosted is sent after a comment was added.
type CommentPosted struct {
	ItemID  string
	Comment api.Comment
	Err     error
}

// LoginStarted reports that the login page was opened, or must be opened
// by hand when Manual is set.
type LoginStarted struct {
	URL    string
	Manual bool
}

// LoginComplete is sent when the callback delivered a token and it was
// checked against the backend. User is nil on failure.
type LoginComplete struct {
	User *api.User
	Err  error
}

// UserChecked is the result of validating a stored token at startup.
type UserChecked struct {
	User *api.User
}

// LoggedOut is sent after the token was dropped.
type LoggedOut struct {
	Err error
}

// RecentLoaded lists recent searches for the onboarding view.
type RecentLoaded struct {
	Searches []RecentSearch
}

// RecentSearch is one remembered search.
type RecentSearch struct {
	Channel bool
	Value   string
}

// flashExpired clears a transient status line.
type flashExpired struct{ id int }
