package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Mute     key.Binding
	Play     key.Binding
	Like     key.Binding
	Comments key.Binding
	Share    key.Binding
	Profile  key.Binding
	Search   key.Binding
	Retry    key.Binding
	Back     key.Binding
	Debug    key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("j", "down", "pgdown"), key.WithHelp("j", "next")),
	Prev:     key.NewBinding(key.WithKeys("k", "up", "pgup"), key.WithHelp("k", "prev")),
	Mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
	Play:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
	Like:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
	Comments: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comments")),
	Share:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
	Profile:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "account")),
	Search:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new search")),
	Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Debug:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// feedHelp is the status bar hint order in the feed.
var feedHelp = []key.Binding{keys.Next, keys.Prev, keys.Play, keys.Mute, keys.Like, keys.Comments, keys.Share, keys.Search, keys.Profile, keys.Quit}
