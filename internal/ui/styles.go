package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorDanger    = lipgloss.Color("196")
)

// TitleStyle for the app banner and card titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// BannerStyle for the onboarding heading.
var BannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginBottom(1)

// Card frames the active video.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// ChannelStyle for the channel line under a title.
var ChannelStyle = lipgloss.NewStyle().
	Foreground(colorHighlight)

// TagStyle for hashtag chips.
var TagStyle = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// DimStyle for secondary text.
var DimStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// HintStyle for the swipe and unmute hints.
var HintStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true)

// OverlayStyle for the paused poster overlay.
var OverlayStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 2)

// LikedStyle for a liked heart.
var LikedStyle = lipgloss.NewStyle().
	Foreground(colorDanger).
	Bold(true)

// SelectedTab for the active search mode.
var SelectedTab = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// Tab for the inactive search mode.
var Tab = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// FlashStyle for transient confirmations.
var FlashStyle = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Padding(0, 1)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorDanger).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// Drawer frames the comments panel.
var Drawer = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), true, false, false, false).
	BorderForeground(colorMuted).
	Padding(0, 1)

// CommentAuthor for the author line of a comment.
var CommentAuthor = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// DebugPanel style for the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
