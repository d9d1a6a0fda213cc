package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/infblueocean/realstream/internal/api"
	"github.com/infblueocean/realstream/internal/feed"
	"github.com/infblueocean/realstream/internal/logging"
	"github.com/infblueocean/realstream/internal/otel"
	"github.com/infblueocean/realstream/internal/session"
)

// flashDuration is how long a status line message stays up.
const flashDuration = 4 * time.Second

// AppConfig holds the dependencies the App needs. Side effects are
// injected as functions returning commands, so the App never holds a
// client or a store.
type AppConfig struct {
	Session   *session.Machine
	Player    feed.Reconciler
	Lookahead int
	ShowHints bool
	Events    *otel.Logger
	Ring      *otel.RingBuffer

	// Search scrapes for sc and replies with SearchDone.
	Search func(sc feed.SearchContext) tea.Cmd
	// FetchPage, FetchRelated and Refresh carry out pager requests and
	// reply with PageLoaded, RelatedLoaded and Refreshed.
	FetchPage    func(req feed.Request) tea.Cmd
	FetchRelated func(req feed.Request) tea.Cmd
	Refresh      func(req feed.Request) tea.Cmd
	// LoadInteractions replies with InteractionsLoaded.
	LoadInteractions func(itemID string) tea.Cmd
	ToggleLike       func(itemID string) tea.Cmd
	LoadComments     func(itemID string) tea.Cmd
	PostComment      func(itemID, text string) tea.Cmd
	// Share copies the share link for mediaID.
	Share          func(mediaID string) tea.Cmd
	Login          func() tea.Cmd
	Logout         func() tea.Cmd
	CheckUser      func() tea.Cmd
	RecentSearches func() tea.Cmd
	LoggedIn       func() bool
}

// App is the root Bubble Tea model.
// App does NOT hold the API client or the store. Results arrive as messages.
type App struct {
	cfg   AppConfig
	sess  *session.Machine
	pager *feed.Pager
	ctrl  *feed.Controller
	log   *log.Logger

	width  int
	height int
	ready  bool
	start  tea.Cmd

	// onboarding
	input       textinput.Model
	channelMode bool
	searching   bool
	searchSeq   int
	pending     feed.SearchContext
	recent      []RecentSearch
	recentIdx   int
	spin        spinner.Model

	// feed
	scrollTop       int
	scrolled        bool
	likes           map[string]api.LikeStatus
	likeRollback    map[string]api.LikeStatus
	commentCounts   map[string]int
	interactionsFor string
	playerErr       error

	drawer   commentsDrawer
	profile  bool
	user     *api.User
	loginURL string

	flash        string
	flashIsError bool
	flashID      int
	debugVisible bool
}

// NewAppWithConfig restores the session and builds the App. When a
// search context was persisted the feed's first page is requested from
// Init.
func NewAppWithConfig(cfg AppConfig) App {
	if cfg.Player == nil {
		cfg.Player = noopPlayer{}
	}
	if cfg.Session == nil {
		cfg.Session = session.New(memStorage{})
	}

	in := textinput.New()
	in.Prompt = "# "
	in.Placeholder = "topic, e.g. drone racing"
	in.CharLimit = 80
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	ta := textarea.New()
	ta.Placeholder = "Add a comment..."
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.CharLimit = 500
	ta.KeyMap.InsertNewline.SetEnabled(false)

	pager := feed.NewPager(cfg.Lookahead)
	a := App{
		cfg:           cfg,
		sess:          cfg.Session,
		pager:         pager,
		ctrl:          feed.NewController(cfg.Player, pager),
		log:           logging.For("ui"),
		input:         in,
		spin:          sp,
		likes:         make(map[string]api.LikeStatus),
		likeRollback:  make(map[string]api.LikeStatus),
		commentCounts: make(map[string]int),
		drawer:        commentsDrawer{input: ta},
		recentIdx:     -1,
	}

	view, err := a.sess.Restore()
	if err != nil {
		a.log.Error("restore session", "err", err)
	}
	a.emit(otel.Event{Kind: otel.KindSessionRestore, Msg: view.String(), Context: a.sess.Context().String()})
	if view == session.Feed {
		a.start = a.startFeed()
	}
	return a
}

// Init requests the restored feed, the current user and recent searches.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, a.spin.Tick, a.start}
	if a.cfg.CheckUser != nil {
		cmds = append(cmds, a.cfg.CheckUser())
	}
	if a.cfg.RecentSearches != nil {
		cmds = append(cmds, a.cfg.RecentSearches())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Msg: fmt.Sprintf("%T", msg)})
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.Width = min(48, max(10, msg.Width-10))
		a.drawer.input.SetWidth(max(10, min(72, msg.Width-4)))
		// keep the active item in place when the viewport changes
		a.scrollTop = a.ctrl.Active() * a.viewport()
		return a, nil

	case tea.KeyMsg:
		a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Msg: msg.String()})
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		if !a.inFeed() {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			return a.wheel(1)
		case tea.MouseButtonWheelUp:
			return a.wheel(-1)
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case PlayerReady:
		a.playerErr = msg.Err
		if msg.Err != nil {
			return a, a.setFlash("Player unavailable: "+msg.Err.Error(), true)
		}
		return a, nil

	case PlayingChanged:
		a.ctrl.ObservePlaying(msg.Playing)
		return a, nil

	case SearchDone:
		return a.searchDone(msg)

	case PageLoaded:
		if !a.pager.PageLoaded(msg.Req, msg.Page, msg.Err) {
			return a, nil
		}
		a.ctrl.SyncMedia()
		return a, tea.Batch(a.evaluate(), a.interactionsCmd())

	case RelatedLoaded:
		req, ok := a.pager.RelatedLoaded(msg.Req, msg.Err)
		if !ok {
			return a, nil
		}
		return a, a.dispatch(req)

	case Refreshed:
		if !a.pager.Refreshed(msg.Req, msg.Pages, msg.Err) {
			return a, nil
		}
		a.ctrl.SyncMedia()
		return a, tea.Batch(a.evaluate(), a.interactionsCmd())

	case InteractionsLoaded:
		if msg.Err != nil {
			a.log.Debug("load interactions", "item", msg.ItemID, "err", msg.Err)
		}
		if msg.Like != nil {
			if _, pending := a.likeRollback[msg.ItemID]; !pending {
				a.likes[msg.ItemID] = *msg.Like
			}
		}
		a.commentCounts[msg.ItemID] = msg.Comments
		return a, nil

	case LikeToggled:
		prev, pending := a.likeRollback[msg.ItemID]
		delete(a.likeRollback, msg.ItemID)
		if msg.Err != nil {
			if pending {
				a.likes[msg.ItemID] = prev
			}
			return a, a.setFlash("Could not update like", true)
		}
		a.likes[msg.ItemID] = msg.Status
		return a, nil

	case CommentsLoaded:
		return a.commentsLoaded(msg)

	case CommentPosted:
		return a.commentPosted(msg)

	case LoginStarted:
		if msg.Manual {
			a.loginURL = msg.URL
			return a, a.setFlash("Open the login link shown on the account page", false)
		}
		return a, a.setFlash("Continue login in your browser", false)

	case LoginComplete:
		a.loginURL = ""
		if msg.User == nil {
			text := "Login failed"
			if msg.Err != nil {
				text += ": " + msg.Err.Error()
			}
			return a, a.setFlash(text, true)
		}
		a.user = msg.User
		a.interactionsFor = ""
		return a, tea.Batch(a.setFlash("Logged in as "+displayName(msg.User), false), a.interactionsCmd())

	case UserChecked:
		a.user = msg.User
		return a, nil

	case LoggedOut:
		if msg.Err != nil {
			return a, a.setFlash("Logout failed: "+msg.Err.Error(), true)
		}
		a.user = nil
		a.likes = make(map[string]api.LikeStatus)
		return a, a.setFlash("Logged out", false)

	case RecentLoaded:
		a.recent = msg.Searches
		a.recentIdx = -1
		return a, nil

	case flashExpired:
		if msg.id == a.flashID {
			a.flash = ""
		}
		return a, nil
	}

	if a.sess.View() != session.Feed {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	if a.drawer.open {
		var cmd tea.Cmd
		a.drawer.input, cmd = a.drawer.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

// handleKeyMsg routes a key to the overlay or view that has focus.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	if a.debugVisible {
		if key.Matches(msg, keys.Debug) || key.Matches(msg, keys.Back) {
			a.debugVisible = false
		}
		return a, nil
	}

	if a.sess.View() != session.Feed {
		return a.updateOnboarding(msg)
	}
	if a.drawer.open {
		return a.updateDrawer(msg)
	}
	if a.profile {
		return a.updateProfile(msg)
	}
	return a.updateFeed(msg)
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.debugVisible {
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, debugOverlay(a.cfg.Ring, a.width, a.height-1)),
			debugStatusBar(a.width))
	}

	var body string
	switch {
	case a.sess.View() != session.Feed:
		body = a.viewOnboarding()
	case a.profile:
		body = a.viewProfile()
	default:
		body = a.viewFeed()
	}
	body = lipgloss.Place(a.width, a.viewport(), lipgloss.Center, lipgloss.Center, body)
	return lipgloss.JoinVertical(lipgloss.Left, body, a.statusBar())
}

// statusBar renders key hints or the current flash message, with the
// login state on the right.
func (a App) statusBar() string {
	var left string
	switch {
	case a.flash != "" && a.flashIsError:
		left = ErrorStyle.Render(a.flash)
	case a.flash != "":
		left = FlashStyle.Render(a.flash)
	case a.sess.View() != session.Feed:
		left = renderHelp([]key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "topic/channel")),
			key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		})
	default:
		left = renderHelp(feedHelp)
	}

	right := StatusBarText.Render("not logged in")
	if a.user != nil {
		right = StatusBarKey.Render(displayName(a.user))
	}
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return StatusBar.Width(a.width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}

func renderHelp(bs []key.Binding) string {
	out := ""
	for i, b := range bs {
		if i > 0 {
			out += " "
		}
		h := b.Help()
		out += StatusBarKey.Render(h.Key) + StatusBarText.Render(":"+h.Desc)
	}
	return out
}

// setFlash shows text in the status bar until it expires or is replaced.
func (a *App) setFlash(text string, isErr bool) tea.Cmd {
	a.flashID++
	a.flash = text
	a.flashIsError = isErr
	id := a.flashID
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashExpired{id: id} })
}

// viewport is the height of one feed item in rows.
func (a App) viewport() int {
	if a.height-1 < 1 {
		return 1
	}
	return a.height - 1
}

func (a App) loggedIn() bool {
	return a.cfg.LoggedIn != nil && a.cfg.LoggedIn()
}

func (a App) emit(e otel.Event) {
	if a.cfg.Events == nil {
		return
	}
	e.Comp = "ui"
	if e.Level == "" {
		e.Level = otel.LevelInfo
	}
	a.cfg.Events.Emit(e)
}

func displayName(u *api.User) string {
	switch {
	case u == nil:
		return "User"
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	}
	return "User"
}

type noopPlayer struct{}

func (noopPlayer) LoadMedia(string) {}
func (noopPlayer) SetMuted(bool)    {}
func (noopPlayer) SetPlaying(bool)  {}

// memStorage backs a session that persists nothing.
type memStorage struct{}

func (memStorage) Get(string) (string, bool, error) { return "", false, nil }
func (memStorage) Set(string, string) error         { return nil }
func (memStorage) Delete(...string) error           { return nil }
