// Package coord runs the background work that feeds the UI loop: the
// player worker and the login callback listener.
package coord

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/infblueocean/realstream/internal/logging"
	"github.com/infblueocean/realstream/internal/ui"
)

// opQueueSize bounds player operations waiting for the worker.
const opQueueSize = 64

// Sender delivers messages to the UI loop. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Player is the adapter surface the coordinator drives.
type Player interface {
	Initialize(ctx context.Context) error
	LoadMedia(id string)
	SetMuted(muted bool)
	SetPlaying(playing bool)
	Subscribe(fn func(playing bool))
}

// TokenHandler stores a token from the login callback and returns the
// message to send to the UI.
type TokenHandler func(ctx context.Context, token string) tea.Msg

// Coordinator moves player commands off the UI goroutine and brings
// player reports and login tokens back onto it. Context cancellation is
// the only stop mechanism.
type Coordinator struct {
	player  Player
	tokens  <-chan string
	onToken TokenHandler

	ops     chan func(Player) // IMMUTABLE after construction
	playing chan bool         // newest report only
	wg      sync.WaitGroup
	log     *log.Logger
}

// New returns a Coordinator. tokens and onToken may be nil.
func New(p Player, tokens <-chan string, onToken TokenHandler) *Coordinator {
	return &Coordinator{
		player:  p,
		tokens:  tokens,
		onToken: onToken,
		ops:     make(chan func(Player), opQueueSize),
		playing: make(chan bool, 1),
		log:     logging.For("coord"),
	}
}

// LoadMedia queues a media swap. Operations apply in call order.
func (c *Coordinator) LoadMedia(id string) { c.enqueue(func(p Player) { p.LoadMedia(id) }) }

// SetMuted queues a mute change.
func (c *Coordinator) SetMuted(m bool) { c.enqueue(func(p Player) { p.SetMuted(m) }) }

// SetPlaying queues a play or pause.
func (c *Coordinator) SetPlaying(on bool) { c.enqueue(func(p Player) { p.SetPlaying(on) }) }

func (c *Coordinator) enqueue(op func(Player)) {
	select {
	case c.ops <- op:
	default:
		// worker is stuck behind a slow player; the next sync carries the latest state
		c.log.Warn("player queue full, dropping operation")
	}
}

// Start launches the player initializer, the operation worker, and the
// forwarders. Call Wait after cancelling ctx.
func (c *Coordinator) Start(ctx context.Context, s Sender) {
	c.player.Subscribe(c.report)

	c.wg.Add(3)
	go func() {
		defer c.wg.Done()
		err := c.player.Initialize(ctx)
		if err != nil {
			c.log.Error("player init failed", "err", err)
		}
		if ctx.Err() == nil {
			s.Send(ui.PlayerReady{Err: err})
		}
	}()

	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case op := <-c.ops:
				op(c.player)
			}
		}
	}()

	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-c.playing:
				s.Send(ui.PlayingChanged{Playing: p})
			}
		}
	}()

	if c.tokens == nil || c.onToken == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case tok := <-c.tokens:
				if msg := c.onToken(ctx, tok); msg != nil && ctx.Err() == nil {
					s.Send(msg)
				}
			}
		}
	}()
}

// Wait blocks until the background goroutines exit.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// report is the player's sink. It must not block: the player calls it
// from its own event goroutine, and the UI may be waiting on that player.
func (c *Coordinator) report(p bool) {
	for {
		select {
		case c.playing <- p:
			return
		default:
		}
		select {
		case <-c.playing:
		default:
		}
	}
}
