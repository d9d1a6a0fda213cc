package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// requestTimeout bounds a single IPC command round trip.
const requestTimeout = 5 * time.Second

var errConnClosed = errors.New("mpv: ipc connection closed")

// message is any line mpv writes on the socket: a reply carries a
// request_id, an event carries an event name.
type message struct {
	RequestID int64           `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Event     string          `json:"event,omitempty"`
	Name      string          `json:"name,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// conn is a JSON IPC client. The read loop delivers events to onEvent,
// which must not block on a command round trip.
type conn struct {
	nc      net.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan message
	closed  bool

	onEvent func(message)
	done    chan struct{}
}

func newConn(nc net.Conn, onEvent func(message)) *conn {
	c := &conn{
		nc:      nc,
		pending: make(map[int64]chan message),
		onEvent: onEvent,
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *conn) readLoop() {
	defer close(c.done)
	sc := bufio.NewScanner(c.nc)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var m message
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			continue
		}
		if m.Event != "" {
			if c.onEvent != nil {
				c.onEvent(m)
			}
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[m.RequestID]
		delete(c.pending, m.RequestID)
		c.mu.Unlock()
		if ok {
			ch <- m
		}
	}

	c.mu.Lock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

// command sends args and waits for mpv's reply.
func (c *conn) command(args ...any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errConnClosed
	}
	c.nextID++
	id := c.nextID
	ch := make(chan message, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	line, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		c.forget(id)
		return nil, err
	}
	line = append(line, '\n')

	c.writeMu.Lock()
	_, err = c.nc.Write(line)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("write %v: %w", args[0], err)
	}

	select {
	case m, ok := <-ch:
		if !ok {
			return nil, errConnClosed
		}
		if m.Error != "" && m.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], m.Error)
		}
		return m.Data, nil
	case <-time.After(requestTimeout):
		c.forget(id)
		return nil, fmt.Errorf("mpv %v: timed out", args[0])
	}
}

func (c *conn) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *conn) close() error {
	err := c.nc.Close()
	<-c.done
	return err
}
