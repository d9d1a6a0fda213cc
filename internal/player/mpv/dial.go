package mpv

import (
	"context"
	"fmt"
	"net"
	"time"
)

// dialSocket retries until mpv has created its IPC socket.
func dialSocket(ctx context.Context, sock string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		nc, err := d.DialContext(ctx, "unix", sock)
		if err == nil {
			return nc, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to mpv socket %s: %w", sock, err)
		case <-tick.C:
		}
	}
}
