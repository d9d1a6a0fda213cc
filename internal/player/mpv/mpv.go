// Package mpv drives a single mpv process over its JSON IPC socket and
// exposes it as a player.Handle.
package mpv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infblueocean/realstream/internal/logging"
	"github.com/infblueocean/realstream/internal/player"
)

// WatchURL is the page mpv (through yt-dlp) resolves a media id against.
const WatchURL = "https://www.youtube.com/watch?v="

// Config locates and parameterizes the mpv binary.
type Config struct {
	Binary    string   // empty = "mpv" from PATH
	ExtraArgs []string
	SocketDir string // empty = os.TempDir()
}

// Backend starts mpv processes. It implements player.Backend.
type Backend struct {
	bin     string
	version string
	cfg     Config
	log     *log.Logger

	// start launches the process that will listen on sock.
	start func(ctx context.Context, sock string) (process, error)
	// dialTimeout bounds waiting for the socket to appear.
	dialTimeout time.Duration
}

type process interface {
	Kill() error
	Wait() error
}

type execProcess struct{ cmd *exec.Cmd }

func (p execProcess) Kill() error { return p.cmd.Process.Kill() }
func (p execProcess) Wait() error { return p.cmd.Wait() }

// Loader returns a player.Loader that resolves the mpv binary and checks
// it runs. Use it with player.Shared so the probe happens once.
func Loader(cfg Config) player.Loader {
	return func(ctx context.Context) (player.Backend, error) {
		bin := cfg.Binary
		if bin == "" {
			bin = "mpv"
		}
		path, err := exec.LookPath(bin)
		if err != nil {
			return nil, fmt.Errorf("find mpv: %w", err)
		}

		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		out, err := exec.CommandContext(probeCtx, path, "--version").Output()
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", path, err)
		}
		version := firstLine(out)
		if !strings.HasPrefix(version, "mpv") {
			return nil, fmt.Errorf("probe %s: unexpected version output %q", path, version)
		}

		b := newBackend(path, cfg)
		b.version = version
		b.log.Info("mpv ready", "path", path, "version", version)
		return b, nil
	}
}

func newBackend(bin string, cfg Config) *Backend {
	b := &Backend{
		bin:         bin,
		cfg:         cfg,
		log:         logging.For("mpv"),
		dialTimeout: 10 * time.Second,
	}
	b.start = b.startProcess
	return b
}

func (b *Backend) args(sock string) []string {
	args := []string{
		"--idle=yes",
		"--input-ipc-server=" + sock,
		"--mute=yes",
		"--loop-file=inf",
		"--force-window=yes",
		"--keep-open=no",
		"--no-terminal",
		"--really-quiet",
	}
	return append(args, b.cfg.ExtraArgs...)
}

func (b *Backend) startProcess(_ context.Context, sock string) (process, error) {
	// The process outlives the context that created it; Destroy ends it.
	cmd := exec.Command(b.bin, b.args(sock)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}
	return execProcess{cmd: cmd}, nil
}

func (b *Backend) socketPath() string {
	dir := b.cfg.SocketDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("realstream-mpv-%d-%d.sock", os.Getpid(), time.Now().UnixNano()))
}

// NewHandle starts mpv muted and idle, connects to its socket and loads
// opts.MediaID if set.
func (b *Backend) NewHandle(ctx context.Context, opts player.Options) (player.Handle, error) {
	sock := b.socketPath()
	b.log.Info("starting mpv", "bin", b.bin, "version", b.version)
	proc, err := b.start(ctx, sock)
	if err != nil {
		return nil, err
	}

	nc, err := dialSocket(ctx, sock, b.dialTimeout)
	if err != nil {
		proc.Kill()
		proc.Wait()
		os.Remove(sock)
		return nil, err
	}
	h := newHandle(sock, proc, opts.OnStateChange, b.log)
	h.attach(nc)

	if err := h.observe(); err != nil {
		h.Destroy()
		return nil, err
	}
	if err := h.SetLoop(opts.Loop); err != nil {
		b.log.Warn("set initial loop failed", "err", err)
	}
	if opts.MediaID != "" {
		if err := h.Load(opts.MediaID); err != nil {
			h.Destroy()
			return nil, err
		}
	}
	return h, nil
}

func firstLine(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
