package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/infblueocean/realstream/internal/api"
	"github.com/infblueocean/realstream/internal/auth"
	"github.com/infblueocean/realstream/internal/config"
	"github.com/infblueocean/realstream/internal/coord"
	"github.com/infblueocean/realstream/internal/feed"
	"github.com/infblueocean/realstream/internal/logging"
	"github.com/infblueocean/realstream/internal/metrics"
	"github.com/infblueocean/realstream/internal/otel"
	"github.com/infblueocean/realstream/internal/player"
	"github.com/infblueocean/realstream/internal/player/mpv"
	"github.com/infblueocean/realstream/internal/server"
	"github.com/infblueocean/realstream/internal/store"
	"github.com/infblueocean/realstream/internal/ui"
)

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "realstream: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fatalf("failed to load config: %v", err)
	}

	// Data directory: ~/.realstream/
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fatalf("failed to create data directory: %v", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if err := logging.Init(dataDir, level); err != nil {
		fatalf("%v", err)
	}
	defer logging.Close()
	lg := logging.For("main")

	// Structured events: JSONL on disk, recent ones in memory for the overlay.
	events, err := otel.OpenFile(dataDir)
	if err != nil {
		lg.Warn("event log unavailable", "err", err)
		events = otel.NewNullLogger()
	}
	defer events.Close()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)

	var reg *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg = metrics.New()
		events.SetObserver(reg.Observe)
	}
	otel.SetTraceEnabled(cfg.Trace)
	events.Info(otel.KindStartup, "main", "version "+logging.Version)

	st, err := store.Open(filepath.Join(dataDir, "realstream.db"))
	if err != nil {
		fatalf("failed to open database: %v", err)
	}
	defer st.Close()

	authSess, err := auth.NewSession(st, events)
	if err != nil {
		fatalf("%v", err)
	}

	client := api.New(api.Options{
		BaseURL:           cfg.API.BaseURL,
		VideosPath:        cfg.API.VideosPath,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Credentials:       authSess,
		Events:            events,
	})
	loader := feed.NewLoader(client, cfg.Feed.PageSize, events)

	srvCfg := server.Config{Addr: cfg.Auth.CallbackAddr}
	if reg != nil {
		srvCfg.Metrics = reg.Handler()
	}
	srv := server.New(srvCfg)
	if err := srv.Start(); err != nil {
		// login and /metrics are unavailable, the feed still works
		lg.Error("callback listener", "err", err)
	} else {
		lg.Info("login callback ready", "url", srv.CallbackURL())
	}

	adapter := player.NewAdapter(
		player.Shared(mpv.Loader(mpv.Config{
			Binary:    cfg.Player.Binary,
			ExtraArgs: cfg.Player.ExtraArgs,
			SocketDir: cfg.Player.SocketDir,
		})),
		player.WithDebounce(cfg.Debounce()),
		player.WithEvents(events),
	)

	w := &wiring{
		ctx:    ctx,
		cfg:    cfg,
		client: client,
		loader: loader,
		auth:   authSess,
		store:  st,
		log:    logging.For("cmd"),
	}

	coordinator := coord.New(adapter, srv.Tokens(), w.onToken)

	app := ui.NewAppWithConfig(w.appConfig(coordinator, events, ring))

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseWheel {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(app, opts...)

	coordinator.Start(ctx, program)

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		lg.Error("program exited", "err", err)
	}

	// Graceful shutdown
	events.Info(otel.KindShutdown, "main", "quit")
	cancel()
	coordinator.Wait()
	adapter.Close()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		lg.Warn("server shutdown", "err", err)
	}
}
