package shell

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/Gaurav-Gosain/shellglobal/internal/config"
	"github.com/Gaurav-Gosain/shellglobal/internal/event"
	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
	"github.com/Gaurav-Gosain/shellglobal/internal/x11"
)

// DaemonConfig holds what Run needs besides the configuration file.
type DaemonConfig struct {
	Config *config.Config
	// ConfigPath is watched for changes when not empty.
	ConfigPath string
	// Override, when set, is applied to every reloaded configuration so
	// command line flags keep precedence over the file. Config is expected
	// to have it applied already.
	Override func(*config.Config)
}

// Run connects to the display, applies the configured stage state and
// dispatches events until ctx is done or the process is signalled.
func Run(ctx context.Context, dc DaemonConfig) error {
	cfg := dc.Config

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, err := x11.Open(x11.Options{
		Display:     cfg.Display.Name,
		StageWindow: xproto.Window(cfg.Display.StageWindow),
		UseOverlay:  cfg.Display.UseOverlay,
	})
	if err != nil {
		return fmt.Errorf("open display: %w", err)
	}
	defer func() { _ = conn.Close() }()

	g := New(conn, Options{
		Stage:       conn.Stage(),
		Proxy:       conn.Proxy(),
		Atoms:       conn.Atoms(),
		AcceptDrops: cfg.DnD.AcceptDrops,
	})
	defer g.Close()

	g.Bus.Subscribe(func(e event.Event) {
		logger.Debug("notification", "event", e.Kind(), "payload", e)
	})

	g.Loop.Submit(func() {
		g.ApplyStage(cfg.Stage)
		g.Leisure.RunAtLeisure(func() {
			logger.Info("shell idle", "mode", g.Stage.Mode(), "reactivity", g.Stage.Reactivity())
		}, nil)
	})

	conn.Pump(ctx, g.Loop.Submit, g.Handlers())

	if dc.ConfigPath != "" {
		r := &reloader{g: g, current: cfg, override: dc.Override}
		go watchConfig(ctx, r, dc.ConfigPath)
	}
	go handleSignals(ctx, cancel)

	logger.Info("running", "pid", os.Getpid())
	if err := g.Loop.Run(ctx); err != nil {
		return fmt.Errorf("run loop: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

// reloader applies reloaded configurations on the run loop.
type reloader struct {
	g        *Global
	current  *config.Config
	override func(*config.Config)
}

func (r *reloader) apply(cfg *config.Config) {
	if r.override != nil {
		r.override(cfg)
	}
	logging.SetLevel(cfg.LogLevel())
	r.g.ReloadStage(r.current.Stage, cfg.Stage)
	r.current = cfg
}

func watchConfig(ctx context.Context, r *reloader, path string) {
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Warn("ignoring invalid config", "path", path, "err", err)
			return
		}
		r.g.Loop.Submit(func() { r.apply(cfg) })
	})
	if err != nil {
		logger.Error("config watcher stopped", "err", err)
	}
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		logger.Info("received signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	}
}
