package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/shellglobal/internal/config"
	"github.com/Gaurav-Gosain/shellglobal/internal/inputmode"
	"github.com/Gaurav-Gosain/shellglobal/internal/stage"
)

// =============================================================================
// Default Configuration Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config does not validate: %v", err)
	}
	if cfg.Stage.InitialMode != inputmode.Nonreactive {
		t.Errorf("Expected nonreactive initial mode, got %v", cfg.Stage.InitialMode)
	}
	if !cfg.DnD.AcceptDrops {
		t.Error("Expected drops to be accepted by default")
	}
	if cfg.LogLevel() != log.InfoLevel {
		t.Errorf("Expected info level, got %v", cfg.LogLevel())
	}
}

// =============================================================================
// Load Tests
// =============================================================================

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if cfg.Stage.InitialMode != config.DefaultConfig().Stage.InitialMode {
		t.Error("Expected defaults for missing file")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
[log]
level = "debug"

[display]
name = ":1"
stage_window = 4194305

[stage]
initial_mode = "focused"
regions = [
  { x = 0, y = 0, width = 1920, height = 32 },
  { x = 10, y = 40, width = 200, height = 300 },
]

[dnd]
accept_drops = false
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel() != log.DebugLevel {
		t.Errorf("Expected debug level, got %v", cfg.LogLevel())
	}
	if cfg.Display.Name != ":1" || cfg.Display.StageWindow != 4194305 {
		t.Errorf("Unexpected display config %+v", cfg.Display)
	}
	if !cfg.Display.UseOverlay {
		t.Error("Unset use_overlay should keep its default")
	}
	if cfg.Stage.InitialMode != inputmode.Focused {
		t.Errorf("Expected focused, got %v", cfg.Stage.InitialMode)
	}
	want := []stage.Rectangle{
		{X: 0, Y: 0, Width: 1920, Height: 32},
		{X: 10, Y: 40, Width: 200, Height: 300},
	}
	if len(cfg.Stage.Regions) != len(want) {
		t.Fatalf("Expected %d regions, got %d", len(want), len(cfg.Stage.Regions))
	}
	for i := range want {
		if cfg.Stage.Regions[i] != want[i] {
			t.Errorf("Region %d = %+v, want %+v", i, cfg.Stage.Regions[i], want[i])
		}
	}
	if cfg.DnD.AcceptDrops {
		t.Error("Expected accept_drops=false")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"unknown mode", "[stage]\ninitial_mode = \"sideways\"\n", false},
		{"bad level", "[log]\nlevel = \"loud\"\n", true},
		{"negative size", "[stage]\nregions = [{ x = 0, y = 0, width = -1, height = 1 }]\n", true},
		{"out of range", "[stage]\nregions = [{ x = 70000, y = 0, width = 1, height = 1 }]\n", true},
		{"syntax", "[stage\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.content)
			_, err := config.Load(path)
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.invalid && !errors.Is(err, config.ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.FileName)
	cfg := config.DefaultConfig()
	cfg.Stage.InitialMode = inputmode.Fullscreen
	cfg.Stage.Regions = []stage.Rectangle{{X: 5, Y: 6, Width: 7, Height: 8}}

	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Stage.InitialMode != inputmode.Fullscreen {
		t.Errorf("Expected fullscreen, got %v", loaded.Stage.InitialMode)
	}
	if len(loaded.Stage.Regions) != 1 || loaded.Stage.Regions[0] != cfg.Stage.Regions[0] {
		t.Errorf("Regions not preserved: %+v", loaded.Stage.Regions)
	}
}

// =============================================================================
// Watch Tests
// =============================================================================

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "[stage]\ninitial_mode = \"normal\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *config.Config, 4)
	ready := make(chan error, 1)
	go func() {
		ready <- config.Watch(ctx, path, func(cfg *config.Config, err error) {
			if err != nil {
				return
			}
			select {
			case changes <- cfg:
			default:
			}
		})
	}()

	// Give the watcher time to register the directory.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		if err := os.WriteFile(path, []byte("[stage]\ninitial_mode = \"fullscreen\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case cfg := <-changes:
			if cfg.Stage.InitialMode != inputmode.Fullscreen {
				t.Errorf("Expected fullscreen after reload, got %v", cfg.Stage.InitialMode)
			}
			cancel()
			if err := <-ready; err != nil {
				t.Errorf("Watch returned %v", err)
			}
			return
		case err := <-ready:
			t.Fatalf("Watch exited early: %v", err)
		case <-deadline:
			t.Fatal("No reload observed")
		case <-tick.C:
		}
	}
}
