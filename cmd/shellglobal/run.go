package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/Gaurav-Gosain/shellglobal/internal/config"
	"github.com/Gaurav-Gosain/shellglobal/internal/inputmode"
	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
	"github.com/Gaurav-Gosain/shellglobal/internal/shell"
)

func runDaemon(ctx context.Context, displayName, modeName string) error {
	setupLogging()

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	override, err := flagOverrides(debugMode, displayName, modeName)
	if err != nil {
		return err
	}
	override(cfg)
	logging.SetLevel(cfg.LogLevel())

	return shell.Run(ctx, shell.DaemonConfig{
		Config:     cfg,
		ConfigPath: path,
		Override:   override,
	})
}

// flagOverrides returns a function that applies the command line flags to
// a loaded configuration.
func flagOverrides(debug bool, displayName, modeName string) (func(*config.Config), error) {
	var mode inputmode.Mode
	if modeName != "" {
		m, err := inputmode.Parse(modeName)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	return func(cfg *config.Config) {
		if debug {
			cfg.Log.Level = log.DebugLevel.String()
		}
		if displayName != "" {
			cfg.Display.Name = displayName
		}
		if modeName != "" {
			cfg.Stage.InitialMode = mode
		}
	}, nil
}

// setupLogging picks the human formatter on a terminal and logfmt otherwise.
func setupLogging() {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logging.SetFormatter(log.TextFormatter)
		return
	}
	logging.SetFormatter(log.LogfmtFormatter)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("could not determine config path: %w", err)
	}
	return path, nil
}
