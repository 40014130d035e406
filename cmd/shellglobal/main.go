// Package main implements shellglobal, the X11 session core of a desktop
// shell. It arbitrates the input shape of the shell's stage window, answers
// XDND drag messages aimed at it and runs deferred work when the session
// is idle.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode  bool
	configPath string
)

func main() {
	var displayName, modeName string

	rootCmd := &cobra.Command{
		Use:   "shellglobal",
		Short: "Desktop shell session core",
		Long: `shellglobal - desktop shell session core

Creates the shell's stage window on an X11 display, keeps its input shape
in line with the shell's input mode and answers drag-and-drop messages
sent to it.`,
		Example: `  # Run on the current display
  shellglobal

  # Run with debug logging
  shellglobal --debug

  # Start with the stage absorbing all input
  shellglobal --mode fullscreen

  # Write the default configuration
  shellglobal config init`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), displayName, modeName)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file")
	rootCmd.Flags().StringVar(&displayName, "display", "", "X display to connect to (defaults to $DISPLAY)")
	rootCmd.Flags().StringVar(&modeName, "mode", "", "Initial input mode (normal, nonreactive, fullscreen, focused)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage shellglobal configuration",
		Long:  `Manage the shellglobal configuration file`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printConfigPath()
		},
	}

	var force bool
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write the default configuration file

An existing file is left untouched unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(force)
		},
	}
	configInitCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	}

	configCmd.AddCommand(configPathCmd, configInitCmd, configShowCmd)

	modesCmd := &cobra.Command{
		Use:   "modes",
		Short: "List input modes",
		Long:  `Display every stage input mode and the input behavior it results in`,
		RunE: func(cmd *cobra.Command, args []string) error {
			printModesTable()
			return nil
		},
	}

	rootCmd.AddCommand(configCmd, modesCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}
