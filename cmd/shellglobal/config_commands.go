package main

import (
	"errors"
	"fmt"
	"os"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/pelletier/go-toml/v2"

	"github.com/Gaurav-Gosain/shellglobal/internal/config"
	"github.com/Gaurav-Gosain/shellglobal/internal/inputmode"
	"github.com/Gaurav-Gosain/shellglobal/internal/stage"
)

func printConfigPath() error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func initConfig(force bool) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("Wrote default configuration to %s\n", path)
	return nil
}

func showConfig() error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Printf("# %s\n%s", path, data)
	return nil
}

var modeDescriptions = map[inputmode.Mode]string{
	inputmode.Normal:      "Stage takes input inside its region",
	inputmode.Nonreactive: "Stage ignores all input",
	inputmode.Fullscreen:  "Stage takes all input",
	inputmode.Focused:     "Like normal, with keyboard focus until an app is focused",
}

func printModesTable() {
	fmt.Println(modesTable().Render())
}

// modesTable lists each mode with the reactivity it resolves to.
func modesTable() *table.Table {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Padding(0, 1)

	rows := [][]string{}
	for _, m := range inputmode.All() {
		rows = append(rows, []string{
			m.String(),
			stage.Resolve(m, false, true).String(),
			stage.Resolve(m, false, false).String(),
			stage.Resolve(m, true, true).String(),
			modeDescriptions[m],
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("Mode", "Region", "No region", "Grab", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
