package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// switchMode is the value of an auto|on|off flag.
type switchMode string

const (
	modeAuto switchMode = "auto"
	modeOn   switchMode = "on"
	modeOff  switchMode = "off"
)

func readSwitch(flag, value string) (switchMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return modeAuto, nil
	case "on":
		return modeOn, nil
	case "off":
		return modeOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// applyColor sets color.NoColor from the --color flag and reports whether
// colour is enabled.
func applyColor(cmd *cobra.Command) (bool, error) {
	raw, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := readSwitch("color", raw)
	if err != nil {
		return false, err
	}
	switch mode {
	case modeOn:
		color.NoColor = false
	case modeOff:
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
	return !color.NoColor, nil
}

// shouldUseUI decides whether replay shows live progress. JSON output never
// does.
func shouldUseUI(value, format string) (bool, error) {
	mode, err := readSwitch("ui", value)
	if err != nil {
		return false, err
	}
	if format == "json" {
		return false, nil
	}
	switch mode {
	case modeOn:
		return true, nil
	case modeOff:
		return false, nil
	default:
		return isTerminal(os.Stdout), nil
	}
}
