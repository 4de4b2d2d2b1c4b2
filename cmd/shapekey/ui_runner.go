package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"shapekey/internal/hostval"
	"shapekey/internal/ui"
)

// runReplayWithUI runs fn in the background while a progress view consumes
// its events. fn's error wins over a UI error.
func runReplayWithUI(ctx context.Context, title string, items []hostval.Item, fn func(chan<- ui.Event) error) error {
	events := make(chan ui.Event, 256)
	outcome := make(chan error, 1)
	go func() {
		outcome <- fn(events)
		close(events)
	}()

	uiItems := make([]ui.Item, len(items))
	for i, it := range items {
		uiItems[i] = ui.Item{Name: it.Name, Total: uint64(it.Repeat) * uint64(replayRounds) * uint64(replayWorkers)}
	}
	program := tea.NewProgram(ui.NewProgressModel(title, uiItems, events), tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// The view may quit early; keep workers from blocking on it.
	go func() {
		for range events {
		}
	}()
	if err := <-outcome; err != nil {
		return err
	}
	return uiErr
}
