package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"ergols/internal/report"
	"ergols/internal/ui"
)

type checkOutcome struct {
	entries []report.Entry
	err     error
}

// runCheckWithUI runs job while a progress view consumes its events.
func runCheckWithUI(ctx context.Context, title string, files []string, job func(context.Context, func(ui.Event)) ([]report.Entry, error)) ([]report.Entry, error) {
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		entries, err := job(ctx, func(ev ui.Event) { events <- ev })
		outcomeCh <- checkOutcome{entries: entries, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the job from blocking on a view that is gone
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil && ctx.Err() == nil {
		return outcome.entries, uiErr
	}
	return outcome.entries, outcome.err
}
