package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riotx/riotx/internal/app"
	"github.com/riotx/riotx/internal/config"
	"github.com/riotx/riotx/internal/db"
	"github.com/riotx/riotx/internal/logging"
	"github.com/riotx/riotx/internal/pubsub"
	"github.com/riotx/riotx/internal/tui"
	"github.com/spf13/cobra"
)

const logRetention = 7 * 24 * time.Hour

func runCompose(cmd *cobra.Command) error {
	s := sessionFrom(cmd)
	if s.cfg.RoomID == "" {
		return config.ErrNoRoom
	}

	// Create main context for the application
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Connect DB, this will also run migrations
	conn, err := db.Connect(ctx, s.cfg.Data.Directory)
	if err != nil {
		return err
	}
	defer conn.Close()

	a, err := app.New(ctx, s.cfg, conn)
	if err != nil {
		slog.Error("Failed to create app", "error", err)
		return err
	}

	// From here on logs go to the database and the log view, not the terminal
	slog.SetDefault(slog.New(logging.NewTUIHandler(a.Logs, s.cfg.Debug)))
	if n, err := a.Logs.Prune(ctx, time.Now().Add(-logRetention)); err != nil {
		slog.Warn("failed to prune logs", "error", err)
	} else if n > 0 {
		slog.Debug("pruned logs", "count", n)
	}

	draft, ok, err := a.Drafts.Load(ctx, s.cfg.RoomID)
	if err != nil {
		slog.Warn("failed to load draft", "room", s.cfg.RoomID, "error", err)
	} else if ok {
		slog.Debug("draft restored", "room", s.cfg.RoomID)
	}

	program := tea.NewProgram(
		tui.New(tui.Options{
			RoomID:        s.cfg.RoomID,
			RoomLabel:     roomLabel(s.cfg),
			Homeserver:    s.cfg.Homeserver,
			Autocompleter: a.Autocompleter(),
			Commands:      a.Commands,
			Sender:        a.Client,
			Drafts:        a.Drafts,
			History:       a.History,
			Logs:          a.Logs,
			Draft:         draft,
			LoadMembers:   a.LoadMembers,
		}),
		tea.WithAltScreen(),
	)

	a.RefreshInBackground(ctx)

	// Setup the subscriptions, this will send services events to the TUI
	ch, cancelSubs := setupSubscriptions(a, ctx)

	// Create a context for the TUI message handler
	tuiCtx, tuiCancel := context.WithCancel(ctx)
	var tuiWg sync.WaitGroup
	tuiWg.Add(1)

	// Set up message handling for the TUI
	go func() {
		defer tuiWg.Done()
		defer logging.RecoverPanic("TUI-message-handler", func() {
			attemptTUIRecovery(program)
		})

		for {
			select {
			case <-tuiCtx.Done():
				slog.Info("TUI message handler shutting down")
				return
			case msg, ok := <-ch:
				if !ok {
					slog.Info("TUI message channel closed")
					return
				}
				program.Send(msg)
			}
		}
	}()

	// Cleanup function for when the program exits
	cleanup := func() {
		// Cancel subscriptions first
		cancelSubs()

		// Then shutdown the app
		a.Shutdown()

		// Then cancel TUI message handler
		tuiCancel()

		// Wait for TUI message handler to finish
		tuiWg.Wait()

		slog.Info("All goroutines cleaned up")
	}

	// Run the TUI
	result, err := program.Run()
	cleanup()

	if err != nil {
		slog.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %v", err)
	}

	slog.Info("TUI exited", "result", result)
	return nil
}

// roomLabel prefers the configured alias or name over the raw room id.
func roomLabel(cfg *config.Config) string {
	for _, r := range cfg.Rooms {
		if r.ID != cfg.RoomID {
			continue
		}
		if r.Alias != "" {
			return r.Alias
		}
		if r.Name != "" {
			return r.Name
		}
	}
	return cfg.RoomID
}

// attemptTUIRecovery tries to recover the TUI after a panic
func attemptTUIRecovery(program *tea.Program) {
	slog.Info("Attempting to recover TUI after panic")
	program.Quit()
}

func setupSubscriber[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	subscriber func(context.Context) <-chan pubsub.Event[T],
	outputCh chan<- tea.Msg,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer logging.RecoverPanic(fmt.Sprintf("subscription-%s", name), nil)

		subCh := subscriber(ctx)
		if subCh == nil {
			slog.Warn("subscription channel is nil", "name", name)
			return
		}

		for {
			select {
			case event, ok := <-subCh:
				if !ok {
					slog.Debug("subscription channel closed", "name", name)
					return
				}

				var msg tea.Msg = event

				select {
				case outputCh <- msg:
				case <-time.After(2 * time.Second):
					slog.Warn("message dropped due to slow consumer", "name", name)
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func setupSubscriptions(a *app.App, parentCtx context.Context) (chan tea.Msg, func()) {
	ch := make(chan tea.Msg, 100)

	wg := sync.WaitGroup{}
	ctx, cancel := context.WithCancel(parentCtx)

	setupSubscriber(ctx, &wg, "logging", a.Logs.Subscribe, ch)
	setupSubscriber(ctx, &wg, "status", a.Status.Subscribe, ch)

	cleanupFunc := func() {
		cancel()

		waitCh := make(chan struct{})
		go func() {
			defer logging.RecoverPanic("subscription-cleanup", nil)
			wg.Wait()
			close(waitCh)
		}()

		select {
		case <-waitCh:
			close(ch)
		case <-time.After(5 * time.Second):
			slog.Warn("Timed out waiting for some subscription goroutines to complete")
			close(ch)
		}
	}
	return ch, cleanupFunc
}
