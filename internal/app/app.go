// Package app wires the services behind the composer and the CLI commands.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/commands"
	"github.com/riotx/riotx/internal/config"
	"github.com/riotx/riotx/internal/devices"
	"github.com/riotx/riotx/internal/drafts"
	"github.com/riotx/riotx/internal/history"
	"github.com/riotx/riotx/internal/homeserver"
	"github.com/riotx/riotx/internal/logging"
	"github.com/riotx/riotx/internal/members"
	"github.com/riotx/riotx/internal/status"
	"github.com/riotx/riotx/pkg/client"
)

const backgroundTimeout = 30 * time.Second

type App struct {
	Config     *config.Config
	Client     *client.Client
	Commands   commands.Registry
	Logs       *logging.Service
	Status     *status.Service
	Homeserver *homeserver.Service
	Devices    *devices.Manager
	Members    *members.Store
	Drafts     *drafts.Store
	History    *history.Service

	watcherCancelFuncs []context.CancelFunc
	cancelFuncsMutex   sync.Mutex
	watcherWG          sync.WaitGroup
}

// New builds the services for cfg on top of an open database. The database
// stays owned by the caller.
func New(ctx context.Context, cfg *config.Config, conn *sql.DB, opts ...client.Option) (*App, error) {
	if err := cfg.RequireSession(); err != nil {
		return nil, err
	}
	c := client.New(cfg.Homeserver, cfg.AccessToken, opts...)

	store, err := drafts.Open(filepath.Join(cfg.Data.Directory, "drafts"))
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Client:   c,
		Commands: commands.NewCommandRegistry(),
		Logs:     logging.NewService(conn),
		Status:   status.Default(),
		Homeserver: homeserver.NewService(cfg.Homeserver, c, homeserver.NewStore(conn),
			homeserver.WithMinRefresh(cfg.Capabilities.MinRefresh)),
		Members: members.NewStore(conn),
		Drafts:  store,
		History: history.NewService(conn),
	}
	if err := app.identify(ctx); err != nil {
		slog.Warn("could not identify session", "error", err)
	}
	app.Devices = devices.NewManager(c, cfg.UserID, cfg.DeviceID)
	return app, nil
}

// identify fills in the user and device ids the access token belongs to when
// the config does not name them.
func (app *App) identify(ctx context.Context) error {
	if app.Config.UserID != "" && app.Config.DeviceID != "" {
		return nil
	}
	resp, err := app.Client.Whoami(ctx)
	if err != nil {
		return err
	}
	if app.Config.UserID == "" {
		app.Config.UserID = resp.UserID
	}
	if app.Config.DeviceID == "" {
		app.Config.DeviceID = resp.DeviceID
	}
	return nil
}

// Autocompleter returns a completer seeded from the configured rooms, groups,
// members and emoji.
func (app *App) Autocompleter() *autocomplete.Autocompleter {
	cfg := app.Config
	opts := autocomplete.Options{
		Emoji:     cfg.Emoji,
		Commands:  app.Commands,
		Developer: cfg.Developer,
	}
	for _, r := range cfg.Rooms {
		opts.Rooms = append(opts.Rooms, autocomplete.Room(r.ID, r.Alias, r.Name))
	}
	for _, g := range cfg.Groups {
		opts.Groups = append(opts.Groups, autocomplete.Group(g.ID, g.Name))
	}
	for _, m := range cfg.Members {
		opts.Members = append(opts.Members, autocomplete.Member(m.UserID, m.DisplayName))
	}
	return autocomplete.New(opts)
}

// LoadMembers syncs the members of the configured room, falling back to the
// cached list when the homeserver cannot be reached.
func (app *App) LoadMembers(ctx context.Context) ([]autocomplete.Item, error) {
	roomID := app.Config.RoomID
	list, err := members.Sync(ctx, app.Client, app.Members, roomID)
	if err != nil {
		cached, cacheErr := app.Members.List(ctx, roomID)
		if cacheErr != nil || len(cached) == 0 {
			return nil, err
		}
		slog.Warn("using cached members", "room", roomID, "error", err)
		list = cached
	}
	return members.Items(list, app.Config.UserID), nil
}

// RefreshInBackground refreshes the homeserver capabilities without blocking
// startup. Results are reported through the status service.
func (app *App) RefreshInBackground(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	app.cancelFuncsMutex.Lock()
	app.watcherCancelFuncs = append(app.watcherCancelFuncs, cancel)
	app.cancelFuncsMutex.Unlock()

	app.watcherWG.Add(1)
	go func() {
		defer app.watcherWG.Done()
		defer logging.RecoverPanic("capabilities-refresh", nil)

		ctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
		defer cancel()
		if _, err := app.Homeserver.Refresh(ctx, false); err != nil {
			slog.Warn("capabilities refresh failed", "error", err)
			if _, ok := app.Homeserver.Snapshot(); !ok {
				app.Status.Warn(fmt.Sprintf("%s is unreachable", app.Config.Homeserver))
			}
			return
		}
		if !app.Homeserver.IsSupported() {
			app.Status.Warn(fmt.Sprintf("%s does not support the client-server versions this client needs", app.Config.Homeserver))
		}
	}()
}

// Shutdown stops background work and closes draft storage.
func (app *App) Shutdown() {
	app.cancelFuncsMutex.Lock()
	for _, cancel := range app.watcherCancelFuncs {
		cancel()
	}
	app.cancelFuncsMutex.Unlock()
	app.watcherWG.Wait()

	app.Devices.Shutdown()
	app.Logs.Shutdown()
	app.History.Shutdown()
	if err := app.Drafts.Close(); err != nil {
		slog.Error("failed to close drafts", "error", err)
	}
}
