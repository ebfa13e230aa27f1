// Package homeserver keeps a cached view of what the homeserver supports.
package homeserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/riotx/riotx/pkg/client"
	"golang.org/x/sync/errgroup"
)

// DefaultMinRefresh is the minimum delay between two network refreshes.
const DefaultMinRefresh = 8 * time.Hour

// API is the part of the Matrix client the service needs.
type API interface {
	GetCapabilities(ctx context.Context) (*client.Capabilities, error)
	GetVersions(ctx context.Context) (*client.Versions, error)
}

type Service struct {
	homeserver string
	api        API
	store      *Store
	minRefresh time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	current Snapshot
	loaded  bool
}

type Option func(*Service)

// WithMinRefresh overrides DefaultMinRefresh.
func WithMinRefresh(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.minRefresh = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(homeserver string, api API, store *Store, opts ...Option) *Service {
	s := &Service{
		homeserver: homeserver,
		api:        api,
		store:      store,
		minRefresh: DefaultMinRefresh,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches capabilities and versions unless the cached snapshot is
// younger than the minimum refresh delay. force skips that check. It reports
// whether the network was used.
func (s *Service) Refresh(ctx context.Context, force bool) (bool, error) {
	if !force {
		snap, ok, err := s.store.Get(ctx, s.homeserver)
		if err != nil {
			return false, err
		}
		if ok && s.now().Sub(snap.LastUpdated) < s.minRefresh {
			slog.Debug("capabilities are fresh", "homeserver", s.homeserver, "updated", snap.LastUpdated)
			s.set(snap)
			return false, nil
		}
	}

	var (
		caps     *client.Capabilities
		versions *client.Versions
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		caps, err = s.api.GetCapabilities(gctx)
		if err != nil {
			return fmt.Errorf("fetching capabilities: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		versions, err = s.api.GetVersions(gctx)
		if err != nil {
			return fmt.Errorf("fetching versions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return true, err
	}

	snap := Snapshot{
		Homeserver:         s.homeserver,
		CanChangePassword:  caps.CanChangePassword(),
		DefaultRoomVersion: caps.DefaultRoomVersion(),
		Versions:           versions.Versions,
		UnstableFeatures:   versions.UnstableFeatures,
		LastUpdated:        s.now(),
	}
	if err := s.store.Put(ctx, snap); err != nil {
		return true, err
	}
	s.set(snap)
	slog.Info("capabilities refreshed", "homeserver", s.homeserver, "versions", len(snap.Versions))
	return true, nil
}

func (s *Service) set(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
	s.loaded = true
}

// Snapshot returns the last known snapshot. ok is false before the first
// successful Refresh.
func (s *Service) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.loaded
}

// CanChangePassword defaults to true until the server says otherwise.
func (s *Service) CanChangePassword() bool {
	snap, ok := s.Snapshot()
	return !ok || snap.CanChangePassword
}

// DefaultRoomVersion returns the server's default room version, if known.
func (s *Service) DefaultRoomVersion() string {
	snap, _ := s.Snapshot()
	return snap.DefaultRoomVersion
}

// Versions returns the cached versions as a client.Versions value.
func (s *Service) Versions() client.Versions {
	snap, _ := s.Snapshot()
	return client.Versions{Versions: snap.Versions, UnstableFeatures: snap.UnstableFeatures}
}

// IsSupported reports whether this client can work with the homeserver.
func (s *Service) IsSupported() bool {
	return s.Versions().IsSupportedBySDK()
}
