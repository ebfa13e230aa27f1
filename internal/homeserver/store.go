package homeserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Snapshot is the cached view of one homeserver's capabilities and versions.
type Snapshot struct {
	Homeserver         string          `json:"homeserver"`
	CanChangePassword  bool            `json:"canChangePassword"`
	DefaultRoomVersion string          `json:"defaultRoomVersion,omitempty"`
	Versions           []string        `json:"versions"`
	UnstableFeatures   map[string]bool `json:"unstableFeatures,omitempty"`
	LastUpdated        time.Time       `json:"lastUpdated"`
}

// Store persists snapshots in the homeserver_capabilities table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the snapshot for homeserver. ok is false if none is stored.
func (s *Store) Get(ctx context.Context, homeserver string) (snap Snapshot, ok bool, err error) {
	var (
		canChange          int
		versions, unstable string
		updated            int64
	)
	err = s.db.QueryRowContext(ctx, `
SELECT can_change_password, default_room_version, versions, unstable_features, last_updated_at
FROM homeserver_capabilities
WHERE homeserver = ?`, homeserver).Scan(&canChange, &snap.DefaultRoomVersion, &versions, &unstable, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("reading capabilities: %w", err)
	}

	snap.Homeserver = homeserver
	snap.CanChangePassword = canChange != 0
	snap.LastUpdated = time.UnixMilli(updated)
	if err := json.Unmarshal([]byte(versions), &snap.Versions); err != nil {
		return Snapshot{}, false, fmt.Errorf("decoding cached versions: %w", err)
	}
	if err := json.Unmarshal([]byte(unstable), &snap.UnstableFeatures); err != nil {
		return Snapshot{}, false, fmt.Errorf("decoding cached unstable features: %w", err)
	}
	return snap, true, nil
}

// Put inserts or replaces the snapshot for snap.Homeserver.
func (s *Store) Put(ctx context.Context, snap Snapshot) error {
	versions, err := json.Marshal(snap.Versions)
	if err != nil {
		return err
	}
	if snap.UnstableFeatures == nil {
		snap.UnstableFeatures = map[string]bool{}
	}
	unstable, err := json.Marshal(snap.UnstableFeatures)
	if err != nil {
		return err
	}
	canChange := 0
	if snap.CanChangePassword {
		canChange = 1
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO homeserver_capabilities
    (homeserver, can_change_password, default_room_version, versions, unstable_features, last_updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (homeserver) DO UPDATE SET
    can_change_password = excluded.can_change_password,
    default_room_version = excluded.default_room_version,
    versions = excluded.versions,
    unstable_features = excluded.unstable_features,
    last_updated_at = excluded.last_updated_at`,
		snap.Homeserver, canChange, snap.DefaultRoomVersion, string(versions), string(unstable), snap.LastUpdated.UnixMilli())
	if err != nil {
		return fmt.Errorf("writing capabilities: %w", err)
	}
	return nil
}
