// Package members caches each room's joined members for '@' completion.
package members

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/pkg/client"
)

type API interface {
	JoinedMembers(ctx context.Context, roomID string) ([]client.Member, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Replace stores members as the complete member list of roomID.
func (s *Store) Replace(ctx context.Context, roomID string, members []client.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_members WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("clearing members: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO room_members (room_id, user_id, display_name, avatar_url) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, m := range members {
		if _, err := stmt.ExecContext(ctx, roomID, m.UserID, m.DisplayName, m.AvatarURL); err != nil {
			return fmt.Errorf("storing member %s: %w", m.UserID, err)
		}
	}
	return tx.Commit()
}

// List returns the cached members of roomID ordered by user id.
func (s *Store) List(ctx context.Context, roomID string) ([]client.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, display_name, avatar_url FROM room_members WHERE room_id = ? ORDER BY user_id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var out []client.Member
	for rows.Next() {
		var m client.Member
		if err := rows.Scan(&m.UserID, &m.DisplayName, &m.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Sync fetches the joined members of roomID and replaces the cache.
func Sync(ctx context.Context, api API, store *Store, roomID string) ([]client.Member, error) {
	members, err := api.JoinedMembers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("fetching members of %s: %w", roomID, err)
	}
	slices.SortFunc(members, func(a, b client.Member) int { return cmp.Compare(a.UserID, b.UserID) })
	if err := store.Replace(ctx, roomID, members); err != nil {
		return nil, err
	}
	slog.Debug("members synced", "room", roomID, "count", len(members))
	return members, nil
}

// Items converts members to completion items, skipping selfID.
func Items(members []client.Member, selfID string) []autocomplete.Item {
	items := make([]autocomplete.Item, 0, len(members))
	for _, m := range members {
		if m.UserID == selfID {
			continue
		}
		item := autocomplete.Member(m.UserID, m.DisplayName)
		item.AvatarURL = m.AvatarURL
		items = append(items, item)
	}
	return items
}
