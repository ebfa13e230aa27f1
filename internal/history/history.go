// Package history remembers the messages sent from the composer so they can
// be recalled with the arrow keys across sessions.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/pubsub"
	"github.com/riotx/riotx/internal/text"
)

// MaxEntries is how many messages are kept per room.
const MaxEntries = 100

type Entry struct {
	ID        string
	RoomID    string
	EventID   string
	Buffer    *text.Buffer
	CreatedAt time.Time
}

type Service struct {
	*pubsub.Broker[Entry]
	db  *sql.DB
	now func() time.Time
	mu  sync.Mutex
}

func NewService(db *sql.DB) *Service {
	return &Service{
		Broker: pubsub.NewBroker[Entry](),
		db:     db,
		now:    time.Now,
	}
}

// Add records buf as sent to roomID and drops the oldest entries beyond
// MaxEntries.
func (s *Service) Add(ctx context.Context, roomID, eventID string, buf *text.Buffer) (Entry, error) {
	content, err := autocomplete.EncodeBuffer(buf)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding message: %w", err)
	}
	entry := Entry{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventID:   eventID,
		Buffer:    buf.Clone(),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("failed to rollback history transaction", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sent_messages (id, room_id, event_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, roomID, eventID, string(content), entry.CreatedAt.UnixNano()); err != nil {
		return Entry{}, fmt.Errorf("inserting history entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM sent_messages WHERE room_id = ? AND id NOT IN (
	SELECT id FROM sent_messages WHERE room_id = ? ORDER BY created_at DESC LIMIT ?
)`, roomID, roomID, MaxEntries); err != nil {
		return Entry{}, fmt.Errorf("trimming history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.Publish(pubsub.Created, entry)
	return entry, nil
}

// List returns the newest limit entries of roomID, oldest first. Entries that
// cannot be decoded are skipped.
func (s *Service) List(ctx context.Context, roomID string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, event_id, content, created_at
FROM (SELECT * FROM sent_messages WHERE room_id = ? ORDER BY created_at DESC LIMIT ?)
ORDER BY created_at ASC`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       = Entry{RoomID: roomID}
			content string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.EventID, &content, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(0, created)
		e.Buffer, err = autocomplete.DecodeBuffer([]byte(content))
		if err != nil {
			slog.Debug("skipping unreadable history entry", "id", e.ID, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Buffers returns the entries of roomID as buffers, oldest first.
func (s *Service) Buffers(ctx context.Context, roomID string) ([]*text.Buffer, error) {
	entries, err := s.List(ctx, roomID, MaxEntries)
	if err != nil {
		return nil, err
	}
	out := make([]*text.Buffer, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Buffer)
	}
	return out, nil
}

// Clear forgets every message sent to roomID.
func (s *Service) Clear(ctx context.Context, roomID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sent_messages WHERE room_id = ?`, roomID)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.Publish(pubsub.Deleted, Entry{RoomID: roomID})
	return n, nil
}
