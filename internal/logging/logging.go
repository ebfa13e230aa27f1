// Package logging stores log records, streams them to the TUI and sets up
// the slog handlers used by the CLI.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riotx/riotx/internal/pubsub"
)

type Log struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Level      string            `json:"level"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Service persists log records in the logs table and publishes each one.
type Service struct {
	*pubsub.Broker[Log]
	db  *sql.DB
	now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{
		Broker: pubsub.NewBroker[Log](),
		db:     db,
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, log Log) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Level == "" {
		log.Level = "info"
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = s.now()
	}
	log.CreatedAt = s.now()

	var attrs sql.NullString
	if len(log.Attributes) > 0 {
		data, err := json.Marshal(log.Attributes)
		if err != nil {
			return fmt.Errorf("failed to marshal log attributes: %w", err)
		}
		attrs = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (id, timestamp, level, message, attributes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID, log.Timestamp.UnixMilli(), log.Level, log.Message, attrs, log.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("inserting log: %w", err)
	}
	s.Publish(pubsub.Created, log)
	return nil
}

// List returns the newest limit records, oldest first.
func (s *Service) List(ctx context.Context, limit int) ([]Log, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, timestamp, level, message, attributes, created_at
FROM (SELECT * FROM logs ORDER BY timestamp DESC, created_at DESC LIMIT ?)
ORDER BY timestamp ASC, created_at ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var (
			l                  Log
			timestamp, created int64
			attrs              sql.NullString
		)
		if err := rows.Scan(&l.ID, &timestamp, &l.Level, &l.Message, &attrs, &created); err != nil {
			return nil, err
		}
		l.Timestamp = time.UnixMilli(timestamp)
		l.CreatedAt = time.UnixMilli(created)
		l.Attributes = map[string]string{}
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &l.Attributes); err != nil {
				slog.Debug("bad log attributes", "id", l.ID, "error", err)
			}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Prune deletes records older than before.
func (s *Service) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logs WHERE timestamp < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("pruning logs: %w", err)
	}
	return res.RowsAffected()
}
