// Package drafts keeps unsent composer contents per room, pills included.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/text"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
)

const prefix = "drafts/"

type Store struct {
	bucket *blob.Bucket
}

// Open stores drafts as files under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{NoTempDir: true})
	if err != nil {
		return nil, fmt.Errorf("opening draft storage: %w", err)
	}
	return NewStore(bucket), nil
}

func NewStore(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

func (s *Store) Close() error {
	return s.bucket.Close()
}

func key(roomID string) string {
	return prefix + roomID + ".json"
}

// Save writes buf as the draft of roomID. A blank buffer deletes the draft.
func (s *Store) Save(ctx context.Context, roomID string, buf *text.Buffer) error {
	if strings.TrimSpace(buf.String()) == "" {
		return s.Delete(ctx, roomID)
	}

	data, err := autocomplete.EncodeBuffer(buf)
	if err != nil {
		return err
	}
	if err := s.bucket.WriteAll(ctx, key(roomID), data, &blob.WriterOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("saving draft for %s: %w", roomID, err)
	}
	return nil
}

// Load returns the draft of roomID. ok is false when there is none.
func (s *Store) Load(ctx context.Context, roomID string) (buf *text.Buffer, ok bool, err error) {
	data, err := s.bucket.ReadAll(ctx, key(roomID))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return text.NewBuffer(""), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading draft for %s: %w", roomID, err)
	}

	buf, err = autocomplete.DecodeBuffer(data)
	if err != nil {
		return nil, false, fmt.Errorf("decoding draft for %s: %w", roomID, err)
	}
	return buf, true, nil
}

func (s *Store) Delete(ctx context.Context, roomID string) error {
	err := s.bucket.Delete(ctx, key(roomID))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("deleting draft for %s: %w", roomID, err)
	}
	return nil
}

// Rooms lists the rooms that have a draft.
func (s *Store) Rooms(ctx context.Context) ([]string, error) {
	var rooms []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), ".json"))
	}
	return rooms, nil
}
