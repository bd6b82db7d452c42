package redis

import (
	"context"
	"fmt"
	"time"
)

// Imported comment ids are kept long enough to survive repeated review
// rounds on the same session.
const importedTTL = 30 * 24 * time.Hour

// DedupeStore remembers which comment ids were already imported into a
// session, backed by one Redis set per session.
type DedupeStore struct {
	rdb *Client
}

// NewDedupeStore creates a Redis-backed dedupe store.
func NewDedupeStore(client *Client) *DedupeStore {
	return &DedupeStore{rdb: client}
}

func importedKey(session string) string {
	return fmt.Sprintf("imported:%s", session)
}

// Seen reports whether the comment id was already imported into the
// session.
func (s *DedupeStore) Seen(ctx context.Context, session, commentID string) (bool, error) {
	ok, err := s.rdb.rdb.SIsMember(ctx, importedKey(session), commentID).Result()
	if err != nil {
		return false, fmt.Errorf("sismember failed: %w", err)
	}
	return ok, nil
}

// MarkImported records the comment id as imported and refreshes the
// set's expiry.
func (s *DedupeStore) MarkImported(ctx context.Context, session, commentID string) error {
	key := importedKey(session)
	if err := s.rdb.rdb.SAdd(ctx, key, commentID).Err(); err != nil {
		return fmt.Errorf("sadd failed: %w", err)
	}
	if err := s.rdb.rdb.Expire(ctx, key, importedTTL).Err(); err != nil {
		return fmt.Errorf("expire failed: %w", err)
	}
	return nil
}
