// README: Session store backed by Redis JSON documents with a sliding TTL.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

func stateKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", sessionID)
}

type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(redis *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{redis: redis, ttl: ttl}
}

func (s *Store) Load(ctx context.Context, sessionID string) (*State, error) {
	raw, err := s.redis.Get(ctx, stateKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &State{SessionID: sessionID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrStore, sessionID, err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrStore, sessionID, err)
	}
	st.SessionID = sessionID
	return &st, nil
}

func (s *Store) Save(ctx context.Context, st *State) error {
	if st == nil || st.SessionID == "" {
		return fmt.Errorf("%w: missing session id", ErrStore)
	}
	st.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrStore, st.SessionID, err)
	}
	if err := s.redis.Set(ctx, stateKey(st.SessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrStore, st.SessionID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, stateKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrStore, sessionID, err)
	}
	return nil
}
