package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/tkb/internal/platform/cache"
)

// Hash field names. They match the keys the browser app keeps in local
// storage so a dump can be moved between the two.
const (
	fieldData              = "data"
	fieldByWeek            = "byWeek"
	fieldWeek              = "week"
	fieldShowOnlyAvailable = "showOnlyAvailable"
	fieldOnlyToday         = "onlyToday"
	fieldAutoFit           = "autoFit"
	fieldHidePanel         = "hidePanel"
	fieldUpdatedAt         = "updatedAt"
)

// RedisStore keeps each state in a Redis hash.
type RedisStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store. A positive ttl expires states
// that have not been saved for that long.
func NewRedisStore(c *cache.Cache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.cache.Key("state", id)
}

func (s *RedisStore) Load(ctx context.Context, id string) (State, error) {
	fields, err := s.cache.Client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return State{}, fmt.Errorf("loading state: %w", err)
	}
	return fromFields(fields), nil
}

func (s *RedisStore) Save(ctx context.Context, id string, st State) error {
	key := s.key(id)
	_, err := s.cache.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.write(ctx, pipe, key, st)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// maxUpdateAttempts bounds optimistic retries when other writers keep
// changing the same hash.
const maxUpdateAttempts = 100

// Update applies fn under WATCH so that concurrent writers on any instance
// cannot overwrite each other. The transaction is retried when the hash
// changes between read and write.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	key := s.key(id)

	var out State
	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("loading state: %w", err)
		}
		st := fromFields(fields)
		if err := fn(&st); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.write(ctx, pipe, key, st)
			return nil
		})
		if err != nil {
			return err
		}
		out = st
		return nil
	}

	for range maxUpdateAttempts {
		err := s.cache.Client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return State{}, err
		}
	}
	return State{}, fmt.Errorf("saving state: %s changed concurrently %d times", id, maxUpdateAttempts)
}

func (s *RedisStore) write(ctx context.Context, pipe redis.Pipeliner, key string, st State) {
	pipe.HSet(ctx, key, map[string]any{
		fieldData:              st.Data,
		fieldByWeek:            strconv.FormatBool(st.ByWeek),
		fieldWeek:              strconv.Itoa(st.Week),
		fieldShowOnlyAvailable: strconv.FormatBool(st.ShowOnlyAvailable),
		fieldOnlyToday:         strconv.FormatBool(st.OnlyToday),
		fieldAutoFit:           strconv.FormatBool(st.AutoFit),
		fieldHidePanel:         strconv.FormatBool(st.HidePanel),
		fieldUpdatedAt:         st.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// fromFields decodes a hash. An empty hash is a state never saved.
func fromFields(fields map[string]string) State {
	st := Default()
	if len(fields) == 0 {
		return st
	}
	st.Data = fields[fieldData]
	st.ByWeek = fields[fieldByWeek] == "true"
	st.ShowOnlyAvailable = fields[fieldShowOnlyAvailable] == "true"
	st.OnlyToday = fields[fieldOnlyToday] == "true"
	st.AutoFit = fields[fieldAutoFit] == "true"
	st.HidePanel = fields[fieldHidePanel] == "true"
	if w, err := strconv.Atoi(fields[fieldWeek]); err == nil {
		st.Week = w
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt]); err == nil {
		st.UpdatedAt = ts
	}
	st.Normalize()
	return st
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting state: %w", err)
	}
	return nil
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.cache.HealthCheck(ctx)
}
