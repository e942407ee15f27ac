package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizi-backend/internal/config"
	"github.com/stemsi/quizi-backend/internal/model"
)

// maxSubmitAttempts bounds the optimistic-lock retries of Submit.
const maxSubmitAttempts = 5

// ErrSubmitConflict is returned when Submit keeps losing the WATCH race.
var ErrSubmitConflict = errors.New("session modified concurrently")

// RedisSessionRepository stores each quiz session as one JSON value.
type RedisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewRedisSessionRepository creates a new RedisSessionRepository.
// A zero ttl keeps sessions forever.
func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

// Create stores a new session with SETNX so an id is never overwritten.
func (r *RedisSessionRepository) Create(ctx context.Context, s *model.QuizSession) error {
	if r.rdb == nil {
		return model.ErrStoreNotConnected
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, r.key(s.SessionID), payload, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return model.ErrDuplicateSession
	}
	return nil
}

// GetByID retrieves a session by id.
func (r *RedisSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuizSession, error) {
	if r.rdb == nil {
		return nil, model.ErrStoreNotConnected
	}
	return r.load(ctx, r.rdb, id)
}

// Submit applies a submission under WATCH. If another writer touches the key
// between the read and EXEC the whole read-apply-write is repeated.
func (r *RedisSessionRepository) Submit(ctx context.Context, id uuid.UUID, apply model.SubmitFunc) (*model.QuizSession, error) {
	if r.rdb == nil {
		return nil, model.ErrStoreNotConnected
	}
	key := r.key(id)

	var updated *model.QuizSession
	txf := func(tx *redis.Tx) error {
		current, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}

		sub, err := apply(current.Clone())
		if err != nil {
			return err
		}
		current.Apply(sub, r.now().UTC())

		payload, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		updated = current
		return nil
	}

	for attempt := 0; attempt < maxSubmitAttempts; attempt++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrSubmitConflict
}

// Ping checks the connection.
func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	if r.rdb == nil {
		return model.ErrStoreNotConnected
	}
	return r.rdb.Ping(ctx).Err()
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisSessionRepository) load(ctx context.Context, c getter, id uuid.UUID) (*model.QuizSession, error) {
	raw, err := c.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s model.QuizSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.UserAnswers == nil {
		s.UserAnswers = map[int]string{}
	}
	return &s, nil
}

func (r *RedisSessionRepository) key(id uuid.UUID) string {
	return config.CacheKey.QuizSessionKey(id.String())
}
