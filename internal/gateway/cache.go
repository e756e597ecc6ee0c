package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ujianku/practice-exam-backend/internal/config"
	"github.com/ujianku/practice-exam-backend/internal/model"
)

// CachingGateway wraps another Gateway with a Redis read-through cache for
// the users and questions lists. Both are immutable reference data during an
// exam run, so a stale cache is harmless within the TTL. Writes pass through
// untouched. A Redis failure falls back to the inner gateway.
type CachingGateway struct {
	inner Gateway
	rdb   *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachingGateway creates a CachingGateway around inner.
func NewCachingGateway(inner Gateway, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachingGateway {
	return &CachingGateway{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
		log:   log.With().Str("component", "gateway_cache").Logger(),
	}
}

// FetchUsers returns the cached users list, loading it from the inner
// gateway on a miss.
func (g *CachingGateway) FetchUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if g.readCache(ctx, config.CacheKey.UsersKey(), &users) {
		return users, nil
	}

	users, err := g.inner.FetchUsers(ctx)
	if err != nil {
		return nil, err
	}
	g.writeCache(ctx, config.CacheKey.UsersKey(), users)
	return users, nil
}

// FetchQuestions returns the cached questions list, loading it from the
// inner gateway on a miss.
func (g *CachingGateway) FetchQuestions(ctx context.Context) ([]model.Question, error) {
	var questions []model.Question
	if g.readCache(ctx, config.CacheKey.QuestionsKey(), &questions) {
		return questions, nil
	}

	questions, err := g.inner.FetchQuestions(ctx)
	if err != nil {
		return nil, err
	}
	g.writeCache(ctx, config.CacheKey.QuestionsKey(), questions)
	return questions, nil
}

// CreateSession delegates to the inner gateway.
func (g *CachingGateway) CreateSession(ctx context.Context, userID string) (*model.Session, error) {
	return g.inner.CreateSession(ctx, userID)
}

// UpdateSession delegates to the inner gateway.
func (g *CachingGateway) UpdateSession(ctx context.Context, sessionID uuid.UUID, upd model.SessionUpdate) (*model.Session, error) {
	return g.inner.UpdateSession(ctx, sessionID, upd)
}

func (g *CachingGateway) readCache(ctx context.Context, key string, dst any) bool {
	raw, err := g.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			g.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("Cache decode failed")
		return false
	}
	return true
}

func (g *CachingGateway) writeCache(ctx context.Context, key string, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("Cache encode failed")
		return
	}
	if err := g.rdb.Set(ctx, key, encoded, g.ttl).Err(); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
