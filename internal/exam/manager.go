package exam

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ujianku/practice-exam-backend/internal/config"
	"github.com/ujianku/practice-exam-backend/internal/gateway"
	"github.com/ujianku/practice-exam-backend/internal/model"
)

// Manager owns one Controller per live exam session and routes incoming
// intents to it by session id. It also relays state snapshots to the Redis
// monitor channel so observers can watch a run.
type Manager struct {
	mu          sync.RWMutex
	controllers map[uuid.UUID]*Controller

	gw    gateway.Gateway
	rdb   *redis.Client
	retry RetryQueue
	log   zerolog.Logger

	autosaveInterval time.Duration
}

// NewManager creates a Manager. rdb and retry may be nil (no monitor stream,
// no save retries).
func NewManager(gw gateway.Gateway, rdb *redis.Client, retry RetryQueue, autosaveInterval time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		controllers:      make(map[uuid.UUID]*Controller),
		gw:               gw,
		rdb:              rdb,
		retry:            retry,
		log:              log.With().Str("component", "exam_manager").Logger(),
		autosaveInterval: autosaveInterval,
	}
}

// Login creates a fresh controller and runs its login operation. On success
// the controller is registered under its session id.
func (m *Manager) Login(ctx context.Context, name, code string) (*Controller, *model.User, error) {
	c := NewController(m.gw, m.log, Options{
		Publish:          m.publishSnapshot,
		Retry:            m.retry,
		AutosaveInterval: m.autosaveInterval,
	})

	user, err := c.Login(ctx, name, code)
	if err != nil {
		c.Close()
		return nil, nil, err
	}

	m.mu.Lock()
	m.controllers[c.SessionID()] = c
	m.mu.Unlock()

	return c, user, nil
}

// Get returns the controller for a session id, or nil.
func (m *Manager) Get(sessionID uuid.UUID) *Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controllers[sessionID]
}

// CloseAll tears down every live controller. Called on shutdown so running
// timers flush their final interval.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	controllers := make([]*Controller, 0, len(m.controllers))
	for _, c := range m.controllers {
		controllers = append(controllers, c)
	}
	m.controllers = make(map[uuid.UUID]*Controller)
	m.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
	m.log.Info().Int("count", len(controllers)).Msg("All controllers closed")
}

// publishSnapshot pushes a state snapshot onto the session's monitor
// channel. Best effort.
func (m *Manager) publishSnapshot(snap StateSnapshot) {
	if m.rdb == nil || snap.SessionID == uuid.Nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		m.log.Error().Err(err).Msg("Snapshot encode failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	channel := config.CacheKey.SessionMonitorChannel(snap.SessionID.String())
	if err := m.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		m.log.Warn().Err(err).Str("channel", channel).Msg("Monitor publish failed")
	}
}
