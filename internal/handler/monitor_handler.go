package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ujianku/practice-exam-backend/internal/config"
	"github.com/ujianku/practice-exam-backend/internal/response"
)

// MonitorHandler streams session state snapshots to observers over
// WebSocket. Each mutation publishes a snapshot to the session's Redis
// channel; this handler relays that channel to connected clients. Used by
// researchers watching an experiment run live.
type MonitorHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler. allowedOrigins empty means
// all origins are accepted (dev default).
func NewMonitorHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb: rdb,
		log: log.With().Str("component", "monitor_handler").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// SessionStream godoc
// GET /ws/v1/sessions/:session_id/monitor
// Upgrades to WebSocket and relays the session's snapshot channel.
func (h *MonitorHandler) SessionStream(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	channel := config.CacheKey.SessionMonitorChannel(sessionID.String())
	sub := h.rdb.Subscribe(c.Request.Context(), channel)
	defer sub.Close()

	h.log.Info().Str("session_id", sessionID.String()).Msg("Observer connected")

	// Read pump: discard client frames, detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		}
	}
}
