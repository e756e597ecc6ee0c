package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ujianku/practice-exam-backend/internal/config"
	"github.com/ujianku/practice-exam-backend/internal/gateway"
)

// RetryQueue pushes failed save snapshots onto the Redis retry list. It is
// the production implementation of the controller's retry hook.
type RetryQueue struct {
	rdb *redis.Client
}

// NewRetryQueue creates a RetryQueue.
func NewRetryQueue(rdb *redis.Client) *RetryQueue {
	return &RetryQueue{rdb: rdb}
}

// Enqueue appends the snapshot to the retry list.
func (q *RetryQueue) Enqueue(ctx context.Context, snap gateway.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.SnapshotRetryQueue, payload).Err()
}

// SnapshotWorker consumes the retry list and replays session updates against
// the store. Local exam state never depends on it; it only narrows the
// window in which a crashed backend loses progress records.
type SnapshotWorker struct {
	gw  gateway.Gateway
	rdb *redis.Client
	log zerolog.Logger
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(gw gateway.Gateway, rdb *redis.Client, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		gw:  gw,
		rdb: rdb,
		log: log.With().Str("component", "snapshot_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SnapshotWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.SnapshotRetryQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	if err := w.replay(ctx, []byte(result[1])); err != nil {
		w.log.Error().Err(err).Msg("Replay error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.SnapshotRetryQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *SnapshotWorker) replay(ctx context.Context, raw []byte) error {
	var snap gateway.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// Poison message; drop it rather than loop forever.
		w.log.Error().Err(err).Msg("Unmarshal error, dropping item")
		return nil
	}

	_, err := w.gw.UpdateSession(ctx, snap.SessionID, snap.Update)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *SnapshotWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.SnapshotRetryQueue).Result()
		if err != nil {
			break
		}

		if err := w.replay(ctx, []byte(result)); err != nil {
			w.log.Error().Err(err).Msg("Drain replay error")
			w.rdb.RPush(ctx, config.SnapshotRetryQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
