package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UsersKey returns the cache key for the full users list.
func (r *CacheKeyStruct) UsersKey() string {
	return "reference:users"
}

// QuestionsKey returns the cache key for the full questions list.
func (r *CacheKeyStruct) QuestionsKey() string {
	return "reference:questions"
}

// SessionMonitorChannel returns the Redis PubSub channel for a session's
// observer stream.
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:monitor", sessionID)
}

// SnapshotRetryQueue is the Redis list holding save snapshots that failed to
// reach PostgreSQL and are waiting for the retry worker.
const SnapshotRetryQueue = "persist_sessions_queue"

var CacheKey = NewCacheKeyStruct()
