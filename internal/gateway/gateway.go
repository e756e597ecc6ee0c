// Package gateway defines the persistence contract the exam controller
// depends on: bulk reads of reference data and create/update of session
// records. Implementations decide where the data actually lives.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ujianku/practice-exam-backend/internal/model"
)

// ErrSessionNotFound is returned when an update targets an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// Gateway is the external store interface for users, questions, and session
// records. Update semantics are partial (nil fields untouched) and
// last-write-wins; concurrent updates to the same session are safe.
type Gateway interface {
	FetchUsers(ctx context.Context) ([]model.User, error)
	FetchQuestions(ctx context.Context) ([]model.Question, error)
	CreateSession(ctx context.Context, userID string) (*model.Session, error)
	UpdateSession(ctx context.Context, sessionID uuid.UUID, upd model.SessionUpdate) (*model.Session, error)
}

// Snapshot pairs a session id with the partial update that should be
// applied to it. It is the unit the exam controller dispatches to the store
// and, on failure, the unit queued for the retry worker.
type Snapshot struct {
	SessionID uuid.UUID           `json:"session_id"`
	Update    model.SessionUpdate `json:"update"`
}

// Error wraps a gateway failure with the operation that caused it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap returns a *Error unless err is nil.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
