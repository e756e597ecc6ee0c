package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ujianku/practice-exam-backend/internal/model"
)

// MemoryGateway is an in-memory Gateway used by unit tests and local
// development without a database. It honors the same partial-update and
// last-write-wins semantics as the Postgres implementation.
type MemoryGateway struct {
	mu        sync.Mutex
	users     []model.User
	questions []model.Question
	sessions  map[uuid.UUID]*model.Session

	// FailCreate and FailUpdate inject gateway failures for tests.
	FailCreate error
	FailUpdate error
}

// NewMemoryGateway creates a MemoryGateway preloaded with the given
// reference data.
func NewMemoryGateway(users []model.User, questions []model.Question) *MemoryGateway {
	return &MemoryGateway{
		users:     users,
		questions: questions,
		sessions:  make(map[uuid.UUID]*model.Session),
	}
}

// FetchUsers returns the preloaded users.
func (g *MemoryGateway) FetchUsers(ctx context.Context) ([]model.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.User, len(g.users))
	copy(out, g.users)
	return out, nil
}

// FetchQuestions returns the preloaded questions.
func (g *MemoryGateway) FetchQuestions(ctx context.Context) ([]model.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.Question, len(g.questions))
	copy(out, g.questions)
	return out, nil
}

// CreateSession stores and returns a fresh session for the user.
func (g *MemoryGateway) CreateSession(ctx context.Context, userID string) (*model.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCreate != nil {
		return nil, wrap("create session", g.FailCreate)
	}

	s := &model.Session{
		ID:           uuid.New(),
		UserID:       userID,
		StartTime:    time.Now(),
		Answers:      map[int]model.Answer{},
		TimeTracking: map[int]model.QuestionTime{},
	}
	g.sessions[s.ID] = s
	return copySession(s), nil
}

// UpdateSession applies non-nil fields of upd to the stored session.
func (g *MemoryGateway) UpdateSession(ctx context.Context, sessionID uuid.UUID, upd model.SessionUpdate) (*model.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailUpdate != nil {
		return nil, wrap("update session", g.FailUpdate)
	}

	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, wrap("update session", ErrSessionNotFound)
	}

	if upd.Score != nil {
		s.Score = *upd.Score
	}
	if upd.Answers != nil {
		s.Answers = copyAnswers(upd.Answers)
	}
	if upd.TimeTracking != nil {
		s.TimeTracking = copyTimeTracking(upd.TimeTracking)
	}
	if upd.EndTime != nil {
		t := *upd.EndTime
		s.EndTime = &t
	}
	return copySession(s), nil
}

// Session returns a copy of the stored session, or nil if absent. Test
// helper, not part of the Gateway interface.
func (g *MemoryGateway) Session(sessionID uuid.UUID) *model.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return nil
	}
	return copySession(s)
}

func copySession(s *model.Session) *model.Session {
	out := *s
	out.Answers = copyAnswers(s.Answers)
	out.TimeTracking = copyTimeTracking(s.TimeTracking)
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	return &out
}

func copyAnswers(in map[int]model.Answer) map[int]model.Answer {
	out := make(map[int]model.Answer, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyTimeTracking(in map[int]model.QuestionTime) map[int]model.QuestionTime {
	out := make(map[int]model.QuestionTime, len(in))
	for k, v := range in {
		sessions := make([]model.TimeSlice, len(v.Sessions))
		copy(sessions, v.Sessions)
		v.Sessions = sessions
		out[k] = v
	}
	return out
}
