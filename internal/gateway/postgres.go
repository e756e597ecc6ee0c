package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ujianku/practice-exam-backend/internal/model"
)

// PostgresGateway implements Gateway on top of a pgx connection pool.
// Answers and time tracking are stored as JSONB documents on the session row.
type PostgresGateway struct {
	pool *pgxpool.Pool
}

// NewPostgresGateway creates a new PostgresGateway.
func NewPostgresGateway(pool *pgxpool.Pool) *PostgresGateway {
	return &PostgresGateway{pool: pool}
}

// FetchUsers retrieves all registered participants.
func (g *PostgresGateway) FetchUsers(ctx context.Context) ([]model.User, error) {
	rows, err := g.pool.Query(ctx,
		`SELECT id, name, experimental_code FROM users ORDER BY name`)
	if err != nil {
		return nil, wrap("fetch users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.ExperimentalCode); err != nil {
			return nil, wrap("fetch users", err)
		}
		users = append(users, u)
	}
	return users, wrap("fetch users", rows.Err())
}

// FetchQuestions retrieves all exam questions ordered by id.
func (g *PostgresGateway) FetchQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := g.pool.Query(ctx,
		`SELECT id, question, options, correct_answer, attachment
		 FROM questions ORDER BY id`)
	if err != nil {
		return nil, wrap("fetch questions", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var (
			q       model.Question
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.Question, &options, &q.CorrectAnswer, &q.Attachment); err != nil {
			return nil, wrap("fetch questions", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, wrap("fetch questions", fmt.Errorf("decode options for question %d: %w", q.ID, err))
		}
		questions = append(questions, q)
	}
	return questions, wrap("fetch questions", rows.Err())
}

// CreateSession inserts a new session row for the user with start_time NOW()
// and returns the stored record.
func (g *PostgresGateway) CreateSession(ctx context.Context, userID string) (*model.Session, error) {
	s := &model.Session{
		UserID:       userID,
		Answers:      map[int]model.Answer{},
		TimeTracking: map[int]model.QuestionTime{},
	}
	err := g.pool.QueryRow(ctx,
		`INSERT INTO user_sessions (user_id) VALUES ($1)
		 RETURNING id, start_time, score`,
		userID,
	).Scan(&s.ID, &s.StartTime, &s.Score)
	if err != nil {
		return nil, wrap("create session", err)
	}
	return s, nil
}

// UpdateSession applies a partial update to a session row. Only non-nil
// fields of upd change; the full updated record is returned. Concurrent
// callers race with last-write-wins semantics, which is all the exam flow
// requires.
func (g *PostgresGateway) UpdateSession(ctx context.Context, sessionID uuid.UUID, upd model.SessionUpdate) (*model.Session, error) {
	set := ""
	args := []any{sessionID}

	addSet := func(column string, value any) {
		args = append(args, value)
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", column, len(args))
	}

	if upd.Score != nil {
		addSet("score", *upd.Score)
	}
	if upd.Answers != nil {
		encoded, err := json.Marshal(upd.Answers)
		if err != nil {
			return nil, wrap("update session", err)
		}
		addSet("answers", encoded)
	}
	if upd.TimeTracking != nil {
		encoded, err := json.Marshal(upd.TimeTracking)
		if err != nil {
			return nil, wrap("update session", err)
		}
		addSet("time_tracking", encoded)
	}
	if upd.EndTime != nil {
		addSet("end_time", *upd.EndTime)
	}
	if set == "" {
		return g.getSession(ctx, sessionID)
	}

	query := `UPDATE user_sessions SET ` + set + `
		WHERE id = $1
		RETURNING id, user_id, start_time, end_time, score, answers, time_tracking`

	return g.scanSession(g.pool.QueryRow(ctx, query, args...))
}

func (g *PostgresGateway) getSession(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	return g.scanSession(g.pool.QueryRow(ctx,
		`SELECT id, user_id, start_time, end_time, score, answers, time_tracking
		 FROM user_sessions WHERE id = $1`, sessionID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (g *PostgresGateway) scanSession(row rowScanner) (*model.Session, error) {
	var (
		s            model.Session
		answers      []byte
		timeTracking []byte
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.Score, &answers, &timeTracking); err != nil {
		return nil, wrap("update session", err)
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, wrap("update session", fmt.Errorf("decode answers: %w", err))
	}
	if err := json.Unmarshal(timeTracking, &s.TimeTracking); err != nil {
		return nil, wrap("update session", fmt.Errorf("decode time tracking: %w", err))
	}
	return &s, nil
}
