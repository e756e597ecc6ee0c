package exam

import (
	"errors"

	"github.com/google/uuid"
	"github.com/ujianku/practice-exam-backend/internal/model"
)

// Page enumerates the screens of the exam flow.
type Page string

const (
	PageLogin    Page = "login"
	PageWelcome  Page = "welcome"
	PageExam     Page = "exam"
	PageComplete Page = "complete"
)

// Outcome is the result of one answer submission.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeRetry   Outcome = "retry"
	OutcomeFailed  Outcome = "failed"
)

// Cue names a sound effect the front end may play. Playback itself is the
// presentation layer's business.
type Cue string

const (
	CueClick   Cue = "click"
	CueSuccess Cue = "success"
	CueError   Cue = "error"
	CueFinish  Cue = "finish"
)

// ModalType enumerates the modal dialogs the flow can show.
type ModalType string

const (
	ModalSuccess ModalType = "success"
	ModalRetry   ModalType = "retry"
	ModalFailed  ModalType = "failed"
	ModalConfirm ModalType = "confirm"
)

// Modal is the content of the currently open dialog.
type Modal struct {
	Type        ModalType `json:"type"`
	Description string    `json:"description"`
}

// SubmitResult reports the outcome of a submission back to the caller.
type SubmitResult struct {
	Outcome       Outcome       `json:"outcome"`
	Answer        *model.Answer `json:"answer,omitempty"`
	AttemptsLeft  int           `json:"attempts_left"`
	PointsAwarded int           `json:"points_awarded"`
}

// QuestionStatus is the participant-facing progress of one question.
type QuestionStatus struct {
	ID           int   `json:"id"`
	Answered     bool  `json:"answered"`
	IsCorrect    *bool `json:"is_correct,omitempty"`
	AttemptsUsed int   `json:"attempts_used"`
	CanAnswer    bool  `json:"can_answer"`
}

// StateSnapshot is a consistent copy of the controller state, built under
// the controller lock. The presentation layer renders from it; the monitor
// stream publishes it.
type StateSnapshot struct {
	SessionID       uuid.UUID                  `json:"session_id"`
	Page            Page                       `json:"page"`
	User            *model.User                `json:"user,omitempty"`
	CurrentQuestion int                        `json:"current_question"`
	Score           int                        `json:"score"`
	Questions       []QuestionStatus           `json:"questions"`
	Answers         map[int]model.Answer       `json:"answers"`
	Attempts        map[int]int                `json:"attempts"`
	TimeTracking    map[int]model.QuestionTime `json:"time_tracking"`
	Modal           *Modal                     `json:"modal,omitempty"`
}

// Domain errors surfaced by controller operations.
var (
	ErrLoginMismatch   = errors.New("name and code do not match")
	ErrQuestionLocked  = errors.New("question is locked")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrWrongPage       = errors.New("operation not allowed on current page")
	ErrClosed          = errors.New("controller is closed")
)
