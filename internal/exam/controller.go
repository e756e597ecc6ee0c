package exam

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ujianku/practice-exam-backend/internal/gateway"
	"github.com/ujianku/practice-exam-backend/internal/model"
)

// saveTimeout bounds a single best-effort UpdateSession call.
const saveTimeout = 10 * time.Second

// saveQueueSize is the dispatcher buffer. A full buffer drops the snapshot;
// the next submission or auto-save tick carries strictly newer state.
const saveQueueSize = 16

// RetryQueue receives snapshots whose best-effort save failed, so a worker
// can replay them later. Optional.
type RetryQueue interface {
	Enqueue(ctx context.Context, snap gateway.Snapshot) error
}

// Options tune a Controller. Zero values select production defaults.
type Options struct {
	// Clock overrides time.Now for deterministic tests.
	Clock func() time.Time
	// Cue receives sound cues. Nil disables them.
	Cue func(Cue)
	// Publish receives a state snapshot after every mutation. Nil disables
	// publishing. Called outside the controller lock.
	Publish func(StateSnapshot)
	// Retry receives failed save snapshots. Nil disables retries.
	Retry RetryQueue
	// AutosaveInterval defaults to 30 seconds.
	AutosaveInterval time.Duration
}

// Controller owns one exam run: page transitions, scoring, attempt caps,
// time tracking, and best-effort persistence. All mutations go through its
// methods; local state is authoritative and never waits on the gateway.
type Controller struct {
	mu sync.Mutex

	gw  gateway.Gateway
	log zerolog.Logger

	page     Page
	user     *model.User
	session  *model.Session
	question map[int]model.Question
	order    []int

	current  int
	score    int
	answers  map[int]model.Answer
	attempts map[int]int
	modal    *Modal
	tracker  *TimeTracker

	now     func() time.Time
	cue     func(Cue)
	publish func(StateSnapshot)
	retry   RetryQueue

	autosaveInterval time.Duration
	autosaveStop     chan struct{}

	saves     chan gateway.Snapshot
	saverDone chan struct{}
	closed    bool
}

// NewController creates a controller on the login page.
func NewController(gw gateway.Gateway, log zerolog.Logger, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = 30 * time.Second
	}

	c := &Controller{
		gw:               gw,
		log:              log.With().Str("component", "exam_controller").Logger(),
		page:             PageLogin,
		question:         make(map[int]model.Question),
		answers:          make(map[int]model.Answer),
		attempts:         make(map[int]int),
		tracker:          NewTimeTracker(opts.Clock),
		now:              opts.Clock,
		cue:              opts.Cue,
		publish:          opts.Publish,
		retry:            opts.Retry,
		autosaveInterval: opts.AutosaveInterval,
		saves:            make(chan gateway.Snapshot, saveQueueSize),
		saverDone:        make(chan struct{}),
	}
	go c.saver()
	return c
}

// Login matches name and code against the user list. The code must equal the
// user's id exactly, string equality with no normalization. On success it
// creates the remote session record and moves to the welcome page. On any
// failure no state changes and no session is considered started.
func (c *Controller) Login(ctx context.Context, name, code string) (*model.User, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.page != PageLogin {
		c.mu.Unlock()
		return nil, ErrWrongPage
	}
	c.mu.Unlock()

	// Gateway calls happen outside the lock; nothing else can mutate a
	// controller that is still on the login page.
	users, err := c.gw.FetchUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	var matched *model.User
	for i := range users {
		if users[i].Name == name {
			matched = &users[i]
			break
		}
	}
	if matched == nil || matched.ID != code {
		return nil, ErrLoginMismatch
	}

	questions, err := c.gw.FetchQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	session, err := c.gw.CreateSession(ctx, matched.ID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.mu.Lock()
	c.user = matched
	c.session = session
	for _, q := range questions {
		c.question[q.ID] = q
		c.order = append(c.order, q.ID)
	}
	c.page = PageWelcome
	snap := c.stateLocked()
	c.mu.Unlock()

	c.log.Info().
		Str("user_id", matched.ID).
		Str("session_id", session.ID.String()).
		Str("experimental_code", matched.ExperimentalCode).
		Msg("Participant logged in")

	c.notify(snap)
	return matched, nil
}

// StartExam moves from welcome to the exam page, starts the timer for
// question 1 and the auto-save loop.
func (c *Controller) StartExam() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.page != PageWelcome {
		c.mu.Unlock()
		return ErrWrongPage
	}

	c.page = PageExam
	c.current = 1
	c.tracker.Start(1)
	c.autosaveStop = make(chan struct{})
	go c.autosave(c.autosaveStop)
	snap := c.stateLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// SwitchQuestion makes questionID the active question. Switching to the
// current question is a no-op. Navigation is never blocked by answer state.
func (c *Controller) SwitchQuestion(questionID int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.page != PageExam {
		c.mu.Unlock()
		return ErrWrongPage
	}
	if _, ok := c.question[questionID]; !ok {
		c.mu.Unlock()
		return ErrUnknownQuestion
	}
	if questionID == c.current {
		c.mu.Unlock()
		return nil
	}

	c.playCue(CueClick)
	c.tracker.Stop(c.current)
	c.current = questionID
	c.tracker.Start(questionID)
	snap := c.stateLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// SubmitAnswer submits optionIndex for the current question. A question with
// a finalized answer record or two used attempts is locked. Every accepted
// submission dispatches a best-effort session update regardless of outcome.
func (c *Controller) SubmitAnswer(optionIndex int) (SubmitResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return SubmitResult{}, ErrClosed
	}
	if c.page != PageExam {
		c.mu.Unlock()
		return SubmitResult{}, ErrWrongPage
	}

	q := c.question[c.current]
	if _, answered := c.answers[c.current]; answered || c.attempts[c.current] >= 2 {
		c.mu.Unlock()
		return SubmitResult{}, ErrQuestionLocked
	}

	isCorrect := optionIndex == q.CorrectAnswer
	newAttempts := c.attempts[c.current] + 1
	c.attempts[c.current] = newAttempts

	var result SubmitResult
	switch {
	case isCorrect:
		c.playCue(CueSuccess)
		answer := model.Answer{OptionIndex: optionIndex, IsCorrect: true, Attempts: newAttempts}
		c.answers[c.current] = answer
		points := c.user.PointsPerCorrect()
		c.score += points
		c.tracker.Stop(c.current)
		c.modal = &Modal{
			Type:        ModalSuccess,
			Description: fmt.Sprintf("Jawaban kamu benar! Selamat kamu mendapatkan %d poin!", points),
		}
		result = SubmitResult{Outcome: OutcomeSuccess, Answer: &answer, PointsAwarded: points}

	case newAttempts == 1:
		c.playCue(CueError)
		c.modal = &Modal{
			Type:        ModalRetry,
			Description: "Yah jawaban kamu kurang tepat. Coba sekali lagi yuk!",
		}
		result = SubmitResult{Outcome: OutcomeRetry, AttemptsLeft: 1}

	default:
		c.playCue(CueError)
		answer := model.Answer{OptionIndex: optionIndex, IsCorrect: false, Attempts: newAttempts}
		c.answers[c.current] = answer
		c.tracker.Stop(c.current)
		c.modal = &Modal{
			Type:        ModalFailed,
			Description: "Jawaban kamu masih kurang tepat, tapi kamu tetap hebat kok. Coba soal berikutnya yuk!",
		}
		result = SubmitResult{Outcome: OutcomeFailed, Answer: &answer}
	}

	c.dispatchSaveLocked(c.snapshotLocked(nil))
	snap := c.stateLocked()
	c.mu.Unlock()

	c.notify(snap)
	return result, nil
}

// FinishExam opens the finish confirmation prompt. Nothing else changes.
func (c *Controller) FinishExam() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.page != PageExam {
		c.mu.Unlock()
		return ErrWrongPage
	}
	c.modal = &Modal{Type: ModalConfirm, Description: "Kamu yakin mau mengakhiri sesi?"}
	snap := c.stateLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// ConfirmFinish ends the exam: stops the active timer, dispatches a final
// update carrying the end time, and moves to the complete page.
func (c *Controller) ConfirmFinish() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.page != PageExam {
		c.mu.Unlock()
		return ErrWrongPage
	}

	c.playCue(CueFinish)
	c.tracker.Stop(c.current)

	end := c.now()
	c.dispatchSaveLocked(c.snapshotLocked(&end))

	c.page = PageComplete
	c.modal = nil
	c.stopAutosaveLocked()
	snap := c.stateLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// CloseModal dismisses the current modal. Declining the finish prompt goes
// through here and changes nothing else.
func (c *Controller) CloseModal() {
	c.mu.Lock()
	c.modal = nil
	snap := c.stateLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// State returns a consistent snapshot of the controller.
func (c *Controller) State() StateSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Paper returns the questions without correct answers, in order.
func (c *Controller) Paper() []model.PaperQuestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	paper := make([]model.PaperQuestion, 0, len(c.order))
	for _, id := range c.order {
		q := c.question[id]
		paper = append(paper, q.Paper())
	}
	return paper
}

// Session returns a copy of the remote session record created at login, or
// nil before login.
func (c *Controller) Session() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	return &cp
}

// SessionID returns the remote session id, or uuid.Nil before login.
func (c *Controller) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return uuid.Nil
	}
	return c.session.ID
}

// Close tears the controller down: a running timer is stopped exactly once
// so the final interval is not lost, the auto-save loop and the save
// dispatcher stop. A final snapshot is flushed if a session exists.
// Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopAutosaveLocked()

	if _, running := c.tracker.Running(); running {
		c.tracker.Stop(c.current)
	}
	if c.session != nil {
		c.dispatchSaveLocked(c.snapshotLocked(nil))
	}
	close(c.saves)
	c.mu.Unlock()

	<-c.saverDone
}

// ─── Internal ───────────────────────────────────────────────────────────────

// snapshotLocked builds the partial update to persist: current score, full
// answers map, full time-tracking map, optional end time. Caller holds mu.
func (c *Controller) snapshotLocked(endTime *time.Time) gateway.Snapshot {
	score := c.score
	answers := make(map[int]model.Answer, len(c.answers))
	for k, v := range c.answers {
		answers[k] = v
	}
	return gateway.Snapshot{
		SessionID: c.session.ID,
		Update: model.SessionUpdate{
			Score:        &score,
			Answers:      answers,
			TimeTracking: c.tracker.Snapshot(),
			EndTime:      endTime,
		},
	}
}

// stateLocked builds a StateSnapshot. Caller holds mu.
func (c *Controller) stateLocked() StateSnapshot {
	snap := StateSnapshot{
		Page:            c.page,
		CurrentQuestion: c.current,
		Score:           c.score,
		Answers:         make(map[int]model.Answer, len(c.answers)),
		Attempts:        make(map[int]int, len(c.attempts)),
		TimeTracking:    c.tracker.Snapshot(),
		Modal:           c.modal,
	}
	if c.session != nil {
		snap.SessionID = c.session.ID
	}
	if c.user != nil {
		u := *c.user
		snap.User = &u
	}
	for k, v := range c.answers {
		snap.Answers[k] = v
	}
	for k, v := range c.attempts {
		snap.Attempts[k] = v
	}
	for _, id := range c.order {
		status := QuestionStatus{ID: id, AttemptsUsed: c.attempts[id]}
		if a, ok := c.answers[id]; ok {
			status.Answered = true
			correct := a.IsCorrect
			status.IsCorrect = &correct
		}
		status.CanAnswer = !status.Answered && status.AttemptsUsed < 2
		snap.Questions = append(snap.Questions, status)
	}
	return snap
}

// dispatchSaveLocked hands a snapshot to the saver goroutine without
// blocking. Caller holds mu, which also guarantees no send can race the
// channel close in Close.
func (c *Controller) dispatchSaveLocked(snap gateway.Snapshot) {
	select {
	case c.saves <- snap:
	default:
		c.log.Warn().
			Str("session_id", snap.SessionID.String()).
			Msg("Save queue full, dropping snapshot")
	}
}

// saver serializes all best-effort saves for this controller. Ordered
// dispatch means a stored score can never regress behind local state.
func (c *Controller) saver() {
	defer close(c.saverDone)
	for snap := range c.saves {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		_, err := c.gw.UpdateSession(ctx, snap.SessionID, snap.Update)
		cancel()
		if err == nil {
			continue
		}
		c.log.Error().Err(err).
			Str("session_id", snap.SessionID.String()).
			Msg("Session save failed")
		if c.retry != nil {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			if qerr := c.retry.Enqueue(ctx, snap); qerr != nil {
				c.log.Error().Err(qerr).Msg("Retry enqueue failed")
			}
			cancel()
		}
	}
}

// autosave dispatches a snapshot every interval while the exam page is
// active. stop is closed when leaving the exam page or on Close.
func (c *Controller) autosave(stop chan struct{}) {
	ticker := time.NewTicker(c.autosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.closed || c.page != PageExam || c.session == nil {
				c.mu.Unlock()
				continue
			}
			save := c.snapshotLocked(nil)
			c.dispatchSaveLocked(save)
			c.mu.Unlock()

			c.log.Debug().
				Str("session_id", save.SessionID.String()).
				Msg("Auto-saved session data")
		}
	}
}

// stopAutosaveLocked cancels the auto-save loop if running. Caller holds mu.
func (c *Controller) stopAutosaveLocked() {
	if c.autosaveStop != nil {
		close(c.autosaveStop)
		c.autosaveStop = nil
	}
}

func (c *Controller) playCue(cue Cue) {
	if c.cue != nil {
		c.cue(cue)
	}
}

// notify publishes a state snapshot outside the lock.
func (c *Controller) notify(snap StateSnapshot) {
	if c.publish != nil {
		c.publish(snap)
	}
}
