package exam

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/ujianku/practice-exam-backend/internal/gateway"
	"github.com/ujianku/practice-exam-backend/internal/model"
)

func testUsers() []model.User {
	return []model.User{
		{ID: "7741", Name: "Alya", ExperimentalCode: "A"},
		{ID: "1234", Name: "Budi", ExperimentalCode: "B"},
	}
}

// testQuestions builds ten questions. Question 3's correct answer is index
// 2; all others use index 0.
func testQuestions() []model.Question {
	questions := make([]model.Question, 0, model.QuestionCount)
	for i := 1; i <= model.QuestionCount; i++ {
		q := model.Question{
			ID:            i,
			Question:      fmt.Sprintf("Soal %d", i),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: 0,
		}
		if i == 3 {
			q.CorrectAnswer = 2
		}
		questions = append(questions, q)
	}
	return questions
}

func newTestController(t *testing.T, gw gateway.Gateway, clock *fakeClock) *Controller {
	t.Helper()
	c := NewController(gw, zerolog.Nop(), Options{
		Clock:            clock.Now,
		AutosaveInterval: time.Hour, // Effectively disabled unless a test shortens it.
	})
	t.Cleanup(c.Close)
	return c
}

// loginAndStart brings a controller to the exam page as user name.
func loginAndStart(t *testing.T, c *Controller, name, code string) {
	t.Helper()
	if _, err := c.Login(context.Background(), name, code); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := c.StartExam(); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLogin(t *testing.T) {
	cases := []struct {
		name    string
		user    string
		code    string
		wantErr error
	}{
		{"exact match succeeds", "Alya", "7741", nil},
		{"wrong code fails", "Alya", "0000", ErrLoginMismatch},
		{"unknown name fails", "Citra", "7741", ErrLoginMismatch},
		{"code of another user fails", "Alya", "1234", ErrLoginMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
			c := newTestController(t, gw, newFakeClock())

			user, err := c.Login(context.Background(), tc.user, tc.code)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Login error = %v, want %v", err, tc.wantErr)
				}
				if c.State().Page != PageLogin {
					t.Fatal("failed login must not change state")
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if user.ID != tc.code {
				t.Fatalf("user.ID = %q, want %q", user.ID, tc.code)
			}
			if c.State().Page != PageWelcome {
				t.Fatalf("page = %q, want welcome", c.State().Page)
			}
			if gw.Session(c.SessionID()) == nil {
				t.Fatal("successful login must create a remote session")
			}
		})
	}
}

func TestLogin_GatewayFailure(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	gw.FailCreate = errors.New("store down")
	c := newTestController(t, gw, newFakeClock())

	_, err := c.Login(context.Background(), "Alya", "7741")
	if err == nil {
		t.Fatal("expected error")
	}
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("error = %v, want *gateway.Error", err)
	}
	if c.State().Page != PageLogin {
		t.Fatal("no session is considered started after a create failure")
	}
}

func TestSubmitAnswer_CorrectFirstAttempt(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())
	loginAndStart(t, c, "Alya", "7741")

	result, err := c.SubmitAnswer(0)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %q, want success", result.Outcome)
	}
	if result.PointsAwarded != 10 {
		t.Fatalf("points = %d, want 10 for experimental code A", result.PointsAwarded)
	}
	if result.Answer.Attempts != 1 {
		t.Fatalf("recorded attempts = %d, want 1", result.Answer.Attempts)
	}

	state := c.State()
	if state.Score != 10 {
		t.Fatalf("score = %d, want 10", state.Score)
	}
	if state.Modal == nil || state.Modal.Type != ModalSuccess {
		t.Fatal("success modal expected")
	}
}

func TestSubmitAnswer_VariantBScoresOnePoint(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())
	loginAndStart(t, c, "Budi", "1234")

	result, err := c.SubmitAnswer(0)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if result.PointsAwarded != 1 {
		t.Fatalf("points = %d, want 1 for non-A code", result.PointsAwarded)
	}
	if c.State().Score != 1 {
		t.Fatalf("score = %d, want 1", c.State().Score)
	}
}

// Second-attempt success still awards full points and records two attempts.
func TestSubmitAnswer_SecondAttemptSuccess(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())
	loginAndStart(t, c, "Alya", "7741")

	if err := c.SwitchQuestion(3); err != nil {
		t.Fatalf("SwitchQuestion: %v", err)
	}

	result, err := c.SubmitAnswer(1)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if result.Outcome != OutcomeRetry {
		t.Fatalf("outcome = %q, want retry", result.Outcome)
	}
	if result.AttemptsLeft != 1 {
		t.Fatalf("attempts left = %d, want 1", result.AttemptsLeft)
	}

	state := c.State()
	if _, answered := state.Answers[3]; answered {
		t.Fatal("no answer record may exist after a first wrong attempt")
	}
	if state.Attempts[3] != 1 {
		t.Fatalf("attempts = %d, want 1", state.Attempts[3])
	}

	result, err = c.SubmitAnswer(2)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %q, want success", result.Outcome)
	}
	answer := c.State().Answers[3]
	if !answer.IsCorrect || answer.OptionIndex != 2 || answer.Attempts != 2 {
		t.Fatalf("answer = %+v, want {2 true 2}", answer)
	}
	if c.State().Score != 10 {
		t.Fatalf("score = %d, want 10", c.State().Score)
	}
}

func TestSubmitAnswer_TwoWrongAttemptsLockQuestion(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())
	loginAndStart(t, c, "Alya", "7741")

	if err := c.SwitchQuestion(5); err != nil {
		t.Fatalf("SwitchQuestion: %v", err)
	}

	result, err := c.SubmitAnswer(1)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if result.Outcome != OutcomeRetry {
		t.Fatalf("first outcome = %q, want retry", result.Outcome)
	}

	result, err = c.SubmitAnswer(1)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if result.Outcome != OutcomeFailed {
		t.Fatalf("second outcome = %q, want failed", result.Outcome)
	}
	answer := c.State().Answers[5]
	if answer.IsCorrect || answer.OptionIndex != 1 || answer.Attempts != 2 {
		t.Fatalf("answer = %+v, want {1 false 2}", answer)
	}

	if _, err := c.SubmitAnswer(0); !errors.Is(err, ErrQuestionLocked) {
		t.Fatalf("third submit error = %v, want ErrQuestionLocked", err)
	}
	if c.State().Score != 0 {
		t.Fatalf("score = %d, want 0", c.State().Score)
	}
	if c.State().Attempts[5] != 2 {
		t.Fatalf("attempts = %d, want 2 after rejection", c.State().Attempts[5])
	}
}

func TestSubmitAnswer_AnsweredQuestionIsLocked(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())
	loginAndStart(t, c, "Alya", "7741")

	if _, err := c.SubmitAnswer(0); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if _, err := c.SubmitAnswer(0); !errors.Is(err, ErrQuestionLocked) {
		t.Fatalf("resubmit error = %v, want ErrQuestionLocked", err)
	}
	if c.State().Score != 10 {
		t.Fatal("score must not change on a rejected submission")
	}
}

func TestScore_AccumulatesAndNeverDecreases(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())
	loginAndStart(t, c, "Alya", "7741")

	correct := 0
	for id := 1; id <= model.QuestionCount; id++ {
		if err := c.SwitchQuestion(id); err != nil && id != 1 {
			t.Fatalf("SwitchQuestion(%d): %v", id, err)
		}
		option := 0
		if id == 3 {
			option = 2
		}
		if id%2 == 0 {
			// Burn both attempts on wrong answers for even questions.
			c.SubmitAnswer(3)
			c.SubmitAnswer(3)
		} else {
			if _, err := c.SubmitAnswer(option); err != nil {
				t.Fatalf("SubmitAnswer(%d): %v", id, err)
			}
			correct++
		}
		if c.State().Score != correct*10 {
			t.Fatalf("score = %d after question %d, want %d", c.State().Score, id, correct*10)
		}
	}
}

func TestSwitchQuestion(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	clock := newFakeClock()
	c := newTestController(t, gw, clock)
	loginAndStart(t, c, "Alya", "7741")

	// Same question is a no-op: the running interval is not split.
	clock.Advance(2 * time.Second)
	if err := c.SwitchQuestion(1); err != nil {
		t.Fatalf("SwitchQuestion(1): %v", err)
	}
	if sessions := c.State().TimeTracking[1].Sessions; len(sessions) != 0 {
		t.Fatalf("no-op switch must not close the interval, got %d sessions", len(sessions))
	}

	if err := c.SwitchQuestion(99); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("SwitchQuestion(99) error = %v, want ErrUnknownQuestion", err)
	}

	// Locked questions can still be navigated to.
	c.SubmitAnswer(3)
	c.SubmitAnswer(3)
	if err := c.SwitchQuestion(2); err != nil {
		t.Fatalf("SwitchQuestion(2): %v", err)
	}
	if err := c.SwitchQuestion(1); err != nil {
		t.Fatalf("switch back to locked question: %v", err)
	}
	if c.State().CurrentQuestion != 1 {
		t.Fatalf("current = %d, want 1", c.State().CurrentQuestion)
	}
}

// End-to-end timing: 12s on question 1, switch to question 2, answer it
// after 3s, confirm finish.
func TestTimingScenario(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	clock := newFakeClock()
	c := newTestController(t, gw, clock)
	loginAndStart(t, c, "Alya", "7741")

	clock.Advance(12 * time.Second)
	if err := c.SwitchQuestion(2); err != nil {
		t.Fatalf("SwitchQuestion: %v", err)
	}
	clock.Advance(3 * time.Second)
	if _, err := c.SubmitAnswer(0); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	if err := c.FinishExam(); err != nil {
		t.Fatalf("FinishExam: %v", err)
	}
	if err := c.ConfirmFinish(); err != nil {
		t.Fatalf("ConfirmFinish: %v", err)
	}

	state := c.State()
	if state.Page != PageComplete {
		t.Fatalf("page = %q, want complete", state.Page)
	}
	if got := state.TimeTracking[1].TotalTime; got != 12000 {
		t.Fatalf("q1 TotalTime = %d, want 12000", got)
	}
	if got := state.TimeTracking[2].TotalTime; got != 3000 {
		t.Fatalf("q2 TotalTime = %d, want 3000", got)
	}

	c.Close() // Flush pending saves.
	stored := gw.Session(c.SessionID())
	if stored.EndTime == nil {
		t.Fatal("final update must carry the end time")
	}
	if stored.Score != 10 {
		t.Fatalf("stored score = %d, want 10", stored.Score)
	}
	if got := stored.TimeTracking[1].TotalTime; got != 12000 {
		t.Fatalf("stored q1 TotalTime = %d, want 12000", got)
	}
}

func TestFinishExam_DeclineKeepsState(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())
	loginAndStart(t, c, "Alya", "7741")

	if err := c.FinishExam(); err != nil {
		t.Fatalf("FinishExam: %v", err)
	}
	state := c.State()
	if state.Modal == nil || state.Modal.Type != ModalConfirm {
		t.Fatal("confirmation modal expected")
	}
	if state.Page != PageExam {
		t.Fatal("FinishExam alone must not leave the exam page")
	}

	c.CloseModal()
	state = c.State()
	if state.Modal != nil {
		t.Fatal("modal should be dismissed")
	}
	if state.Page != PageExam {
		t.Fatal("declining must not change the page")
	}
	if _, err := c.SubmitAnswer(0); err != nil {
		t.Fatalf("answering after decline: %v", err)
	}
}

func TestOperationsRejectedOffExamPage(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())

	if err := c.StartExam(); !errors.Is(err, ErrWrongPage) {
		t.Fatalf("StartExam before login = %v, want ErrWrongPage", err)
	}
	if _, err := c.SubmitAnswer(0); !errors.Is(err, ErrWrongPage) {
		t.Fatalf("SubmitAnswer before exam = %v, want ErrWrongPage", err)
	}

	loginAndStart(t, c, "Alya", "7741")
	c.FinishExam()
	if err := c.ConfirmFinish(); err != nil {
		t.Fatalf("ConfirmFinish: %v", err)
	}
	if _, err := c.SubmitAnswer(0); !errors.Is(err, ErrWrongPage) {
		t.Fatalf("SubmitAnswer after finish = %v, want ErrWrongPage", err)
	}
	if err := c.SwitchQuestion(2); !errors.Is(err, ErrWrongPage) {
		t.Fatalf("SwitchQuestion after finish = %v, want ErrWrongPage", err)
	}
}

func TestUpdateFailure_LocalProgressContinues(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())
	loginAndStart(t, c, "Alya", "7741")

	gw.FailUpdate = errors.New("store down")

	for _, id := range []int{1, 2} {
		if err := c.SwitchQuestion(id); err != nil && id != 1 {
			t.Fatalf("SwitchQuestion: %v", err)
		}
		if _, err := c.SubmitAnswer(0); err != nil {
			t.Fatalf("SubmitAnswer(%d): %v", id, err)
		}
	}

	if c.State().Score != 20 {
		t.Fatalf("score = %d, want 20; local state is authoritative", c.State().Score)
	}
	if err := c.ConfirmFinish(); err != nil {
		t.Fatalf("ConfirmFinish with store down: %v", err)
	}
	if c.State().Page != PageComplete {
		t.Fatal("exam must complete even when saves fail")
	}
}

// Saves are built under the lock and dispatched in order, so the stored
// score can never end up behind the local one.
func TestSaves_ScoreNeverRegresses(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := newTestController(t, gw, newFakeClock())
	loginAndStart(t, c, "Alya", "7741")

	for id := 1; id <= model.QuestionCount; id++ {
		c.SwitchQuestion(id)
		option := 0
		if id == 3 {
			option = 2
		}
		if _, err := c.SubmitAnswer(option); err != nil {
			t.Fatalf("SubmitAnswer(%d): %v", id, err)
		}
	}

	local := c.State().Score
	c.Close() // Flush the save queue.

	stored := gw.Session(c.SessionID())
	if stored.Score != local {
		t.Fatalf("stored score = %d, local = %d", stored.Score, local)
	}
	if len(stored.Answers) != model.QuestionCount {
		t.Fatalf("stored answers = %d, want %d", len(stored.Answers), model.QuestionCount)
	}
}

func TestAutosave_PersistsWhileOnExamPage(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	c := NewController(gw, zerolog.Nop(), Options{
		AutosaveInterval: 20 * time.Millisecond,
	})
	defer c.Close()

	if _, err := c.Login(context.Background(), "Alya", "7741"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := c.StartExam(); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	// No submission happens; only the auto-save loop can push the running
	// question 1 tracking record to the store.
	waitFor(t, "autosave tick", func() bool {
		s := gw.Session(c.SessionID())
		_, ok := s.TimeTracking[1]
		return ok
	})
}

func TestClose_StopsRunningTimerOnce(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	clock := newFakeClock()
	c := newTestController(t, gw, clock)
	loginAndStart(t, c, "Alya", "7741")

	clock.Advance(5 * time.Second)
	c.Close()
	c.Close() // Idempotent.

	stored := gw.Session(c.SessionID())
	rec := stored.TimeTracking[1]
	if rec.TotalTime != 5000 {
		t.Fatalf("TotalTime = %d, want 5000", rec.TotalTime)
	}
	if len(rec.Sessions) != 1 {
		t.Fatalf("Sessions = %d, want exactly 1 flushed interval", len(rec.Sessions))
	}
}

func TestSubmitAnswer_CueAndModalPerOutcome(t *testing.T) {
	gw := gateway.NewMemoryGateway(testUsers(), testQuestions())
	var cues []Cue
	c := NewController(gw, zerolog.Nop(), Options{
		Clock:            newFakeClock().Now,
		AutosaveInterval: time.Hour,
		Cue:              func(cue Cue) { cues = append(cues, cue) },
	})
	defer c.Close()

	if _, err := c.Login(context.Background(), "Alya", "7741"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := c.StartExam(); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	c.SubmitAnswer(1) // wrong
	if c.State().Modal.Type != ModalRetry {
		t.Fatalf("modal = %q, want retry", c.State().Modal.Type)
	}
	c.SubmitAnswer(0) // correct on second attempt
	if c.State().Modal.Type != ModalSuccess {
		t.Fatalf("modal = %q, want success", c.State().Modal.Type)
	}
	c.SwitchQuestion(2)

	want := []Cue{CueError, CueSuccess, CueClick}
	if len(cues) != len(want) {
		t.Fatalf("cues = %v, want %v", cues, want)
	}
	for i := range want {
		if cues[i] != want[i] {
			t.Fatalf("cues = %v, want %v", cues, want)
		}
	}
}
