package exam

import (
	"time"

	"github.com/ujianku/practice-exam-backend/internal/model"
)

// TimeTracker records how long each question has been the active one. A
// single running anchor enforces that at most one question is timed at a
// time; the controller stops the previous question before starting the next.
//
// TimeTracker is not safe for concurrent use on its own; the owning
// controller serializes access under its lock.
type TimeTracker struct {
	records  map[int]*model.QuestionTime
	activeID int
	anchor   int64 // Unix ms of the running start, 0 when idle
	now      func() time.Time
}

// NewTimeTracker creates a tracker using the given clock.
func NewTimeTracker(now func() time.Time) *TimeTracker {
	return &TimeTracker{
		records: make(map[int]*model.QuestionTime),
		now:     now,
	}
}

// Start records now as the active start time for questionID and makes it the
// single running anchor.
func (t *TimeTracker) Start(questionID int) {
	nowMs := t.now().UnixMilli()
	rec := t.record(questionID)
	start := nowMs
	rec.CurrentStartTime = &start
	activity := nowMs
	rec.LastActivity = &activity
	t.anchor = nowMs
	t.activeID = questionID
}

// Stop closes the running interval and credits it to questionID. A call with
// no running anchor is a no-op.
func (t *TimeTracker) Stop(questionID int) {
	if t.anchor == 0 {
		return
	}
	nowMs := t.now().UnixMilli()
	elapsed := nowMs - t.anchor

	rec := t.record(questionID)
	rec.Sessions = append(rec.Sessions, model.TimeSlice{
		StartTime: t.anchor,
		EndTime:   nowMs,
		Duration:  elapsed,
	})
	rec.TotalTime += elapsed
	end := nowMs
	rec.LastEndTime = &end
	rec.CurrentStartTime = nil

	t.anchor = 0
	t.activeID = 0
}

// Running reports the currently timed question, if any.
func (t *TimeTracker) Running() (int, bool) {
	return t.activeID, t.anchor != 0
}

// Snapshot returns a deep copy of all tracking records keyed by question id.
func (t *TimeTracker) Snapshot() map[int]model.QuestionTime {
	out := make(map[int]model.QuestionTime, len(t.records))
	for id, rec := range t.records {
		cp := *rec
		cp.Sessions = make([]model.TimeSlice, len(rec.Sessions))
		copy(cp.Sessions, rec.Sessions)
		if rec.CurrentStartTime != nil {
			v := *rec.CurrentStartTime
			cp.CurrentStartTime = &v
		}
		if rec.LastActivity != nil {
			v := *rec.LastActivity
			cp.LastActivity = &v
		}
		if rec.LastEndTime != nil {
			v := *rec.LastEndTime
			cp.LastEndTime = &v
		}
		out[id] = cp
	}
	return out
}

func (t *TimeTracker) record(questionID int) *model.QuestionTime {
	rec, ok := t.records[questionID]
	if !ok {
		rec = &model.QuestionTime{}
		t.records[questionID] = rec
	}
	return rec
}
