package exam

import (
	"sync"
	"testing"
	"time"

	"github.com/ujianku/practice-exam-backend/internal/model"
)

// fakeClock is a manually advanced clock for deterministic timing tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestTracker_StartStopAccumulates(t *testing.T) {
	clock := newFakeClock()
	tr := NewTimeTracker(clock.Now)

	tr.Start(1)
	clock.Advance(12 * time.Second)
	tr.Stop(1)

	snap := tr.Snapshot()
	rec := snap[1]
	if rec.TotalTime != 12000 {
		t.Fatalf("TotalTime = %d, want 12000", rec.TotalTime)
	}
	if len(rec.Sessions) != 1 {
		t.Fatalf("Sessions = %d, want 1", len(rec.Sessions))
	}
	if rec.Sessions[0].Duration != 12000 {
		t.Fatalf("Duration = %d, want 12000", rec.Sessions[0].Duration)
	}
	if rec.CurrentStartTime != nil {
		t.Fatal("CurrentStartTime should be cleared after Stop")
	}
}

func TestTracker_StopWithoutStartIsNoop(t *testing.T) {
	tr := NewTimeTracker(newFakeClock().Now)

	tr.Stop(1)

	if len(tr.Snapshot()) != 0 {
		t.Fatal("Stop without a running anchor must not create records")
	}
}

func TestTracker_DoubleStopCountsOnce(t *testing.T) {
	clock := newFakeClock()
	tr := NewTimeTracker(clock.Now)

	tr.Start(1)
	clock.Advance(3 * time.Second)
	tr.Stop(1)
	tr.Stop(1)

	rec := tr.Snapshot()[1]
	if rec.TotalTime != 3000 {
		t.Fatalf("TotalTime = %d, want 3000", rec.TotalTime)
	}
	if len(rec.Sessions) != 1 {
		t.Fatalf("Sessions = %d, want 1", len(rec.Sessions))
	}
}

func TestTracker_SwitchingNeverDropsTime(t *testing.T) {
	clock := newFakeClock()
	tr := NewTimeTracker(clock.Now)

	// q1 for 2s, q2 for 5s, back to q1 for 3s.
	tr.Start(1)
	clock.Advance(2 * time.Second)
	tr.Stop(1)
	tr.Start(2)
	clock.Advance(5 * time.Second)
	tr.Stop(2)
	tr.Start(1)
	clock.Advance(3 * time.Second)
	tr.Stop(1)

	snap := tr.Snapshot()
	if got := snap[1].TotalTime; got != 5000 {
		t.Fatalf("q1 TotalTime = %d, want 5000", got)
	}
	if got := snap[2].TotalTime; got != 5000 {
		t.Fatalf("q2 TotalTime = %d, want 5000", got)
	}
	if len(snap[1].Sessions) != 2 {
		t.Fatalf("q1 Sessions = %d, want 2", len(snap[1].Sessions))
	}

	var total int64
	for _, s := range snap[1].Sessions {
		total += s.Duration
	}
	if total != snap[1].TotalTime {
		t.Fatalf("sum of durations %d != TotalTime %d", total, snap[1].TotalTime)
	}
}

func TestTracker_SingleRunningAnchor(t *testing.T) {
	clock := newFakeClock()
	tr := NewTimeTracker(clock.Now)

	tr.Start(1)
	if id, running := tr.Running(); !running || id != 1 {
		t.Fatalf("Running() = (%d, %t), want (1, true)", id, running)
	}

	tr.Stop(1)
	if _, running := tr.Running(); running {
		t.Fatal("anchor should be cleared after Stop")
	}
}

func TestTracker_SnapshotIsDeepCopy(t *testing.T) {
	clock := newFakeClock()
	tr := NewTimeTracker(clock.Now)

	tr.Start(4)
	clock.Advance(time.Second)
	tr.Stop(4)

	snap := tr.Snapshot()
	snap[4].Sessions[0] = model.TimeSlice{StartTime: 99, EndTime: 99, Duration: 99}

	if tr.Snapshot()[4].Sessions[0].Duration != 1000 {
		t.Fatal("mutating a snapshot must not affect tracker state")
	}
}
