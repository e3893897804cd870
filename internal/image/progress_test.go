package image

import (
	"testing"
	"time"

	"github.com/hachiran/ramensite/internal/config"
)

func fastTracker() *Tracker {
	return NewTracker(config.UploadConfig{
		ProgressInterval: 2 * time.Millisecond,
		ProgressStep:     10,
		ProgressCeiling:  90,
		ResetDelay:       20 * time.Millisecond,
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSimulateStopsAtCeiling(t *testing.T) {
	tr := fastTracker()
	tr.begin()

	stop := tr.simulate()
	defer stop()

	waitFor(t, "progress to reach ceiling", func() bool { return tr.Snapshot().Progress == 90 })

	time.Sleep(10 * time.Millisecond)
	if got := tr.Snapshot().Progress; got != 90 {
		t.Fatalf("expected progress to stay at 90, got %d", got)
	}
}

func TestSimulateStopHaltsMutation(t *testing.T) {
	tr := NewTracker(config.UploadConfig{
		ProgressInterval: time.Millisecond,
		ProgressStep:     1,
		ProgressCeiling:  90,
		ResetDelay:       time.Hour,
	})
	tr.begin()

	stop := tr.simulate()
	waitFor(t, "first tick", func() bool { return tr.Snapshot().Progress > 0 })
	stop()
	stop()

	frozen := tr.Snapshot().Progress
	time.Sleep(10 * time.Millisecond)
	if got := tr.Snapshot().Progress; got != frozen {
		t.Fatalf("progress moved after stop: %d -> %d", frozen, got)
	}
}

func TestEndClearsBusyAndResetsProgress(t *testing.T) {
	tr := fastTracker()
	tr.begin()
	if !tr.Snapshot().Uploading {
		t.Fatalf("expected uploading after begin")
	}

	tr.complete()
	tr.end()

	s := tr.Snapshot()
	if s.Uploading {
		t.Fatalf("expected uploading cleared")
	}
	if s.Progress != 100 {
		t.Fatalf("expected progress held at 100 until reset, got %d", s.Progress)
	}

	waitFor(t, "progress reset", func() bool { return tr.Snapshot().Progress == 0 })
}

func TestBeginCancelsPendingReset(t *testing.T) {
	tr := NewTracker(config.UploadConfig{ResetDelay: 5 * time.Millisecond})
	tr.begin()
	tr.complete()
	tr.end()

	tr.begin()
	tr.update(func(s *State) { s.Progress = 40 })

	time.Sleep(20 * time.Millisecond)
	if got := tr.Snapshot().Progress; got != 40 {
		t.Fatalf("stale reset touched a running upload: progress %d", got)
	}
}

func TestSubscribeStreamsTransitions(t *testing.T) {
	tr := fastTracker()
	states, unsubscribe := tr.Subscribe()

	if s := <-states; s.Uploading {
		t.Fatalf("expected idle initial state, got %+v", s)
	}

	tr.begin()
	select {
	case s := <-states:
		if !s.Uploading {
			t.Fatalf("expected uploading state, got %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatalf("no state delivered")
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-states; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	tr.complete()
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tr *Tracker
	tr.begin()
	stop := tr.simulate()
	stop()
	tr.complete()
	tr.end()
	if s := tr.Snapshot(); s != (State{}) {
		t.Fatalf("expected zero state, got %+v", s)
	}
}
