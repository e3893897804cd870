package image

import (
	"sync"
	"time"

	"github.com/hachiran/ramensite/internal/config"
)

// State is the observable transfer state of an uploader.
type State struct {
	Uploading bool `json:"uploading"`
	Progress  int  `json:"upload_progress"`
}

// Tracker owns the busy flag and the simulated progress of uploads.
//
// Progress is advanced on a timer and says nothing about bytes transferred.
// Overlapping uploads share one Tracker and are not serialized; the mutex only
// keeps the fields consistent.
type Tracker struct {
	mu    sync.Mutex
	state State

	interval   time.Duration
	step       int
	ceiling    int
	resetDelay time.Duration
	resetTimer *time.Timer

	subs    map[int]chan State
	nextSub int
}

// NewTracker builds a Tracker from the upload settings.
func NewTracker(cfg config.UploadConfig) *Tracker {
	t := &Tracker{
		interval:   cfg.ProgressInterval,
		step:       cfg.ProgressStep,
		ceiling:    cfg.ProgressCeiling,
		resetDelay: cfg.ResetDelay,
		subs:       make(map[int]chan State),
	}
	if t.interval <= 0 {
		t.interval = 100 * time.Millisecond
	}
	if t.step <= 0 {
		t.step = 10
	}
	if t.ceiling <= 0 || t.ceiling > 100 {
		t.ceiling = 90
	}
	if t.resetDelay <= 0 {
		t.resetDelay = time.Second
	}
	return t
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() State {
	if t == nil {
		return State{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe streams state transitions. Slow readers only see the latest
// state. The returned func unsubscribes and closes the channel.
func (t *Tracker) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	if t == nil {
		close(ch)
		return ch, func() {}
	}

	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	ch <- t.state
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			close(ch)
			t.mu.Unlock()
		})
	}
}

func (t *Tracker) update(fn func(*State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.state)
	for _, ch := range t.subs {
		select {
		case ch <- t.state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- t.state
		}
	}
}

// begin marks the start of an upload call.
func (t *Tracker) begin() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if t.resetTimer != nil {
		t.resetTimer.Stop()
		t.resetTimer = nil
	}
	t.mu.Unlock()

	t.update(func(s *State) {
		s.Uploading = true
		s.Progress = 0
	})
}

// simulate starts the progress ticker. The returned stop func must run on
// every exit path; once it returns the ticker no longer touches the state.
func (t *Tracker) simulate() (stop func()) {
	if t == nil {
		return func() {}
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				reached := false
				t.update(func(s *State) {
					if s.Progress+t.step >= t.ceiling {
						s.Progress = t.ceiling
						reached = true
						return
					}
					s.Progress += t.step
				})
				if reached {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

// complete forces progress to 100.
func (t *Tracker) complete() {
	if t == nil {
		return
	}
	t.update(func(s *State) { s.Progress = 100 })
}

// end clears the busy flag and schedules the progress reset.
func (t *Tracker) end() {
	if t == nil {
		return
	}
	t.update(func(s *State) { s.Uploading = false })

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resetTimer != nil {
		t.resetTimer.Stop()
	}
	t.resetTimer = time.AfterFunc(t.resetDelay, func() {
		t.update(func(s *State) {
			if !s.Uploading {
				s.Progress = 0
			}
		})
	})
}
