package script

import (
	"sync"
	"time"

	"github.com/dop251/goja"
)

// jobLoop is the single goroutine on which all interpreter work runs.
// Proxy invokers and timers complete on other goroutines and post
// continuation jobs here; the loop itself never blocks on remote work.
//
// Every job runs under a recover so that a deadline interrupt, which
// goja raises as a panic inside whatever job is executing, shuts the
// loop down instead of the process.
type jobLoop struct {
	jobs chan func()

	mu      sync.Mutex
	stopped bool

	timerMu sync.Mutex
	timers  map[int64]*time.Timer
	nextID  int64
}

func newJobLoop() *jobLoop {
	return &jobLoop{
		jobs:   make(chan func(), 64),
		timers: make(map[int64]*time.Timer),
	}
}

// run drains jobs until stop is called. It must be invoked on its own
// goroutine, exactly once.
func (l *jobLoop) run() {
	for job := range l.jobs {
		l.safely(job)
	}
}

func (l *jobLoop) safely(job func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*goja.InterruptedError); ok {
				return
			}
			// Anything else is an interpreter or engine fault; the
			// engine reports it through the outcome channel, so here it
			// is enough to keep the loop alive.
		}
	}()
	job()
}

// post schedules a job. It reports false when the loop has stopped, in
// which case the job is dropped: after the deadline nothing may
// produce observable effects.
func (l *jobLoop) post(job func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return false
	}
	l.jobs <- job
	return true
}

// stop shuts the loop down and cancels all pending timers. Safe to call
// more than once and from any goroutine.
func (l *jobLoop) stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	close(l.jobs)
	l.mu.Unlock()

	l.timerMu.Lock()
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
	l.timerMu.Unlock()
}

// after fires job on the loop once d has elapsed, returning a timer id
// usable with cancelTimer.
func (l *jobLoop) after(d time.Duration, job func()) int64 {
	l.timerMu.Lock()
	l.nextID++
	id := l.nextID
	l.timers[id] = time.AfterFunc(d, func() {
		l.timerMu.Lock()
		delete(l.timers, id)
		l.timerMu.Unlock()
		l.post(job)
	})
	l.timerMu.Unlock()
	return id
}

// cancelTimer stops a pending timer. Unknown ids are ignored.
func (l *jobLoop) cancelTimer(id int64) {
	l.timerMu.Lock()
	if t, ok := l.timers[id]; ok {
		t.Stop()
		delete(l.timers, id)
	}
	l.timerMu.Unlock()
}
