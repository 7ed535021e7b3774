package ui

import (
	"context"
	"sync"
)

// PlayerControl coordinates pause, resume and stop between the caller and
// the render goroutine.
type PlayerControl struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pauseReq bool
	paused   bool
	stopped  bool
	ackCh    chan struct{}
}

// NewPlayerControl creates a control for a running player.
func NewPlayerControl() *PlayerControl {
	pc := &PlayerControl{ackCh: make(chan struct{}, 1)}
	pc.cond = sync.NewCond(&pc.mu)
	return pc
}

// StopOnDone stops the player once ctx is cancelled.
func (pc *PlayerControl) StopOnDone(ctx context.Context) {
	go func() {
		<-ctx.Done()
		pc.Stop()
	}()
}

// RequestPause asks the render goroutine to pause and blocks until it
// acknowledges or the player stops.
func (pc *PlayerControl) RequestPause() {
	pc.mu.Lock()
	if pc.paused || pc.pauseReq || pc.stopped {
		pc.mu.Unlock()
		return
	}
	pc.pauseReq = true
	pc.mu.Unlock()

	<-pc.ackCh
}

// RequestResume lets a paused render goroutine continue.
func (pc *PlayerControl) RequestResume() {
	pc.mu.Lock()
	pc.pauseReq = false
	pc.cond.Broadcast()
	pc.mu.Unlock()
}

// CheckPause is called by the render goroutine between chunks. It blocks
// while a pause is requested and returns false once the goroutine should
// exit.
func (pc *PlayerControl) CheckPause() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.stopped {
		return false
	}
	if !pc.pauseReq {
		return true
	}

	pc.paused = true
	select {
	case pc.ackCh <- struct{}{}:
	default:
	}
	for pc.pauseReq && !pc.stopped {
		pc.cond.Wait()
	}
	pc.paused = false
	return !pc.stopped
}

// Stop signals the render goroutine to exit.
func (pc *PlayerControl) Stop() {
	pc.mu.Lock()
	if !pc.stopped {
		pc.stopped = true
		pc.pauseReq = false
		// Release a caller blocked in RequestPause.
		select {
		case pc.ackCh <- struct{}{}:
		default:
		}
	}
	pc.cond.Broadcast()
	pc.mu.Unlock()
}

// ShouldRun reports whether the render goroutine should continue.
func (pc *PlayerControl) ShouldRun() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return !pc.stopped
}

// IsPaused reports whether the render goroutine is paused.
func (pc *PlayerControl) IsPaused() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.paused
}
