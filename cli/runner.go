package cli

import (
	"context"
	"time"

	"github.com/retroenv/retrogolib/log"
	"github.com/user-none/emes/emu"
	"github.com/user-none/emes/ui"
)

// ADT buffer thresholds in bytes.
const (
	adtMinBuffer = 9600
	adtMaxBuffer = 19200
)

// chunkFrames is the number of frames rendered per pacing step, 1/60s.
const chunkFrames = emu.OutputRate / 60

// drainPoll is how often the runner checks the sink while it drains.
const drainPoll = 10 * time.Millisecond

// Sink receives rendered audio. ui.AudioPlayer implements it.
type Sink interface {
	Queue(samples []int16)
	// Buffered returns the bytes queued but not yet heard.
	Buffered() int
}

// Runner plays an engine live. Rendering runs on a dedicated goroutine
// with audio-driven timing: the pacing sleep is shortened or stretched
// to keep the sink's buffer between adtMinBuffer and adtMaxBuffer.
type Runner struct {
	logger  *log.Logger
	engine  *Engine
	sink    Sink
	control *ui.PlayerControl
	done    chan struct{}
	frames  int
}

// NewRunner creates a runner that plays seconds of e into sink.
func NewRunner(logger *log.Logger, e *Engine, sink Sink, seconds float64) *Runner {
	return &Runner{
		logger:  logger,
		engine:  e,
		sink:    sink,
		control: ui.NewPlayerControl(),
		done:    make(chan struct{}),
		frames:  int(seconds * emu.OutputRate),
	}
}

// Run plays until the duration is reached, ctx is cancelled or Stop is
// called, then waits for queued audio to be heard.
func (r *Runner) Run(ctx context.Context) error {
	r.control.StopOnDone(ctx)
	go r.renderLoop()
	<-r.done
	r.logger.Debug("Rendering finished", log.Int("frames", int(r.engine.Frames())))

	for r.control.ShouldRun() && r.sink.Buffered() > 0 {
		time.Sleep(drainPoll)
	}
	return ctx.Err()
}

// Pause blocks until the render goroutine is paused.
func (r *Runner) Pause() { r.control.RequestPause() }

// Resume continues a paused runner.
func (r *Runner) Resume() { r.control.RequestResume() }

// Stop ends playback without draining queued audio.
func (r *Runner) Stop() { r.control.Stop() }

// renderLoop runs on a dedicated goroutine with ADT.
func (r *Runner) renderLoop() {
	defer close(r.done)

	frameTime := time.Second * chunkFrames / emu.OutputRate
	lastFrameTime := time.Now()
	buf := make([]int16, 2*chunkFrames)

	for int(r.engine.Frames()) < r.frames {
		if !r.control.CheckPause() {
			return
		}

		n := min(chunkFrames, r.frames-int(r.engine.Frames()))
		r.engine.Render(buf[:2*n])
		r.sink.Queue(buf[:2*n])

		// ADT sleep
		elapsed := time.Since(lastFrameTime)
		sleepTime := frameTime - elapsed

		bufferLevel := r.sink.Buffered()
		if bufferLevel < adtMinBuffer {
			sleepTime = time.Duration(float64(sleepTime) * 0.9)
		} else if bufferLevel > adtMaxBuffer {
			sleepTime = time.Duration(float64(sleepTime) * 1.1)
		}
		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Play opens the audio device and plays the song at path live.
func Play(ctx context.Context, logger *log.Logger, e *Engine, volume, seconds float64) error {
	player, err := ui.NewAudioPlayer(volume)
	if err != nil {
		return err
	}
	defer player.Close()

	logger.Info("Playing song",
		log.String("name", e.Song.Name),
		log.String("chip", e.Song.Chip))

	r := NewRunner(logger, e, player, seconds)
	err = r.Run(ctx)
	if n := player.Dropped(); n > 0 {
		logger.Debug("Audio queue overflowed", log.Int("frames", int(n)))
	}
	return err
}
