package emu

import (
	"errors"
	"fmt"
	"math"

	"github.com/user-none/emes/song"
)

// OutputRate is the rate of rendered audio in Hz.
const OutputRate = 48000

// ErrUnknownCommand is returned for song events naming no command.
var ErrUnknownCommand = errors.New("unknown command")

// lowPass is a first-order RC low-pass filter applied per stereo channel.
// A zero alpha disables it.
type lowPass struct {
	alpha        float64
	prevL, prevR float64
}

// newLowPass returns a filter with the given cutoff at OutputRate.
// Derived from: alpha = dt / (RC + dt) where RC = 1/(2*pi*fc).
func newLowPass(cutoffHz float64) lowPass {
	if cutoffHz <= 0 {
		return lowPass{}
	}
	return lowPass{alpha: 1.0 / (float64(OutputRate)/(2*math.Pi*cutoffHz) + 1)}
}

func (f *lowPass) apply(buf []int16) {
	if f.alpha == 0 {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		f.prevL = f.alpha*float64(buf[i]) + (1-f.alpha)*f.prevL
		f.prevR = f.alpha*float64(buf[i+1]) + (1-f.alpha)*f.prevR
		buf[i] = int16(math.Round(f.prevL))
		buf[i+1] = int16(math.Round(f.prevR))
	}
}

// RenderConfig configures a Renderer.
type RenderConfig struct {
	// CutoffHz enables an output low-pass filter when positive.
	CutoffHz float64
}

// Renderer plays a song's events through a dispatch engine and resamples
// its native output to OutputRate interleaved stereo.
type Renderer struct {
	d      Dispatcher
	events []Command
	ticks  []int
	next   int

	tick      int
	length    int
	perTick   float64 // output samples per musical tick
	untilTick float64
	phase     int
	holdL     int16
	holdR     int16
	porta     [es5506MaxVoices]*Command
	lpf       lowPass
	nativeL   [1]int16
	nativeR   [1]int16
	frames    uint64
}

// NewRenderer prepares s for playback on d. s must have been prepared.
func NewRenderer(d Dispatcher, s *song.Song, cfg RenderConfig) (*Renderer, error) {
	r := &Renderer{
		d:       d,
		length:  s.Length(),
		perTick: OutputRate / s.TickRate,
		lpf:     newLowPass(cfg.CutoffHz),
	}
	for i, ev := range s.Events {
		cmd, ok := CommandByName(ev.Cmd)
		if !ok {
			return nil, fmt.Errorf("event %d: %w %q", i, ErrUnknownCommand, ev.Cmd)
		}
		r.events = append(r.events, Command{Cmd: cmd, Chan: ev.Chan, Value: ev.Value, Value2: ev.Value2})
		r.ticks = append(r.ticks, ev.Tick)
	}
	return r, nil
}

// Done reports whether every event has been dispatched.
func (r *Renderer) Done() bool { return r.next >= len(r.events) && r.tick > r.length }

// Tick returns the next musical tick to be played.
func (r *Renderer) Tick() int { return r.tick }

// Frames returns the number of stereo frames rendered so far.
func (r *Renderer) Frames() uint64 { return r.frames }

// Render fills buf with interleaved stereo samples.
func (r *Renderer) Render(buf []int16) {
	native := r.d.Rate()
	for i := 0; i+1 < len(buf); i += 2 {
		if r.untilTick <= 0 {
			r.playTick()
			r.untilTick += r.perTick
		}
		r.untilTick--

		r.phase += native
		for r.phase >= OutputRate {
			r.phase -= OutputRate
			r.d.Acquire(r.nativeL[:], r.nativeR[:])
			r.holdL, r.holdR = r.nativeL[0], r.nativeR[0]
		}
		buf[i] = r.holdL
		buf[i+1] = r.holdR
		r.frames++
	}
	r.lpf.apply(buf)
}

// playTick dispatches the events of the current tick, continues running
// portamentos and advances the engine's macros.
func (r *Renderer) playTick() {
	for ch, cmd := range r.porta {
		if cmd != nil && r.d.Dispatch(*cmd) == ResultTargetReached {
			r.porta[ch] = nil
		}
	}
	for r.next < len(r.events) && r.ticks[r.next] <= r.tick {
		cmd := r.events[r.next]
		r.next++
		tracked := cmd.Chan >= 0 && cmd.Chan < len(r.porta)
		switch {
		case cmd.Cmd == CmdNotePorta && tracked:
			r.d.Dispatch(Command{Cmd: CmdPrePorta, Chan: cmd.Chan, Value: 1, Value2: 1})
			if r.d.Dispatch(cmd) != ResultTargetReached {
				r.porta[cmd.Chan] = &cmd
			}
		case (cmd.Cmd == CmdNoteOn || cmd.Cmd == CmdNoteOff || cmd.Cmd == CmdLegato) && tracked && r.porta[cmd.Chan] != nil:
			r.porta[cmd.Chan] = nil
			r.d.Dispatch(Command{Cmd: CmdPrePorta, Chan: cmd.Chan})
			r.d.Dispatch(cmd)
		default:
			r.d.Dispatch(cmd)
		}
	}
	r.d.Tick()
	r.tick++
}
