package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/user-none/emes/config"
	"github.com/user-none/emes/emu"
	"github.com/user-none/emes/regdump"
	"github.com/user-none/emes/song"
)

// chipEngine is a dispatch engine whose register writes can be captured
// and injected.
type chipEngine interface {
	emu.Dispatcher
	SetCapture(fn func(regdump.Write))
	PokeBatch(ws []regdump.Write)
}

// Engine is a loaded song bound to its chip engine and renderer.
type Engine struct {
	Song *song.Song

	chip     chipEngine
	renderer *emu.Renderer
	recorder *regdump.Recorder
}

// NewEngine loads the song at path and prepares it for rendering.
func NewEngine(fs afero.Fs, path string, opts config.Options) (*Engine, error) {
	s, err := song.Load(fs, path)
	if err != nil {
		return nil, err
	}
	if opts.Voices != 0 {
		s.Voices = opts.Voices
	}

	e := &Engine{Song: s}
	switch s.Chip {
	case song.ChipSN76489:
		e.chip = emu.NewSN76489Dispatch(s, emu.OutputRate)
	default:
		e.chip = emu.NewES5506Dispatch(s, emu.ES5506Config{
			Voices:            s.Voices,
			Memory:            s.Memory(),
			ResetMacroOnPorta: s.ResetMacroOnPorta,
		})
	}

	if opts.Dump != "" {
		e.recorder = &regdump.Recorder{}
		e.chip.SetCapture(e.recorder.Record)
	}
	if opts.Inject != "" {
		ws, err := regdump.Load(fs, opts.Inject)
		if err != nil {
			return nil, err
		}
		e.chip.PokeBatch(ws)
	}

	e.renderer, err = emu.NewRenderer(e.chip, s, emu.RenderConfig{CutoffHz: opts.CutoffHz})
	if err != nil {
		return nil, fmt.Errorf("song %s: %w", path, err)
	}
	return e, nil
}

// Render fills buf with interleaved stereo samples at emu.OutputRate.
func (e *Engine) Render(buf []int16) {
	e.renderer.Render(buf)
}

// Frames returns the number of stereo frames rendered so far.
func (e *Engine) Frames() uint64 { return e.renderer.Frames() }

// Done reports whether every song event has been played.
func (e *Engine) Done() bool { return e.renderer.Done() }

// Captured returns the register writes recorded so far, or nil when
// capture is off.
func (e *Engine) Captured() []regdump.Write {
	if e.recorder == nil {
		return nil
	}
	return e.recorder.Writes
}

// IRQOverruns returns how often the ES5506 IRQ service hit its iteration
// cap. It is always zero for other chips.
func (e *Engine) IRQOverruns() int {
	if d, ok := e.chip.(*emu.ES5506Dispatch); ok {
		return d.IRQOverruns()
	}
	return 0
}

// SaveDump writes the captured register writes to path.
func (e *Engine) SaveDump(fs afero.Fs, path string) error {
	if e.recorder == nil {
		return nil
	}
	return regdump.Save(fs, path, e.recorder.Writes)
}
