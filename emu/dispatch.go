package emu

import "github.com/user-none/emes/song"

// Cmd is a player command opcode.
type Cmd int

// Player commands understood by the dispatch engines.
const (
	CmdNoteOn Cmd = iota
	CmdNoteOff
	CmdNoteOffEnv
	CmdEnvRelease
	CmdInstrument
	CmdVolume
	CmdGetVolume
	CmdGetVolMax
	CmdWave
	CmdSamplePos
	CmdPanning
	CmdPitch
	CmdNotePorta
	CmdLegato
	CmdPrePorta
	CmdAlwaysSetVolume

	// ES5506 specific
	CmdES5506Pause
	CmdES5506K1
	CmdES5506K2
	CmdES5506FilterMode
	CmdES5506K1Ramp
	CmdES5506K2Ramp
	CmdES5506EnvCount
)

var cmdNames = map[string]Cmd{
	"noteOn":          CmdNoteOn,
	"noteOff":         CmdNoteOff,
	"noteOffEnv":      CmdNoteOffEnv,
	"envRelease":      CmdEnvRelease,
	"instrument":      CmdInstrument,
	"volume":          CmdVolume,
	"getVolume":       CmdGetVolume,
	"getVolMax":       CmdGetVolMax,
	"wave":            CmdWave,
	"samplePos":       CmdSamplePos,
	"panning":         CmdPanning,
	"pitch":           CmdPitch,
	"notePorta":       CmdNotePorta,
	"legato":          CmdLegato,
	"prePorta":        CmdPrePorta,
	"alwaysSetVolume": CmdAlwaysSetVolume,
	"pause":           CmdES5506Pause,
	"k1":              CmdES5506K1,
	"k2":              CmdES5506K2,
	"filterMode":      CmdES5506FilterMode,
	"k1Ramp":          CmdES5506K1Ramp,
	"k2Ramp":          CmdES5506K2Ramp,
	"envCount":        CmdES5506EnvCount,
}

// CommandByName maps a song file command name to its opcode.
func CommandByName(name string) (Cmd, bool) {
	c, ok := cmdNames[name]
	return c, ok
}

// NoteNull as a note-on value retriggers without changing the note.
const NoteNull = -1

// Continuation codes returned by Dispatch.
const (
	ResultHandled       = 1
	ResultTargetReached = 2
)

// Command is one discrete player event addressed to a voice.
type Command struct {
	Cmd    Cmd
	Chan   int
	Value  int
	Value2 int
}

// Dispatcher is implemented by every chip dispatch engine. All methods
// must be called from a single goroutine.
type Dispatcher interface {
	// Dispatch applies a player command and returns a continuation code.
	Dispatch(c Command) int
	// Tick advances macros and queues the register writes owed.
	Tick()
	// Acquire renders len(bufL) native rate samples, draining queued writes.
	Acquire(bufL, bufR []int16)
	Reset()
	Rate() int
	Voices() int
}

// Library gives dispatch engines read access to song data.
type Library interface {
	Instrument(i int) *song.Instrument
	Sample(i int) *song.Sample
	SampleCount() int
}
