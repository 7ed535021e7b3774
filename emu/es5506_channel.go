package emu

import (
	"github.com/user-none/emes/macro"
	"github.com/user-none/emes/song"
)

// Staged holds a value that is replaced in two phases: Stage records the
// next value and Commit promotes it once the hardware is ready.
type Staged[T comparable] struct {
	Curr T
	Next T

	pending bool
}

// Stage records v as the next value.
func (s *Staged[T]) Stage(v T) {
	s.Next = v
	s.pending = true
}

// Commit promotes the staged value and returns it.
func (s *Staged[T]) Commit() T {
	s.Curr = s.Next
	s.pending = false
	return s.Curr
}

// Set replaces the current value immediately and drops any staged value.
func (s *Staged[T]) Set(v T) {
	s.Curr = v
	s.Next = v
	s.pending = false
}

// Pending reports whether a staged value is waiting for Commit.
func (s *Staged[T]) Pending() bool { return s.pending }

// change is one kind of pending register update.
type change uint16

const (
	chgIns change = 1 << iota
	chgFreq
	chgVolume
	chgSample
	chgTransWave
	chgFilter
	chgFilterRamp
	chgEnv
	chgKeyOn
	chgKeyOff
	chgSamplePos
	chgPause
	chgNoise // SN76489 noise control
)

// changeSet is the set of register updates a voice owes the chip.
type changeSet uint16

func (c *changeSet) add(k change) { *c |= changeSet(k) }

func (c changeSet) has(k change) bool { return c&changeSet(k) != 0 }

func (c *changeSet) clear(k change) { *c &^= changeSet(k) }

// Empty reports whether no register update is owed.
func (c changeSet) Empty() bool { return c == 0 }

// SampleDesc locates the sample slice a voice plays. Addresses are 21.11
// fixed point word addresses within Bank.
type SampleDesc struct {
	Sample int
	Bank   uint32
	Start  uint32
	Loop   uint32
	End    uint32
}

var noSample = SampleDesc{Sample: -1}

// ES5506Channel is the dispatch state of one ES5506 voice.
type ES5506Channel struct {
	Freq     int // last FC value
	BaseFreq int // 1/16 Hz
	Pitch    int
	Pitch2   int // pitch macro offset
	Note     int
	Ins      int
	Sample   int // selected sample when transwave is off
	Panning  int // left nibble in bits 4-7, right in bits 0-3
	PanL     int
	PanR     int
	CR       uint32 // control register as it will be once queued writes drain

	Active  bool
	InPorta bool
	Pause   bool

	Vol    int // 0-255
	OutVol int // 0-0xffff after macros
	LVol   int
	RVol   int

	PCM      Staged[SampleDesc]
	FreqOffs float64

	TransWaveEnable bool
	TransWaveIndex  int
	TransWaveNext   int

	Filter    song.Filter
	BaseK1    int
	BaseK2    int
	Envelope  song.Envelope
	SamplePos int

	Changes changeSet

	macros macro.Interpreter
}

func newES5506Channel() ES5506Channel {
	ch := ES5506Channel{
		Ins:            -1,
		Sample:         -1,
		Panning:        0xff,
		PanL:           0xf,
		PanR:           0xf,
		CR:             crStop,
		Vol:            0xff,
		OutVol:         0xffff,
		LVol:           0xffff,
		RVol:           0xffff,
		TransWaveIndex: -1,
		TransWaveNext:  -1,
		Filter:         song.Filter{K1: 0xffff, K2: 0xffff, Mode: 3},
		BaseK1:         0xffff,
		BaseK2:         0xffff,
	}
	ch.PCM.Set(noSample)
	return ch
}

// Macros returns the voice's macro interpreter.
func (c *ES5506Channel) Macros() *macro.Interpreter { return &c.macros }
