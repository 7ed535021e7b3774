package emu

import (
	"math"

	"github.com/user-none/emes/macro"
	"github.com/user-none/emes/regdump"
	"github.com/user-none/go-chip-sn76489"
)

const (
	psgClock      = 3579545
	psgVoices     = 4
	psgNoise      = 3
	psgGain       = 1898.0
	psgBufferSize = 1024
	psgVolMax     = 0x0f
	psgMaxTone    = 0x3ff
)

// psgChannel is the dispatch state of one SN76489 voice.
type psgChannel struct {
	Freq    float64 // Hz
	Note    int
	Pitch   int
	Pitch2  int
	Ins     int
	Vol     int // 0-15, 15 loudest
	OutVol  int
	Noise   int // noise control, 0-7
	Active  bool
	InPorta bool
	Period  int // last tone divider written
	Attn    int // last attenuation written

	Changes changeSet

	macros macro.Interpreter
}

// SN76489Dispatch drives a Sega SN76489 from the same player commands and
// macros as the ES5506 engine. Register writes are queued and drained one
// per output sample.
type SN76489Dispatch struct {
	lib  Library
	psg  *sn76489.SN76489
	rate int

	chans  [psgVoices]psgChannel
	muted  [psgVoices]bool
	writes fifo[uint8]

	clockAcc int
	samples  uint64
	capture  func(regdump.Write)
}

// NewSN76489Dispatch creates a PSG engine producing rate Hz output.
func NewSN76489Dispatch(lib Library, rate int) *SN76489Dispatch {
	d := &SN76489Dispatch{
		lib:  lib,
		rate: rate,
		psg:  sn76489.New(psgClock, rate, psgBufferSize, sn76489.Sega),
	}
	d.psg.SetGain(psgGain)
	d.Reset()
	return d
}

// Rate returns the output rate in Hz.
func (d *SN76489Dispatch) Rate() int { return d.rate }

// Voices returns the number of voices: three tone and one noise.
func (d *SN76489Dispatch) Voices() int { return psgVoices }

// Chip returns the underlying sound generator.
func (d *SN76489Dispatch) Chip() *sn76489.SN76489 { return d.psg }

// SetCapture registers fn to observe every byte written to the chip.
func (d *SN76489Dispatch) SetCapture(fn func(regdump.Write)) { d.capture = fn }

// Pending returns the number of queued register writes.
func (d *SN76489Dispatch) Pending() int { return d.writes.len() }

// Reset silences every voice and resets the chip.
func (d *SN76489Dispatch) Reset() {
	d.psg.Reset()
	d.writes.clear()
	d.clockAcc = 0
	for i := range d.chans {
		d.chans[i] = psgChannel{Ins: -1, Vol: psgVolMax, OutVol: psgVolMax, Attn: psgVolMax, Noise: 4}
		d.queueVolume(i, psgVolMax)
	}
}

// MuteChannel silences or restores a voice.
func (d *SN76489Dispatch) MuteChannel(ch int, mute bool) {
	if ch < 0 || ch >= psgVoices {
		return
	}
	d.muted[ch] = mute
	d.chans[ch].Changes.add(chgVolume)
}

func (d *SN76489Dispatch) queueVolume(ch, attn int) {
	d.writes.push(0x90 | uint8(ch)<<5 | uint8(attn&0x0f))
}

func (d *SN76489Dispatch) queueTone(ch, period int) {
	d.writes.push(0x80 | uint8(ch)<<5 | uint8(period&0x0f))
	d.writes.push(uint8(period>>4) & 0x3f)
}

func (d *SN76489Dispatch) queueNoise(mode int) {
	d.writes.push(0xe0 | uint8(mode&0x07))
}

// psgNoteHz returns the equal-tempered frequency of note with A-4 at 440 Hz.
func psgNoteHz(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// tonePeriod converts a frequency into a tone divider.
func tonePeriod(hz float64) int {
	if hz <= 0 {
		return psgMaxTone
	}
	p := int(math.Round(psgClock / (32 * hz)))
	return max(1, min(p, psgMaxTone))
}

// Dispatch applies a player command.
func (d *SN76489Dispatch) Dispatch(cmd Command) int {
	if cmd.Chan < 0 || cmd.Chan >= psgVoices {
		return ResultHandled
	}
	c := &d.chans[cmd.Chan]

	switch cmd.Cmd {
	case CmdNoteOn:
		if cmd.Value != NoteNull {
			c.Note = cmd.Value
			c.Freq = psgNoteHz(cmd.Value)
		}
		c.Active = true
		c.OutVol = c.Vol
		c.Changes.add(chgFreq)
		c.Changes.add(chgVolume)
		if cmd.Chan == psgNoise {
			c.Changes.add(chgNoise)
		}
		c.macros.Init(d.lib.Instrument(c.Ins).Macros)

	case CmdNoteOff:
		c.Active = false
		c.Changes.add(chgVolume)
		c.macros.Init(nil)

	case CmdNoteOffEnv, CmdEnvRelease:
		c.macros.Release()

	case CmdInstrument:
		c.Ins = cmd.Value

	case CmdVolume:
		if vol := max(0, min(cmd.Value, psgVolMax)); c.Vol != vol {
			c.Vol = vol
			if !c.macros.Get(macro.Vol).Has() {
				c.OutVol = c.Vol
				c.Changes.add(chgVolume)
			}
		}

	case CmdGetVolume:
		return c.Vol

	case CmdGetVolMax:
		return psgVolMax

	case CmdWave:
		if cmd.Chan == psgNoise {
			c.Noise = cmd.Value & 0x07
			c.Changes.add(chgNoise)
		}

	case CmdPitch:
		c.Pitch = cmd.Value
		c.Changes.add(chgFreq)

	case CmdNotePorta:
		dest := psgNoteHz(cmd.Value2)
		step := float64(cmd.Value) / 16
		reached := false
		if dest > c.Freq {
			c.Freq += step
			if c.Freq >= dest {
				c.Freq = dest
				reached = true
			}
		} else {
			c.Freq -= step
			if c.Freq <= dest {
				c.Freq = dest
				reached = true
			}
		}
		c.Changes.add(chgFreq)
		if reached {
			c.InPorta = false
			return ResultTargetReached
		}

	case CmdLegato:
		c.Note = cmd.Value
		c.Freq = psgNoteHz(cmd.Value)
		c.Changes.add(chgFreq)

	case CmdPrePorta:
		c.InPorta = cmd.Value != 0
	}
	return ResultHandled
}

// Tick advances macros and queues the register writes owed.
func (d *SN76489Dispatch) Tick() {
	for i := range d.chans {
		c := &d.chans[i]
		m := &c.macros
		m.Next()

		if vc := m.Get(macro.Vol); vc.Had() {
			c.OutVol = c.Vol * max(0, min(vc.Val(), psgVolMax)) / psgVolMax
			c.Changes.add(chgVolume)
		}
		if ac := m.Get(macro.Arp); ac.Had() && !c.InPorta {
			note := c.Note + ac.Val()
			if m.ArpMode() == macro.ArpFixed {
				note = ac.Val()
			}
			c.Freq = psgNoteHz(note)
			c.Changes.add(chgFreq)
		}
		if pc := m.Get(macro.Pitch); pc.Had() {
			c.Pitch2 = pc.Val()
			c.Changes.add(chgFreq)
		} else if pc.Finished() && c.Pitch2 != 0 {
			c.Pitch2 = 0
			c.Changes.add(chgFreq)
		}
		if dc := m.Get(macro.Duty); dc.Had() && i == psgNoise {
			c.Noise = dc.Val() & 0x07
			c.Changes.add(chgNoise)
		}

		if c.Changes.has(chgFreq) && i != psgNoise {
			p := tonePeriod(pitchScale(c.Freq, c.Pitch+c.Pitch2))
			if p != c.Period {
				c.Period = p
				d.queueTone(i, p)
			}
		}
		c.Changes.clear(chgFreq)

		if c.Changes.has(chgNoise) {
			d.queueNoise(c.Noise)
			c.Changes.clear(chgNoise)
		}

		if c.Changes.has(chgVolume) {
			attn := psgVolMax - c.OutVol
			if !c.Active || d.muted[i] {
				attn = psgVolMax
			}
			if attn != c.Attn {
				c.Attn = attn
				d.queueVolume(i, attn)
			}
			c.Changes.clear(chgVolume)
		}
	}
}

// Acquire renders len(bufL) samples. The mono output is duplicated to
// both channels.
func (d *SN76489Dispatch) Acquire(bufL, bufR []int16) {
	n := min(len(bufL), len(bufR))
	for h := range n {
		if !d.writes.empty() {
			b := d.writes.pop()
			if d.capture != nil {
				d.capture(regdump.Write{Time: d.samples, Val: uint32(b)})
			}
			d.psg.Write(b)
		}
		d.clockAcc += psgClock
		for d.clockAcc >= d.rate {
			d.clockAcc -= d.rate
			d.psg.Clock()
		}
		s := int16(clampInt32(int32(d.psg.Sample()), -32768, 32767))
		bufL[h] = s
		bufR[h] = s
		d.samples++
	}
}

// Poke queues a raw byte write.
func (d *SN76489Dispatch) Poke(_, val uint32) {
	d.writes.push(uint8(val))
}

// PokeBatch queues a list of raw byte writes in order.
func (d *SN76489Dispatch) PokeBatch(ws []regdump.Write) {
	for _, w := range ws {
		d.Poke(w.Addr, w.Val)
	}
}
