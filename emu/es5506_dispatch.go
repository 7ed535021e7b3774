package emu

import (
	"github.com/user-none/emes/macro"
	"github.com/user-none/emes/regdump"
	"github.com/user-none/emes/song"
)

// Chip defaults.
const (
	es5506Clock     = 16000000
	es5506MaxVoices = 32
	es5506MinVoices = 4
	es5506PoolSize  = 4 * 16 * 128

	filterSettleDelay = 4 * busDelay
)

// ES5506Config configures an ES5506 dispatch engine.
type ES5506Config struct {
	Voices int // 4-32, zero selects 32
	Clock  int // zero selects 16 MHz
	Memory SampleMemory

	// ResetMacroOnPorta rebinds macros when a portamento starts on a held note.
	ResetMacroOnPorta bool
}

// ES5506Dispatch turns player commands and per-tick macro values into a
// bus-timed stream of ES5506 register writes.
type ES5506Dispatch struct {
	lib  Library
	chip *ES5506
	cfg  ES5506Config

	voices int
	chans  [es5506MaxVoices]ES5506Channel
	muted  [es5506MaxVoices]bool

	writes  fifo[QueuedWrite]
	cycles  int // outstanding bus cost in output samples
	curPage int // page the last queued write selects

	irqOverruns int
	samples     uint64
	capture     func(regdump.Write)
}

// NewES5506Dispatch creates a dispatch engine driving a fresh ES5506.
func NewES5506Dispatch(lib Library, cfg ES5506Config) *ES5506Dispatch {
	if cfg.Clock <= 0 {
		cfg.Clock = es5506Clock
	}
	d := &ES5506Dispatch{
		lib:    lib,
		cfg:    cfg,
		chip:   NewES5506(cfg.Memory),
		voices: clampVoices(cfg.Voices),
	}
	d.Reset()
	return d
}

func clampVoices(n int) int {
	if n == 0 {
		return es5506MaxVoices
	}
	return max(es5506MinVoices, min(n, es5506MaxVoices))
}

// Chip returns the underlying register machine.
func (d *ES5506Dispatch) Chip() *ES5506 { return d.chip }

// Voices returns the configured voice count.
func (d *ES5506Dispatch) Voices() int { return d.voices }

// Rate returns the native output rate in Hz.
func (d *ES5506Dispatch) Rate() int {
	return d.cfg.Clock / 16 / (d.voices + 1)
}

// SetVoices changes the voice count at runtime. Commands addressed to
// voices beyond the new count are ignored until it grows again.
func (d *ES5506Dispatch) SetVoices(n int) {
	n = clampVoices(n)
	if n == d.voices {
		return
	}
	old := d.voices
	d.voices = n
	d.pageWrite(pageLow, regACTV, uint32(n-1))
	for i := range n {
		if d.chans[i].Active {
			d.chans[i].Changes.add(chgFreq)
		}
		// Newly enabled voices pick up their mute state.
		if i >= old {
			d.chans[i].Changes.add(chgVolume)
		}
	}
	// Disabled voices are never flushed.
	for i := n; i < old; i++ {
		d.chans[i].Changes = 0
	}
}

// SetCapture registers fn to observe every register write applied to the
// chip, queued or immediate. A nil fn disables capture.
func (d *ES5506Dispatch) SetCapture(fn func(regdump.Write)) {
	d.capture = fn
}

// Reset drops queued writes, resets every voice and the chip.
func (d *ES5506Dispatch) Reset() {
	d.writes.clear()
	for i := range d.chans {
		d.chans[i] = newES5506Channel()
	}
	d.chip.Reset()
	d.cycles = 0
	d.curPage = 0
	d.irqOverruns = 0
	d.pageWrite(pageLow, regACTV, uint32(d.voices-1))
}

// Pending returns the number of queued register writes.
func (d *ES5506Dispatch) Pending() int { return d.writes.len() }

// IRQOverruns returns how often interrupt service hit its iteration cap.
func (d *ES5506Dispatch) IRQOverruns() int { return d.irqOverruns }

// Acquire renders len(bufL) output samples. Before each sample at most one
// queued write is applied, and only once the bus is idle. Interrupts
// raised by the sample are serviced immediately after it.
func (d *ES5506Dispatch) Acquire(bufL, bufR []int16) {
	n := min(len(bufL), len(bufR))
	for h := range n {
		if d.cycles > 0 {
			d.cycles--
		}
		if d.cycles <= 0 && !d.writes.empty() {
			d.applyQueued(d.writes.pop())
		}
		d.chip.Tick()
		bufL[h] = int16(d.chip.Lout())
		bufR[h] = int16(d.chip.Rout())
		if d.chip.IRQ() {
			d.serviceIRQ()
		}
		d.samples++
	}
}

func (d *ES5506Dispatch) validSample(i int) bool {
	return i >= 0 && i < d.lib.SampleCount()
}

// calcFreq returns the FC value for the channel's frequency and pitch.
func (d *ES5506Dispatch) calcFreq(c *ES5506Channel) int {
	f := float64(c.BaseFreq) * c.FreqOffs * 2048 * float64(d.voices+1) / float64(d.cfg.Clock)
	f = pitchScale(f, c.Pitch+c.Pitch2)
	return max(0, min(int(f), 0x1ffff))
}

// sliceDesc returns the descriptor of a transwave slice within sample s.
func sliceDesc(idx int, s *song.Sample, sl song.Slice) SampleDesc {
	off := s.Offset
	return SampleDesc{
		Sample: idx,
		Bank:   s.Bank(),
		Start:  off << 10,
		Loop:   ((off << 10) + (uint32(sl.LoopStart) << 11)) & 0xfffff800,
		End:    uint32(uint64(float64(off)*1024+sl.LoopEnd*2048)) & 0xffffff80,
	}
}

// sampleDesc returns the descriptor covering all of sample s.
func sampleDesc(idx int, s *song.Sample) SampleDesc {
	off := s.Offset
	d := SampleDesc{
		Sample: idx,
		Bank:   s.Bank(),
		Start:  off << 10,
		End:    ((off << 10) + (uint32(s.Length()) << 11) - 0x800) & 0xffffff80,
	}
	if s.Looped() {
		d.Loop = ((off << 10) + (uint32(s.LoopStart) << 11)) & 0xfffff800
	}
	return d
}

// Dispatch applies a player command. Commands for voices outside the
// configured count are ignored.
func (d *ES5506Dispatch) Dispatch(cmd Command) int {
	if cmd.Chan < 0 || cmd.Chan >= d.voices {
		return ResultHandled
	}
	c := &d.chans[cmd.Chan]
	muted := d.muted[cmd.Chan]

	switch cmd.Cmd {
	case CmdNoteOn:
		ins := d.lib.Instrument(c.Ins)
		d.selectInitialSample(c, ins)
		c.Filter = ins.Filter
		c.BaseK1 = ins.Filter.K1
		c.BaseK2 = ins.Filter.K2
		c.Envelope = ins.Envelope
		if cmd.Value != NoteNull {
			c.BaseFreq = noteFrequency(cmd.Value)
			c.Note = cmd.Value
			c.Changes.add(chgFreq)
		}
		c.Active = true
		c.Changes.add(chgKeyOn)
		c.Changes.add(chgSample)
		c.Changes.add(chgTransWave)
		c.Changes.add(chgFilter)
		c.Changes.add(chgFilterRamp)
		c.Changes.add(chgEnv)
		c.OutVol = c.Vol * 0x101
		if !muted {
			c.Changes.add(chgVolume)
		}
		c.macros.Init(ins.Macros)

	case CmdNoteOff:
		c.Sample = -1
		c.Active = false
		c.Changes.add(chgKeyOff)
		c.PCM.Set(c.PCM.Curr)
		c.macros.Init(nil)

	case CmdNoteOffEnv, CmdEnvRelease:
		c.macros.Release()

	case CmdInstrument:
		if c.Ins != cmd.Value || cmd.Value2 == 1 {
			c.Ins = cmd.Value
			c.Changes.add(chgIns)
		}

	case CmdVolume:
		if vol := max(0, min(cmd.Value, 0xff)); c.Vol != vol {
			c.Vol = vol
			if !c.macros.Get(macro.Vol).Has() {
				c.OutVol = c.Vol * 0x101
				if c.Active && !muted {
					c.Changes.add(chgVolume)
				}
			}
		}

	case CmdGetVolume:
		if c.macros.Get(macro.Vol).Has() {
			return c.Vol
		}
		return c.OutVol / 0x101

	case CmdGetVolMax:
		return 0xff

	case CmdWave:
		if d.validSample(c.PCM.Curr.Sample) {
			if c.TransWaveEnable {
				c.TransWaveNext = cmd.Value
				c.Changes.add(chgTransWave)
			} else {
				c.Sample = cmd.Value
				c.Changes.add(chgSample)
			}
		}

	case CmdSamplePos:
		if d.validSample(c.PCM.Curr.Sample) && !c.TransWaveEnable {
			c.SamplePos = cmd.Value
			c.Changes.add(chgSamplePos)
		}

	case CmdES5506Pause:
		if d.validSample(c.PCM.Curr.Sample) {
			c.Pause = cmd.Value&1 != 0
			c.Changes.add(chgPause)
		}

	case CmdES5506K1:
		c.Filter.K1 = (c.Filter.K1 & 0xf) | ((cmd.Value & 0xfff) << 4)
		c.BaseK1 = c.Filter.K1
		c.Changes.add(chgFilter)

	case CmdES5506K2:
		c.Filter.K2 = (c.Filter.K2 & 0xf) | ((cmd.Value & 0xfff) << 4)
		c.BaseK2 = c.Filter.K2
		c.Changes.add(chgFilter)

	case CmdES5506FilterMode:
		c.Filter.Mode = cmd.Value & 3
		c.Changes.add(chgFilter)

	case CmdES5506K1Ramp:
		c.Envelope.K1Slow = cmd.Value2&1 != 0
		c.Envelope.K1Ramp = int(int8(cmd.Value & 0xff))
		c.Changes.add(chgFilterRamp)

	case CmdES5506K2Ramp:
		c.Envelope.K2Slow = cmd.Value2&1 != 0
		c.Envelope.K2Ramp = int(int8(cmd.Value & 0xff))
		c.Changes.add(chgFilterRamp)

	case CmdES5506EnvCount:
		c.Envelope.Count = cmd.Value & 0x1ff
		c.Changes.add(chgEnv)

	case CmdPanning:
		c.Panning = cmd.Value & 0xff
		c.PanL = (c.Panning >> 4) & 0xf
		c.PanR = c.Panning & 0xf
		if !muted {
			c.Changes.add(chgVolume)
		}

	case CmdPitch:
		c.Pitch = cmd.Value
		c.Changes.add(chgFreq)

	case CmdNotePorta:
		dest := noteFrequency(cmd.Value2)
		reached := false
		if dest > c.BaseFreq {
			c.BaseFreq += cmd.Value
			if c.BaseFreq >= dest {
				c.BaseFreq = dest
				reached = true
			}
		} else {
			c.BaseFreq -= cmd.Value
			if c.BaseFreq <= dest {
				c.BaseFreq = dest
				reached = true
			}
		}
		c.Changes.add(chgFreq)
		if reached {
			c.InPorta = false
			return ResultTargetReached
		}

	case CmdLegato:
		note := cmd.Value
		if arp := c.macros.Get(macro.Arp); arp.Bound() && c.macros.ArpMode() == macro.ArpRelative {
			note += arp.Val()
		}
		c.BaseFreq = noteFrequency(note)
		c.Note = cmd.Value
		c.Changes.add(chgFreq)

	case CmdPrePorta:
		if c.Active && cmd.Value2 != 0 && d.cfg.ResetMacroOnPorta {
			c.macros.Init(d.lib.Instrument(c.Ins).Macros)
		}
		c.InPorta = cmd.Value != 0

	case CmdAlwaysSetVolume:
		return ResultHandled
	}
	return ResultHandled
}

// selectInitialSample picks the sample or transwave slot an instrument
// starts on.
func (d *ES5506Dispatch) selectInitialSample(c *ES5506Channel, ins *song.Instrument) {
	c.TransWaveEnable = ins.TransWave.Enable
	if c.TransWaveEnable {
		c.TransWaveNext = ins.TransWave.Init
		c.Sample = ins.TransWave.Init
		return
	}
	c.Sample = ins.InitSample
	if !d.validSample(c.Sample) {
		c.Sample = -1
	}
}

// MuteChannel silences or restores a voice.
func (d *ES5506Dispatch) MuteChannel(ch int, mute bool) {
	if ch < 0 || ch >= es5506MaxVoices {
		return
	}
	d.muted[ch] = mute
	if ch < d.voices {
		d.chans[ch].Changes.add(chgVolume)
	}
}

// ForceIns makes every enabled voice rewrite all of its registers on the
// next tick.
func (d *ES5506Dispatch) ForceIns() {
	for i := range d.voices {
		c := &d.chans[i]
		for _, k := range []change{chgIns, chgFreq, chgVolume, chgSample, chgTransWave, chgFilter, chgFilterRamp, chgEnv} {
			c.Changes.add(k)
		}
		c.PCM.Set(noSample)
	}
}

// NotifyInsChange reloads instrument id on every enabled voice playing it.
func (d *ES5506Dispatch) NotifyInsChange(id int) {
	for i := range d.voices {
		if d.chans[i].Ins == id {
			d.chans[i].Changes.add(chgIns)
		}
	}
}

// NotifyInsDeletion unbinds the macros of every voice playing ins.
func (d *ES5506Dispatch) NotifyInsDeletion(ins *song.Instrument) {
	if ins == nil {
		return
	}
	for i := range d.chans {
		d.chans[i].macros.NotifyDeletion(ins.Macros)
	}
}

// Poke queues a raw register write.
func (d *ES5506Dispatch) Poke(addr, val uint32) {
	reg := uint8(addr & 0x0f)
	if reg == regPAGE {
		d.curPage = int(val & 0x7f)
	}
	d.rWrite(reg, val)
}

// PokeBatch queues a list of raw register writes in order.
func (d *ES5506Dispatch) PokeBatch(ws []regdump.Write) {
	for _, w := range ws {
		d.Poke(w.Addr, w.Val)
	}
}

// RegisterPoolSize returns the size of the register image in bytes.
func (d *ES5506Dispatch) RegisterPoolSize() int { return es5506PoolSize }

// RegisterPool returns a snapshot of every register of every page as
// big-endian bytes, 64 bytes per page.
func (d *ES5506Dispatch) RegisterPool() []byte {
	pool := make([]byte, es5506PoolSize)
	for page := range 128 {
		for reg := range 16 {
			v := d.chip.ReadReg(uint8(page), uint8(reg))
			i := page<<6 | reg<<2
			pool[i] = byte(v >> 24)
			pool[i+1] = byte(v >> 16)
			pool[i+2] = byte(v >> 8)
			pool[i+3] = byte(v)
		}
	}
	return pool
}

// ChanState returns a copy of voice ch's dispatch state.
func (d *ES5506Dispatch) ChanState(ch int) (ES5506Channel, bool) {
	if ch < 0 || ch >= es5506MaxVoices {
		return ES5506Channel{}, false
	}
	return d.chans[ch], true
}

// Tick advances every voice's macros and queues the register writes
// its pending changes require.
func (d *ES5506Dispatch) Tick() {
	for i := range d.voices {
		d.applyMacros(i)
		d.flushChanges(i)
	}
}

func (d *ES5506Dispatch) applyMacros(i int) {
	c := &d.chans[i]
	m := &c.macros
	m.Next()

	if vc := m.Get(macro.Vol); vc.Had() {
		out := c.Vol * 0x101 * max(0, min(vc.Val(), 0xff)) / 0xff
		if out != c.OutVol {
			c.OutVol = out
			if c.Active && !d.muted[i] {
				c.Changes.add(chgVolume)
			}
		}
	}

	if ac := m.Get(macro.Arp); ac.Had() {
		if !c.InPorta {
			note := c.Note + ac.Val()
			if m.ArpMode() == macro.ArpFixed {
				note = ac.Val()
			}
			if f := noteFrequency(note); f != c.BaseFreq {
				c.BaseFreq = f
				c.Changes.add(chgFreq)
			}
		}
	} else if m.ArpMode() == macro.ArpFixed && ac.Finished() {
		c.BaseFreq = noteFrequency(c.Note)
		c.Changes.add(chgFreq)
	}

	if pc := m.Get(macro.Pitch); pc.Had() {
		if c.Pitch2 != pc.Val() {
			c.Pitch2 = pc.Val()
			c.Changes.add(chgFreq)
		}
	} else if pc.Finished() && c.Pitch2 != 0 {
		c.Pitch2 = 0
		c.Changes.add(chgFreq)
	}

	if dc := m.Get(macro.Duty); dc.Had() {
		if mode := dc.Val() & 3; c.Filter.Mode != mode {
			c.Filter.Mode = mode
			c.Changes.add(chgFilter)
		}
	}

	if wc := m.Get(macro.Wave); wc.Had() {
		if c.TransWaveEnable {
			if c.TransWaveNext != wc.Val() {
				c.TransWaveNext = wc.Val()
				if c.Active {
					c.Changes.add(chgTransWave)
				}
			}
		} else if c.Sample != wc.Val() {
			c.Sample = wc.Val()
			if c.Active {
				c.Changes.add(chgSample)
			}
		}
	}

	d.applyCoefMacro(c, m.Get(macro.Ex1), m.Ex1Mode(), &c.Filter.K1, c.BaseK1)
	d.applyCoefMacro(c, m.Get(macro.Ex2), m.Ex2Mode(), &c.Filter.K2, c.BaseK2)

	if ec := m.Get(macro.Ex3); ec.Had() {
		if n := ec.Val() & 0x1ff; c.Envelope.Count != n {
			c.Envelope.Count = n
			c.Changes.add(chgEnv)
		}
	}

	if ac := m.Get(macro.Alg); ac.Had() {
		k1Slow := ac.Val()&1 != 0
		k2Slow := ac.Val()&2 != 0
		if c.Envelope.K1Slow != k1Slow || c.Envelope.K2Slow != k2Slow {
			c.Envelope.K1Slow = k1Slow
			c.Envelope.K2Slow = k2Slow
			c.Changes.add(chgFilterRamp)
		}
	}
	if fc := m.Get(macro.Fb); fc.Had() && c.Envelope.K1Ramp != fc.Val() {
		c.Envelope.K1Ramp = fc.Val()
		c.Changes.add(chgFilterRamp)
	}
	if fc := m.Get(macro.Fms); fc.Had() && c.Envelope.K2Ramp != fc.Val() {
		c.Envelope.K2Ramp = fc.Val()
		c.Changes.add(chgFilterRamp)
	}

	if pc := m.Get(macro.Ams); pc.Had() {
		if p := pc.Val() != 0; c.Pause != p {
			c.Pause = p
			c.Changes.add(chgPause)
		}
	}

	if pc := m.Get(macro.PanL); pc.Had() && c.PanL != pc.Val()&0xf {
		c.PanL = pc.Val() & 0xf
		c.Changes.add(chgVolume)
	}
	if pc := m.Get(macro.PanR); pc.Had() && c.PanR != pc.Val()&0xf {
		c.PanR = pc.Val() & 0xf
		c.Changes.add(chgVolume)
	}

	if pc := m.Get(macro.PhaseReset); pc.Had() && pc.Val() != 0 && c.Active && !c.TransWaveEnable {
		c.SamplePos = 0
		c.Changes.add(chgSamplePos)
	}
}

// applyCoefMacro applies a filter coefficient curve. In offset mode the
// instrument's coefficient is restored when the curve finishes.
func (d *ES5506Dispatch) applyCoefMacro(c *ES5506Channel, cur *macro.Cursor, mode macro.ValueMode, k *int, base int) {
	var v int
	switch {
	case cur.Had() && mode == macro.ValueOffset:
		v = base + cur.Val()
	case cur.Had():
		v = cur.Val()
	case mode == macro.ValueOffset && cur.Finished():
		v = base
	default:
		return
	}
	v = max(0, min(v, 0xffff))
	if *k != v {
		*k = v
		c.Changes.add(chgFilter)
	}
}

// flushChanges turns a voice's pending changes into queued writes.
func (d *ES5506Dispatch) flushChanges(i int) {
	c := &d.chans[i]

	if c.Changes.has(chgIns) {
		ins := d.lib.Instrument(c.Ins)
		d.selectInitialSample(c, ins)
		c.Changes.add(chgSample)
		c.Changes.clear(chgIns)
	}
	if c.Changes.has(chgSample) {
		d.changeSample(i)
		c.Changes.clear(chgSample)
	}
	if c.Changes.has(chgTransWave) {
		d.changeTransWave(i)
		c.Changes.clear(chgTransWave)
	}
	if c.Changes.has(chgFilter) {
		d.crWriteMask(i, uint32(c.Filter.Mode&3)<<8, crLP3|crLP4)
		d.pageWrite(pageLow+i, regK1, uint32(c.Filter.K1&0xffff))
		d.pageWrite(pageLow+i, regK2, uint32(c.Filter.K2&0xffff))
		c.Changes.clear(chgFilter)
	}
	if c.Changes.has(chgVolume) {
		if d.muted[i] {
			c.LVol, c.RVol = 0, 0
		} else {
			c.LVol = max(0, min(c.OutVol*c.PanL/0xf, 0xffff))
			c.RVol = max(0, min(c.OutVol*c.PanR/0xf, 0xffff))
		}
		d.pageWrite(pageLow+i, regLVOL, uint32(c.LVol))
		d.pageWrite(pageLow+i, regRVOL, uint32(c.RVol))
		c.Changes.clear(chgVolume)
	}
	if c.Changes.has(chgFilterRamp) {
		d.pageWrite(pageLow+i, regK1RAMP, rampValue(c.Envelope.K1Ramp, c.Envelope.K1Slow))
		d.pageWrite(pageLow+i, regK2RAMP, rampValue(c.Envelope.K2Ramp, c.Envelope.K2Slow))
		c.Changes.clear(chgFilterRamp)
	}
	if c.Changes.has(chgEnv) {
		d.pageWrite(pageLow+i, regECOUNT, uint32(c.Envelope.Count&0x1ff))
		c.Changes.clear(chgEnv)
	}
	if c.Changes.has(chgSamplePos) {
		if d.validSample(c.PCM.Curr.Sample) {
			d.pageWrite(pageHigh+i, regACCUM, c.PCM.Curr.Start+uint32(c.SamplePos)<<11)
		}
		c.Changes.clear(chgSamplePos)
	}
	if c.Changes.has(chgPause) {
		var stop uint32
		if c.Pause {
			stop = crStop1
		}
		d.crWriteMask(i, stop, crStop1)
		c.Changes.clear(chgPause)
	}
	if c.Changes.has(chgFreq) || c.Changes.has(chgKeyOn) || c.Changes.has(chgKeyOff) {
		c.Freq = d.calcFreq(c)
		if c.Changes.has(chgKeyOff) {
			d.crWriteMask(i, crStop, crIRQ|crDIR|crIRQE|crStop)
		} else if c.Active {
			d.pageWrite(pageLow+i, regFC, uint32(c.Freq))
			if c.Changes.has(chgKeyOn) {
				d.crWriteMask(i, 0, crStop)
			}
		}
		c.Changes.clear(chgFreq)
		c.Changes.clear(chgKeyOn)
		c.Changes.clear(chgKeyOff)
	}
}

func rampValue(ramp int, slow bool) uint32 {
	v := uint32(ramp&0xff) << 8
	if slow {
		v |= 1
	}
	return v
}

// changeSample stops voice i and loads the selected sample or transwave
// slot. The new descriptor takes effect at once.
func (d *ES5506Dispatch) changeSample(i int) {
	c := &d.chans[i]
	d.crWriteMaskImm(i, crStop, crIRQ|crDIR|crIRQE|crStop)

	var (
		desc  = noSample
		s     *song.Sample
		loops bool
	)
	if c.TransWaveEnable {
		ins := d.lib.Instrument(c.Ins)
		if c.TransWaveNext >= 0 && c.TransWaveNext < len(ins.TransWave.Slots) {
			sl := ins.TransWave.Slots[c.TransWaveNext]
			if d.validSample(sl.Index) {
				s = d.lib.Sample(sl.Index)
				desc = sliceDesc(sl.Index, s, sl)
				loops = true
			}
		}
	} else if d.validSample(c.Sample) {
		s = d.lib.Sample(c.Sample)
		desc = sampleDesc(c.Sample, s)
		loops = s.Looped()
	}

	if s == nil {
		// Out of range sample: the voice stays stopped and silent.
		c.FreqOffs = 0
		c.PCM.Set(SampleDesc{Sample: -1})
		c.Changes.clear(chgKeyOn)
		return
	}

	c.FreqOffs = rateRatio(s.Rate)
	c.PCM.Set(desc)
	if c.TransWaveEnable {
		c.TransWaveIndex = c.TransWaveNext
	}
	d.pageWrite(pageLow+i, regECOUNT, 0)
	d.crWriteMask(i, desc.Bank<<crBankShift|uint32(c.Filter.Mode&3)<<8, 0xc000|crLP3|crLP4)
	d.pageWrite(pageHigh+i, regACCUM, desc.Start)
	d.pageWrite(pageLow+i, regK2, 0xffff)
	// Let the filter state settle before the voice restarts.
	d.pageWriteDelay(pageLow+i, regK1, 0xffff, filterSettleDelay)
	if loops {
		d.pageWrite(pageHigh+i, regSTART, desc.Loop)
		d.crWriteMask(i, loopBits(s.LoopMode), 0x3cfc)
	} else {
		d.pageWrite(pageHigh+i, regSTART, desc.Start)
		d.crWriteMask(i, 0, 0x3cfc)
	}
	d.pageWrite(pageHigh+i, regEND, desc.End)
	if c.Active {
		if !c.Changes.has(chgKeyOff) {
			c.Changes.add(chgKeyOn)
		}
		c.Changes.add(chgFreq)
	}
}

// changeTransWave moves voice i to another transwave slot. Loop
// boundaries behind the playback position are queued now; the one ahead
// is staged and written by interrupt service once the voice wraps.
func (d *ES5506Dispatch) changeTransWave(i int) {
	c := &d.chans[i]
	ins := d.lib.Instrument(c.Ins)
	if !c.Active || !c.TransWaveEnable || c.TransWaveNext < 0 || c.TransWaveNext >= len(ins.TransWave.Slots) {
		return
	}
	if c.TransWaveIndex == c.TransWaveNext {
		return
	}
	c.TransWaveIndex = c.TransWaveNext
	if d.writes.empty() {
		c.CR = d.crRefreshImm(i)
	}
	sl := ins.TransWave.Slots[c.TransWaveIndex]
	cur := c.PCM.Curr

	if cur.Sample != sl.Index {
		if !d.validSample(sl.Index) {
			return
		}
		next := sliceDesc(sl.Index, d.lib.Sample(sl.Index), sl)
		d.crWriteMask(i, crBLE|crIRQE, crIRQ|crIRQE|crBLE|crLPE|crLEI)
		c.PCM.Stage(next)
		d.queueTrailingBoundary(i, next)
		return
	}

	s := d.lib.Sample(cur.Sample)
	if s == nil {
		return
	}
	next := sliceDesc(cur.Sample, s, sl)
	if c.CR&crLoopMask == crLoopPingPong {
		c.PCM.Set(next)
		d.pageWrite(pageHigh+i, regSTART, next.Loop)
		d.pageWrite(pageHigh+i, regEND, next.End)
		return
	}
	if s.LoopMode == song.LoopPingPong {
		d.crWriteMask(i, crIRQE, crIRQ|crIRQE|crLEI)
	} else {
		d.crWriteMask(i, crBLE|crIRQE, crIRQ|crIRQE|crBLE|crLPE|crLEI)
	}
	c.PCM.Stage(next)
	d.queueTrailingBoundary(i, next)
}

// queueTrailingBoundary queues the loop boundary behind the playback
// direction of voice i.
func (d *ES5506Dispatch) queueTrailingBoundary(i int, next SampleDesc) {
	if d.chans[i].CR&crDIR != 0 {
		d.pageWrite(pageHigh+i, regEND, next.End)
	} else {
		d.pageWrite(pageHigh+i, regSTART, next.Loop)
	}
}
