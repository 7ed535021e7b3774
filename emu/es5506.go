package emu

// SampleMemory is the chip's sample ROM/RAM: four banks of 2M words.
type SampleMemory interface {
	ReadSample(bank uint8, addr uint32) int16
}

// esVoice holds the registers of one ES5506 voice.
type esVoice struct {
	cr     uint32
	fc     uint32 // 6.11 fixed point step, 0x800 = one word per frame
	lvol   uint32
	lvramp uint32
	rvol   uint32
	rvramp uint32
	ecount uint32
	k1     uint32
	k1ramp uint32
	k2     uint32
	k2ramp uint32

	// 21.11 fixed point word addresses within the selected bank
	start uint32
	end   uint32
	accum uint32

	taps    [6]uint32 // filter state registers, stored only
	slowDiv uint8
}

// ES5506 is a register-level model of the Ensoniq ES5506 (OTTO) sample
// playback chip. The host bus is 8 bits wide: each 32-bit register is
// accessed as four big-endian bytes at (reg<<2)|byte in the page
// selected by PAGE. Filters are not applied; coefficients are only stored.
type ES5506 struct {
	mem SampleMemory
	v   [32]esVoice

	actv  uint32 // index of the highest active voice
	mode  uint32
	pot   uint32
	page  uint32
	wst   uint32
	wend  uint32
	lrend uint32

	lout, rout int32
}

// NewES5506 creates a new ES5506 reading samples from mem.
func NewES5506(mem SampleMemory) *ES5506 {
	e := &ES5506{mem: mem}
	e.Reset()
	return e
}

// SetMemory replaces the sample memory.
func (e *ES5506) SetMemory(mem SampleMemory) {
	e.mem = mem
}

// Reset stops every voice and clears all registers.
func (e *ES5506) Reset() {
	e.v = [32]esVoice{}
	for i := range e.v {
		e.v[i].cr = crStop
	}
	e.actv = 0x1f
	e.mode = 0
	e.pot = 0
	e.page = 0
	e.wst, e.wend, e.lrend = 0, 0, 0
	e.lout, e.rout = 0, 0
}

// Voices returns the number of voices the chip is processing.
func (e *ES5506) Voices() int { return int(e.actv) + 1 }

// irqVoice returns the lowest voice with a pending interrupt, or -1.
func (e *ES5506) irqVoice() int {
	for i := 0; i <= int(e.actv); i++ {
		if e.v[i].cr&crIRQ != 0 {
			return i
		}
	}
	return -1
}

// IRQ reports the state of the interrupt line.
func (e *ES5506) IRQ() bool { return e.irqVoice() >= 0 }

// ReadReg returns register reg as seen from page without side effects.
func (e *ES5506) ReadReg(page, reg uint8) uint32 {
	reg &= 0x0f
	switch reg {
	case regPOT:
		return e.pot
	case regIRQV:
		if i := e.irqVoice(); i >= 0 {
			return irqvActive | uint32(i)
		}
		return 0
	case regPAGE:
		return e.page
	}

	if page >= pageOutput {
		switch reg {
		case 0x00:
			return uint32(e.lout)
		case 0x01:
			return uint32(e.rout)
		}
		return 0
	}

	v := &e.v[page&0x1f]
	if reg == regCR {
		return v.cr
	}
	if page&pageHigh == 0 {
		switch reg {
		case regFC:
			return v.fc
		case regLVOL:
			return v.lvol
		case regLVRAMP:
			return v.lvramp
		case regRVOL:
			return v.rvol
		case regRVRAMP:
			return v.rvramp
		case regECOUNT:
			return v.ecount
		case regK2:
			return v.k2
		case regK2RAMP:
			return v.k2ramp
		case regK1:
			return v.k1
		case regK1RAMP:
			return v.k1ramp
		case regACTV:
			return e.actv
		case regMODE:
			return e.mode
		}
		return 0
	}
	switch reg {
	case regSTART:
		return v.start
	case regEND:
		return v.end
	case regACCUM:
		return v.accum
	case regO4N1, regO3N2, regO3N1, regO2N2, regO2N1, regO1N1:
		return v.taps[reg-regO4N1]
	case regWST:
		return e.wst
	case regWEND:
		return e.wend
	case regLREND:
		return e.lrend
	}
	return 0
}

// writeReg stores a full register value, masked to the register's width.
func (e *ES5506) writeReg(page, reg uint8, val uint32) {
	reg &= 0x0f
	switch reg {
	case regPOT:
		e.pot = val & 0x3ff
		return
	case regIRQV:
		return
	case regPAGE:
		e.page = val & 0x7f
		return
	}
	if page >= pageOutput {
		return
	}

	v := &e.v[page&0x1f]
	if reg == regCR {
		v.cr = val & 0xffff
		return
	}
	if page&pageHigh == 0 {
		switch reg {
		case regFC:
			v.fc = val & 0x1ffff
		case regLVOL:
			v.lvol = val & 0xffff
		case regLVRAMP:
			v.lvramp = val & 0xff00
		case regRVOL:
			v.rvol = val & 0xffff
		case regRVRAMP:
			v.rvramp = val & 0xff00
		case regECOUNT:
			v.ecount = val & 0x1ff
		case regK2:
			v.k2 = val & 0xffff
		case regK2RAMP:
			v.k2ramp = val & 0xff01
		case regK1:
			v.k1 = val & 0xffff
		case regK1RAMP:
			v.k1ramp = val & 0xff01
		case regACTV:
			e.actv = val & 0x1f
		case regMODE:
			e.mode = val & 0x1f
		}
		return
	}
	switch reg {
	case regSTART:
		v.start = val
	case regEND:
		v.end = val
	case regACCUM:
		v.accum = val
	case regO4N1, regO3N2, regO3N1, regO2N2, regO2N1, regO1N1:
		v.taps[reg-regO4N1] = val & 0x3ffff
	case regWST:
		e.wst = val
	case regWEND:
		e.wend = val
	case regLREND:
		e.lrend = val
	}
}

// Read performs a host bus read. Reading the low byte of IRQV
// acknowledges the interrupt it reports.
func (e *ES5506) Read(addr uint8) uint8 {
	reg := (addr >> 2) & 0x0f
	b := addr & 3
	val := e.ReadReg(uint8(e.page), reg)
	if reg == regIRQV && b == 3 && val&irqvActive != 0 {
		e.v[val&irqvVoiceMask].cr &^= crIRQ
	}
	return uint8(val >> (24 - 8*uint32(b)))
}

// Write performs a host bus write of one byte of a register.
func (e *ES5506) Write(addr uint8, val uint8) {
	reg := (addr >> 2) & 0x0f
	shift := 24 - 8*uint32(addr&3)
	page := uint8(e.page)
	cur := e.ReadReg(page, reg)
	cur = (cur &^ (0xff << shift)) | uint32(val)<<shift
	e.writeReg(page, reg, cur)
}

// Tick produces one output frame: every active voice is stepped once
// and the voices are mixed into the stereo output.
func (e *ES5506) Tick() {
	var l, r int64
	for i := 0; i <= int(e.actv); i++ {
		v := &e.v[i]
		if v.cr&crStop != 0 {
			continue
		}
		bank := uint8(v.cr >> crBankShift)
		s := int64(e.sample(bank, v.accum>>11))
		l += s * int64(v.lvol) >> 16
		r += s * int64(v.rvol) >> 16
		e.stepVoice(v)
	}
	e.lout = clampInt32(int32(clamp64(l)), -32768, 32767)
	e.rout = clampInt32(int32(clamp64(r)), -32768, 32767)
}

func (e *ES5506) sample(bank uint8, addr uint32) int16 {
	if e.mem == nil {
		return 0
	}
	return e.mem.ReadSample(bank, addr)
}

// Lout returns the left output of the last frame.
func (e *ES5506) Lout() int32 { return e.lout }

// Rout returns the right output of the last frame.
func (e *ES5506) Rout() int32 { return e.rout }

func (e *ES5506) stepVoice(v *esVoice) {
	if v.ecount > 0 {
		v.lvol = rampReg(v.lvol, v.lvramp)
		v.rvol = rampReg(v.rvol, v.rvramp)
		v.slowDiv++
		if v.k1ramp&1 == 0 || v.slowDiv&7 == 0 {
			v.k1 = rampReg(v.k1, v.k1ramp)
		}
		if v.k2ramp&1 == 0 || v.slowDiv&7 == 0 {
			v.k2 = rampReg(v.k2, v.k2ramp)
		}
		v.ecount--
	}

	step := int64(v.fc & 0x1ffff)
	acc := int64(v.accum)
	start := int64(v.start)
	end := int64(v.end)
	looped := false

	if v.cr&crDIR == 0 {
		acc += step
		if acc >= end {
			over := acc - end
			switch v.cr & crLoopMask {
			case crLPE | crBLE:
				acc = end - over
				v.cr |= crDIR
			case crLPE:
				acc = start + over
			case crBLE:
				acc = start + over
				v.cr |= crLEI
			default:
				acc = end
				v.cr |= crStop0
			}
			looped = v.cr&crLoopMask != 0
		}
	} else {
		acc -= step
		if acc <= start {
			under := start - acc
			switch v.cr & crLoopMask {
			case crLPE | crBLE:
				acc = start + under
				v.cr &^= crDIR
			case crLPE:
				acc = end - under
			case crBLE:
				acc = end - under
				v.cr |= crLEI
			default:
				acc = start
				v.cr |= crStop0
			}
			looped = v.cr&crLoopMask != 0
		}
	}
	if looped && v.cr&crIRQE != 0 {
		v.cr |= crIRQ
	}
	v.accum = uint32(max(0, min(acc, 0xffffffff)))
}

// rampReg adds the signed ramp in bits 8-15 of ramp to a 16-bit register.
func rampReg(val, ramp uint32) uint32 {
	d := int32(int8(ramp>>8)) << 4
	n := int32(val) + d
	return uint32(clampInt32(n, 0, 0xffff))
}

func clamp64(v int64) int64 {
	return max(-32768, min(v, 32767))
}

func clampInt32(v, lo, hi int32) int32 {
	return max(lo, min(v, hi))
}
