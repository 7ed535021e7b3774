package emu

import "testing"

// constMem returns the same word everywhere.
type constMem int16

func (m constMem) ReadSample(uint8, uint32) int16 { return int16(m) }

// busWrite writes a full register through the 8-bit bus.
func busWrite(e *ES5506, reg uint8, val uint32) {
	for b := uint8(0); b < 4; b++ {
		e.Write(reg<<2|b, uint8(val>>(24-8*uint32(b))))
	}
}

func busRead(e *ES5506, reg uint8) uint32 {
	var v uint32
	for b := uint8(0); b < 4; b++ {
		v |= uint32(e.Read(reg<<2|b)) << (24 - 8*uint32(b))
	}
	return v
}

// runVoice configures voice 0 to play words [0, 4) at one word per frame.
func runVoice(e *ES5506, cr uint32) *esVoice {
	v := &e.v[0]
	v.cr = cr
	v.fc = 0x800
	v.start = 0
	v.end = 4 << 11
	v.accum = 0
	return v
}

func TestES5506_BusAccess(t *testing.T) {
	e := NewES5506(nil)

	busWrite(e, regFC, 0x00012345)
	if got := e.ReadReg(0, regFC); got != 0x12345 {
		t.Errorf("FC: got 0x%X, want 0x12345", got)
	}

	busWrite(e, regPAGE, pageHigh|3)
	busWrite(e, regSTART, 0xCAFE0000)
	if got := e.ReadReg(pageHigh|3, regSTART); got != 0xCAFE0000 {
		t.Errorf("START: got 0x%X, want 0xCAFE0000", got)
	}
	if got := busRead(e, regSTART); got != 0xCAFE0000 {
		t.Errorf("START bus read: got 0x%X, want 0xCAFE0000", got)
	}
	if got := e.ReadReg(pageLow|3, regSTART); got == 0xCAFE0000 {
		t.Error("low page register 1 aliases START")
	}
}

func TestES5506_RegisterWidths(t *testing.T) {
	e := NewES5506(nil)
	busWrite(e, regFC, 0xFFFFFFFF)
	busWrite(e, regECOUNT, 0xFFFFFFFF)
	busWrite(e, regACTV, 0xFFFFFFFF)

	if got := e.ReadReg(0, regFC); got != 0x1FFFF {
		t.Errorf("FC: got 0x%X, want 0x1FFFF", got)
	}
	if got := e.ReadReg(0, regECOUNT); got != 0x1FF {
		t.Errorf("ECOUNT: got 0x%X, want 0x1FF", got)
	}
	if got := e.Voices(); got != 32 {
		t.Errorf("voices: got %d, want 32", got)
	}
}

func TestES5506_ResetStopsVoices(t *testing.T) {
	e := NewES5506(constMem(1000))
	for i := range e.v {
		if e.v[i].cr&crStop != crStop {
			t.Fatalf("voice %d not stopped after reset: CR 0x%X", i, e.v[i].cr)
		}
	}
	e.Tick()
	if e.Lout() != 0 || e.Rout() != 0 {
		t.Errorf("stopped chip output: got %d/%d, want 0/0", e.Lout(), e.Rout())
	}
}

func TestES5506_ForwardLoop(t *testing.T) {
	e := NewES5506(nil)
	v := runVoice(e, crLPE)

	for range 3 {
		e.Tick()
	}
	if v.accum != 3<<11 {
		t.Fatalf("accum after 3 frames: got 0x%X, want 0x%X", v.accum, 3<<11)
	}
	e.Tick()
	if v.accum != 0 {
		t.Errorf("accum after wrap: got 0x%X, want 0", v.accum)
	}
	if e.IRQ() {
		t.Error("IRQ raised without IRQE")
	}
}

func TestES5506_StopAtEnd(t *testing.T) {
	e := NewES5506(nil)
	v := runVoice(e, 0)

	for range 4 {
		e.Tick()
	}
	if v.cr&crStop0 == 0 {
		t.Errorf("voice still running at END: CR 0x%X", v.cr)
	}
	if v.accum != v.end {
		t.Errorf("accum: got 0x%X, want END 0x%X", v.accum, v.end)
	}
}

func TestES5506_PingPong(t *testing.T) {
	e := NewES5506(nil)
	v := runVoice(e, crLPE|crBLE)

	for range 4 {
		e.Tick()
	}
	if v.cr&crDIR == 0 {
		t.Fatalf("direction not reversed at END: CR 0x%X", v.cr)
	}
	e.Tick()
	if want := uint32(3 << 11); v.accum != want {
		t.Errorf("accum after bounce: got 0x%X, want 0x%X", v.accum, want)
	}
}

func TestES5506_LoopIRQ(t *testing.T) {
	e := NewES5506(nil)
	runVoice(e, crLPE|crIRQE)

	for range 4 {
		e.Tick()
	}
	if !e.IRQ() {
		t.Fatal("IRQ not raised on loop")
	}
	if got := e.ReadReg(0, regIRQV); got != irqvActive {
		t.Errorf("IRQV: got 0x%X, want 0x%X", got, irqvActive)
	}
	if !e.IRQ() {
		t.Fatal("side-effect free read acknowledged IRQ")
	}
	if got := busRead(e, regIRQV); got != irqvActive {
		t.Errorf("IRQV bus read: got 0x%X, want 0x%X", got, irqvActive)
	}
	if e.IRQ() {
		t.Error("IRQ still asserted after IRQV read")
	}
}

func TestES5506_TransWaveBoundary(t *testing.T) {
	e := NewES5506(nil)
	v := runVoice(e, crBLE|crIRQE)

	for range 4 {
		e.Tick()
	}
	if v.cr&crTransWave != crTransWave {
		t.Errorf("CR after transwave wrap: got 0x%X, want LEI|IRQE set", v.cr)
	}
	if v.accum != v.start {
		t.Errorf("accum: got 0x%X, want START", v.accum)
	}
}

func TestES5506_Mix(t *testing.T) {
	e := NewES5506(constMem(1000))
	v := runVoice(e, crLPE)
	v.lvol = 0xFFFF
	v.rvol = 0x8000

	e.Tick()
	if e.Lout() != 999 {
		t.Errorf("left: got %d, want 999", e.Lout())
	}
	if e.Rout() != 500 {
		t.Errorf("right: got %d, want 500", e.Rout())
	}
}

func TestES5506_MixClamps(t *testing.T) {
	e := NewES5506(constMem(32767))
	for i := range 4 {
		e.v[i] = esVoice{cr: crLPE, fc: 0x800, end: 4 << 11, lvol: 0xFFFF, rvol: 0xFFFF}
	}
	e.Tick()
	if e.Lout() != 32767 {
		t.Errorf("left: got %d, want 32767", e.Lout())
	}
}

func TestRampReg(t *testing.T) {
	if got := rampReg(0x1000, 0x0100); got != 0x1010 {
		t.Errorf("up: got 0x%X, want 0x1010", got)
	}
	if got := rampReg(0x0005, 0xFF00); got != 0 {
		t.Errorf("down clamps: got 0x%X, want 0", got)
	}
	if got := rampReg(0xFFF8, 0x7F00); got != 0xFFFF {
		t.Errorf("up clamps: got 0x%X, want 0xFFFF", got)
	}
}

func TestRegisterName(t *testing.T) {
	tests := []struct {
		page, reg uint8
		want      string
	}{
		{0x03, regK1, "K1"},
		{0x25, regSTART, "START"},
		{0x25, regCR, "CR"},
		{0x40, 0x01, "CH0R"},
		{0x00, 0x0F, "PAGE"},
		{0x40, 0x0F, ""},
	}
	for _, tt := range tests {
		if got := RegisterName(tt.page, tt.reg); got != tt.want {
			t.Errorf("RegisterName(0x%02X, 0x%X): got %q, want %q", tt.page, tt.reg, got, tt.want)
		}
	}
}
