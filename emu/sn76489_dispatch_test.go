package emu

import (
	"testing"

	"github.com/user-none/emes/macro"
	"github.com/user-none/emes/song"
)

func newTestPSG(t *testing.T, ins ...*song.Instrument) *SN76489Dispatch {
	t.Helper()
	s := prepareSong(t, &song.Song{Chip: song.ChipSN76489, Instruments: ins})
	return NewSN76489Dispatch(s, OutputRate)
}

func drainPSG(d *SN76489Dispatch) {
	l, r := make([]int16, 1), make([]int16, 1)
	for i := 0; i < 1024 && d.Pending() > 0; i++ {
		d.Acquire(l, r)
	}
}

func TestTonePeriod(t *testing.T) {
	if got := tonePeriod(psgNoteHz(69)); got != 254 {
		t.Errorf("A-4: got %d, want 254", got)
	}
	if got := tonePeriod(1); got != psgMaxTone {
		t.Errorf("low clamp: got %d, want %d", got, psgMaxTone)
	}
	if got := tonePeriod(1e9); got != 1 {
		t.Errorf("high clamp: got %d, want 1", got)
	}
}

func TestSN76489Dispatch_NoteOn(t *testing.T) {
	d := newTestPSG(t)
	drainPSG(d)

	d.Dispatch(Command{Cmd: CmdNoteOn, Chan: 1, Value: 69})
	d.Tick()
	drainPSG(d)

	if got := d.Chip().GetToneReg(1); got != 254 {
		t.Errorf("tone: got %d, want 254", got)
	}
	if got := d.Chip().GetVolume(1); got != 0 {
		t.Errorf("attenuation: got %d, want 0", got)
	}

	d.Dispatch(Command{Cmd: CmdNoteOff, Chan: 1})
	d.Tick()
	drainPSG(d)
	if got := d.Chip().GetVolume(1); got != 0x0F {
		t.Errorf("attenuation after note off: got %d, want 15", got)
	}
}

func TestSN76489Dispatch_VolumeMacro(t *testing.T) {
	ins := song.NewInstrument("soft")
	ins.Macros.Curves[macro.Vol] = macro.NewCurve([]int{5}, -1, -1)
	d := newTestPSG(t, ins)
	drainPSG(d)

	d.Dispatch(Command{Cmd: CmdInstrument, Chan: 0, Value: 0})
	d.Dispatch(Command{Cmd: CmdNoteOn, Chan: 0, Value: 60})
	d.Tick()
	drainPSG(d)

	if got := d.Chip().GetVolume(0); got != 10 {
		t.Errorf("attenuation: got %d, want 10", got)
	}
}

func TestSN76489Dispatch_Noise(t *testing.T) {
	d := newTestPSG(t)
	drainPSG(d)

	d.Dispatch(Command{Cmd: CmdWave, Chan: psgNoise, Value: 3})
	d.Tick()
	drainPSG(d)
	if got := d.Chip().GetNoiseReg(); got != 3 {
		t.Errorf("noise: got %d, want 3", got)
	}
}

func TestSN76489Dispatch_Output(t *testing.T) {
	d := newTestPSG(t)
	d.Dispatch(Command{Cmd: CmdNoteOn, Chan: 0, Value: 69})
	d.Tick()

	l, r := make([]int16, 2048), make([]int16, 2048)
	d.Acquire(l, r)

	var high bool
	for i := range l {
		if l[i] != r[i] {
			t.Fatalf("sample %d: left %d != right %d", i, l[i], r[i])
		}
		if l[i] > 0 {
			high = true
		}
	}
	if !high {
		t.Error("no tone output")
	}
}

func TestSN76489Dispatch_OutOfRangeChannel(t *testing.T) {
	d := newTestPSG(t)
	drainPSG(d)
	if got := d.Dispatch(Command{Cmd: CmdNoteOn, Chan: 4, Value: 60}); got != ResultHandled {
		t.Errorf("got %d, want %d", got, ResultHandled)
	}
	d.Tick()
	if d.Pending() != 0 {
		t.Errorf("pending: got %d, want 0", d.Pending())
	}
}

func TestSN76489Dispatch_TickClearsChanges(t *testing.T) {
	d := newTestPSG(t)
	d.Dispatch(Command{Cmd: CmdNoteOn, Chan: 0, Value: 69})
	d.Dispatch(Command{Cmd: CmdWave, Chan: psgNoise, Value: 5})
	d.Dispatch(Command{Cmd: CmdPitch, Chan: 1, Value: 64})
	d.MuteChannel(2, true)
	d.Tick()

	for ch := range psgVoices {
		if c := d.chans[ch].Changes; !c.Empty() {
			t.Errorf("voice %d: changes 0x%X still set after Tick", ch, uint16(c))
		}
	}
}

func TestSN76489Dispatch_VolumeClampedBeforeCompare(t *testing.T) {
	d := newTestPSG(t)
	d.Dispatch(Command{Cmd: CmdNoteOn, Chan: 0, Value: 69})
	d.Tick()
	drainPSG(d)

	d.Dispatch(Command{Cmd: CmdVolume, Chan: 0, Value: 40})
	if c := d.chans[0].Changes; !c.Empty() {
		t.Errorf("out of range volume equal after clamp queued changes 0x%X", uint16(c))
	}
	if got := d.Dispatch(Command{Cmd: CmdGetVolume, Chan: 0}); got != psgVolMax {
		t.Errorf("volume: got %d, want %d", got, psgVolMax)
	}
}
