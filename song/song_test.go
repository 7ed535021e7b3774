package song

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/spf13/afero"
	"github.com/user-none/emes/macro"
)

const testSong = `{
	"name": "test",
	"voices": 8,
	"instruments": [
		{
			"name": "lead",
			"sample": 1,
			"arpFixed": true,
			"macros": {
				"vol": {"values": [255, 200, 100], "loop": 1},
				"arp": {"values": [60, 64, 67], "rel": 1}
			},
			"filter": {"k1": 4096, "k2": 8192, "mode": 7}
		},
		{
			"name": "pad",
			"transwave": {"init": 0, "slots": [{"index": 0, "loopStart": 4, "loopEnd": 12}, {"index": 1}]}
		}
	],
	"samples": [
		{"name": "sq", "wave": "square", "period": 16, "cycles": 2, "rate": 16726, "loopStart": 0},
		{"name": "raw", "data": [1, 2, 3, 4], "loopMode": "pingpong"}
	],
	"events": [
		{"tick": 4, "cmd": "noteOff", "chan": 0},
		{"tick": 0, "cmd": "noteOn", "chan": 0, "value": 60}
	]
}`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(testSong))
	assert.NoError(t, err)

	assert.Equal(t, "test", s.Name)
	assert.Equal(t, ChipES5506, s.Chip)
	assert.Equal(t, 8, s.Voices)
	assert.Equal(t, 60.0, s.TickRate)
	assert.Len(t, s.Instruments, 2)
	assert.Len(t, s.Samples, 2)

	lead := s.Instrument(0)
	assert.Equal(t, 1, lead.InitSample)
	assert.Equal(t, macro.ArpFixed, lead.Macros.ArpMode)
	assert.Equal(t, 3, lead.Macros.Curves[macro.Vol].Len)
	assert.Equal(t, 1, lead.Macros.Curves[macro.Vol].Loop)
	assert.Equal(t, -1, lead.Macros.Curves[macro.Vol].Rel)
	assert.Equal(t, 1, lead.Macros.Curves[macro.Arp].Rel)
	assert.Equal(t, 0, lead.Macros.Curves[macro.Duty].Len)
	assert.Equal(t, 3, lead.Filter.Mode)

	pad := s.Instrument(1)
	assert.True(t, pad.TransWave.Enable)
	assert.Len(t, pad.TransWave.Slots, 2)
	assert.Equal(t, 12.0, pad.TransWave.Slots[0].LoopEnd)
	assert.Equal(t, 16777216.0, pad.TransWave.Slots[1].LoopEnd)
	assert.Equal(t, 0xFFFF, pad.Filter.K1)

	// events are ordered by tick
	assert.Equal(t, "noteOn", s.Events[0].Cmd)
	assert.Equal(t, 4, s.Length())
}

func TestParse_SamplesLaidOut(t *testing.T) {
	s, err := Parse([]byte(testSong))
	assert.NoError(t, err)

	sq := s.Sample(0)
	raw := s.Sample(1)
	assert.Equal(t, 32, sq.Length())
	assert.Equal(t, uint32(0), sq.Offset)
	assert.Equal(t, uint32(64), raw.Offset)
	assert.Equal(t, LoopPingPong, raw.LoopMode)
	assert.False(t, raw.Looped())

	mem := s.Memory()
	assert.Equal(t, sq.Data[0], mem.ReadSample(0, 0))
	assert.Equal(t, int16(3), mem.ReadSample(0, 32+2))
	assert.Equal(t, int16(0), mem.ReadSample(0, 5000))
	assert.Equal(t, int16(0), mem.ReadSample(2, 0))
}

func TestInstrument_OutOfRange(t *testing.T) {
	s := &Song{}
	ins := s.Instrument(7)
	assert.True(t, ins == DefaultInstrument())
	assert.Equal(t, 0xFFFF, ins.Filter.K2)
	assert.True(t, s.Sample(-1) == nil)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/songs/a.json", []byte(testSong), 0o644))

	s, err := Load(fs, "/songs/a.json")
	assert.NoError(t, err)
	assert.Equal(t, "test", s.Name)

	_, err = Load(fs, "/songs/missing.json")
	assert.Error(t, err)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"bad json", `{`, "decoding song"},
		{"unknown macro", `{"instruments":[{"macros":{"bogus":{"values":[1]}}}],"events":[{"cmd":"noteOn"}]}`, "unknown macro"},
		{"bad loop", `{"instruments":[{"macros":{"vol":{"values":[1],"loop":300}}}],"events":[{"cmd":"noteOn"}]}`, "loop 300"},
		{"bad chip", `{"chip":"sid","events":[{"cmd":"noteOn"}]}`, "unsupported chip"},
		{"bad wave", `{"samples":[{"wave":"noise","period":4}],"events":[{"cmd":"noteOn"}]}`, "unknown waveform"},
		{"bad loop mode", `{"samples":[{"data":[1],"loopMode":"sideways"}],"events":[{"cmd":"noteOn"}]}`, "unknown loop mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParse_NoEvents(t *testing.T) {
	_, err := Parse([]byte(`{"name":"empty"}`))
	assert.True(t, errors.Is(err, ErrNoEvents))
}

func TestLayout_BankBoundary(t *testing.T) {
	big := &Sample{Data: make([]int16, bankWords-10)}
	next := &Sample{Data: make([]int16, 100)}
	next.Data[0] = 42

	mem, err := Layout([]*Sample{big, next})
	assert.NoError(t, err)
	assert.Equal(t, uint32(0), big.Bank())
	assert.Equal(t, uint32(1), next.Bank())
	assert.Equal(t, uint32(bankBytes), next.Offset)
	assert.Equal(t, int16(42), mem.ReadSample(1, 0))
}
