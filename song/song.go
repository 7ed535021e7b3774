// Package song holds instruments, samples and the timed command list
// that drive a dispatch engine, and loads them from JSON song files.
package song

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/afero"
	"github.com/user-none/emes/macro"
)

var (
	// ErrNoEvents is returned for a song without any commands.
	ErrNoEvents = errors.New("song has no events")
	// ErrMemoryFull is returned when samples do not fit in chip memory.
	ErrMemoryFull = errors.New("sample memory full")
)

// Chip names accepted in song files.
const (
	ChipES5506  = "es5506"
	ChipSN76489 = "sn76489"
)

// Event is one player command scheduled on a musical tick.
type Event struct {
	Tick   int
	Cmd    string
	Chan   int
	Value  int
	Value2 int
}

// Song is a fully loaded song: instruments, laid out samples and events
// sorted by tick.
type Song struct {
	Name     string
	Chip     string
	Voices   int
	TickRate float64 // musical ticks per second

	// ResetMacroOnPorta rebinds macros when a portamento starts on a held note.
	ResetMacroOnPorta bool

	Instruments []*Instrument
	Samples     []*Sample
	Events      []Event

	mem *Memory
}

// Instrument returns instrument i, or the shared default when i is out of range.
func (s *Song) Instrument(i int) *Instrument {
	if i < 0 || i >= len(s.Instruments) {
		return defaultInstrument
	}
	return s.Instruments[i]
}

// Sample returns sample i, or nil when i is out of range.
func (s *Song) Sample(i int) *Sample {
	if i < 0 || i >= len(s.Samples) {
		return nil
	}
	return s.Samples[i]
}

// SampleCount returns the number of samples in the song.
func (s *Song) SampleCount() int { return len(s.Samples) }

// InstrumentIndex returns the index of ins, or -1.
func (s *Song) InstrumentIndex(ins *Instrument) int {
	for i, v := range s.Instruments {
		if v == ins {
			return i
		}
	}
	return -1
}

// Memory returns the sample memory image built by Prepare.
func (s *Song) Memory() *Memory { return s.mem }

// Length returns the tick of the last event.
func (s *Song) Length() int {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].Tick
}

// Prepare validates the song, orders its events and lays out sample memory.
// Songs built in code must call it before playback.
func (s *Song) Prepare() error {
	if s.Voices == 0 {
		s.Voices = 32
	}
	if s.TickRate <= 0 {
		s.TickRate = 60
	}
	if s.Chip == "" {
		s.Chip = ChipES5506
	}
	if s.Chip != ChipES5506 && s.Chip != ChipSN76489 {
		return fmt.Errorf("unsupported chip %q", s.Chip)
	}
	for i, ins := range s.Instruments {
		if ins.Macros == nil {
			ins.Macros = macro.NewSet()
		}
		if err := ins.Macros.Validate(); err != nil {
			return fmt.Errorf("instrument %d (%s): %w", i, ins.Name, err)
		}
	}
	if len(s.Events) == 0 {
		return ErrNoEvents
	}
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].Tick < s.Events[j].Tick })

	mem, err := Layout(s.Samples)
	if err != nil {
		return err
	}
	s.mem = mem
	return nil
}

// Load reads and prepares a JSON song file.
func Load(fs afero.Fs, path string) (*Song, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading song file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and prepares a JSON song.
func Parse(data []byte) (*Song, error) {
	var f songFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding song: %w", err)
	}
	s, err := f.toSong()
	if err != nil {
		return nil, err
	}
	if err := s.Prepare(); err != nil {
		return nil, err
	}
	return s, nil
}

type curveFile struct {
	Values []int `json:"values"`
	Loop   *int  `json:"loop"`
	Rel    *int  `json:"rel"`
}

func (c curveFile) toCurve() (macro.Curve, error) {
	if len(c.Values) > macro.MaxLen {
		return macro.Curve{}, fmt.Errorf("%w: %d values", macro.ErrBadCurve, len(c.Values))
	}
	loop, rel := -1, -1
	if c.Loop != nil {
		loop = *c.Loop
	}
	if c.Rel != nil {
		rel = *c.Rel
	}
	return macro.NewCurve(c.Values, loop, rel), nil
}

type instrumentFile struct {
	Name       string               `json:"name"`
	InitSample *int                 `json:"sample"`
	Macros     map[string]curveFile `json:"macros"`
	ArpFixed   bool                 `json:"arpFixed"`
	K1Offset   bool                 `json:"k1Offset"`
	K2Offset   bool                 `json:"k2Offset"`
	TransWave  *struct {
		Init  int `json:"init"`
		Slots []struct {
			Index     int      `json:"index"`
			LoopStart int      `json:"loopStart"`
			LoopEnd   *float64 `json:"loopEnd"`
		} `json:"slots"`
	} `json:"transwave"`
	Filter *struct {
		K1   int `json:"k1"`
		K2   int `json:"k2"`
		Mode int `json:"mode"`
	} `json:"filter"`
	Envelope *struct {
		Count  int  `json:"count"`
		K1Ramp int  `json:"k1Ramp"`
		K2Ramp int  `json:"k2Ramp"`
		K1Slow bool `json:"k1Slow"`
		K2Slow bool `json:"k2Slow"`
	} `json:"envelope"`
}

func (f instrumentFile) toInstrument() (*Instrument, error) {
	ins := NewInstrument(f.Name)
	if f.InitSample != nil {
		ins.InitSample = *f.InitSample
	}
	for name, cf := range f.Macros {
		k, ok := macro.KindByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown macro %q", name)
		}
		c, err := cf.toCurve()
		if err != nil {
			return nil, fmt.Errorf("macro %s: %w", name, err)
		}
		ins.Macros.Curves[k] = c
	}
	if f.ArpFixed {
		ins.Macros.ArpMode = macro.ArpFixed
	}
	if f.K1Offset {
		ins.Macros.Ex1Mode = macro.ValueOffset
	}
	if f.K2Offset {
		ins.Macros.Ex2Mode = macro.ValueOffset
	}
	if tw := f.TransWave; tw != nil {
		ins.TransWave.Enable = true
		ins.TransWave.Init = tw.Init
		ins.TransWave.Slots = ins.TransWave.Slots[:0]
		for _, sl := range tw.Slots {
			end := 16777216.0
			if sl.LoopEnd != nil {
				end = *sl.LoopEnd
			}
			ins.TransWave.Slots = append(ins.TransWave.Slots, Slice{Index: sl.Index, LoopStart: sl.LoopStart, LoopEnd: end})
		}
	}
	if fl := f.Filter; fl != nil {
		ins.Filter = Filter{K1: fl.K1, K2: fl.K2, Mode: fl.Mode & 3}
	}
	if e := f.Envelope; e != nil {
		ins.Envelope = Envelope{Count: e.Count, K1Ramp: e.K1Ramp, K2Ramp: e.K2Ramp, K1Slow: e.K1Slow, K2Slow: e.K2Slow}
	}
	return ins, nil
}

type sampleFile struct {
	Name      string  `json:"name"`
	Data      []int16 `json:"data"`
	Wave      string  `json:"wave"`
	Period    int     `json:"period"`
	Cycles    int     `json:"cycles"`
	Amplitude float64 `json:"amplitude"`
	Rate      int     `json:"rate"`
	LoopStart *int    `json:"loopStart"`
	LoopMode  string  `json:"loopMode"`
}

func (f sampleFile) toSample() (*Sample, error) {
	s := &Sample{Name: f.Name, Data: f.Data, Rate: f.Rate, LoopStart: -1}
	if f.LoopStart != nil {
		s.LoopStart = *f.LoopStart
	}
	mode, err := ParseLoopMode(f.LoopMode)
	if err != nil {
		return nil, err
	}
	s.LoopMode = mode
	if len(s.Data) == 0 && f.Wave != "" {
		data, err := synthesize(f.Wave, f.Period, f.Cycles, f.Amplitude)
		if err != nil {
			return nil, err
		}
		s.Data = data
	}
	return s, nil
}

type songFile struct {
	Name              string           `json:"name"`
	Chip              string           `json:"chip"`
	Voices            int              `json:"voices"`
	TickRate          float64          `json:"tickRate"`
	ResetMacroOnPorta bool             `json:"resetMacroOnPorta"`
	Instruments       []instrumentFile `json:"instruments"`
	Samples           []sampleFile     `json:"samples"`
	Events            []struct {
		Tick   int    `json:"tick"`
		Cmd    string `json:"cmd"`
		Chan   int    `json:"chan"`
		Value  int    `json:"value"`
		Value2 int    `json:"value2"`
	} `json:"events"`
}

func (f *songFile) toSong() (*Song, error) {
	s := &Song{
		Name:              f.Name,
		Chip:              f.Chip,
		Voices:            f.Voices,
		TickRate:          f.TickRate,
		ResetMacroOnPorta: f.ResetMacroOnPorta,
	}
	for i, inf := range f.Instruments {
		ins, err := inf.toInstrument()
		if err != nil {
			return nil, fmt.Errorf("instrument %d: %w", i, err)
		}
		s.Instruments = append(s.Instruments, ins)
	}
	for i, sf := range f.Samples {
		smp, err := sf.toSample()
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		s.Samples = append(s.Samples, smp)
	}
	for _, e := range f.Events {
		s.Events = append(s.Events, Event{Tick: e.Tick, Cmd: e.Cmd, Chan: e.Chan, Value: e.Value, Value2: e.Value2})
	}
	return s, nil
}
