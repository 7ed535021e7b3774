package song

import "github.com/user-none/emes/macro"

// Slice is one transwave table entry: a sample and the loop window
// played inside it, in sample words.
type Slice struct {
	Index     int
	LoopStart int
	LoopEnd   float64
}

// TransWave describes a chain of sample slices switched at loop boundaries.
type TransWave struct {
	Enable bool
	Init   int // first sample of the chain, -1 for none
	Slots  []Slice
}

// Filter holds the default filter coefficients of an instrument.
type Filter struct {
	K1   int
	K2   int
	Mode int // 0-3, selects the LP3/LP4 filter topology
}

// Envelope holds the default coefficient ramp settings of an instrument.
type Envelope struct {
	Count  int // ramp length in samples, 9 bits
	K1Ramp int
	K2Ramp int
	K1Slow bool
	K2Slow bool
}

// Instrument is a sample instrument with its macro set.
type Instrument struct {
	Name       string
	Macros     *macro.Set
	InitSample int // sample played when transwave is off, -1 for none
	TransWave  TransWave
	Filter     Filter
	Envelope   Envelope
}

// NewInstrument returns an instrument with the chip's power-on defaults:
// filter fully open, no transwave, sample 0.
func NewInstrument(name string) *Instrument {
	return &Instrument{
		Name:       name,
		Macros:     macro.NewSet(),
		InitSample: 0,
		TransWave: TransWave{
			Init:  -1,
			Slots: []Slice{{Index: -1, LoopEnd: 16777216}},
		},
		Filter: Filter{K1: 0xFFFF, K2: 0xFFFF, Mode: 3},
	}
}

// defaultInstrument is returned for out of range instrument lookups.
var defaultInstrument = NewInstrument("default")

// DefaultInstrument returns the shared instrument used for missing references.
func DefaultInstrument() *Instrument { return defaultInstrument }
