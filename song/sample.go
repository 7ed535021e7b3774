package song

import (
	"fmt"
	"math"
)

// LoopMode selects how a looped sample repeats.
type LoopMode uint8

// Loop modes.
const (
	LoopForward LoopMode = iota
	LoopBackward
	LoopPingPong
)

// ParseLoopMode maps a song file loop mode name to its value.
func ParseLoopMode(s string) (LoopMode, error) {
	switch s {
	case "", "forward":
		return LoopForward, nil
	case "backward":
		return LoopBackward, nil
	case "pingpong":
		return LoopPingPong, nil
	}
	return 0, fmt.Errorf("unknown loop mode %q", s)
}

// Sample is one 16-bit PCM sample.
type Sample struct {
	Name string
	Data []int16

	// Rate is the playback rate (Hz) at which the sample sounds at C-4.
	// Zero selects the reference rate.
	Rate      int
	LoopStart int // -1 when the sample does not loop
	LoopMode  LoopMode

	// Offset is the byte address of the sample within chip sample memory,
	// assigned by Memory.Layout. Bits 22-23 select the bank.
	Offset uint32
}

// Length returns the sample length in 16-bit words.
func (s *Sample) Length() int { return len(s.Data) }

// Looped reports whether the sample has a loop point.
func (s *Sample) Looped() bool { return s.LoopStart >= 0 && s.LoopStart < len(s.Data) }

// Bank returns the sample memory bank holding the sample.
func (s *Sample) Bank() uint32 { return (s.Offset >> 22) & 3 }

// synthesize fills Data with one of the built-in test waveforms.
func synthesize(shape string, period, cycles int, amp float64) ([]int16, error) {
	if period <= 0 {
		return nil, fmt.Errorf("waveform %q: period must be positive", shape)
	}
	if cycles <= 0 {
		cycles = 1
	}
	if amp <= 0 || amp > 1 {
		amp = 0.5
	}
	out := make([]int16, period*cycles)
	for i := range out {
		ph := float64(i%period) / float64(period)
		var v float64
		switch shape {
		case "sine":
			v = math.Sin(2 * math.Pi * ph)
		case "square":
			v = 1
			if ph >= 0.5 {
				v = -1
			}
		case "saw":
			v = 2*ph - 1
		case "triangle":
			v = 4*math.Abs(ph-0.5) - 1
		default:
			return nil, fmt.Errorf("unknown waveform %q", shape)
		}
		out[i] = int16(math.Round(v * amp * 32767))
	}
	return out, nil
}

// Memory is the chip sample memory image: four banks of 2M 16-bit words.
type Memory struct {
	banks [4][]int16
}

const (
	bankWords = 1 << 21
	bankBytes = bankWords * 2
)

// Layout assigns each sample a word aligned offset and copies its data
// into a new memory image. A sample never straddles a bank boundary.
func Layout(samples []*Sample) (*Memory, error) {
	m := &Memory{}
	var addr uint32 // byte address
	for i, s := range samples {
		size := uint32(len(s.Data)) * 2
		if size > bankBytes {
			return nil, fmt.Errorf("sample %d (%s): %d words exceeds a bank", i, s.Name, len(s.Data))
		}
		bank := addr / bankBytes
		if (addr%bankBytes)+size > bankBytes {
			bank++
			addr = bank * bankBytes
		}
		if bank > 3 {
			return nil, fmt.Errorf("sample %d (%s): %w", i, s.Name, ErrMemoryFull)
		}
		s.Offset = addr
		base := int(addr%bankBytes) / 2
		if need := base + len(s.Data); need > len(m.banks[bank]) {
			grown := make([]int16, need)
			copy(grown, m.banks[bank])
			m.banks[bank] = grown
		}
		copy(m.banks[bank][base:], s.Data)
		addr += size
	}
	return m, nil
}

// ReadSample returns the word at addr in bank. Unpopulated memory reads as zero.
func (m *Memory) ReadSample(bank uint8, addr uint32) int16 {
	if m == nil {
		return 0
	}
	b := m.banks[bank&3]
	addr &= bankWords - 1
	if int(addr) >= len(b) {
		return 0
	}
	return b[addr]
}
