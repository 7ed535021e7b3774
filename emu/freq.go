package emu

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// refRate is the sample rate (Hz) at which a sample with no explicit
// rate plays back at C-4.
const refRate = 8363

// c4 is the note number of middle C.
const c4 = 60

// freqCacheSize covers the full note range several times over.
const freqCacheSize = 512

var noteFreqCache, _ = lru.New[int, int](freqCacheSize)

// noteFrequency returns the base frequency of note in 1/16 Hz units,
// relative to refRate at C-4.
func noteFrequency(note int) int {
	if f, ok := noteFreqCache.Get(note); ok {
		return f
	}
	f := int(math.Round(refRate * 16 * math.Pow(2, float64(note-c4)/12)))
	noteFreqCache.Add(note, f)
	return f
}

// pitchScale applies a fine pitch offset in 1/128 semitone steps.
func pitchScale(base float64, pitch int) float64 {
	if pitch == 0 {
		return base
	}
	return base * math.Pow(2, float64(pitch)/1536)
}

// rateRatio returns the playback speed of a sample relative to refRate.
func rateRatio(rate int) float64 {
	if rate < 1 {
		return 1
	}
	return float64(rate) / refRate
}
