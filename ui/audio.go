// Package ui provides live audio output and playback control.
package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// SampleRate is the output rate of the audio device in Hz.
const SampleRate = 48000

// ringFrames is ~340ms at 48kHz.
const ringFrames = 16384

// playerBufferBytes is oto's internal buffer, 100ms of stereo 16-bit audio.
const playerBufferBytes = SampleRate / 10 * bytesPerFrame

// AudioPlayer plays interleaved stereo frames through oto. Frames are
// queued in a FrameRing which oto's player pulls from.
type AudioPlayer struct {
	player *oto.Player
	ring   *FrameRing
}

// oto context singleton
var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
)

// ensureOtoContext initializes the oto audio context on first use.
func ensureOtoContext() (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-readyChan
	})
	return otoCtx, otoInitErr
}

// NewAudioPlayer opens the audio device and starts playback at volume
// (0.0 silent, 1.0 full).
func NewAudioPlayer(volume float64) (*AudioPlayer, error) {
	ctx, err := ensureOtoContext()
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	ring := NewFrameRing(ringFrames)
	player := ctx.NewPlayer(ring)
	player.SetBufferSize(playerBufferBytes)
	player.SetVolume(volume)
	player.Play()

	return &AudioPlayer{player: player, ring: ring}, nil
}

// Queue adds interleaved stereo samples to the playback queue.
func (a *AudioPlayer) Queue(samples []int16) {
	a.ring.Write(samples)
}

// Buffered returns the bytes of audio waiting to be heard, both queued
// and inside oto's player. Used for audio driven pacing.
func (a *AudioPlayer) Buffered() int {
	return a.ring.Buffered() + a.player.BufferedSize()
}

// Dropped returns the number of frames lost because the queue was full.
func (a *AudioPlayer) Dropped() uint64 {
	return a.ring.Dropped()
}

// Pause stops the device pulling frames. Queued frames are kept.
func (a *AudioPlayer) Pause() {
	a.player.Pause()
}

// Resume restarts a paused player.
func (a *AudioPlayer) Resume() {
	a.player.Play()
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = full).
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(vol)
}

// Close stops playback and releases the player.
func (a *AudioPlayer) Close() {
	if a.ring != nil {
		a.ring.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
}
