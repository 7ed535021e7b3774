// Package config handles player configuration and logger setup.
package config

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// Defaults for Options.
const (
	DefaultSeconds  = 30.0
	DefaultVolume   = 1.0
	DefaultCutoffHz = 0.0
)

// ErrNoSongs is returned when no song file was given.
var ErrNoSongs = errors.New("no song file given")

// Options holds the player settings taken from the command line.
type Options struct {
	Songs   []string
	WAV     string // output file, or directory when several songs are given
	Seconds float64
	Play    bool
	Dump    string
	Inject  string
	Voices  int // overrides the song's voice count when non-zero
	Volume  float64

	// CutoffHz enables an output low-pass filter when positive.
	CutoffHz float64

	Debug bool
	Quiet bool
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	return Options{
		Seconds:  DefaultSeconds,
		Volume:   DefaultVolume,
		CutoffHz: DefaultCutoffHz,
	}
}

// Validate checks option combinations.
func (o *Options) Validate() error {
	if len(o.Songs) == 0 {
		return ErrNoSongs
	}
	if o.WAV == "" && !o.Play && o.Dump == "" {
		return errors.New("nothing to do: give -wav, -dump or -play")
	}
	if o.Play && len(o.Songs) > 1 {
		return errors.New("-play takes a single song")
	}
	if o.Seconds <= 0 {
		return fmt.Errorf("invalid duration %v", o.Seconds)
	}
	if o.Voices != 0 && (o.Voices < 4 || o.Voices > 32) {
		return fmt.Errorf("voice count %d out of range 4-32", o.Voices)
	}
	if o.Volume < 0 || o.Volume > 1 {
		return fmt.Errorf("volume %v out of range 0-1", o.Volume)
	}
	return nil
}

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
